package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/check"
)

func newInitCmd(o *options) *cobra.Command {
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfigurationFile(o.cfgFile, force); err != nil {
				o.logger.Error("Error initializing config file", zap.Error(err))
				return &ExitError{Code: ExitFailure, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", o.cfgFile)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return initCmd
}

func initConfigurationFile(configurationPath string, force bool) error {
	if configurationPath == "" {
		configurationPath = check.DefaultConfigFile
	}

	if !force {
		if _, err := os.Stat(configurationPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configurationPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return check.WriteConfig(configurationPath, check.DefaultConfig())
}
