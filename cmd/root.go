package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/check"
	"github.com/brouwer-lang/brouwer/internal"
)

const defaultTimeout = 5 * time.Minute

// options carries the persistent flags and the state built from them.
type options struct {
	cfgFile string
	timeout time.Duration
	verbose bool
	noColor bool

	logger *zap.Logger
}

func newRootCmd(o *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:              "brouwer [paths...]",
		Short:            "brouwer - parse and check brouwer source files",
		TraverseChildren: true, // Prioritize subcommands
		SilenceUsage:     true,
		SilenceErrors:    true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.logger != nil {
				_ = o.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			// brouwer [path1 path2 ...] behaves like the check subcommand
			return runCheck(cmd, o, &checkFlags{}, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.cfgFile, "config", check.DefaultConfigFile, "Path to the configuration file")
	flags.DurationVar(&o.timeout, "timeout", defaultTimeout, "Give up after this long")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&o.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(newInitCmd(o))
	rootCmd.AddCommand(newParseCmd(o))
	rootCmd.AddCommand(newCheckCmd(o))
	rootCmd.AddCommand(newWatchCmd(o))
	rootCmd.AddCommand(newReplCmd(o))
	return rootCmd
}

// Execute runs the command line and returns an error whose ExitCode is the
// process exit status.
func Execute() error {
	return newRootCmd(&options{}).Execute()
}

func (o *options) setup() error {
	if o.noColor {
		color.NoColor = true
	}
	if o.logger != nil {
		return nil
	}

	var (
		logger *zap.Logger
		err    error
	)
	if o.verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	o.logger = logger
	return nil
}

// engine builds the checker for the current directory and applies the
// output settings of the loaded configuration.
func (o *options) engine(extra ...internal.EngineOption) (*internal.Engine, check.Config, error) {
	engine, config, err := check.New(".", o.cfgFile, o.logger, extra...)
	if err != nil {
		return nil, config, &ExitError{Code: ExitFailure, Err: err}
	}
	if !config.Output.Color {
		color.NoColor = true
	}
	return engine, config, nil
}

// runWithTimeout runs f, giving up once the timeout elapses. A panic in f
// is re-raised on the calling goroutine.
func (o *options) runWithTimeout(parent context.Context, f func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	defer cancel()

	done := make(chan error, 1)
	panicked := make(chan any, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panicked <- r
			}
		}()
		done <- f(ctx)
	}()

	select {
	case <-ctx.Done():
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("timed out after %s", o.timeout)}
	case err := <-done:
		return err
	case r := <-panicked:
		panic(r)
	}
}
