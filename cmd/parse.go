package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/brouwer-lang/brouwer/formatter"
	"github.com/brouwer-lang/brouwer/internal"
	tt "github.com/brouwer-lang/brouwer/internal/types"
)

func newParseCmd(o *options) *cobra.Command {
	var format string
	parseCmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse source files and print their syntax trees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, config, err := o.engine()
			if err != nil {
				return err
			}
			if format == "" {
				format = config.Output.Format
			}
			f, err := formatter.ParseFormat(format)
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}

			return o.runWithTimeout(cmd.Context(), func(ctx context.Context) error {
				return parseFiles(ctx, engine, args, f, cmd.OutOrStdout(), cmd.ErrOrStderr(), o)
			})
		},
	}
	parseCmd.Flags().StringVarP(&format, "format", "f", "", "Tree format: tree, sexpr or json (default from config)")
	return parseCmd
}

func parseFiles(ctx context.Context, engine *internal.Engine, files []string, format formatter.Format, out, errOut io.Writer, o *options) error {
	var failed []tt.Diagnostic
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}

		root, diags, err := engine.Parse(file)
		if err != nil {
			diags = []tt.Diagnostic{internal.IOFailure(file, err)}
		}
		if len(diags) > 0 {
			failed = append(failed, diags...)
			fmt.Fprint(errOut, formatFileDiagnostics(o.logger, file, diags))
			continue
		}

		if len(files) > 1 && format == formatter.FormatTree {
			fmt.Fprintf(out, "%s:\n", file)
		}
		if err := formatter.WriteTree(out, root, format); err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
	}
	return diagnosticsError(failed)
}
