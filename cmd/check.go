package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/check"
	"github.com/brouwer-lang/brouwer/formatter"
	"github.com/brouwer-lang/brouwer/internal"
	tt "github.com/brouwer-lang/brouwer/internal/types"
)

type checkFlags struct {
	ignorePaths string
	jsonOutput  bool
	outPath     string
	noProgress  bool
}

func newCheckCmd(o *options) *cobra.Command {
	f := &checkFlags{}
	checkCmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Parse every source file under the given paths and report failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return runCheck(cmd, o, f, args)
		},
	}

	checkCmd.Flags().StringVar(&f.ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	checkCmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output diagnostics in JSON format")
	checkCmd.Flags().StringVarP(&f.outPath, "output", "o", "", "Output path (when using JSON)")
	checkCmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "Do not draw a progress bar")
	return checkCmd
}

func runCheck(cmd *cobra.Command, o *options, f *checkFlags, paths []string) error {
	engine, _, err := o.engine()
	if err != nil {
		return err
	}

	if f.ignorePaths != "" {
		for _, path := range strings.Split(f.ignorePaths, ",") {
			engine.IgnorePath(strings.TrimSpace(path))
		}
	}

	var progress io.Writer
	if !f.noProgress && !f.jsonOutput {
		progress = cmd.ErrOrStderr()
	}

	return o.runWithTimeout(cmd.Context(), func(ctx context.Context) error {
		diags, err := check.ProcessFiles(ctx, o.logger, engine, paths, progress, check.ProcessFile)
		if err != nil {
			o.logger.Error("Error processing files", zap.Error(err))
			return &ExitError{Code: ExitFailure, Err: err}
		}

		if err := printDiagnostics(cmd.OutOrStdout(), o.logger, diags, f.jsonOutput, f.outPath); err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		return diagnosticsError(diags)
	})
}

func printDiagnostics(w io.Writer, logger *zap.Logger, diags []tt.Diagnostic, isJSON bool, jsonOutput string) error {
	if isJSON {
		if jsonOutput == "" {
			return formatter.WriteDiagnosticsJSON(w, diags)
		}
		f, err := os.Create(jsonOutput)
		if err != nil {
			return fmt.Errorf("create JSON output file: %w", err)
		}
		defer f.Close()
		return formatter.WriteDiagnosticsJSON(f, diags)
	}

	byFile := make(map[string][]tt.Diagnostic)
	for _, d := range diags {
		byFile[d.Filename] = append(byFile[d.Filename], d)
	}
	sortedFiles := make([]string, 0, len(byFile))
	for filename := range byFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	for _, filename := range sortedFiles {
		_, err := io.WriteString(w, formatFileDiagnostics(logger, filename, byFile[filename]))
		if err != nil {
			return err
		}
	}
	return nil
}

func formatFileDiagnostics(logger *zap.Logger, filename string, diags []tt.Diagnostic) string {
	var source *internal.SourceCode
	if filename != "" && !tt.HasKind(diags, tt.KindIO) {
		var err error
		source, err = internal.ReadSourceCode(filename)
		if err != nil {
			logger.Warn("Error reading source file", zap.String("file", filename), zap.Error(err))
		}
	}
	return formatter.GenerateFormattedDiagnostics(diags, source)
}
