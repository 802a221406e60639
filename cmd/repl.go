package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/formatter"
	"github.com/brouwer-lang/brouwer/internal"
	"github.com/brouwer-lang/brouwer/internal/token"
	tt "github.com/brouwer-lang/brouwer/internal/types"
)

const (
	replPrompt     = "bw> "
	replContinue   = "... "
	replFilename   = "<repl>"
	replHeader     = "module Repl\n"
	replHistory    = ".brouwer_history"
	replHeaderRows = 1
)

var replHelp = `:format tree|sexpr|json  change the tree format
:help                    show this help
:quit                    leave the repl
A line that stops at end of input continues on the next prompt; an empty
line gives up and shows the error.
`

// prompter reads one line of input. *liner.State implements it.
type prompter interface {
	Prompt(prompt string) (string, error)
}

func newReplCmd(o *options) *cobra.Command {
	var format string
	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Parse brouwer lines interactively and print their trees",
		Args:  cobra.NoArgs,
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

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)

			histPath := historyPath()
			if histPath != "" {
				if file, err := os.Open(histPath); err == nil {
					_, _ = ln.ReadHistory(file)
					file.Close()
				}
				defer func() {
					if file, err := os.Create(histPath); err == nil {
						_, _ = ln.WriteHistory(file)
						file.Close()
					} else {
						o.logger.Warn("cannot save repl history", zap.String("file", histPath), zap.Error(err))
					}
				}()
			}

			r := &repl{
				in:      ln,
				out:     cmd.OutOrStdout(),
				engine:  engine,
				format:  f,
				history: ln.AppendHistory,
			}
			return r.run(cmd.Context())
		},
	}
	replCmd.Flags().StringVarP(&format, "format", "f", "", "Tree format: tree, sexpr or json (default from config)")
	return replCmd
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, replHistory)
}

// repl reads snippets, parses each one as the body of a module and prints
// the resulting lines or diagnostics.
type repl struct {
	in      prompter
	out     io.Writer
	engine  *internal.Engine
	format  formatter.Format
	history func(string)
}

func (r *repl) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		snippet, ok, err := r.read()
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}

		trimmed := strings.TrimSpace(snippet)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if quit := r.command(trimmed); quit {
				return nil
			}
			continue
		}

		if r.history != nil {
			r.history(strings.ReplaceAll(snippet, "\n", " "))
		}
		if err := r.eval(snippet); err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
	}
}

// read collects one snippet. Lines are appended while the snippet fails to
// parse only because the input ran out.
func (r *repl) read() (string, bool, error) {
	var lines []string
	for {
		prompt := replPrompt
		if len(lines) > 0 {
			prompt = replContinue
		}

		line, err := r.in.Prompt(prompt)
		switch {
		case errors.Is(err, io.EOF):
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), true, nil
			}
			return "", false, nil
		case errors.Is(err, liner.ErrPromptAborted):
			lines = nil
			continue
		case err != nil:
			return "", false, err
		}

		if len(lines) > 0 && strings.TrimSpace(line) == "" {
			return strings.Join(lines, "\n"), true, nil
		}
		lines = append(lines, line)

		snippet := strings.Join(lines, "\n")
		if strings.HasPrefix(strings.TrimSpace(snippet), ":") {
			return snippet, true, nil
		}
		if !r.incomplete(snippet, len(lines)) {
			return snippet, true, nil
		}
	}
}

// incomplete reports whether snippet fails at the very end of the input.
func (r *repl) incomplete(snippet string, rows int) bool {
	_, diags, err := r.engine.ParseSource(replFilename, []byte(replHeader+snippet+"\n"))
	if err != nil || len(diags) == 0 {
		return false
	}
	return diags[0].Kind == tt.KindSyntax && diags[0].Start.Line > replHeaderRows+rows
}

func (r *repl) command(cmd string) bool {
	fields := strings.Fields(cmd)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprint(r.out, replHelp)
	case ":format":
		if len(fields) != 2 {
			fmt.Fprintf(r.out, "format: %s\n", r.format)
			break
		}
		f, err := formatter.ParseFormat(fields[1])
		if err != nil {
			fmt.Fprintln(r.out, color.RedString("%v", err))
			break
		}
		r.format = f
	default:
		fmt.Fprintf(r.out, "unknown command %s. Type :help for help.\n", fields[0])
	}
	return false
}

func (r *repl) eval(snippet string) error {
	root, diags, err := r.engine.ParseSource(replFilename, []byte(replHeader+snippet+"\n"))
	if err != nil {
		return err
	}
	if len(diags) > 0 {
		for i := range diags {
			diags[i].Start.Line = max(diags[i].Start.Line-replHeaderRows, 0)
			diags[i].End.Line = max(diags[i].End.Line-replHeaderRows, 0)
		}
		fmt.Fprint(r.out, formatter.GenerateFormattedDiagnostics(diags, internal.NewSourceCode([]byte(snippet))))
		return nil
	}

	prog := root.Child(0)
	for i := 0; i < prog.ChildCount(); i++ {
		child := prog.Child(i)
		if child.Tag() == token.ModDecl {
			continue
		}
		if err := formatter.WriteTree(r.out, child, r.format); err != nil {
			return err
		}
	}
	return nil
}
