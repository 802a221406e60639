package cmd

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brouwer-lang/brouwer/formatter"
	"github.com/brouwer-lang/brouwer/internal"
)

// scripted answers prompts from a fixed list, then reports end of input.
type scripted struct {
	lines   []any
	prompts []string
}

func (s *scripted) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	next := s.lines[0]
	s.lines = s.lines[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

func newTestRepl(t *testing.T, lines ...any) (*repl, *scripted, *bytes.Buffer) {
	t.Helper()
	engine, err := internal.NewEngine(t.TempDir())
	require.NoError(t, err)
	in := &scripted{lines: lines}
	out := &bytes.Buffer{}
	return &repl{in: in, out: out, engine: engine, format: formatter.FormatSExpr}, in, out
}

func TestReplEvaluatesLines(t *testing.T) {
	t.Parallel()
	var history []string
	r, _, out := newTestRepl(t, "x = 1", ":format tree", "y = 2", ":quit", "z = 3")
	r.history = func(s string) { history = append(history, s) }

	require.NoError(t, r.run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "(line (expr (subexpr (assign")
	assert.Contains(t, got, "└─ ")
	assert.NotContains(t, got, `"z"`)
	assert.Equal(t, []string{"x = 1", "y = 2"}, history)
}

func TestReplContinuesIncompleteInput(t *testing.T) {
	t.Parallel()
	r, in, out := newTestRepl(t, "fn f", "  a")

	require.NoError(t, r.run(context.Background()))

	assert.Equal(t, []string{replPrompt, replContinue, replPrompt}, in.prompts)
	assert.Contains(t, out.String(), "(line (expr (subexpr (fnDecl")
}

func TestReplReportsErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		lines []any
		want  []string
	}{
		{
			name:  "syntax error on the snippet line",
			lines: []any{"x = (1,)"},
			want:  []string{"<repl>:1:8", "expected 0 or at least 2 elements in tuple"},
		},
		{
			name:  "empty line ends continuation",
			lines: []any{"fn f", ""},
			want:  []string{"improper indentation after header"},
		},
		{
			name:  "end of input ends continuation",
			lines: []any{"fn f"},
			want:  []string{"improper indentation after header"},
		},
		{
			name:  "unknown command",
			lines: []any{":bogus"},
			want:  []string{"unknown command :bogus"},
		},
		{
			name:  "bad format",
			lines: []any{":format xml"},
			want:  []string{`unknown output format "xml"`},
		},
		{
			name:  "help",
			lines: []any{":help"},
			want:  []string{":quit"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _, out := newTestRepl(t, tt.lines...)
			require.NoError(t, r.run(context.Background()))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestReplAbortDropsPendingInput(t *testing.T) {
	t.Parallel()
	r, in, out := newTestRepl(t, "fn f", liner.ErrPromptAborted, "x = 1")

	require.NoError(t, r.run(context.Background()))

	assert.Equal(t, []string{replPrompt, replContinue, replPrompt, replPrompt}, in.prompts)
	assert.Contains(t, out.String(), "(assign")
	assert.NotContains(t, out.String(), "fnDecl")
}

func TestReplStopsOnCancelledContext(t *testing.T) {
	t.Parallel()
	r, in, _ := newTestRepl(t, "x = 1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.run(ctx))
	assert.Empty(t, in.prompts)
}
