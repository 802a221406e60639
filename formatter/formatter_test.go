package formatter

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brouwer-lang/brouwer/internal"
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
	tt "github.com/brouwer-lang/brouwer/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestGenerateFormattedDiagnostics(t *testing.T) {
	t.Parallel()
	code := &internal.SourceCode{
		Lines: []string{
			"module Main",
			"x = (1,)",
			"fn f",
			"  g (a,)",
			"",
		},
	}

	tests := []struct {
		name     string
		diag     tt.Diagnostic
		expected string
	}{
		{
			name: "top level",
			diag: tt.Diagnostic{
				Kind:     tt.KindSyntax,
				Filename: "demo.bw",
				Message:  "expected 0 or at least 2 elements in tuple",
				Start:    tt.Position{Line: 2, Column: 8},
				End:      tt.Position{Line: 2, Column: 8},
			},
			expected: `error: syntax error
 --> demo.bw:2:8
  |
2 | x = (1,)
  |        ^
  = expected 0 or at least 2 elements in tuple

`,
		},
		{
			name: "indented line",
			diag: tt.Diagnostic{
				Kind:     tt.KindSyntax,
				Filename: "demo.bw",
				Message:  "expected 0 or at least 2 elements in tuple",
				Start:    tt.Position{Line: 4, Column: 8},
				End:      tt.Position{Line: 4, Column: 8},
			},
			expected: `error: syntax error
 --> demo.bw:4:8
  |
4 | g (a,)
  |      ^
  = expected 0 or at least 2 elements in tuple

`,
		},
		{
			name: "past end of line",
			diag: tt.Diagnostic{
				Kind:     tt.KindSyntax,
				Filename: "demo.bw",
				Message:  "improper indentation after header",
				Start:    tt.Position{Line: 3, Column: 5},
			},
			expected: `error: syntax error
 --> demo.bw:3:5
  |
3 | fn f
  |     ^
  = improper indentation after header

`,
		},
		{
			name: "no position",
			diag: tt.Diagnostic{
				Kind:     tt.KindIO,
				Filename: "gone.bw",
				Message:  "permission denied",
			},
			expected: `error: io error
 --> gone.bw
  = permission denied

`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := GenerateFormattedDiagnostics([]tt.Diagnostic{tc.diag}, code)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestGenerateFormattedDiagnosticsWithoutSource(t *testing.T) {
	t.Parallel()
	diag := tt.Diagnostic{
		Kind:     tt.KindSyntax,
		Filename: "x.bw",
		Message:  "unexpected end of input",
		Start:    tt.Position{Line: 12, Column: 1},
	}
	expected := `error: syntax error
  --> x.bw:12:1
   = unexpected end of input

`
	assert.Equal(t, expected, GenerateFormattedDiagnostics([]tt.Diagnostic{diag}, nil))
}

func TestCalculateVisualColumn(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line   string
		column int
		want   int
	}{
		{"abc", 1, 0},
		{"abc", 3, 2},
		{"abc", 4, 3},
		{"abc", 6, 5},
		{"\tx", 2, 8},
		{"a\tx", 3, 8},
		{"λx", 2, 1},
		{"abc", -1, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, calculateVisualColumn(tc.line, tc.column), "%q col %d", tc.line, tc.column)
	}
}

func TestFindCommonIndent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		lines []string
		want  string
	}{
		{nil, ""},
		{[]string{"    a", "  b"}, "  "},
		{[]string{"    a", "", "    b"}, "    "},
		{[]string{"\ta", "  b"}, ""},
		{[]string{"a", "  b"}, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, findCommonIndent(tc.lines), "%q", tc.lines)
	}
}

func sampleTree() *tree.Node {
	return tree.New(token.Root,
		tree.New(token.Prog,
			tree.New(token.ModDecl,
				tree.Leaf(token.ModuleKeyword, "module"),
				tree.New(token.NamespacedIdent, tree.Leaf(token.Ident, "Main")),
			),
			tree.New(token.Line,
				tree.New(token.Expr,
					tree.New(token.Subexpr,
						tree.New(token.QualIdent, tree.Leaf(token.Ident, "x")),
					),
				),
			),
		),
	)
}

func TestOutline(t *testing.T) {
	t.Parallel()
	expected := `root
└─ prog
   ├─ modDecl
   │  ├─ moduleKeyword "module"
   │  └─ namespacedIdent
   │     └─ ident "Main"
   └─ line
      └─ expr
         └─ subexpr
            └─ qualIdent
               └─ ident "x"
`
	assert.Equal(t, expected, Outline(sampleTree()))
}

func TestWriteTree(t *testing.T) {
	t.Parallel()
	root := sampleTree()

	var buf bytes.Buffer
	require.NoError(t, WriteTree(&buf, root, FormatSExpr))
	assert.Equal(t, root.String()+"\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteTree(&buf, root, FormatJSON))
	var back tree.Node
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, root.String(), back.String())

	buf.Reset()
	require.NoError(t, WriteTree(&buf, root, FormatTree))
	assert.Equal(t, Outline(root), buf.String())

	assert.Error(t, WriteTree(&buf, root, Format("xml")))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"tree", "sexpr", "JSON"} {
		_, err := ParseFormat(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestWriteDiagnosticsJSON(t *testing.T) {
	t.Parallel()
	diags := []tt.Diagnostic{
		{Kind: tt.KindSyntax, Filename: "a.bw", Message: "m1", Start: tt.Position{Line: 1, Column: 2}},
		{Kind: tt.KindIO, Filename: "b.bw", Message: "m2"},
		{Kind: tt.KindSyntax, Filename: "a.bw", Message: "m3"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDiagnosticsJSON(&buf, diags))

	var got map[string][]tt.Diagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got["a.bw"], 2)
	assert.Len(t, got["b.bw"], 1)
	assert.Equal(t, tt.Position{Line: 1, Column: 2}, got["a.bw"][0].Start)
}
