package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/brouwer-lang/brouwer/internal/tree"
	tt "github.com/brouwer-lang/brouwer/internal/types"
)

// Format selects how a syntax tree is printed.
type Format string

const (
	// FormatTree draws an indented outline.
	FormatTree Format = "tree"
	// FormatSExpr prints one s-expression per tree.
	FormatSExpr Format = "sexpr"
	// FormatJSON prints the tree as indented JSON.
	FormatJSON Format = "json"
)

var (
	structuralStyle = color.New(color.FgYellow, color.Bold)
	terminalStyle   = color.New(color.FgHiBlue)
	textStyle       = color.New(color.FgCyan)
	guideStyle      = color.New(color.FgHiBlack)
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatTree, FormatSExpr, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want tree, sexpr or json)", name)
	}
}

// WriteTree prints root to w in the given format.
func WriteTree(w io.Writer, root *tree.Node, format Format) error {
	switch format {
	case FormatTree:
		_, err := io.WriteString(w, Outline(root))
		return err
	case FormatSExpr:
		_, err := fmt.Fprintln(w, root.String())
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(root)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Outline draws root and its descendants one per line, joined by box
// drawing guides:
//
//	root
//	└─ prog
//	   ├─ modDecl
//	   │  └─ ...
func Outline(root *tree.Node) string {
	var sb strings.Builder
	writeLabel(&sb, root)
	writeChildren(&sb, root, "")
	return sb.String()
}

func writeChildren(sb *strings.Builder, n *tree.Node, prefix string) {
	count := n.ChildCount()
	for i := 0; i < count; i++ {
		child := n.Child(i)
		last := i == count-1

		branch, next := "├─ ", "│  "
		if last {
			branch, next = "└─ ", "   "
		}
		sb.WriteString(guideStyle.Sprint(prefix + branch))
		writeLabel(sb, child)
		writeChildren(sb, child, prefix+next)
	}
}

func writeLabel(sb *strings.Builder, n *tree.Node) {
	if n.Tag().IsTerminal() {
		sb.WriteString(terminalStyle.Sprint(n.Tag().String()))
		sb.WriteString(" ")
		sb.WriteString(textStyle.Sprintf("%q", n.Text()))
	} else {
		sb.WriteString(structuralStyle.Sprint(n.Tag().String()))
	}
	sb.WriteString("\n")
}

// WriteDiagnosticsJSON writes diags grouped by file name as indented JSON.
func WriteDiagnosticsJSON(w io.Writer, diags []tt.Diagnostic) error {
	byFile := make(map[string][]tt.Diagnostic)
	for _, d := range diags {
		byFile[d.Filename] = append(byFile[d.Filename], d)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(byFile)
}
