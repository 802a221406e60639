package types

import "fmt"

// Kind classifies why a source file could not be turned into a tree.
type Kind int

const (
	// KindSyntax marks malformed input.
	KindSyntax Kind = iota
	// KindInternal marks a defect in the parser itself.
	KindInternal
	// KindIO marks a file that could not be opened or read.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindInternal:
		return "internal error"
	case KindIO:
		return "io error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Position is a 1-based line and column in a source file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Diagnostic represents a single failure reported for a source file.
type Diagnostic struct {
	Kind     Kind     `json:"kind"`
	Filename string   `json:"filename"`
	Message  string   `json:"message"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
}

func (d Diagnostic) String() string {
	if d.Start.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", d.Filename, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s:%s: %s: %s", d.Filename, d.Start, d.Kind, d.Message)
}

// HasKind reports whether any diagnostic in diags is of kind k.
func HasKind(diags []Diagnostic, k Kind) bool {
	for _, d := range diags {
		if d.Kind == k {
			return true
		}
	}
	return false
}
