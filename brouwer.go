// Package brouwer parses brouwer source text into tagged syntax trees.
//
// A parse either yields a tree rooted at a node tagged TagRoot or fails with
// a *SyntaxError (malformed input, with a line and column) or an
// *InternalError (a defect in the parser). Errors from the underlying
// reader are returned wrapped.
//
//	root, err := brouwer.ParseString("module Main\nx = 1\n")
//	if err != nil {
//		// handle error
//	}
//	root.Walk(func(n *brouwer.Node, depth int) bool {
//		fmt.Println(strings.Repeat("  ", depth), n.Tag())
//		return true
//	})
package brouwer

import (
	"io"

	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/internal/parser"
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

type (
	// Node is a syntax tree node.
	Node = tree.Node
	// Tag identifies the kind of a Node.
	Tag = token.Tag
	// SyntaxError reports malformed input.
	SyntaxError = parser.SyntaxError
	// InternalError reports a defect in the parser.
	InternalError = parser.InternalError
)

// Tags of the nodes every tree starts with.
const (
	TagRoot = token.Root
	TagProg = token.Prog
)

// Option configures a parse.
type Option = parser.Option

// WithLogger traces backtracking at debug level.
func WithLogger(logger *zap.Logger) Option {
	return parser.WithLogger(logger)
}

// WithFilename names the source in syntax errors.
func WithFilename(name string) Option {
	return parser.WithFilename(name)
}

// Parse reads a complete source file from r.
func Parse(r io.Reader, opts ...Option) (*Node, error) {
	return parser.New(r, opts...).Parse()
}

// ParseString parses src as a complete source file.
func ParseString(src string, opts ...Option) (*Node, error) {
	return parser.ParseString(src, opts...)
}

// ParseFile opens, parses and closes the named file.
func ParseFile(filename string, opts ...Option) (*Node, error) {
	return parser.ParseFile(filename, opts...)
}

// LookupTag returns the tag with the given name, as printed by Tag.String.
func LookupTag(name string) (Tag, bool) {
	return token.Lookup(name)
}

// IsSyntaxError reports whether err is, or wraps, a *SyntaxError.
func IsSyntaxError(err error) bool {
	return parser.IsSyntaxError(err)
}

// IsInternalError reports whether err is, or wraps, an *InternalError.
func IsInternalError(err error) bool {
	return parser.IsInternalError(err)
}
