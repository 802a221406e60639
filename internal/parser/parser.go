// Package parser turns brouwer source text into a tagged syntax tree.
//
// It is a recursive-descent parser working directly on characters. Every
// production either succeeds and returns a node, reports "no match" by
// returning a nil node with the cursor restored to where the production
// started, or fails with a *SyntaxError once it has committed to an
// alternative. Indentation-sensitive blocks are handled inside the
// productions that own them.
package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/internal/cursor"
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// Parser holds the state of a single parse. It is not safe for concurrent
// use; run one Parser per goroutine.
type Parser struct {
	filename string
	cur      *cursor.Cursor
	closer   io.Closer
	logger   *zap.Logger

	// indent is the leading whitespace of the current logical line.
	indent string
	// lineStart is the offset of the first non-blank rune of the current
	// line, as recorded by the last consumed line break.
	lineStart int
	// depth counts open brackets; line breaks inside brackets are blanks.
	depth int
	// stops are reserved operators an enclosing construct consumes itself.
	stops map[string]bool

	used bool
}

type Option func(*Parser)

// WithLogger sets the logger used for backtracking traces.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFilename sets the name reported in syntax errors.
func WithFilename(name string) Option {
	return func(p *Parser) {
		p.filename = name
	}
}

// New returns a parser reading source text from r.
func New(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		cur:       cursor.New(r),
		logger:    zap.NewNop(),
		lineStart: -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open returns a parser reading the named file. The caller must Close it.
func Open(filename string, opts ...Option) (*Parser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	opts = append([]Option{WithFilename(filename)}, opts...)
	p := New(f, opts...)
	p.closer = f
	return p, nil
}

// ParseString parses src as a complete source file.
func ParseString(src string, opts ...Option) (*tree.Node, error) {
	return New(strings.NewReader(src), opts...).Parse()
}

// ParseFile opens, parses and closes the named file.
func ParseFile(filename string, opts ...Option) (*tree.Node, error) {
	p, err := Open(filename, opts...)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse()
}

// Close releases the underlying file, if the parser owns one.
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}

// Parse consumes the whole input and returns a root node with a single prog
// child. A Parser can only be used once.
func (p *Parser) Parse() (*tree.Node, error) {
	if p.used {
		return nil, fmt.Errorf("parser for %q already used", p.filename)
	}
	p.used = true

	root, err := p.parse()
	if rerr := p.cur.Err(); rerr != nil {
		return nil, fmt.Errorf("read source: %w", rerr)
	}
	if err != nil {
		p.logger.Debug("parse failed", zap.String("file", p.filename), zap.Error(err))
		return nil, err
	}
	return root, nil
}

func (p *Parser) parse() (*tree.Node, error) {
	if ch, ok := p.cur.Peek(); ok && isBlank(ch) {
		return nil, p.errorf("source must not start with leading whitespace")
	}
	p.skipLines()
	if p.indent != "" {
		return nil, p.errorf("unexpected indentation at top level")
	}

	prog, err := p.parseProg()
	if err != nil {
		return nil, err
	}
	return tree.New(token.Root, prog), nil
}

// parseProg parses the module header, the imports and then top-level lines
// until the input is exhausted.
func (p *Parser) parseProg() (*tree.Node, error) {
	mod, err := p.parseModDecl()
	if err != nil {
		return nil, err
	}
	if mod == nil {
		return nil, p.errorf("expected module declaration")
	}
	prog := tree.New(token.Prog, mod)

	for {
		imp, err := p.parseImport()
		if err != nil {
			return nil, err
		}
		if imp == nil {
			break
		}
		prog.Add(imp)
	}

	for !p.cur.AtEOF() {
		if p.indent != "" {
			return nil, p.errorf("unexpected indentation at top level")
		}
		line, err := p.parseLine()
		if err != nil {
			return nil, err
		}
		if line == nil {
			return nil, p.unexpected()
		}
		prog.Add(line)
		if !p.expectNewline() {
			return nil, p.unexpected()
		}
	}
	return prog, nil
}

// parseLine parses one logical line: an expression. A trailing comment is
// consumed by the line break that ends it.
func (p *Parser) parseLine() (*tree.Node, error) {
	expr, err := p.parseExpr()
	if err != nil || expr == nil {
		return nil, err
	}
	return tree.New(token.Line, expr), nil
}

// unexpected describes whatever stopped the parse at the current position.
func (p *Parser) unexpected() error {
	p.skipBlanks()
	ch, ok := p.cur.Peek()
	if !ok {
		return p.errorf("unexpected end of input")
	}
	return p.errorf("unexpected %q", ch)
}

// mark is a full parser checkpoint. Bracket depth and stop sets are scoped
// by the productions that change them and need no saving.
type mark struct {
	cp        cursor.Checkpoint
	indent    string
	lineStart int
}

func (p *Parser) mark() mark {
	return mark{cp: p.cur.Save(), indent: p.indent, lineStart: p.lineStart}
}

func (p *Parser) reset(m mark) {
	p.cur.Restore(m.cp)
	p.indent = m.indent
	p.lineStart = m.lineStart
}

// production is the shape shared by every non-terminal.
type production func(*Parser) (*tree.Node, error)

// attempt runs fn and rewinds everything it consumed if it did not match.
func (p *Parser) attempt(fn production) (*tree.Node, error) {
	m := p.mark()
	n, err := fn(p)
	if err == nil && n == nil {
		p.reset(m)
	}
	return n, err
}

// speculate runs fn, treating a syntax error as "no match". It is used where
// a prefix may belong to either of two constructs and only a later terminal
// decides, like the pattern in front of "=" or "<-".
func (p *Parser) speculate(name string, fn production) (*tree.Node, error) {
	m := p.mark()
	n, err := fn(p)
	if err != nil {
		if !IsSyntaxError(err) {
			return nil, err
		}
		p.logger.Debug("backtrack",
			zap.String("production", name),
			zap.Int("offset", m.cp.Offset()),
			zap.Error(err),
		)
		n = nil
	}
	if n == nil {
		p.reset(m)
	}
	return n, nil
}

// stopsAt reports whether a reserved operator ends the current expression
// instead of being an error. Comments always end it.
func (p *Parser) stopsAt(op string) bool {
	return op == "--" || p.stops[op]
}

// exprUntil parses an expression that ends at any of ops.
func (p *Parser) exprUntil(ops ...string) (*tree.Node, error) {
	saved := p.stops
	p.stops = make(map[string]bool, len(ops))
	for _, op := range ops {
		p.stops[op] = true
	}
	defer func() { p.stops = saved }()
	return p.parseExpr()
}

// enter opens a bracketed region and returns the function closing it.
// Inside, line breaks are blanks and no outer stop applies.
func (p *Parser) enter() func() {
	saved := p.stops
	p.stops = nil
	p.depth++
	return func() {
		p.depth--
		p.stops = saved
	}
}
