package parser

import (
	"strings"

	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// itemKind selects what a block is made of.
type itemKind int

const (
	lineItems itemKind = iota
	caseBranchItems
)

func (k itemKind) String() string {
	switch k {
	case lineItems:
		return "line"
	case caseBranchItems:
		return "case branch"
	}
	return "unknown"
}

// skipBlanks consumes spaces and tabs. Inside brackets it also consumes
// line breaks and comments, since a logical line only ends at depth zero.
func (p *Parser) skipBlanks() {
	for {
		ch, ok := p.cur.Peek()
		if !ok {
			return
		}
		switch {
		case isBlank(ch):
			p.cur.Advance()
		case p.depth > 0 && isNewline(ch):
			p.cur.Advance()
		case p.depth > 0 && p.atComment():
			p.skipComment()
		default:
			return
		}
	}
}

// atComment reports whether a "--" lexeme starts at the cursor. Longer
// operator runs such as "-->" are operators, not comments.
func (p *Parser) atComment() bool {
	if ch, ok := p.cur.Peek(); !ok || ch != '-' {
		return false
	}
	if ch, ok := p.cur.PeekAt(1); !ok || ch != '-' {
		return false
	}
	ch, ok := p.cur.PeekAt(2)
	return !ok || !token.IsOpChar(ch)
}

// skipComment consumes a comment up to, not including, the line break.
func (p *Parser) skipComment() {
	for {
		ch, ok := p.cur.Peek()
		if !ok || isNewline(ch) {
			return
		}
		p.cur.Advance()
	}
}

// skipLines consumes line breaks together with any blank and comment-only
// lines after them, then records the indentation and start offset of the
// next line with content. At the end of input the indentation is empty.
func (p *Parser) skipLines() {
	var indent strings.Builder
	for {
		ch, ok := p.cur.Peek()
		switch {
		case !ok:
			p.indent = ""
			p.lineStart = p.cur.Offset()
			return
		case isNewline(ch):
			indent.Reset()
			p.cur.Advance()
		case isBlank(ch):
			indent.WriteRune(ch)
			p.cur.Advance()
		case p.atComment():
			p.skipComment()
		default:
			p.indent = indent.String()
			p.lineStart = p.cur.Offset()
			return
		}
	}
}

// atLineStart reports whether the cursor sits at the first token of a line
// whose break was already consumed, e.g. by a nested block.
func (p *Parser) atLineStart() bool {
	return p.cur.Offset() == p.lineStart
}

// expectNewline ends a logical line: optional blanks, an optional comment,
// then a line break or the end of input. On failure nothing is consumed.
func (p *Parser) expectNewline() bool {
	if p.atLineStart() {
		return true
	}
	cp := p.cur.Save()
	for {
		ch, ok := p.cur.Peek()
		if !ok || !isBlank(ch) {
			break
		}
		p.cur.Advance()
	}
	if p.atComment() {
		p.skipComment()
	}
	if ch, ok := p.cur.Peek(); ok && !isNewline(ch) {
		p.cur.Restore(cp)
		return false
	}
	p.skipLines()
	return true
}

// parseBlock parses the indented block that follows a header line and
// appends its items to header. The block's indentation is that of its first
// line, which must strictly extend the header's; every item must match it
// exactly and the block ends at the first line that does not.
func (p *Parser) parseBlock(header *tree.Node, kind itemKind) error {
	start := p.indent
	if !p.expectNewline() {
		return p.errorf("expected newline after header")
	}

	block := p.indent
	if p.cur.AtEOF() || len(block) <= len(start) || !strings.HasPrefix(block, start) {
		return p.errorf("improper indentation after header")
	}

	for first := true; ; first = false {
		item, err := p.parseBlockItem(kind)
		if err != nil {
			return err
		}
		if item == nil {
			if first {
				return p.errorf("expected at least one item in block")
			}
			return p.unexpected()
		}
		header.Add(item)

		if !p.expectNewline() {
			return p.errorf("expected newline after block item")
		}
		if p.cur.AtEOF() || p.indent != block {
			break
		}
	}

	if !p.cur.AtEOF() && len(p.indent) > len(block) && strings.HasPrefix(p.indent, block) {
		return p.errorf("unexpected indentation")
	}
	return nil
}

func (p *Parser) parseBlockItem(kind itemKind) (*tree.Node, error) {
	switch kind {
	case lineItems:
		return p.parseLine()
	case caseBranchItems:
		return p.parseCaseBranch()
	default:
		return nil, internalf("unhandled block item kind %s", kind)
	}
}
