package parser

import (
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// parseNumLit parses an integer or real literal with an optional leading
// minus written directly against the number.
//
//	numLit  = ["-"] (digits ["." digits] | "NaN" | "Infinity")
func (p *Parser) parseNumLit() (*tree.Node, error) {
	m := p.mark()
	p.skipBlanks()

	// No blanks between the sign and the number: "x - 5" is an operator.
	var minus *tree.Node
	if p.matchOperator("-") {
		minus = tree.Leaf(token.Minus, "-")
	}

	if p.matchKeyword("NaN") {
		return tree.New(token.NumLit,
			tree.New(token.RealLit, minus, tree.Leaf(token.NanKeyword, "NaN"))), nil
	}
	if p.matchKeyword("Infinity") {
		return tree.New(token.NumLit,
			tree.New(token.RealLit, minus, tree.Leaf(token.InfinityKeyword, "Infinity"))), nil
	}

	whole := p.digits()
	if whole == "" {
		p.reset(m)
		return nil, nil
	}
	if !p.matchChar('.') {
		return tree.New(token.NumLit,
			tree.New(token.IntLit, minus, tree.Leaf(token.AbsInt, whole))), nil
	}
	frac := p.digits()
	if frac == "" {
		return nil, p.errorf("expected at least one digit after decimal point")
	}
	return tree.New(token.NumLit,
		tree.New(token.RealLit, minus, tree.Leaf(token.AbsReal, whole+"."+frac))), nil
}

func (p *Parser) digits() string {
	start := p.cur.Save()
	for {
		ch, ok := p.cur.Peek()
		if !ok || !isDigit(ch) {
			break
		}
		p.cur.Advance()
	}
	return p.cur.Since(start)
}

// parseChrLit parses a character literal: exactly one character or escape
// between single quotes.
func (p *Parser) parseChrLit() (*tree.Node, error) {
	open := p.punct(token.SingleQuote)
	if open == nil {
		return nil, nil
	}
	body, err := p.literalChar('\'', token.ChrChr)
	if err != nil {
		return nil, err
	}
	if body == nil {
		if ch, ok := p.cur.Peek(); ok && ch == '\'' {
			return nil, p.errorf("empty character literal")
		}
		return nil, p.errorf("unterminated character literal")
	}
	if !p.matchChar('\'') {
		return nil, p.errorf("expected ' to close character literal")
	}
	return tree.New(token.ChrLit, open, body, tree.Leaf(token.SingleQuote, "'")), nil
}

// parseStrLit parses a possibly empty string literal.
func (p *Parser) parseStrLit() (*tree.Node, error) {
	open := p.punct(token.DoubleQuote)
	if open == nil {
		return nil, nil
	}
	lit := tree.New(token.StrLit, open)
	for {
		ch, err := p.literalChar('"', token.StrChr)
		if err != nil {
			return nil, err
		}
		if ch == nil {
			break
		}
		lit.Add(ch)
	}
	if !p.matchChar('"') {
		return nil, p.errorf("expected \" to close string literal")
	}
	return lit.Add(tree.Leaf(token.DoubleQuote, "\"")), nil
}

// literalChar matches one body character of a literal delimited by quote:
// any character other than the quote or a backslash, line breaks included,
// or a backslash followed by an escape character. The leaf keeps the escape
// as written.
func (p *Parser) literalChar(quote rune, tag token.Tag) (*tree.Node, error) {
	if ch, ok := p.matchCharNotIn(string(quote) + "\\"); ok {
		return tree.Leaf(tag, string(ch)), nil
	}
	if !p.matchChar('\\') {
		return nil, nil
	}
	esc, ok := p.matchCharIn(token.EscapeChars())
	if !ok {
		if ch, ok := p.cur.Peek(); ok {
			return nil, p.errorf("invalid escape sequence \\%c", ch)
		}
		return nil, p.errorf("unterminated escape sequence")
	}
	return tree.Leaf(tag, "\\"+string(esc)), nil
}
