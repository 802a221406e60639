package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// Terminal matchers either consume input and succeed, or leave the cursor
// exactly where it was.

func (p *Parser) matchChar(c rune) bool {
	ch, ok := p.cur.Peek()
	if !ok || ch != c {
		return false
	}
	p.cur.Advance()
	return true
}

func (p *Parser) matchCharIn(set string) (rune, bool) {
	ch, ok := p.cur.Peek()
	if !ok || !strings.ContainsRune(set, ch) {
		return 0, false
	}
	p.cur.Advance()
	return ch, true
}

// matchCharNotIn fails at the end of input.
func (p *Parser) matchCharNotIn(set string) (rune, bool) {
	ch, ok := p.cur.Peek()
	if !ok || strings.ContainsRune(set, ch) {
		return 0, false
	}
	p.cur.Advance()
	return ch, true
}

// matchKeyword matches word and requires that it is not immediately
// followed by an identifier character, so "iffy" never matches "if".
func (p *Parser) matchKeyword(word string) bool {
	cp := p.cur.Save()
	for _, w := range word {
		if !p.matchChar(w) {
			p.cur.Restore(cp)
			return false
		}
	}
	if ch, ok := p.cur.Peek(); ok && isIdentChar(ch) {
		p.cur.Restore(cp)
		return false
	}
	return true
}

// matchOperator matches op and requires that it is not immediately followed
// by another operator character (maximal munch), so "=" never matches the
// first half of "==".
func (p *Parser) matchOperator(op string) bool {
	cp := p.cur.Save()
	for _, o := range op {
		if !p.matchChar(o) {
			p.cur.Restore(cp)
			return false
		}
	}
	if ch, ok := p.cur.Peek(); ok && token.IsOpChar(ch) {
		p.cur.Restore(cp)
		return false
	}
	return true
}

// charTerminals are punctuation marks matched as plain characters; every
// other punctuation lexeme goes through matchOperator.
var charTerminals = map[token.Tag]bool{
	token.Comma:         true,
	token.LParen:        true,
	token.RParen:        true,
	token.LSqBracket:    true,
	token.RSqBracket:    true,
	token.LCurlyBracket: true,
	token.RCurlyBracket: true,
	token.Backtick:      true,
	token.SingleQuote:   true,
	token.DoubleQuote:   true,
}

// punct skips blanks and matches a punctuation terminal, returning its
// leaf, or nil with the cursor untouched.
func (p *Parser) punct(tag token.Tag) *tree.Node {
	text, ok := token.Punctuation[tag]
	if !ok {
		return nil
	}
	cp := p.cur.Save()
	p.skipBlanks()

	var matched bool
	switch {
	case tag == token.Underscore:
		matched = p.matchKeyword(text)
	case charTerminals[tag]:
		r, _ := utf8.DecodeRuneInString(text)
		matched = p.matchChar(r)
	default:
		matched = p.matchOperator(text)
	}
	if !matched {
		p.cur.Restore(cp)
		return nil
	}
	return tree.Leaf(tag, text)
}

// adjacent matches a punctuation terminal with no blanks before it. It is
// used inside qualified identifiers, where "a.b" and "a::b" must be written
// without spaces.
func (p *Parser) adjacent(tag token.Tag) *tree.Node {
	text := token.Punctuation[tag]
	if !p.matchOperator(text) {
		return nil
	}
	return tree.Leaf(tag, text)
}

var keywordText = func() map[token.Tag]string {
	m := make(map[token.Tag]string, len(token.Keywords))
	for word, tag := range token.Keywords {
		m[tag] = word
	}
	return m
}()

// keyword skips blanks and matches the keyword for tag.
func (p *Parser) keyword(tag token.Tag) *tree.Node {
	word, ok := keywordText[tag]
	if !ok {
		return nil
	}
	cp := p.cur.Save()
	p.skipBlanks()
	if !p.matchKeyword(word) {
		p.cur.Restore(cp)
		return nil
	}
	return tree.Leaf(tag, word)
}

// parseIdent matches a plain identifier: a letter or underscore followed by
// letters, digits and underscores. A lone "_" is the wildcard and keywords
// are never identifiers.
func (p *Parser) parseIdent() *tree.Node {
	cp := p.cur.Save()
	p.skipBlanks()

	start := p.cur.Save()
	ch, ok := p.cur.Peek()
	if !ok || (ch != '_' && !unicode.IsLetter(ch)) {
		p.cur.Restore(cp)
		return nil
	}
	if ch == '_' {
		if next, ok := p.cur.PeekAt(1); !ok || !isIdentChar(next) {
			p.cur.Restore(cp)
			return nil
		}
	}
	for {
		ch, ok := p.cur.Peek()
		if !ok || !isIdentChar(ch) {
			break
		}
		p.cur.Advance()
	}

	word := p.cur.Since(start)
	if token.IsKeyword(word) {
		p.cur.Restore(cp)
		return nil
	}
	return tree.Leaf(token.Ident, word)
}

// parseOp matches a user-defined operator: a maximal run of operator
// characters that is not a reserved lexeme. Running into a reserved lexeme
// is malformed input unless an enclosing construct declared it as its own
// terminator.
func (p *Parser) parseOp() (*tree.Node, error) {
	cp := p.cur.Save()
	p.skipBlanks()

	start := p.cur.Save()
	for {
		if _, ok := p.matchCharIn(token.OpChars()); !ok {
			break
		}
	}

	op := p.cur.Since(start)
	if op == "" {
		p.cur.Restore(cp)
		return nil, nil
	}
	if token.IsReservedOp(op) {
		if p.stopsAt(op) {
			p.cur.Restore(cp)
			return nil, nil
		}
		return nil, p.errorAt(p.cur.Position(start.Offset()), "the operator %s is reserved", op)
	}
	return tree.Leaf(token.Op, op), nil
}

func isIdentChar(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isBlank(ch rune) bool {
	return ch == ' ' || ch == '\t'
}

func isNewline(ch rune) bool {
	return ch == '\n' || ch == '\r'
}
