package parser

import (
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// parseQualIdent parses a plain, member or scoped identifier. The separators
// must be written without surrounding blanks.
//
//	qualIdent = ident {"." ident} | ident "::" ident
func (p *Parser) parseQualIdent() (*tree.Node, error) {
	id := p.parseIdent()
	if id == nil {
		return nil, nil
	}

	if dot := p.adjacent(token.Dot); dot != nil {
		member := tree.New(token.MemberIdent, id, dot)
		for {
			field := p.adjacentIdent()
			if field == nil {
				return nil, p.errorf("expected identifier after .")
			}
			member.Add(field)
			dot = p.adjacent(token.Dot)
			if dot == nil {
				break
			}
			member.Add(dot)
		}
		return tree.New(token.QualIdent, member), nil
	}

	scoped, err := p.scopedTail(id)
	if err != nil {
		return nil, err
	}
	if scoped != nil {
		return tree.New(token.QualIdent, scoped), nil
	}
	return tree.New(token.QualIdent, id), nil
}

// parseNamespacedIdent parses a plain or scoped identifier.
func (p *Parser) parseNamespacedIdent() (*tree.Node, error) {
	id := p.parseIdent()
	if id == nil {
		return nil, nil
	}
	scoped, err := p.scopedTail(id)
	if err != nil {
		return nil, err
	}
	if scoped != nil {
		return tree.New(token.NamespacedIdent, scoped), nil
	}
	return tree.New(token.NamespacedIdent, id), nil
}

func (p *Parser) scopedTail(ns *tree.Node) (*tree.Node, error) {
	colons := p.adjacent(token.DoubleColon)
	if colons == nil {
		return nil, nil
	}
	name := p.adjacentIdent()
	if name == nil {
		return nil, p.errorf("expected identifier after ::")
	}
	return tree.New(token.ScopedIdent, ns, colons, name), nil
}

// adjacentIdent matches an identifier with no blanks before it.
func (p *Parser) adjacentIdent() *tree.Node {
	if ch, ok := p.cur.Peek(); !ok || isBlank(ch) || isNewline(ch) {
		return nil
	}
	return p.parseIdent()
}

// parseTypeIdent parses a type expression.
//
//	typeIdent = namespacedIdent
//	          | "(" [typeIdent "," typeIdent {"," typeIdent}] ")"
//	          | "[" typeIdent "]"
//	          | "{" typeIdent ["," typeIdent] "}"
func (p *Parser) parseTypeIdent() (*tree.Node, error) {
	ns, err := p.parseNamespacedIdent()
	if err != nil {
		return nil, err
	}
	if ns != nil {
		return tree.New(token.TypeIdent, ns), nil
	}

	if lp := p.punct(token.LParen); lp != nil {
		exit := p.enter()
		defer exit()
		return p.typeTuple(lp)
	}

	if lb := p.punct(token.LSqBracket); lb != nil {
		exit := p.enter()
		defer exit()
		elem, err := p.requireType("expected element type in list type")
		if err != nil {
			return nil, err
		}
		rb := p.punct(token.RSqBracket)
		if rb == nil {
			return nil, p.errorf("expected ] to terminate list type")
		}
		return tree.New(token.TypeIdent, lb, elem, rb), nil
	}

	if lc := p.punct(token.LCurlyBracket); lc != nil {
		exit := p.enter()
		defer exit()
		key, err := p.requireType("expected key type in dict or set type")
		if err != nil {
			return nil, err
		}
		typ := tree.New(token.TypeIdent, lc, key)
		if comma := p.punct(token.Comma); comma != nil {
			val, err := p.requireType("expected value type after , in dict type")
			if err != nil {
				return nil, err
			}
			typ.Add(comma, val)
		}
		rc := p.punct(token.RCurlyBracket)
		if rc == nil {
			return nil, p.errorf("expected } to terminate dict or set type")
		}
		return typ.Add(rc), nil
	}

	return nil, nil
}

func (p *Parser) typeTuple(lp *tree.Node) (*tree.Node, error) {
	if rp := p.punct(token.RParen); rp != nil {
		return tree.New(token.TypeIdent, lp, rp), nil
	}
	first, err := p.requireType("expected type or ) in tuple type")
	if err != nil {
		return nil, err
	}
	typ := tree.New(token.TypeIdent, lp, first)

	comma := p.punct(token.Comma)
	if comma == nil {
		return nil, p.errorf("expected 0 or at least 2 elements in tuple type")
	}
	second, err := p.requireType("expected 0 or at least 2 elements in tuple type")
	if err != nil {
		return nil, err
	}
	typ.Add(comma, second)

	for {
		comma := p.punct(token.Comma)
		if comma == nil {
			break
		}
		next, err := p.requireType("expected type after , in tuple type")
		if err != nil {
			return nil, err
		}
		typ.Add(comma, next)
	}

	rp := p.punct(token.RParen)
	if rp == nil {
		return nil, p.errorf("expected ) to terminate tuple type")
	}
	return typ.Add(rp), nil
}

func (p *Parser) requireType(msg string) (*tree.Node, error) {
	typ, err := p.parseTypeIdent()
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, p.errorf("%s", msg)
	}
	return typ, nil
}

// parseInfixed parses a qualified identifier used as an infix operator.
//
//	infixed = "`" qualIdent "`"
func (p *Parser) parseInfixed() (*tree.Node, error) {
	open := p.punct(token.Backtick)
	if open == nil {
		return nil, nil
	}
	id, err := p.parseQualIdent()
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, p.errorf("expected identifier after `")
	}
	closing := p.punct(token.Backtick)
	if closing == nil {
		return nil, p.errorf("expected ` to close infixed identifier")
	}
	return tree.New(token.Infixed, open, id, closing), nil
}
