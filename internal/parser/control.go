package parser

import (
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// parseFnDecl parses a named function with its body block.
//
//	fnDecl = "fn" ident {param} ["->" typeIdent] NEWLINE block
func (p *Parser) parseFnDecl() (*tree.Node, error) {
	kw := p.keyword(token.FnKeyword)
	if kw == nil {
		return nil, nil
	}
	name := p.parseIdent()
	if name == nil {
		return nil, p.errorf("expected function name after fn")
	}
	fn := tree.New(token.FnDecl, kw, name)
	for {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		if param == nil {
			break
		}
		fn.Add(param)
	}
	if arrow := p.punct(token.RArrow); arrow != nil {
		ret, err := p.requireType("expected return type after ->")
		if err != nil {
			return nil, err
		}
		fn.Add(arrow, ret)
	}
	if err := p.parseBlock(fn, lineItems); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseCase parses a case expression whose block holds the branches.
//
//	case = "case" expr NEWLINE block(caseBranch)
func (p *Parser) parseCase() (*tree.Node, error) {
	kw := p.keyword(token.CaseKeyword)
	if kw == nil {
		return nil, nil
	}
	subject, err := p.requireExpr("expected expression after case")
	if err != nil {
		return nil, err
	}
	c := tree.New(token.Case, kw, subject)
	if err := p.parseBlock(c, caseBranchItems); err != nil {
		return nil, err
	}
	return c, nil
}

// parseCaseBranch parses "pattern => line".
func (p *Parser) parseCaseBranch() (*tree.Node, error) {
	pat, err := p.parsePattern()
	if err != nil || pat == nil {
		return nil, err
	}
	arrow := p.punct(token.FatRArrow)
	if arrow == nil {
		return nil, p.errorf("expected => after pattern in case branch")
	}
	line, err := p.parseLine()
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, p.errorf("expected expression after =>")
	}
	return tree.New(token.CaseBranch, pat, arrow, line), nil
}

// parseIfElse parses a conditional. The else keyword must start a line at
// the same indentation as its if; "else if" chains nest.
//
//	ifElse = "if" expr NEWLINE block [INDENT "else" (ifElse | NEWLINE block)]
func (p *Parser) parseIfElse() (*tree.Node, error) {
	kw := p.keyword(token.IfKeyword)
	if kw == nil {
		return nil, nil
	}
	cond, err := p.requireExpr("expected condition after if")
	if err != nil {
		return nil, err
	}
	start := p.indent
	n := tree.New(token.IfElse, kw, cond)
	if err := p.parseBlock(n, lineItems); err != nil {
		return nil, err
	}

	if p.cur.AtEOF() || p.indent != start {
		return n, nil
	}
	m := p.mark()
	els := p.keyword(token.ElseKeyword)
	if els == nil {
		p.reset(m)
		return n, nil
	}
	n.Add(els)

	chained, err := p.parseIfElse()
	if err != nil {
		return nil, err
	}
	if chained != nil {
		return n.Add(chained), nil
	}
	if err := p.parseBlock(n, lineItems); err != nil {
		return nil, err
	}
	return n, nil
}

// parseTry parses a try block and its mandatory catch clause.
//
//	try = "try" NEWLINE block INDENT "catch" ident NEWLINE block
func (p *Parser) parseTry() (*tree.Node, error) {
	kw := p.keyword(token.TryKeyword)
	if kw == nil {
		return nil, nil
	}
	start := p.indent
	n := tree.New(token.Try, kw)
	if err := p.parseBlock(n, lineItems); err != nil {
		return nil, err
	}
	if p.cur.AtEOF() || p.indent != start {
		return nil, p.errorf("try must have a catch at the same indentation")
	}
	catch := p.keyword(token.CatchKeyword)
	if catch == nil {
		return nil, p.errorf("try must have a catch at the same indentation")
	}
	exc := p.parseIdent()
	if exc == nil {
		return nil, p.errorf("catch must name the caught exception")
	}
	n.Add(catch, exc)
	if err := p.parseBlock(n, lineItems); err != nil {
		return nil, err
	}
	return n, nil
}

// parseWhile parses a while loop.
//
//	while = "while" expr NEWLINE block
func (p *Parser) parseWhile() (*tree.Node, error) {
	kw := p.keyword(token.WhileKeyword)
	if kw == nil {
		return nil, nil
	}
	cond, err := p.requireExpr("expected condition after while")
	if err != nil {
		return nil, err
	}
	n := tree.New(token.While, kw, cond)
	if err := p.parseBlock(n, lineItems); err != nil {
		return nil, err
	}
	return n, nil
}

// parseFor parses a for loop over an iterable.
//
//	for = "for" pattern "in" expr NEWLINE block
func (p *Parser) parseFor() (*tree.Node, error) {
	kw := p.keyword(token.ForKeyword)
	if kw == nil {
		return nil, nil
	}
	pat, err := p.requirePattern("expected pattern after for")
	if err != nil {
		return nil, err
	}
	in := p.keyword(token.InKeyword)
	if in == nil {
		return nil, p.errorf("expected in after for pattern")
	}
	iter, err := p.requireExpr("expected expression after in")
	if err != nil {
		return nil, err
	}
	n := tree.New(token.For, kw, pat, in, iter)
	if err := p.parseBlock(n, lineItems); err != nil {
		return nil, err
	}
	return n, nil
}
