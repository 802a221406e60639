package parser

import (
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// subexprAlternatives are tried in order; the first match wins. The order
// matters: bindings come before the patterns they start with, keyword
// constructs before identifiers, and numbers before the operator that
// would otherwise take their sign.
var subexprAlternatives []production

func init() {
	subexprAlternatives = []production{
		(*Parser).parseVar,
		(*Parser).parseAssign,
		(*Parser).parseFnDecl,
		(*Parser).parseParenExpr,
		(*Parser).parseReturn,
		(*Parser).parseCase,
		(*Parser).parseIfElse,
		(*Parser).parseTry,
		(*Parser).parseWhile,
		(*Parser).parseFor,
		(*Parser).parseLambda,
		(*Parser).parseListExpr,
		(*Parser).parseBraceExpr,
		(*Parser).parseQualIdent,
		(*Parser).parseInfixed,
		(*Parser).parseNumLit,
		(*Parser).parseChrLit,
		(*Parser).parseStrLit,
		(*Parser).parseOp,
	}
}

// parseExpr parses a flat, non-empty sequence of subexpressions. Operator
// precedence is resolved later; the parser only records juxtaposition.
func (p *Parser) parseExpr() (*tree.Node, error) {
	first, err := p.parseSubexpr()
	if err != nil || first == nil {
		return nil, err
	}
	expr := tree.New(token.Expr, first)
	// A nested block already consumed the line break.
	for !p.atLineStart() {
		sub, err := p.parseSubexpr()
		if err != nil {
			return nil, err
		}
		if sub == nil {
			break
		}
		expr.Add(sub)
	}
	return expr, nil
}

func (p *Parser) parseSubexpr() (*tree.Node, error) {
	for _, alt := range subexprAlternatives {
		n, err := p.attempt(alt)
		if err != nil {
			return nil, err
		}
		if n != nil {
			return tree.New(token.Subexpr, n), nil
		}
	}
	return nil, nil
}

// bindingsAllowed is false where "=" separates a key from its value.
func (p *Parser) bindingsAllowed() bool {
	return !p.stops["="]
}

// parseVar parses a mutable binding.
//
//	var = "var" pattern [":" typeIdent] "=" expr
func (p *Parser) parseVar() (*tree.Node, error) {
	if !p.bindingsAllowed() {
		return nil, nil
	}
	kw := p.keyword(token.VarKeyword)
	if kw == nil {
		return nil, nil
	}
	pat, err := p.requirePattern("left-hand side of var binding must be a pattern")
	if err != nil {
		return nil, err
	}
	binding := tree.New(token.Var, kw, pat)
	if colon := p.punct(token.Colon); colon != nil {
		typ, err := p.requireType("type of var binding must be a valid type identifier")
		if err != nil {
			return nil, err
		}
		binding.Add(colon, typ)
	}
	eq := p.punct(token.Equals)
	if eq == nil {
		return nil, p.errorf("var binding must use =")
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if rhs == nil {
		return nil, p.errorf("right-hand side of var binding must be a valid expression")
	}
	return binding.Add(eq, rhs), nil
}

// parseAssign parses an immutable binding. It only commits once the pattern
// is followed by ":" or "=", so "(a + b)" falls through to a parenthesised
// expression.
//
//	assign = pattern [":" typeIdent] "=" expr
func (p *Parser) parseAssign() (*tree.Node, error) {
	if !p.bindingsAllowed() {
		return nil, nil
	}
	m := p.mark()
	pat, err := p.speculate("assign", (*Parser).parsePattern)
	if err != nil || pat == nil {
		return nil, err
	}
	binding := tree.New(token.Assign, pat)

	var eq *tree.Node
	if colon := p.punct(token.Colon); colon != nil {
		typ, err := p.requireType("type of binding must be a valid type identifier")
		if err != nil {
			return nil, err
		}
		binding.Add(colon, typ)
		if eq = p.punct(token.Equals); eq == nil {
			return nil, p.errorf("expected = after type of binding")
		}
	} else if eq = p.punct(token.Equals); eq == nil {
		p.reset(m)
		return nil, nil
	}

	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if rhs == nil {
		return nil, p.errorf("right-hand side of assignment must be a valid expression")
	}
	return binding.Add(eq, rhs), nil
}

// parseReturn parses an early return.
//
//	return = "return" expr
func (p *Parser) parseReturn() (*tree.Node, error) {
	kw := p.keyword(token.ReturnKeyword)
	if kw == nil {
		return nil, nil
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, p.errorf("expected expression after return")
	}
	return tree.New(token.Return, kw, val), nil
}

// parseLambda parses an anonymous function.
//
//	lambda = "\" param {"," param} "->" expr
func (p *Parser) parseLambda() (*tree.Node, error) {
	bs := p.punct(token.Backslash)
	if bs == nil {
		return nil, nil
	}
	lambda := tree.New(token.Lambda, bs)
	for first := true; ; first = false {
		if !first {
			comma := p.punct(token.Comma)
			if comma == nil {
				break
			}
			lambda.Add(comma)
		}
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		if param == nil {
			if first {
				return nil, p.errorf("lambda expression requires at least one parameter")
			}
			return nil, p.errorf("expected parameter after ,")
		}
		lambda.Add(param)
	}
	arrow := p.punct(token.RArrow)
	if arrow == nil {
		return nil, p.errorf("lambda expression requires ->")
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, p.errorf("lambda body must be an expression")
	}
	return lambda.Add(arrow, body), nil
}

// parseParenExpr parses everything that starts with "(": the empty tuple, a
// parenthesised expression, or a tuple of two or more elements.
func (p *Parser) parseParenExpr() (*tree.Node, error) {
	lp := p.punct(token.LParen)
	if lp == nil {
		return nil, nil
	}
	exit := p.enter()
	defer exit()

	if rp := p.punct(token.RParen); rp != nil {
		return tree.New(token.TupleLit, lp, rp), nil
	}
	first, err := p.requireExpr("expected expression or ) after (")
	if err != nil {
		return nil, err
	}
	if rp := p.punct(token.RParen); rp != nil {
		return tree.New(token.Parened, lp, first, rp), nil
	}
	comma := p.punct(token.Comma)
	if comma == nil {
		return nil, p.errorf("expected , or ) after expression in parentheses")
	}
	second, err := p.requireExpr("expected 0 or at least 2 elements in tuple")
	if err != nil {
		return nil, err
	}
	tuple := tree.New(token.TupleLit, lp, first, comma, second)
	if err := p.moreExprs(tuple, "expected expression after , in tuple"); err != nil {
		return nil, err
	}
	rp := p.punct(token.RParen)
	if rp == nil {
		return nil, p.errorf("expected ) to terminate tuple")
	}
	return tuple.Add(rp), nil
}

// parseListExpr parses a list literal or, when the first element is
// followed by "|", a list comprehension.
func (p *Parser) parseListExpr() (*tree.Node, error) {
	lb := p.punct(token.LSqBracket)
	if lb == nil {
		return nil, nil
	}
	exit := p.enter()
	defer exit()

	if rb := p.punct(token.RSqBracket); rb != nil {
		return tree.New(token.ListLit, lb, rb), nil
	}
	first, err := p.exprUntil("|")
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, p.errorf("expected expression or ] after [")
	}

	if bar := p.punct(token.Bar); bar != nil {
		comp := tree.New(token.ListComp, lb, first, bar)
		if err := p.parseClauses(comp); err != nil {
			return nil, err
		}
		rb := p.punct(token.RSqBracket)
		if rb == nil {
			return nil, p.errorf("expected ] to terminate list comprehension")
		}
		return comp.Add(rb), nil
	}

	list := tree.New(token.ListLit, lb, first)
	if err := p.moreExprs(list, "expected expression after , in list"); err != nil {
		return nil, err
	}
	rb := p.punct(token.RSqBracket)
	if rb == nil {
		return nil, p.errorf("expected ] to terminate list")
	}
	return list.Add(rb), nil
}

// parseBraceExpr parses everything that starts with "{". "{}" is the empty
// dict; otherwise a "=" after the first element makes a dict and a "|"
// after the first entry or element makes a comprehension.
func (p *Parser) parseBraceExpr() (*tree.Node, error) {
	lc := p.punct(token.LCurlyBracket)
	if lc == nil {
		return nil, nil
	}
	exit := p.enter()
	defer exit()

	if rc := p.punct(token.RCurlyBracket); rc != nil {
		return tree.New(token.DictLit, lc, rc), nil
	}
	first, err := p.exprUntil("=", "|")
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, p.errorf("expected expression or } after {")
	}

	if eq := p.punct(token.Equals); eq != nil {
		val, err := p.exprUntil("|")
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, p.errorf("expected value after = in dict")
		}
		return p.dictTail(lc, tree.New(token.DictEntry, first, eq, val))
	}

	if bar := p.punct(token.Bar); bar != nil {
		comp := tree.New(token.SetComp, lc, first, bar)
		if err := p.parseClauses(comp); err != nil {
			return nil, err
		}
		rc := p.punct(token.RCurlyBracket)
		if rc == nil {
			return nil, p.errorf("expected } to terminate set comprehension")
		}
		return comp.Add(rc), nil
	}

	set := tree.New(token.SetLit, lc, first)
	if err := p.moreExprs(set, "expected expression after , in set"); err != nil {
		return nil, err
	}
	rc := p.punct(token.RCurlyBracket)
	if rc == nil {
		return nil, p.errorf("expected } to terminate set")
	}
	return set.Add(rc), nil
}

func (p *Parser) dictTail(lc, entry *tree.Node) (*tree.Node, error) {
	if bar := p.punct(token.Bar); bar != nil {
		comp := tree.New(token.DictComp, lc, entry, bar)
		if err := p.parseClauses(comp); err != nil {
			return nil, err
		}
		rc := p.punct(token.RCurlyBracket)
		if rc == nil {
			return nil, p.errorf("expected } to terminate dict comprehension")
		}
		return comp.Add(rc), nil
	}

	dict := tree.New(token.DictLit, lc, entry)
	for {
		comma := p.punct(token.Comma)
		if comma == nil {
			break
		}
		key, err := p.exprUntil("=")
		if err != nil {
			return nil, err
		}
		if key == nil {
			return nil, p.errorf("expected key after , in dict")
		}
		eq := p.punct(token.Equals)
		if eq == nil {
			return nil, p.errorf("expected = after key in dict")
		}
		val, err := p.requireExpr("expected value after = in dict")
		if err != nil {
			return nil, err
		}
		dict.Add(comma, tree.New(token.DictEntry, key, eq, val))
	}
	rc := p.punct(token.RCurlyBracket)
	if rc == nil {
		return nil, p.errorf("expected } to terminate dict")
	}
	return dict.Add(rc), nil
}

// parseClauses appends the generators and conditions of a comprehension.
//
//	clauses = clause {"," clause}
//	clause  = generator | expr
func (p *Parser) parseClauses(comp *tree.Node) error {
	for first := true; ; first = false {
		if !first {
			comma := p.punct(token.Comma)
			if comma == nil {
				return nil
			}
			comp.Add(comma)
		}
		clause, err := p.parseGenerator()
		if err != nil {
			return err
		}
		if clause == nil {
			if clause, err = p.parseExpr(); err != nil {
				return err
			}
		}
		if clause == nil {
			return p.errorf("expected generator or condition in comprehension")
		}
		comp.Add(clause)
	}
}

// parseGenerator parses "pattern <- expr". Without the arrow the pattern
// is given back so the clause can be read as a condition.
func (p *Parser) parseGenerator() (*tree.Node, error) {
	m := p.mark()
	pat, err := p.speculate("generator", (*Parser).parsePattern)
	if err != nil || pat == nil {
		return nil, err
	}
	arrow := p.punct(token.LArrow)
	if arrow == nil {
		p.reset(m)
		return nil, nil
	}
	src, err := p.requireExpr("expected expression after <-")
	if err != nil {
		return nil, err
	}
	return tree.New(token.Generator, pat, arrow, src), nil
}

// moreExprs appends {"," expr} to n.
func (p *Parser) moreExprs(n *tree.Node, msg string) error {
	for {
		comma := p.punct(token.Comma)
		if comma == nil {
			return nil
		}
		next, err := p.requireExpr(msg)
		if err != nil {
			return err
		}
		n.Add(comma, next)
	}
}

func (p *Parser) requireExpr(msg string) (*tree.Node, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return nil, p.errorf("%s", msg)
	}
	return expr, nil
}
