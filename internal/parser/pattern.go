package parser

import (
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// parsePattern parses a destructuring pattern.
//
//	pattern = ident | chrLit | strLit | numLit | "_"
//	        | "(" [pattern "," pattern {"," pattern}] ")"
//	        | "[" [pattern {"," pattern}] "]"
//	        | "{" [pattern "=" pattern {"," pattern "=" pattern}] "}"
//	        | "{" pattern {"," pattern} "}"
func (p *Parser) parsePattern() (*tree.Node, error) {
	if id := p.parseIdent(); id != nil {
		return tree.New(token.Pattern, id), nil
	}
	for _, lit := range []production{
		(*Parser).parseChrLit,
		(*Parser).parseStrLit,
		(*Parser).parseNumLit,
	} {
		n, err := p.attempt(lit)
		if err != nil {
			return nil, err
		}
		if n != nil {
			return tree.New(token.Pattern, n), nil
		}
	}
	if us := p.punct(token.Underscore); us != nil {
		return tree.New(token.Pattern, us), nil
	}

	if lp := p.punct(token.LParen); lp != nil {
		exit := p.enter()
		defer exit()
		return p.tuplePattern(lp)
	}
	if lb := p.punct(token.LSqBracket); lb != nil {
		exit := p.enter()
		defer exit()
		return p.listPattern(lb)
	}
	if lc := p.punct(token.LCurlyBracket); lc != nil {
		exit := p.enter()
		defer exit()
		return p.bracePattern(lc)
	}
	return nil, nil
}

func (p *Parser) tuplePattern(lp *tree.Node) (*tree.Node, error) {
	if rp := p.punct(token.RParen); rp != nil {
		return tree.New(token.Pattern, lp, rp), nil
	}
	first, err := p.requirePattern("expected pattern or ) after ( in pattern")
	if err != nil {
		return nil, err
	}
	comma := p.punct(token.Comma)
	if comma == nil {
		return nil, p.errorf("expected comma after first element of pattern tuple")
	}
	second, err := p.requirePattern("expected 0 or at least 2 elements in pattern tuple")
	if err != nil {
		return nil, err
	}
	pat := tree.New(token.Pattern, lp, first, comma, second)
	if err := p.morePatterns(pat); err != nil {
		return nil, err
	}
	rp := p.punct(token.RParen)
	if rp == nil {
		return nil, p.errorf("left paren in pattern requires )")
	}
	return pat.Add(rp), nil
}

func (p *Parser) listPattern(lb *tree.Node) (*tree.Node, error) {
	pat := tree.New(token.Pattern, lb)
	first, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if first != nil {
		pat.Add(first)
		if err := p.morePatterns(pat); err != nil {
			return nil, err
		}
	}
	rb := p.punct(token.RSqBracket)
	if rb == nil {
		return nil, p.errorf("left square bracket in pattern requires ]")
	}
	return pat.Add(rb), nil
}

// bracePattern parses a dict pattern when the first element is followed by
// "=", and a set pattern otherwise.
func (p *Parser) bracePattern(lc *tree.Node) (*tree.Node, error) {
	pat := tree.New(token.Pattern, lc)
	first, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if first != nil {
		if eq := p.punct(token.Equals); eq != nil {
			if err := p.patternEntry(pat, first, eq); err != nil {
				return nil, err
			}
			for {
				comma := p.punct(token.Comma)
				if comma == nil {
					break
				}
				key, err := p.requirePattern("expected key pattern after , in dict pattern")
				if err != nil {
					return nil, err
				}
				eq := p.punct(token.Equals)
				if eq == nil {
					return nil, p.errorf("expected = after key in dict pattern")
				}
				pat.Add(comma)
				if err := p.patternEntry(pat, key, eq); err != nil {
					return nil, err
				}
			}
		} else {
			pat.Add(first)
			if err := p.morePatterns(pat); err != nil {
				return nil, err
			}
		}
	}
	rc := p.punct(token.RCurlyBracket)
	if rc == nil {
		return nil, p.errorf("left curly bracket in pattern requires }")
	}
	return pat.Add(rc), nil
}

func (p *Parser) patternEntry(pat, key, eq *tree.Node) error {
	val, err := p.requirePattern("expected value pattern after = in dict pattern")
	if err != nil {
		return err
	}
	pat.Add(tree.New(token.DictEntry, key, eq, val))
	return nil
}

// morePatterns appends {"," pattern} to pat.
func (p *Parser) morePatterns(pat *tree.Node) error {
	for {
		comma := p.punct(token.Comma)
		if comma == nil {
			return nil
		}
		next, err := p.requirePattern("expected pattern after ,")
		if err != nil {
			return err
		}
		pat.Add(comma, next)
	}
}

func (p *Parser) requirePattern(msg string) (*tree.Node, error) {
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if pat == nil {
		return nil, p.errorf("%s", msg)
	}
	return pat, nil
}

// parseParam parses a function or lambda parameter, optionally annotated.
//
//	param = "(" pattern ":" typeIdent ")" | pattern
func (p *Parser) parseParam() (*tree.Node, error) {
	m := p.mark()
	if lp := p.punct(token.LParen); lp != nil {
		param, err := p.typedParam(lp)
		if err != nil || param != nil {
			return param, err
		}
		p.reset(m)
	}
	pat, err := p.parsePattern()
	if err != nil || pat == nil {
		return nil, err
	}
	return tree.New(token.Param, pat), nil
}

// typedParam commits once the colon after the pattern is seen.
func (p *Parser) typedParam(lp *tree.Node) (*tree.Node, error) {
	exit := p.enter()
	defer exit()

	pat, err := p.speculate("param", (*Parser).parsePattern)
	if err != nil || pat == nil {
		return nil, err
	}
	colon := p.punct(token.Colon)
	if colon == nil {
		return nil, nil
	}
	typ, err := p.requireType("expected type after : in parameter")
	if err != nil {
		return nil, err
	}
	rp := p.punct(token.RParen)
	if rp == nil {
		return nil, p.errorf("expected ) after parameter type")
	}
	return tree.New(token.Param, lp, pat, colon, typ, rp), nil
}
