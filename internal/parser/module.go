package parser

import (
	"github.com/brouwer-lang/brouwer/internal/token"
	"github.com/brouwer-lang/brouwer/internal/tree"
)

// parseModDecl parses the module header.
//
//	modDecl = "module" ident [("exposing" | "hiding") identList] NEWLINE
//	identList = ["("] ident {"," ident} [")"]
func (p *Parser) parseModDecl() (*tree.Node, error) {
	kw := p.keyword(token.ModuleKeyword)
	if kw == nil {
		return nil, nil
	}
	name := p.parseIdent()
	if name == nil {
		return nil, p.errorf("expected module name after module")
	}
	mod := tree.New(token.ModDecl, kw, name)

	filter := p.keyword(token.ExposingKeyword)
	if filter == nil {
		filter = p.keyword(token.HidingKeyword)
	}
	if filter != nil {
		mod.Add(filter)
		if err := p.identList(mod, false); err != nil {
			return nil, err
		}
	}

	if !p.expectNewline() {
		return nil, p.errorf("expected newline after module declaration")
	}
	return mod, nil
}

// parseImport parses one import statement.
//
//	import = "import" ident ["as" ident | ["hiding"] "(" ident {"," ident} ")"] NEWLINE
func (p *Parser) parseImport() (*tree.Node, error) {
	kw := p.keyword(token.ImportKeyword)
	if kw == nil {
		return nil, nil
	}
	name := p.parseIdent()
	if name == nil {
		return nil, p.errorf("expected module name after import")
	}
	imp := tree.New(token.Import, kw, name)

	if as := p.keyword(token.AsKeyword); as != nil {
		alias := p.parseIdent()
		if alias == nil {
			return nil, p.errorf("expected alias after as")
		}
		imp.Add(as, alias)
	} else {
		hiding := p.keyword(token.HidingKeyword)
		if hiding != nil {
			imp.Add(hiding)
		}
		if hiding != nil || p.peekPunct(token.LParen) {
			if err := p.identList(imp, true); err != nil {
				return nil, err
			}
		}
	}

	if !p.expectNewline() {
		return nil, p.errorf("expected newline after import")
	}
	return imp, nil
}

// identList appends a comma separated identifier list, parenthesised when
// parens is set and optionally parenthesised otherwise.
func (p *Parser) identList(n *tree.Node, parens bool) error {
	lp := p.punct(token.LParen)
	if lp == nil && parens {
		return p.errorf("expected ( to start import list")
	}
	if lp != nil {
		exit := p.enter()
		defer exit()
		n.Add(lp)
	}

	for first := true; ; first = false {
		if !first {
			comma := p.punct(token.Comma)
			if comma == nil {
				break
			}
			n.Add(comma)
		}
		id := p.parseIdent()
		if id == nil {
			if first {
				return p.errorf("expected at least one identifier in list")
			}
			return p.errorf("expected identifier after ,")
		}
		n.Add(id)
	}

	if lp != nil {
		rp := p.punct(token.RParen)
		if rp == nil {
			return p.errorf("expected ) to close identifier list")
		}
		n.Add(rp)
	}
	return nil
}

func (p *Parser) peekPunct(tag token.Tag) bool {
	cp := p.cur.Save()
	defer p.cur.Restore(cp)
	return p.punct(tag) != nil
}
