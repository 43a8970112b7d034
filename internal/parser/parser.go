package parser

import (
	"github.com/module/scripthost/errext"
	"github.com/module/scripthost/internal/ast"
)

// Parser walks a pre-lexed token stream, producing internal/ast nodes.
type Parser struct {
	tokens []token
	pos    int
}

// Parse tokenizes and parses source into a top-level statement list.
func Parse(source string) ([]ast.Stmt, error) {
	toks, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks}
	var body []ast.Stmt
	for !p.atEOF() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return body, nil
}

func (p *Parser) cur() token  { return p.tokens[p.pos] }
func (p *Parser) atEOF() bool { return p.cur().kind == tokEOF }

func (p *Parser) advance() token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) isPunct(s string) bool {
	t := p.cur()
	return t.kind == tokPunct && t.punct == s
}

func (p *Parser) isIdent(s string) bool {
	t := p.cur()
	return t.kind == tokIdent && t.text == s
}

func (p *Parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) acceptIdent(s string) bool {
	if p.isIdent(s) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return errext.ParseError("expected %q, got %q at position %d", s, p.tokenText(), p.cur().pos)
	}
	return nil
}

func (p *Parser) expectIdent(s string) error {
	if !p.acceptIdent(s) {
		return errext.ParseError("expected %q, got %q at position %d", s, p.tokenText(), p.cur().pos)
	}
	return nil
}

func (p *Parser) tokenText() string {
	t := p.cur()
	switch t.kind {
	case tokEOF:
		return "<eof>"
	case tokPunct:
		return t.punct
	default:
		return t.text
	}
}

// expectName consumes an identifier token (including soft keywords usable as
// names — get/set/static/of/from/as/async) and returns it.
func (p *Parser) expectName() (string, error) {
	t := p.cur()
	if t.kind != tokIdent {
		return "", errext.ParseError("expected identifier, got %q at position %d", p.tokenText(), t.pos)
	}
	p.advance()
	return t.text, nil
}

// consumeSemicolon implements ASI (§4.1): an explicit `;` is consumed if
// present; otherwise the statement boundary is accepted if the next token
// starts a new line, closes the enclosing block, or is EOF.
func (p *Parser) consumeSemicolon() error {
	if p.acceptPunct(";") {
		return nil
	}
	if p.cur().newlineBefore || p.isPunct("}") || p.atEOF() {
		return nil
	}
	return errext.ParseError("expected ';' before %q at position %d", p.tokenText(), p.cur().pos)
}
