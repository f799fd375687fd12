// Package parser is a recursive-descent/Pratt parser producing internal/ast
// trees. Like internal/lexer, it is treated by the spec as a fixed external
// interface to the semantic core — it exists to exercise the checker,
// lowerer, and VM end to end from literal Ember source.
package parser

import (
	"fmt"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

type Parser struct {
	l *lexer.Lexer

	cur  lexer.Token
	peek lexer.Token

	file string
	Errors []error
}

func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file}
	p.next()
	p.next()
	p.skipNewlines()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) skipNewlines() {
	for p.cur.Type == lexer.NEWLINE || p.cur.Type == lexer.SEMI {
		p.next()
	}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.Errors = append(p.Errors, fmt.Errorf("%s:%d:%d: %s", p.file, p.cur.Line, p.cur.Column, fmt.Sprintf(format, args...)))
}

func (p *Parser) span(start lexer.Token) ast.Span {
	return ast.Span{
		Start: ast.Pos{Line: start.Line, Col: start.Column},
		End:   ast.Pos{Line: p.cur.Line, Col: p.cur.Column},
	}
}

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	t := p.cur
	if p.cur.Type != tt {
		p.errorf("expected token %d, found %q", tt, p.cur.Literal)
		return t
	}
	p.next()
	p.skipNewlines()
	return t
}

// ParseFile parses a complete source file into an *ast.File.
func (p *Parser) ParseFile(modulePath string) *ast.File {
	start := p.cur
	f := &ast.File{Path: modulePath}
	for p.cur.Type != lexer.EOF {
		item := p.parseItem()
		if item != nil {
			f.Items = append(f.Items, item)
		}
		p.skipNewlines()
	}
	f.Span_ = p.span(start)
	return f
}
