package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

func (p *Parser) parseTypeExpr() ast.TypeExpr {
	start := p.cur
	if p.cur.Type == lexer.LPAREN {
		p.next()
		p.skipNewlines()
		var elems []ast.TypeExpr
		for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
			elems = append(elems, p.parseTypeExpr())
			if p.cur.Type == lexer.COMMA {
				p.next()
				p.skipNewlines()
			}
		}
		p.expect(lexer.RPAREN)
		if p.cur.Type == lexer.ARROW {
			p.next()
			ret := p.parseTypeExpr()
			return &ast.FuncTypeExpr{Args: elems, Ret: ret, Span_: p.span(start)}
		}
		return &ast.TupleTypeExpr{Elems: elems, Span_: p.span(start)}
	}

	path := p.parsePath()
	var args []ast.TypeExpr
	if p.cur.Type == lexer.LBRACKET {
		p.next()
		p.skipNewlines()
		for p.cur.Type != lexer.RBRACKET && p.cur.Type != lexer.EOF {
			args = append(args, p.parseTypeExpr())
			if p.cur.Type == lexer.COMMA {
				p.next()
				p.skipNewlines()
			}
		}
		p.expect(lexer.RBRACKET)
	}
	return &ast.NamedTypeExpr{Path: path, Args: args, Span_: p.span(start)}
}
