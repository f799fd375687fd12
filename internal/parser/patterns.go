package parser

import (
	"strconv"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

func (p *Parser) parsePattern() ast.Pattern {
	start := p.cur

	switch p.cur.Type {
	case lexer.UNDERSCORE:
		p.next()
		return &ast.WildcardPattern{Span_: p.span(start)}
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.TRUE, lexer.FALSE, lexer.CHAR:
		lit := p.parseLiteralExpr()
		return &ast.LiteralPattern{Lit: lit, Span_: p.span(start)}
	case lexer.LPAREN:
		p.next()
		p.skipNewlines()
		var elems []ast.Pattern
		for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
			elems = append(elems, p.parsePattern())
			if p.cur.Type == lexer.COMMA {
				p.next()
				p.skipNewlines()
			}
		}
		p.expect(lexer.RPAREN)
		return &ast.TuplePattern{Elems: elems, Span_: p.span(start)}
	}

	path := p.parsePath()
	switch p.cur.Type {
	case lexer.LBRACE:
		p.next()
		p.skipNewlines()
		var fields []*ast.FieldPattern
		for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
			fstart := p.cur
			name := p.expect(lexer.IDENT).Literal
			if p.cur.Type == lexer.COLON {
				p.next()
				sub := p.parsePattern()
				fields = append(fields, &ast.FieldPattern{Name: name, Pattern: sub, Span_: p.span(fstart)})
			} else {
				fields = append(fields, &ast.FieldPattern{Name: name, Implied: true, Span_: p.span(fstart)})
			}
			if p.cur.Type == lexer.COMMA {
				p.next()
				p.skipNewlines()
			}
		}
		p.expect(lexer.RBRACE)
		return &ast.StructPattern{Path: path, Fields: fields, Span_: p.span(start)}
	case lexer.LPAREN:
		p.next()
		p.skipNewlines()
		var elems []ast.Pattern
		for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
			elems = append(elems, p.parsePattern())
			if p.cur.Type == lexer.COMMA {
				p.next()
				p.skipNewlines()
			}
		}
		p.expect(lexer.RPAREN)
		return &ast.TuplePatternStruct{Path: path, Elems: elems, Span_: p.span(start)}
	default:
		if len(path) == 1 {
			return &ast.NamePattern{Name: path[0], Span_: p.span(start)}
		}
		return &ast.UnitPatternStruct{Path: path, Span_: p.span(start)}
	}
}

// parseLiteralExpr parses a single literal token into an ast.Expr, used
// both in expression position and inside LiteralPattern.
func (p *Parser) parseLiteralExpr() ast.Expr {
	start := p.cur
	switch p.cur.Type {
	case lexer.INT:
		v, _ := strconv.ParseInt(p.cur.Literal, 10, 64)
		p.next()
		return &ast.IntLit{Value: v, Span_: p.span(start)}
	case lexer.FLOAT:
		v, _ := strconv.ParseFloat(p.cur.Literal, 32)
		p.next()
		return &ast.FloatLit{Value: float32(v), Span_: p.span(start)}
	case lexer.STRING:
		v := p.cur.Literal
		p.next()
		return &ast.StringLit{Value: v, Span_: p.span(start)}
	case lexer.CHAR:
		r := []rune(p.cur.Literal)[0]
		p.next()
		return &ast.CharLit{Value: r, Span_: p.span(start)}
	case lexer.TRUE:
		p.next()
		return &ast.BoolLit{Value: true, Span_: p.span(start)}
	case lexer.FALSE:
		p.next()
		return &ast.BoolLit{Value: false, Span_: p.span(start)}
	default:
		p.errorf("expected literal, found %q", p.cur.Literal)
		p.next()
		return &ast.BoolLit{Value: false, Span_: p.span(start)}
	}
}
