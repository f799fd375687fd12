package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

func (p *Parser) parseItem() ast.Item {
	switch p.cur.Type {
	case lexer.STRUCT:
		return p.parseStruct()
	case lexer.ENUM:
		return p.parseEnum()
	case lexer.TRAIT:
		return p.parseTrait()
	case lexer.IMPL:
		return p.parseImpl()
	case lexer.FN:
		return p.parseFunction()
	case lexer.USE:
		return p.parseUse()
	case lexer.MOD:
		return p.parseMod()
	default:
		p.errorf("unexpected token at top level: %q", p.cur.Literal)
		p.next()
		return nil
	}
}

func (p *Parser) parseGenerics() []*ast.GenericParam {
	if p.cur.Type != lexer.LBRACKET {
		return nil
	}
	p.next()
	p.skipNewlines()
	var out []*ast.GenericParam
	for p.cur.Type != lexer.RBRACKET && p.cur.Type != lexer.EOF {
		start := p.cur
		variance := ast.Invariant
		if p.cur.Literal == "in" {
			variance = ast.Contravariant
			p.next()
		} else if p.cur.Literal == "out" {
			variance = ast.Covariant
			p.next()
		}
		name := p.expect(lexer.IDENT).Literal
		var bound ast.TypeExpr
		if p.cur.Type == lexer.COLON {
			p.next()
			bound = p.parseTypeExpr()
		}
		out = append(out, &ast.GenericParam{Name: name, Variance: variance, Bound: bound, Span_: p.span(start)})
		if p.cur.Type == lexer.COMMA {
			p.next()
			p.skipNewlines()
		}
	}
	p.expect(lexer.RBRACKET)
	return out
}

func (p *Parser) parseStructBody() ast.StructBody {
	switch p.cur.Type {
	case lexer.LBRACE:
		p.next()
		p.skipNewlines()
		var fields []ast.FieldDecl
		for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
			start := p.cur
			name := p.expect(lexer.IDENT).Literal
			p.expect(lexer.COLON)
			ty := p.parseTypeExpr()
			fields = append(fields, ast.FieldDecl{Name: name, Type: ty, Span_: p.span(start)})
			if p.cur.Type == lexer.COMMA {
				p.next()
				p.skipNewlines()
			}
		}
		p.expect(lexer.RBRACE)
		return ast.StructBody{Kind: ast.BodyFields, Fields: fields}
	case lexer.LPAREN:
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
		return ast.StructBody{Kind: ast.BodyTuple, Tuple: elems}
	default:
		return ast.StructBody{Kind: ast.BodyUnit}
	}
}

func (p *Parser) parseStruct() ast.Item {
	start := p.cur
	p.next() // 'struct'
	name := p.expect(lexer.IDENT).Literal
	generics := p.parseGenerics()
	body := p.parseStructBody()
	return &ast.StructItem{Name: name, Generics: generics, Body: body, Span_: p.span(start)}
}

func (p *Parser) parseEnum() ast.Item {
	start := p.cur
	p.next() // 'enum'
	name := p.expect(lexer.IDENT).Literal
	generics := p.parseGenerics()
	p.expect(lexer.LBRACE)
	p.skipNewlines()
	var variants []*ast.VariantItem
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		vstart := p.cur
		vname := p.expect(lexer.IDENT).Literal
		body := p.parseStructBody()
		variants = append(variants, &ast.VariantItem{Name: vname, Body: body, Span_: p.span(vstart)})
		if p.cur.Type == lexer.COMMA {
			p.next()
			p.skipNewlines()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.EnumItem{Name: name, Generics: generics, Variants: variants, Span_: p.span(start)}
}

func (p *Parser) parseParamList() []*ast.Param {
	p.expect(lexer.LPAREN)
	p.skipNewlines()
	var params []*ast.Param
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		start := p.cur
		var name string
		if p.cur.Literal == "self" || p.cur.Type == lexer.SELF_TY {
			name = "self"
			p.next()
		} else {
			name = p.expect(lexer.IDENT).Literal
			p.expect(lexer.COLON)
		}
		var ty ast.TypeExpr
		if name != "self" {
			ty = p.parseTypeExpr()
		}
		params = append(params, &ast.Param{Name: name, Type: ty, Span_: p.span(start)})
		if p.cur.Type == lexer.COMMA {
			p.next()
			p.skipNewlines()
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseFunction() *ast.FunctionItem {
	start := p.cur
	p.next() // 'fn'
	name := p.expect(lexer.IDENT).Literal
	generics := p.parseGenerics()
	rawParams := p.parseParamList()

	var recv *ast.Param
	args := rawParams
	if len(rawParams) > 0 && rawParams[0].Name == "self" {
		recv = rawParams[0]
		args = rawParams[1:]
	}

	var ret ast.TypeExpr
	if p.cur.Type == lexer.COLON {
		p.next()
		ret = p.parseTypeExpr()
	}

	fn := &ast.FunctionItem{Name: name, Generics: generics, Receiver: recv, Args: args, Ret: ret}

	switch {
	case p.cur.Type == lexer.ASSIGN:
		p.next()
		fn.Body = p.parseExpr(precLowest)
	case p.cur.Type == lexer.LBRACE:
		fn.Body = p.parseBlock()
	default:
		fn.Required = true
	}
	fn.Span_ = p.span(start)
	return fn
}

func (p *Parser) parseTrait() ast.Item {
	start := p.cur
	p.next() // 'trait'
	name := p.expect(lexer.IDENT).Literal
	generics := p.parseGenerics()
	p.expect(lexer.LBRACE)
	p.skipNewlines()
	var funcs []*ast.FunctionItem
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		funcs = append(funcs, p.parseFunction())
		p.skipNewlines()
	}
	p.expect(lexer.RBRACE)
	return &ast.TraitItem{Name: name, Generics: generics, Funcs: funcs, Span_: p.span(start)}
}

func (p *Parser) parseImpl() ast.Item {
	start := p.cur
	p.next() // 'impl'
	generics := p.parseGenerics()
	first := p.parseTypeExpr()

	var fromTy, toTy ast.TypeExpr
	if p.cur.Literal == "for" {
		p.next()
		toTy = first
		fromTy = p.parseTypeExpr()
	} else {
		fromTy = first
	}

	p.expect(lexer.LBRACE)
	p.skipNewlines()
	var funcs []*ast.FunctionItem
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		funcs = append(funcs, p.parseFunction())
		p.skipNewlines()
	}
	p.expect(lexer.RBRACE)
	return &ast.ImplItem{Generics: generics, FromTy: fromTy, ToTy: toTy, Funcs: funcs, Span_: p.span(start)}
}

func (p *Parser) parsePath() []string {
	path := []string{p.expect(lexer.IDENT).Literal}
	for p.cur.Type == lexer.COLONCOLON {
		p.next()
		path = append(path, p.expect(lexer.IDENT).Literal)
	}
	return path
}

func (p *Parser) parseUse() ast.Item {
	start := p.cur
	p.next() // 'use'
	path := p.parsePath()
	return &ast.UseItem{Path: path, Span_: p.span(start)}
}

func (p *Parser) parseMod() ast.Item {
	start := p.cur
	p.next() // 'mod'
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.LBRACE)
	p.skipNewlines()
	var items []ast.Item
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		items = append(items, p.parseItem())
		p.skipNewlines()
	}
	p.expect(lexer.RBRACE)
	return &ast.ModuleItem{Name: name, Items: items, Span_: p.span(start)}
}
