package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

// Precedence climbing levels, lowest first.
const (
	precLowest = iota
	precAssign
	precOr
	precAnd
	precCmp
	precAdd
	precMul
	precUnary
	precCall
)

func precedenceOf(tt lexer.TokenType) int {
	switch tt {
	case lexer.ASSIGN:
		return precAssign
	case lexer.OROR:
		return precOr
	case lexer.ANDAND:
		return precAnd
	case lexer.EQ, lexer.NE, lexer.LT, lexer.GT, lexer.LE, lexer.GE:
		return precCmp
	case lexer.PLUS, lexer.MINUS:
		return precAdd
	case lexer.STAR, lexer.SLASH, lexer.PERCENT:
		return precMul
	case lexer.LPAREN, lexer.DOT:
		return precCall
	default:
		return precLowest
	}
}

func binOpFor(tt lexer.TokenType) ast.BinOp {
	switch tt {
	case lexer.PLUS:
		return ast.OpAdd
	case lexer.MINUS:
		return ast.OpSub
	case lexer.STAR:
		return ast.OpMul
	case lexer.SLASH:
		return ast.OpDiv
	case lexer.PERCENT:
		return ast.OpMod
	case lexer.EQ:
		return ast.OpEq
	case lexer.NE:
		return ast.OpNe
	case lexer.LT:
		return ast.OpLt
	case lexer.GT:
		return ast.OpGt
	case lexer.LE:
		return ast.OpLe
	case lexer.GE:
		return ast.OpGe
	case lexer.ANDAND:
		return ast.OpAnd
	case lexer.OROR:
		return ast.OpOr
	}
	return ""
}

func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parsePrefix()

	for {
		prec := precedenceOf(p.cur.Type)
		if prec <= minPrec {
			break
		}
		switch p.cur.Type {
		case lexer.LPAREN:
			left = p.parseCall(left)
		case lexer.DOT:
			left = p.parseMember(left)
		case lexer.ASSIGN:
			start := p.cur
			p.next()
			p.skipNewlines()
			value := p.parseExpr(precAssign - 1)
			left = &ast.AssignExpr{Target: left, Value: value, Span_: p.span(start)}
		default:
			op := binOpFor(p.cur.Type)
			if op == "" {
				return left
			}
			start := p.cur
			p.next()
			p.skipNewlines()
			right := p.parseExpr(prec)
			left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Span_: p.span(start)}
		}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expr {
	start := p.cur
	switch p.cur.Type {
	case lexer.BANG, lexer.MINUS:
		opLit := p.cur.Literal
		p.next()
		operand := p.parseExpr(precUnary)
		return &ast.UnaryExpr{Op: opLit, Operand: operand, Span_: p.span(start)}
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.CHAR, lexer.TRUE, lexer.FALSE:
		return p.parseLiteralExpr()
	case lexer.LBRACKET:
		return p.parseListLit()
	case lexer.LPAREN:
		return p.parseParenOrTuple()
	case lexer.PIPE:
		return p.parseLambda()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IF:
		return p.parseIf()
	case lexer.MATCH:
		return p.parseMatch()
	case lexer.FOR:
		return p.parseFor()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.BREAK:
		p.next()
		return &ast.BreakExpr{Span_: p.span(start)}
	case lexer.CONTINUE:
		p.next()
		return &ast.ContinueExpr{Span_: p.span(start)}
	case lexer.RETURN:
		p.next()
		if p.cur.Type == lexer.RBRACE || p.cur.Type == lexer.NEWLINE || p.cur.Type == lexer.EOF {
			return &ast.ReturnExpr{Span_: p.span(start)}
		}
		v := p.parseExpr(precLowest)
		return &ast.ReturnExpr{Value: v, Span_: p.span(start)}
	case lexer.IDENT, lexer.SELF_TY:
		path := p.parsePath()
		if len(path) == 1 {
			return &ast.Ident{Name: path[0], Span_: p.span(start)}
		}
		return &ast.QualifiedIdent{Path: path, Span_: p.span(start)}
	default:
		p.errorf("unexpected token in expression: %q", p.cur.Literal)
		p.next()
		return &ast.BoolLit{Value: false, Span_: p.span(start)}
	}
}

func (p *Parser) parseListLit() ast.Expr {
	start := p.cur
	p.next() // '['
	p.skipNewlines()
	var elems []ast.Expr
	for p.cur.Type != lexer.RBRACKET && p.cur.Type != lexer.EOF {
		elems = append(elems, p.parseExpr(precLowest))
		if p.cur.Type == lexer.COMMA {
			p.next()
			p.skipNewlines()
		}
	}
	p.expect(lexer.RBRACKET)
	return &ast.ListLit{Elems: elems, Span_: p.span(start)}
}

func (p *Parser) parseParenOrTuple() ast.Expr {
	start := p.cur
	p.next() // '('
	p.skipNewlines()
	var elems []ast.Expr
	isTuple := false
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		elems = append(elems, p.parseExpr(precLowest))
		if p.cur.Type == lexer.COMMA {
			isTuple = true
			p.next()
			p.skipNewlines()
		}
	}
	p.expect(lexer.RPAREN)
	if !isTuple && len(elems) == 1 {
		return elems[0]
	}
	return &ast.TupleExpr{Elems: elems, Span_: p.span(start)}
}

func (p *Parser) parseLambda() ast.Expr {
	start := p.cur
	p.next() // '|'
	var params []*ast.Param
	for p.cur.Type != lexer.PIPE && p.cur.Type != lexer.EOF {
		pstart := p.cur
		name := p.expect(lexer.IDENT).Literal
		var ty ast.TypeExpr
		if p.cur.Type == lexer.COLON {
			p.next()
			ty = p.parseTypeExpr()
		}
		params = append(params, &ast.Param{Name: name, Type: ty, Span_: p.span(pstart)})
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.PIPE)
	var ret ast.TypeExpr
	if p.cur.Type == lexer.ARROW {
		p.next()
		ret = p.parseTypeExpr()
	}
	var body ast.Expr
	if p.cur.Type == lexer.LBRACE {
		body = p.parseBlock()
	} else {
		body = p.parseExpr(precLowest)
	}
	return &ast.LambdaExpr{Params: params, Ret: ret, Body: body, Span_: p.span(start)}
}

func (p *Parser) parseBlock() *ast.BlockExpr {
	start := p.cur
	p.expect(lexer.LBRACE)
	p.skipNewlines()
	var stmts []ast.Stmt
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		stmts = append(stmts, p.parseStmt())
		p.skipNewlines()
	}
	p.expect(lexer.RBRACE)
	return &ast.BlockExpr{Stmts: stmts, Span_: p.span(start)}
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.cur
	if p.cur.Type == lexer.LET {
		p.next()
		pat := p.parsePattern()
		p.expect(lexer.ASSIGN)
		value := p.parseExpr(precLowest)
		return &ast.LetStmt{Pattern: pat, Value: value, Span_: p.span(start)}
	}
	x := p.parseExpr(precLowest)
	return &ast.ExprStmt{X: x, Span_: p.span(start)}
}

func (p *Parser) parseIf() ast.Expr {
	start := p.cur
	p.next() // 'if'
	cond := p.parseExpr(precLowest)
	then := p.parseBlock()
	ifExpr := &ast.IfExpr{Cond: cond, Then: then}
	if p.cur.Literal == "else" {
		p.next()
		if p.cur.Type == lexer.IF {
			ifExpr.Else = p.parseIf()
		} else {
			ifExpr.Else = p.parseBlock()
		}
	}
	ifExpr.Span_ = p.span(start)
	return ifExpr
}

func (p *Parser) parseMatch() ast.Expr {
	start := p.cur
	p.next() // 'match'
	scrutinee := p.parseExpr(precLowest)
	p.expect(lexer.LBRACE)
	p.skipNewlines()
	var arms []*ast.MatchArm
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		astart := p.cur
		pat := p.parsePattern()
		p.expect(lexer.FATARROW)
		body := p.parseExpr(precLowest)
		arms = append(arms, &ast.MatchArm{Pattern: pat, Body: body, Span_: p.span(astart)})
		if p.cur.Type == lexer.COMMA {
			p.next()
			p.skipNewlines()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms, Span_: p.span(start)}
}

func (p *Parser) parseFor() ast.Expr {
	start := p.cur
	p.next() // 'for'
	pat := p.parsePattern()
	p.next() // 'in' (the IN keyword token); skipped without being checked
	iter := p.parseExpr(precLowest)
	body := p.parseBlock()
	return &ast.ForExpr{Pattern: pat, Iter: iter, Body: body, Span_: p.span(start)}
}

func (p *Parser) parseWhile() ast.Expr {
	start := p.cur
	p.next() // 'while'
	w := &ast.WhileExpr{}
	if p.cur.Type == lexer.LET {
		p.next()
		w.LetPat = p.parsePattern()
		p.expect(lexer.ASSIGN)
		w.LetValue = p.parseExpr(precLowest)
	} else {
		w.Cond = p.parseExpr(precLowest)
	}
	w.Body = p.parseBlock()
	w.Span_ = p.span(start)
	return w
}

func (p *Parser) parseCall(callee ast.Expr) ast.Expr {
	start := p.cur
	p.next() // '('
	p.skipNewlines()
	var args []ast.Expr
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		args = append(args, p.parseExpr(precLowest))
		if p.cur.Type == lexer.COMMA {
			p.next()
			p.skipNewlines()
		}
	}
	p.expect(lexer.RPAREN)

	if mc, ok := callee.(*memberRef); ok {
		return &ast.MemberCallExpr{Recv: mc.Recv, Method: mc.Member, Args: args, Span_: p.span(start)}
	}
	return &ast.CallExpr{Callee: callee, Args: args, Span_: p.span(start)}
}

// memberRef is a parser-internal marker wrapping a MemberExpr so that a
// following '(' can be recognised as a method call rather than a call of
// the field's value.
type memberRef struct {
	*ast.MemberExpr
}

func (p *Parser) parseMember(recv ast.Expr) ast.Expr {
	start := p.cur
	p.next() // '.'
	var name string
	if p.cur.Type == lexer.INT {
		// tuple-struct index access, e.g. `pair.0`
		name = p.cur.Literal
		p.next()
	} else {
		name = p.expect(lexer.IDENT).Literal
	}
	if p.cur.Type == lexer.LPAREN {
		return &memberRef{&ast.MemberExpr{Recv: recv, Member: name, Span_: p.span(start)}}
	}
	return &ast.MemberExpr{Recv: recv, Member: name, Span_: p.span(start)}
}
