package check

import (
	"strconv"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/types"
)

// CheckFunc type-checks one function decl's body end to end: it binds
// the function's generics, receiver, and parameters into a fresh scope,
// checks the body against the declared return type, and reports any type
// variables the body left unbound.
func (c *Checker) CheckFunc(d *decl.Decl) *Expr {
	return c.CheckFuncWith(d, nil)
}

// CheckFuncWith is CheckFunc with the owning file's `use` imports bound
// into the outermost scope first, so qualified-name aliases resolve
// inside the body.
func (c *Checker) CheckFuncWith(d *decl.Decl, imports map[string]*decl.Decl) *Expr {
	if d.FuncBody == nil {
		return nil
	}
	st := NewCheckState(c.Forest, c.Impls, d.File)
	ts := NewTypeState()
	for name, target := range imports {
		st.Bind(name, Import{Decl: target})
	}
	c.bindGenerics(st, d.Generics)

	if d.Receiver != nil {
		st.Bind(d.Receiver.Name, Variable{Ty: types.Named{Name: d.Path.Parent().String()}})
		st.Bind("Self", GenericBinding{Ty: types.Generic{
			Name:  "Self",
			Super: types.Named{Name: d.Path.Parent().String()},
		}})
	}
	for _, a := range d.Args {
		st.Bind(a.Name, Variable{Ty: c.ResolveTypeExpr(st, a.Type)})
	}

	retTy := c.ResolveTypeExpr(st, d.Ret)
	body := c.CheckExpr(st, ts, d.FuncBody, retTy)

	for _, tv := range ts.Unbound() {
		c.report(UnboundTypeVar{errAt(d.Span, d.File), tv})
	}
	return body
}

// CheckExpr infers e's natural type, reconciles it against want, and
// returns the typed IR node. Pass types.Unknown{} for want to mean "no
// expectation" without triggering reconciliation.
func (c *Checker) CheckExpr(st *CheckState, ts *TypeState, e ast.Expr, want types.Ty) *Expr {
	if e == nil {
		return &Expr{Ty: types.Unit(), Node: TupleExpr{}}
	}

	node, ty := c.inferExpr(st, ts, e, want)
	out := &Expr{Ty: ty, Span: e.Span(), Node: node}

	if _, unknown := want.(types.Unknown); !unknown {
		if !c.ExpectIsInstanceOf(ts, ty, want) {
			c.report(IsNotInstance{errAt(e.Span(), st.File), ts.ResolveDeep(ty), ts.ResolveDeep(want)})
		}
	}
	return out
}

func (c *Checker) inferExpr(st *CheckState, ts *TypeState, e ast.Expr, want types.Ty) (ExprNode, types.Ty) {
	switch ex := e.(type) {
	case *ast.IntLit:
		return IntLit{Value: ex.Value}, types.Named{Name: "std::Int"}
	case *ast.FloatLit:
		return FloatLit{Value: ex.Value}, types.Named{Name: "std::Float"}
	case *ast.StringLit:
		return StringLit{Value: ex.Value}, types.Named{Name: "std::String"}
	case *ast.BoolLit:
		return BoolLit{Value: ex.Value}, types.Named{Name: "std::Bool"}
	case *ast.CharLit:
		return CharLit{Value: ex.Value}, types.Named{Name: "std::Char"}

	case *ast.Ident:
		return c.inferIdent(st, ts, ex)
	case *ast.QualifiedIdent:
		return c.inferQualifiedIdent(st, ex)

	case *ast.ListLit:
		return c.inferListLit(st, ts, ex, want)
	case *ast.TupleExpr:
		return c.inferTupleExpr(st, ts, ex)

	case *ast.CallExpr:
		return c.inferCall(st, ts, ex)
	case *ast.MemberExpr:
		return c.inferMember(st, ts, ex)
	case *ast.MemberCallExpr:
		return c.inferMethodCall(st, ts, ex)

	case *ast.BinaryExpr:
		return c.inferBinary(st, ts, ex)
	case *ast.UnaryExpr:
		return c.inferUnary(st, ts, ex)
	case *ast.AssignExpr:
		return c.inferAssign(st, ts, ex)

	case *ast.LambdaExpr:
		return c.inferLambda(st, ts, ex, want)
	case *ast.BlockExpr:
		return c.inferBlock(st, ts, ex, want)
	case *ast.IfExpr:
		return c.inferIf(st, ts, ex, want)
	case *ast.MatchExpr:
		return c.inferMatch(st, ts, ex, want)
	case *ast.ForExpr:
		return c.inferFor(st, ts, ex)
	case *ast.WhileExpr:
		return c.inferWhile(st, ts, ex)

	case *ast.BreakExpr:
		return BreakExpr{}, types.Nothing{}
	case *ast.ContinueExpr:
		return ContinueExpr{}, types.Nothing{}
	case *ast.ReturnExpr:
		var v *Expr
		if ex.Value != nil {
			v = c.CheckExpr(st, ts, ex.Value, types.Unknown{})
		}
		return ReturnExpr{Value: v}, types.Nothing{}

	default:
		c.report(Simple{errAt(e.Span(), st.File), "unsupported expression form"})
		return IdentExpr{}, types.Unknown{}
	}
}

func (c *Checker) inferIdent(st *CheckState, ts *TypeState, ex *ast.Ident) (ExprNode, types.Ty) {
	if b, ok := st.Lookup(ex.Name); ok {
		switch v := b.(type) {
		case Variable:
			return IdentExpr{Name: ex.Name, Def: DefVariable{Ty: v.Ty}}, v.Ty
		case GenericBinding:
			return IdentExpr{Name: ex.Name, Def: DefGeneric{Ty: v.Ty}}, types.Meta{Of: v.Ty}
		case Import:
			return IdentExpr{Name: ex.Name, Def: DefDecl{Decl: v.Decl}}, c.declTy(v.Decl)
		}
	}
	if d := c.Resolve([]string{ex.Name}); d != nil {
		return IdentExpr{Name: ex.Name, Def: DefDecl{Decl: d}}, c.declTy(d)
	}
	c.report(Unresolved{errAt(ex.Span_, st.File), ex.Name})
	return IdentExpr{Name: ex.Name, Def: DefUnresolved{}}, types.Unknown{}
}

func (c *Checker) inferQualifiedIdent(st *CheckState, ex *ast.QualifiedIdent) (ExprNode, types.Ty) {
	var d *decl.Decl
	if b, ok := st.Lookup(ex.Path[0]); ok {
		if imp, ok := b.(Import); ok {
			d = imp.Decl
			for _, seg := range ex.Path[1:] {
				if d == nil {
					break
				}
				d = d.Get(seg)
			}
		}
	}
	if d == nil {
		d = c.Resolve(ex.Path)
	}
	if d == nil {
		c.report(Unresolved{errAt(ex.Span_, st.File), ex.Path[len(ex.Path)-1]})
		return IdentExpr{Name: lastSeg(ex.Path), Def: DefUnresolved{}}, types.Unknown{}
	}
	return IdentExpr{Name: lastSeg(ex.Path), Def: DefDecl{Decl: d}}, c.declTy(d)
}

// declTy gives the "value type" of referencing a decl by name directly:
// a function decl's callable signature, a unit struct's own named type
// (the name denotes the value), or Meta(Named) for any other struct/enum
// used as a type value.
func (c *Checker) declTy(d *decl.Decl) types.Ty {
	if d == nil {
		return types.Unknown{}
	}
	switch d.Kind {
	case decl.KindFunction:
		return types.Function{Func: c.FuncSig(d)}
	case decl.KindStruct, decl.KindMember:
		if d.Body.Kind == ast.BodyUnit {
			return namedTyOf(d)
		}
	}
	return types.Meta{Of: types.Named{Name: d.Path.String()}}
}

// namedTyOf is the Named type a struct or member value has: the member's
// enum for enum variants, the struct itself otherwise.
func namedTyOf(d *decl.Decl) types.Named {
	if d.Kind == decl.KindMember {
		return types.Named{Name: d.Path.Parent().String()}
	}
	return types.Named{Name: d.Path.String()}
}

func lastSeg(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

func (c *Checker) inferListLit(st *CheckState, ts *TypeState, ex *ast.ListLit, want types.Ty) (ExprNode, types.Ty) {
	var elemWant types.Ty = types.Unknown{}
	if nt, ok := want.(types.Named); ok && nt.Name == "std::List" && len(nt.Args) == 1 {
		elemWant = nt.Args[0]
	}
	out := ListLit{}
	var elemTy types.Ty = types.Unknown{}
	for i, el := range ex.Elems {
		ce := c.CheckExpr(st, ts, el, elemWant)
		out.Elems = append(out.Elems, ce)
		if i == 0 {
			elemTy = ce.Ty
		}
	}
	return out, types.Named{Name: "std::List", Args: []types.Ty{elemTy}}
}

func (c *Checker) inferTupleExpr(st *CheckState, ts *TypeState, ex *ast.TupleExpr) (ExprNode, types.Ty) {
	out := TupleExpr{}
	tup := types.Tuple{}
	for _, el := range ex.Elems {
		ce := c.CheckExpr(st, ts, el, types.Unknown{})
		out.Elems = append(out.Elems, ce)
		tup.Elems = append(tup.Elems, ce.Ty)
	}
	return out, tup
}

func (c *Checker) inferCall(st *CheckState, ts *TypeState, ex *ast.CallExpr) (ExprNode, types.Ty) {
	callee := c.CheckExpr(st, ts, ex.Callee, types.Unknown{})

	var target *decl.Decl
	if id, ok := callee.Node.(IdentExpr); ok {
		if dd, ok := id.Def.(DefDecl); ok {
			target = dd.Decl
		}
	}

	args := make([]*Expr, len(ex.Args))
	if target != nil && target.Kind == decl.KindFunction {
		sig := c.instFuncSig(ts, target, ex.Span_, st.File)
		if len(sig.Args) != len(ex.Args) {
			c.report(UnexpectedArgs{errAt(ex.Span_, st.File), len(sig.Args), len(ex.Args)})
		}
		if sig.Receiver != nil {
			if _, ok := st.Lookup("self"); !ok {
				c.report(MissingReceiver{errAt(ex.Span_, st.File), target.Name})
			}
		}
		for i, a := range ex.Args {
			var want types.Ty = types.Unknown{}
			if i < len(sig.Args) {
				want = sig.Args[i]
			}
			args[i] = c.CheckExpr(st, ts, a, want)
		}
		ret := sig.Ret
		if ret == nil {
			ret = types.Unit()
		}
		return CallExpr{Callee: callee, Args: args, Target: target}, ret
	}
	if target != nil && (target.Kind == decl.KindStruct || target.Kind == decl.KindMember) {
		return c.inferConstruct(st, ts, ex, target)
	}

	// A callable value (e.g. a lambda-bound variable) checks against its
	// own signature even though no decl is involved.
	if fn, ok := ts.Resolve(callee.Ty).(types.Function); ok {
		if len(fn.Func.Args) != len(ex.Args) {
			c.report(UnexpectedArgs{errAt(ex.Span_, st.File), len(fn.Func.Args), len(ex.Args)})
		}
		for i, a := range ex.Args {
			var want types.Ty = types.Unknown{}
			if i < len(fn.Func.Args) {
				want = fn.Func.Args[i]
			}
			args[i] = c.CheckExpr(st, ts, a, want)
		}
		ret := fn.Func.Ret
		if ret == nil {
			ret = types.Unit()
		}
		return CallExpr{Callee: callee, Args: args, Target: nil}, ret
	}

	for i, a := range ex.Args {
		args[i] = c.CheckExpr(st, ts, a, types.Unknown{})
	}
	if _, unknown := ts.Resolve(callee.Ty).(types.Unknown); !unknown {
		c.report(Simple{errAt(ex.Span_, st.File), "expected a function"})
	}
	return CallExpr{Callee: callee, Args: args, Target: target}, types.Unknown{}
}

// instFuncSig resolves a function decl's signature with every generic
// parameter replaced by a fresh inference variable,
// so each call site constrains its own copy of the signature.
func (c *Checker) instFuncSig(ts *TypeState, d *decl.Decl, span ast.Span, file string) types.FuncTy {
	sig := c.FuncSig(d)
	if len(d.Generics) == 0 {
		return sig
	}
	params := make(map[string]types.Ty, len(d.Generics))
	for _, g := range d.Generics {
		params[g.Name] = ts.Fresh(errAt(span, file))
	}
	return types.FuncTy{
		Receiver: maybeParameterize(sig.Receiver, params),
		Args:     parameterizeAll(sig.Args, params),
		Ret:      maybeParameterize(sig.Ret, params),
	}
}

func maybeParameterize(t types.Ty, params map[string]types.Ty) types.Ty {
	if t == nil {
		return nil
	}
	return types.Parameterize(t, params)
}

func parameterizeAll(tys []types.Ty, params map[string]types.Ty) []types.Ty {
	out := make([]types.Ty, len(tys))
	for i, t := range tys {
		out[i] = types.Parameterize(t, params)
	}
	return out
}

// inferConstruct checks a struct/member constructor call. The owning
// decl's generics become fresh type variables bound through the argument
// checks, so `Opt::Some(7)` infers `Opt[Int]`.
func (c *Checker) inferConstruct(st *CheckState, ts *TypeState, ex *ast.CallExpr, target *decl.Decl) (ExprNode, types.Ty) {
	owner := target
	if target.Kind == decl.KindMember {
		owner = c.Resolve(target.Path.Parent().Segments)
	}
	result := namedTyOf(target)
	params := map[string]types.Ty{}
	if owner != nil {
		for _, g := range owner.Generics {
			tv := ts.Fresh(errAt(ex.Span_, st.File))
			params[g.Name] = tv
			result.Args = append(result.Args, tv)
		}
	}

	var fieldTys []ast.TypeExpr
	switch target.Body.Kind {
	case ast.BodyTuple:
		fieldTys = target.Body.Tuple
	case ast.BodyFields:
		for _, f := range target.Body.Fields {
			fieldTys = append(fieldTys, f.Type)
		}
	case ast.BodyUnit:
		// constructing a unit decl with parens; zero args expected
	}
	if len(ex.Args) != len(fieldTys) {
		c.report(UnexpectedArgs{errAt(ex.Span_, st.File), len(fieldTys), len(ex.Args)})
	}

	dst := NewCheckState(c.Forest, c.Impls, target.File)
	c.bindGenerics(dst, target.Generics)
	args := make([]*Expr, len(ex.Args))
	for i, a := range ex.Args {
		var want types.Ty = types.Unknown{}
		if i < len(fieldTys) {
			want = types.Parameterize(c.ResolveTypeExpr(dst, fieldTys[i]), params)
		}
		args[i] = c.CheckExpr(st, ts, a, want)
	}
	return CallExpr{Args: args, Target: target}, result
}

func (c *Checker) inferMember(st *CheckState, ts *TypeState, ex *ast.MemberExpr) (ExprNode, types.Ty) {
	recv := c.CheckExpr(st, ts, ex.Recv, types.Unknown{})
	recvTy := ts.Resolve(recv.Ty)
	if g, ok := recvTy.(types.Generic); ok && g.Name == "Self" {
		recvTy = g.Super
	}
	named, ok := recvTy.(types.Named)
	if !ok {
		if _, unknown := recvTy.(types.Unknown); !unknown {
			c.report(Simple{errAt(ex.Span_, st.File), "field access on non-struct type " + recvTy.String()})
		}
		return MemberExpr{Recv: recv, Field: ex.Member}, types.Unknown{}
	}
	d := c.declByPath(named.Name)
	if d == nil || (d.Kind != decl.KindStruct && d.Kind != decl.KindMember) {
		c.report(Simple{errAt(ex.Span_, st.File), "field access on non-struct type " + named.Name})
		return MemberExpr{Recv: recv, Field: ex.Member}, types.Unknown{}
	}

	params := map[string]types.Ty{}
	for i, n := range genericNames(d.Generics) {
		if i < len(named.Args) {
			params[n] = named.Args[i]
		}
	}

	switch d.Body.Kind {
	case ast.BodyFields:
		if ft, ok := c.fieldTypes(d)[ex.Member]; ok {
			return MemberExpr{Recv: recv, Field: ex.Member}, types.Parameterize(ft, params)
		}
		c.report(Simple{errAt(ex.Span_, st.File), "no field '" + ex.Member + "' on " + named.Name})
	case ast.BodyTuple:
		idx, err := strconv.Atoi(ex.Member)
		if err != nil || idx < 0 {
			c.report(Simple{errAt(ex.Span_, st.File), "tuple index must be a non-negative integer"})
			break
		}
		if idx >= len(d.Body.Tuple) {
			c.report(Simple{errAt(ex.Span_, st.File), "tuple index out of bounds"})
			break
		}
		dst := NewCheckState(c.Forest, c.Impls, d.File)
		c.bindGenerics(dst, d.Generics)
		ft := c.ResolveTypeExpr(dst, d.Body.Tuple[idx])
		return MemberExpr{Recv: recv, Field: ex.Member}, types.Parameterize(ft, params)
	default:
		c.report(Simple{errAt(ex.Span_, st.File), "field access on unit struct " + named.Name})
	}
	return MemberExpr{Recv: recv, Field: ex.Member}, types.Unknown{}
}

func (c *Checker) inferMethodCall(st *CheckState, ts *TypeState, ex *ast.MemberCallExpr) (ExprNode, types.Ty) {
	recv := c.CheckExpr(st, ts, ex.Recv, types.Unknown{})
	recvTy := ts.Resolve(recv.Ty)
	if g, ok := recvTy.(types.Generic); ok {
		recvTy = g.Super
	}
	named, ok := recvTy.(types.Named)
	if !ok {
		for _, a := range ex.Args {
			c.CheckExpr(st, ts, a, types.Unknown{})
		}
		if _, unknown := recvTy.(types.Unknown); !unknown {
			c.report(Simple{errAt(ex.Span_, st.File), "method call on non-named receiver type"})
		}
		return MethodCallExpr{Recv: recv, Method: ex.Method}, types.Unknown{}
	}

	if cands := c.FuncCandidates(named, ex.Method); len(cands) > 1 {
		c.report(Simple{errAt(ex.Span_, st.File), "ambiguous method '" + ex.Method + "' on " + named.Name})
		for _, a := range ex.Args {
			c.CheckExpr(st, ts, a, types.Unknown{})
		}
		return MethodCallExpr{Recv: recv, Method: ex.Method}, types.Unknown{}
	}

	fn := c.GetFunc(named, ex.Method)
	if fn == nil {
		for _, a := range ex.Args {
			c.CheckExpr(st, ts, a, types.Unknown{})
		}
		c.report(Unresolved{errAt(ex.Span_, st.File), ex.Method})
		return MethodCallExpr{Recv: recv, Method: ex.Method}, types.Unknown{}
	}
	if fn.Receiver == nil {
		c.report(MissingReceiver{errAt(ex.Span_, st.File), fn.Name})
	}

	sig := c.instFuncSig(ts, fn, ex.Span_, st.File)
	if sig.Receiver != nil && !c.ExpectIsInstanceOf(ts, recv.Ty, sig.Receiver) {
		c.report(IsNotInstance{errAt(ex.Recv.Span(), st.File), recv.Ty, sig.Receiver})
	}
	// Substitute the receiver type's own generic arguments through the
	// signature, so e.g. `next` on a ListIter[Int] returns Option[Int].
	if d := c.declByPath(named.Name); d != nil {
		params := map[string]types.Ty{}
		for i, n := range genericNames(d.Generics) {
			if i < len(named.Args) {
				params[n] = named.Args[i]
			}
		}
		if len(params) > 0 {
			sig = types.FuncTy{
				Receiver: maybeParameterize(sig.Receiver, params),
				Args:     parameterizeAll(sig.Args, params),
				Ret:      maybeParameterize(sig.Ret, params),
			}
		}
	}

	args := make([]*Expr, len(ex.Args))
	if len(sig.Args) != len(ex.Args) {
		c.report(UnexpectedArgs{errAt(ex.Span_, st.File), len(sig.Args), len(ex.Args)})
	}
	for i, a := range ex.Args {
		var want types.Ty = types.Unknown{}
		if i < len(sig.Args) {
			want = sig.Args[i]
		}
		args[i] = c.CheckExpr(st, ts, a, want)
	}
	ret := sig.Ret
	if ret == nil {
		ret = types.Unit()
	}
	return MethodCallExpr{Recv: recv, Method: ex.Method, Args: args, Target: fn}, ret
}

func (c *Checker) inferBinary(st *CheckState, ts *TypeState, ex *ast.BinaryExpr) (ExprNode, types.Ty) {
	left := c.CheckExpr(st, ts, ex.Left, types.Unknown{})
	right := c.CheckExpr(st, ts, ex.Right, types.Unknown{})
	node := BinaryExpr{Op: ex.Op, Left: left, Right: right}

	switch ex.Op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe, ast.OpAnd, ast.OpOr:
		return node, types.Named{Name: "std::Bool"}
	case ast.OpMul, ast.OpDiv:
		// `*` and `/` promote to Float when either side is a Float.
		if isFloatTy(ts.Resolve(left.Ty)) || isFloatTy(ts.Resolve(right.Ty)) {
			return node, types.Named{Name: "std::Float"}
		}
		return node, left.Ty
	default:
		// `+`, `-`, `%` require matching operand kinds; mixed Int/Float is
		// rejected rather than promoted. This asymmetry against `*`/`/` is
		// inherited deliberately.
		lt, rt := ts.Resolve(left.Ty), ts.Resolve(right.Ty)
		if (isFloatTy(lt) && isIntTy(rt)) || (isIntTy(lt) && isFloatTy(rt)) {
			c.report(IsNotInstance{errAt(ex.Span_, st.File), rt, lt})
		}
		return node, left.Ty
	}
}

func isFloatTy(t types.Ty) bool {
	n, ok := t.(types.Named)
	return ok && n.Name == "std::Float"
}
func isIntTy(t types.Ty) bool {
	n, ok := t.(types.Named)
	return ok && n.Name == "std::Int"
}

func (c *Checker) inferUnary(st *CheckState, ts *TypeState, ex *ast.UnaryExpr) (ExprNode, types.Ty) {
	operand := c.CheckExpr(st, ts, ex.Operand, types.Unknown{})
	if ex.Op == "!" {
		return UnaryExpr{Op: ex.Op, Operand: operand}, types.Named{Name: "std::Bool"}
	}
	return UnaryExpr{Op: ex.Op, Operand: operand}, operand.Ty
}

func (c *Checker) inferAssign(st *CheckState, ts *TypeState, ex *ast.AssignExpr) (ExprNode, types.Ty) {
	target := c.CheckExpr(st, ts, ex.Target, types.Unknown{})
	value := c.CheckExpr(st, ts, ex.Value, target.Ty)
	return AssignExpr{Target: target, Value: value}, types.Unit()
}

func (c *Checker) inferLambda(st *CheckState, ts *TypeState, ex *ast.LambdaExpr, want types.Ty) (ExprNode, types.Ty) {
	var wantFn *types.FuncTy
	if f, ok := want.(types.Function); ok {
		wantFn = &f.Func
	}
	var names []string
	sig := types.FuncTy{}
	st.Push()
	defer st.Pop()
	for i, p := range ex.Params {
		var pty types.Ty
		switch {
		case p.Type != nil:
			pty = c.ResolveTypeExpr(st, p.Type)
		case wantFn != nil && i < len(wantFn.Args):
			pty = wantFn.Args[i]
		default:
			pty = ts.Fresh(errAt(ex.Span_, st.File))
		}
		st.Bind(p.Name, Variable{Ty: pty})
		names = append(names, p.Name)
		sig.Args = append(sig.Args, pty)
	}
	var retWant types.Ty = types.Unknown{}
	if ex.Ret != nil {
		retWant = c.ResolveTypeExpr(st, ex.Ret)
	} else if wantFn != nil && wantFn.Ret != nil {
		retWant = wantFn.Ret
	}
	body := c.CheckExpr(st, ts, ex.Body, retWant)
	sig.Ret = body.Ty
	return LambdaExpr{Params: names, Body: body}, types.Function{Func: sig}
}

func (c *Checker) inferBlock(st *CheckState, ts *TypeState, ex *ast.BlockExpr, want types.Ty) (ExprNode, types.Ty) {
	out := BlockExpr{}
	var tailTy types.Ty = types.Unit()
	st.Push()
	defer st.Pop()
	for i, s := range ex.Stmts {
		last := i == len(ex.Stmts)-1
		switch stmt := s.(type) {
		case *ast.LetStmt:
			value := c.CheckExpr(st, ts, stmt.Value, types.Unknown{})
			pat := c.CheckPattern(st, ts, stmt.Pattern, value.Ty)
			out.Stmts = append(out.Stmts, LetStmt{Pattern: pat, Value: value})
		case *ast.ExprStmt:
			var w types.Ty = types.Unknown{}
			if last {
				w = want
			}
			value := c.CheckExpr(st, ts, stmt.X, w)
			out.Stmts = append(out.Stmts, ExprStmt{X: value})
			if last {
				out.Tail = value
				tailTy = value.Ty
			}
		}
	}
	return out, tailTy
}

func (c *Checker) inferIf(st *CheckState, ts *TypeState, ex *ast.IfExpr, want types.Ty) (ExprNode, types.Ty) {
	cond := c.CheckExpr(st, ts, ex.Cond, types.Named{Name: "std::Bool"})
	then := c.CheckExpr(st, ts, ex.Then, want)
	if ex.Else == nil {
		return IfExpr{Cond: cond, Then: then}, types.Unit()
	}
	var branchWant types.Ty = want
	if _, unknown := want.(types.Unknown); unknown {
		branchWant = then.Ty
	}
	els := c.CheckExpr(st, ts, ex.Else, branchWant)
	resultTy := then.Ty
	if _, isNothing := then.Ty.(types.Nothing); isNothing {
		resultTy = els.Ty
	}
	return IfExpr{Cond: cond, Then: then, Else: els}, resultTy
}

func (c *Checker) inferMatch(st *CheckState, ts *TypeState, ex *ast.MatchExpr, want types.Ty) (ExprNode, types.Ty) {
	scrut := c.CheckExpr(st, ts, ex.Scrutinee, types.Unknown{})
	out := MatchExpr{Scrutinee: scrut}
	var resultTy types.Ty = types.Nothing{}
	armWant := want
	for _, arm := range ex.Arms {
		st.Push()
		pat := c.CheckPattern(st, ts, arm.Pattern, scrut.Ty)
		body := c.CheckExpr(st, ts, arm.Body, armWant)
		st.Pop()
		out.Arms = append(out.Arms, MatchArm{Pattern: pat, Body: body})
		if _, isNothing := resultTy.(types.Nothing); isNothing {
			resultTy = body.Ty
			// Later arm expressions are expected against the first arm's
			// type once one is known.
			if _, unknown := armWant.(types.Unknown); unknown {
				armWant = body.Ty
			}
		}
	}
	return out, resultTy
}

// inferFor resolves the iteration protocol: the iterable must reach
// std::IntoIter[I] through its impls, I must reach
// std::Iterator[U], and the loop pattern destructures U. The resolved
// `iter`/`next` functions (and whether each dispatches dynamically) ride
// along in the IR for the lowerer.
func (c *Checker) inferFor(st *CheckState, ts *TypeState, ex *ast.ForExpr) (ExprNode, types.Ty) {
	iter := c.CheckExpr(st, ts, ex.Iter, types.Unknown{})
	st.Push()
	defer st.Pop()

	out := ForExpr{Iter: iter}
	var itemTy types.Ty = types.Unknown{}

	iterTy := ts.Resolve(iter.Ty)
	if named, ok := iterTy.(types.Named); ok {
		out.IterFn = c.GetFunc(named, "iter")
		out.IterDyn = c.IsTraitTy(named)
		if into, ok := c.ImplyNamed(ts, named, "std::IntoIter"); ok && len(into.Args) == 1 {
			iterObjTy := ts.Resolve(into.Args[0])
			if iterNamed, ok := iterObjTy.(types.Named); ok {
				out.NextFn = c.GetFunc(iterNamed, "next")
				out.NextDyn = c.IsTraitTy(iterNamed)
				if it, ok := c.ImplyNamed(ts, iterNamed, "std::Iterator"); ok && len(it.Args) == 1 {
					itemTy = it.Args[0]
				} else {
					c.report(Simple{errAt(ex.Iter.Span(), st.File), "expected " + iterNamed.String() + " to be an 'Iterator'"})
				}
			}
		} else {
			c.report(Simple{errAt(ex.Iter.Span(), st.File), "the type " + named.String() + " doesn't implement 'IntoIter'"})
		}
	} else if _, unknown := iterTy.(types.Unknown); !unknown {
		c.report(Simple{errAt(ex.Iter.Span(), st.File), "the type " + iterTy.String() + " doesn't implement 'IntoIter'"})
	}

	out.Pattern = c.CheckPattern(st, ts, ex.Pattern, itemTy)
	out.Body = c.CheckExpr(st, ts, ex.Body, types.Unknown{})
	return out, types.Unit()
}

func (c *Checker) inferWhile(st *CheckState, ts *TypeState, ex *ast.WhileExpr) (ExprNode, types.Ty) {
	if ex.LetPat != nil {
		letVal := c.CheckExpr(st, ts, ex.LetValue, types.Unknown{})
		st.Push()
		defer st.Pop()
		pat := c.CheckPattern(st, ts, ex.LetPat, letVal.Ty)
		body := c.CheckExpr(st, ts, ex.Body, types.Unknown{})
		return WhileExpr{Let: pat, LetVal: letVal, Body: body}, types.Unit()
	}
	cond := c.CheckExpr(st, ts, ex.Cond, types.Named{Name: "std::Bool"})
	body := c.CheckExpr(st, ts, ex.Body, types.Unknown{})
	return WhileExpr{Cond: cond, Body: body}, types.Unit()
}
