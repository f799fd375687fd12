package lower

import (
	"strconv"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/check"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/types"
)

// fnLowerer carries the per-function lowering state: parameter indices
// (receiver first) and local ids assigned in first-use order.
type fnLowerer struct {
	p      *Program
	params map[string]uint32
	locals map[string]uint32
}

func newFnLowerer(p *Program, d *decl.Decl) *fnLowerer {
	f := &fnLowerer{p: p, params: map[string]uint32{}, locals: map[string]uint32{}}
	i := uint32(0)
	if d.Receiver != nil {
		f.params[d.Receiver.Name] = 0
		i++
	}
	for _, a := range d.Args {
		f.params[a.Name] = i
		i++
	}
	return f
}

func (f *fnLowerer) localId(name string) uint32 {
	if id, ok := f.locals[name]; ok {
		return id
	}
	id := uint32(len(f.locals))
	f.locals[name] = id
	return id
}

// lowerExpr lowers e in value position: after the emitted code runs, e's
// value (if it produces one) is on top of the stack.
func (f *fnLowerer) lowerExpr(e *check.Expr) Node {
	switch n := e.Node.(type) {
	case check.IntLit:
		return Code{[]bytecode.Instr{{Op: bytecode.OpPushInt, Sign: int32(n.Value)}}}
	case check.FloatLit:
		return Code{[]bytecode.Instr{{Op: bytecode.OpPushFloat, Float: n.Value}}}
	case check.StringLit:
		return Code{[]bytecode.Instr{{Op: bytecode.OpPushString, Str: n.Value}}}
	case check.BoolLit:
		return Code{[]bytecode.Instr{{Op: bytecode.OpPushBool, Bool: n.Value}}}
	case check.CharLit:
		return Code{[]bytecode.Instr{{Op: bytecode.OpPushChar, Char: n.Value}}}

	case check.IdentExpr:
		return f.lowerIdent(n)
	case check.ListLit:
		return f.lowerListLit(n)
	case check.TupleExpr:
		return f.lowerTuple(n)

	case check.CallExpr:
		return f.lowerCall(e, n)
	case check.MemberExpr:
		return f.lowerMember(e, n)
	case check.MethodCallExpr:
		return f.lowerMethodCall(e, n)

	case check.BinaryExpr:
		return f.lowerBinary(n)
	case check.UnaryExpr:
		return f.lowerUnary(n)
	case check.AssignExpr:
		return f.lowerAssign(n)

	case check.BlockExpr:
		return f.lowerBlock(n)
	case check.IfExpr:
		return f.lowerIf(n)
	case check.MatchExpr:
		return f.lowerMatch(n)
	case check.ForExpr:
		return f.lowerFor(e, n)
	case check.WhileExpr:
		return f.lowerWhile(n)

	case check.BreakExpr:
		return seq(Code{[]bytecode.Instr{{Op: bytecode.OpPushBool, Bool: false}}}, MaybeBreak{})
	case check.ContinueExpr:
		return Continue{}
	case check.ReturnExpr:
		if n.Value != nil {
			return seq(f.lowerExpr(n.Value), instr(bytecode.OpReturn))
		}
		return instr(bytecode.OpReturn)

	case check.LambdaExpr:
		// The wire format has no closure representation; a lambda that
		// survives checking cannot be lowered.
		f.p.invariant("closures cannot be lowered to bytecode")
		return seq()

	default:
		f.p.invariant("unlowerable expression %T", e.Node)
		return seq()
	}
}

func (f *fnLowerer) lowerIdent(n check.IdentExpr) Node {
	switch d := n.Def.(type) {
	case check.DefVariable:
		if id, ok := f.locals[n.Name]; ok {
			return Code{[]bytecode.Instr{{Op: bytecode.OpGetLocal, Small: id}}}
		}
		if i, ok := f.params[n.Name]; ok {
			return Code{[]bytecode.Instr{{Op: bytecode.OpParam, Small: i}}}
		}
		f.p.invariant("variable %q has no local or parameter slot", n.Name)
		return seq()
	case check.DefDecl:
		if (d.Decl.Kind == decl.KindStruct || d.Decl.Kind == decl.KindMember) && d.Decl.Body.Kind == ast.BodyUnit {
			return Code{[]bytecode.Instr{{Op: bytecode.OpConstruct, Small: typeId(d.Decl), Small2: 0}}}
		}
		f.p.invariant("cannot use %s as a value", d.Decl.Path)
		return seq()
	case check.DefUnresolved:
		f.p.invariant("unresolved identifier %q reached the lowerer", n.Name)
		return seq()
	default:
		f.p.invariant("identifier %q is not a value", n.Name)
		return seq()
	}
}

// lowerListLit pushes elements in reverse so the popped-into-place
// fields end up in natural order, which is what the Vec* opcodes index:
// the built-in list is a type-id-0 object whose fields are the element
// sequence.
func (f *fnLowerer) lowerListLit(n check.ListLit) Node {
	nodes := make([]Node, 0, len(n.Elems)+1)
	for i := len(n.Elems) - 1; i >= 0; i-- {
		nodes = append(nodes, f.lowerExpr(n.Elems[i]))
	}
	nodes = append(nodes, Code{[]bytecode.Instr{{Op: bytecode.OpConstruct, Small: 0, Small2: uint32(len(n.Elems))}}})
	return Block{nodes}
}

// lowerTuple pushes elements in declaration order; Construct's pop order
// stores them reversed and tuple-index access compensates with len-1-i.
func (f *fnLowerer) lowerTuple(n check.TupleExpr) Node {
	nodes := make([]Node, 0, len(n.Elems)+1)
	for _, el := range n.Elems {
		nodes = append(nodes, f.lowerExpr(el))
	}
	nodes = append(nodes, Code{[]bytecode.Instr{{Op: bytecode.OpConstruct, Small: 0, Small2: uint32(len(n.Elems))}}})
	return Block{nodes}
}

func (f *fnLowerer) lowerCall(e *check.Expr, n check.CallExpr) Node {
	if n.Target == nil {
		f.p.invariant("call with unresolved target")
		return seq()
	}
	var nodes []Node
	switch n.Target.Kind {
	case decl.KindFunction:
		sig := f.p.Chk.FuncSig(n.Target)
		for i, a := range n.Args {
			var want types.Ty
			if i < len(sig.Args) {
				want = sig.Args[i]
			}
			nodes = append(nodes, f.lowerArg(a, want))
		}
		nodes = append(nodes, f.markAt(e.Span))
		nodes = append(nodes, Code{[]bytecode.Instr{{Op: bytecode.OpCall, Small: f.p.FuncId(n.Target)}}})
	case decl.KindStruct, decl.KindMember:
		wants := f.fieldWantTys(n.Target)
		for i, a := range n.Args {
			var want types.Ty
			if i < len(wants) {
				want = wants[i]
			}
			nodes = append(nodes, f.lowerArg(a, want))
		}
		nodes = append(nodes, Code{[]bytecode.Instr{{Op: bytecode.OpConstruct, Small: typeId(n.Target), Small2: uint32(len(n.Args))}}})
	default:
		f.p.invariant("cannot call %s", n.Target.Path)
	}
	return Block{nodes}
}

// fieldWantTys resolves a constructor's positional field types so trait-
// typed fields trigger implicit dyn wrapping on their arguments.
func (f *fnLowerer) fieldWantTys(d *decl.Decl) []types.Ty {
	var exprs []ast.TypeExpr
	switch d.Body.Kind {
	case ast.BodyTuple:
		exprs = d.Body.Tuple
	case ast.BodyFields:
		for _, fd := range d.Body.Fields {
			exprs = append(exprs, fd.Type)
		}
	}
	st := check.NewCheckState(f.p.Forest, f.p.Impls, d.File)
	out := make([]types.Ty, len(exprs))
	for i, te := range exprs {
		out[i] = f.p.Chk.ResolveTypeExpr(st, te)
	}
	return out
}

// lowerArg lowers an argument expression, wrapping it into a Dyn box
// when a trait is expected and the value's static type is concrete (the
// implicit "to-dyn" conversion).
func (f *fnLowerer) lowerArg(a *check.Expr, want types.Ty) Node {
	node := f.lowerExpr(a)
	if want == nil || !f.p.Chk.IsTraitTy(want) || f.p.Chk.IsTraitTy(a.Ty) {
		return node
	}
	named, ok := a.Ty.(types.Named)
	if !ok {
		return node
	}
	d := f.p.Chk.DeclByPath(named.Name)
	if d == nil {
		return node
	}
	return seq(node, Code{[]bytecode.Instr{{Op: bytecode.OpDyn, Big: uint64(typeId(d))}}})
}

func (f *fnLowerer) lowerMember(e *check.Expr, n check.MemberExpr) Node {
	recv := f.lowerExpr(n.Recv)
	idx, ok := f.fieldIndex(n.Recv.Ty, n.Field)
	if !ok {
		f.p.invariant("field %q not found on %s", n.Field, n.Recv.Ty)
		return recv
	}
	return seq(recv, Code{[]bytecode.Instr{{Op: bytecode.OpIndex, Small: idx}}})
}

// fieldIndex maps a field name (or tuple index) to its heap slot: fields
// land on the heap in reverse declaration order, so declared index i
// lives at len-1-i.
func (f *fnLowerer) fieldIndex(recvTy types.Ty, field string) (uint32, bool) {
	if g, ok := recvTy.(types.Generic); ok {
		recvTy = g.Super
	}
	named, ok := recvTy.(types.Named)
	if !ok {
		return 0, false
	}
	d := f.p.Chk.DeclByPath(named.Name)
	if d == nil {
		return 0, false
	}
	switch d.Body.Kind {
	case ast.BodyFields:
		for i, fd := range d.Body.Fields {
			if fd.Name == field {
				return uint32(len(d.Body.Fields) - 1 - i), true
			}
		}
	case ast.BodyTuple:
		i, err := strconv.Atoi(field)
		if err != nil || i < 0 || i >= len(d.Body.Tuple) {
			return 0, false
		}
		return uint32(len(d.Body.Tuple) - 1 - i), true
	}
	return 0, false
}

func (f *fnLowerer) lowerMethodCall(e *check.Expr, n check.MethodCallExpr) Node {
	if n.Target == nil {
		f.p.invariant("method call with unresolved target")
		return seq()
	}
	nodes := []Node{f.lowerExpr(n.Recv)}
	sig := f.p.Chk.FuncSig(n.Target)
	for i, a := range n.Args {
		var want types.Ty
		if i < len(sig.Args) {
			want = sig.Args[i]
		}
		nodes = append(nodes, f.lowerArg(a, want))
	}
	nodes = append(nodes, f.markAt(e.Span))
	if f.p.Chk.IsTraitTy(n.Recv.Ty) {
		nodes = append(nodes, Code{[]bytecode.Instr{{Op: bytecode.OpDynCall, Small: f.p.FuncId(n.Target)}}})
	} else {
		nodes = append(nodes, Code{[]bytecode.Instr{{Op: bytecode.OpCall, Small: f.p.FuncId(n.Target)}}})
	}
	return Block{nodes}
}

var binOps = map[ast.BinOp]bytecode.Op{
	ast.OpAdd: bytecode.OpAdd,
	ast.OpSub: bytecode.OpSub,
	ast.OpMul: bytecode.OpMul,
	ast.OpDiv: bytecode.OpDiv,
	ast.OpMod: bytecode.OpMod,
	ast.OpEq:  bytecode.OpEq,
	ast.OpNe:  bytecode.OpNeq,
	ast.OpLt:  bytecode.OpLt,
	ast.OpGt:  bytecode.OpGt,
	ast.OpLe:  bytecode.OpLte,
	ast.OpGe:  bytecode.OpGte,
	ast.OpAnd: bytecode.OpAnd,
	ast.OpOr:  bytecode.OpOr,
}

func (f *fnLowerer) lowerBinary(n check.BinaryExpr) Node {
	op, ok := binOps[n.Op]
	if !ok {
		f.p.invariant("unknown binary operator %q", n.Op)
		return seq()
	}
	return seq(f.lowerExpr(n.Left), f.lowerExpr(n.Right), instr(op))
}

func (f *fnLowerer) lowerUnary(n check.UnaryExpr) Node {
	if n.Op == "!" {
		return seq(f.lowerExpr(n.Operand), instr(bytecode.OpNot))
	}
	// Unary minus: fold literals, otherwise subtract from zero.
	if lit, ok := n.Operand.Node.(check.IntLit); ok {
		return Code{[]bytecode.Instr{{Op: bytecode.OpPushInt, Sign: int32(-lit.Value)}}}
	}
	if lit, ok := n.Operand.Node.(check.FloatLit); ok {
		return Code{[]bytecode.Instr{{Op: bytecode.OpPushFloat, Float: -lit.Value}}}
	}
	return seq(
		Code{[]bytecode.Instr{{Op: bytecode.OpPushInt, Sign: 0}}},
		f.lowerExpr(n.Operand),
		instr(bytecode.OpSub),
	)
}

func (f *fnLowerer) lowerAssign(n check.AssignExpr) Node {
	switch t := n.Target.Node.(type) {
	case check.IdentExpr:
		if id, ok := f.locals[t.Name]; ok {
			return seq(f.lowerExpr(n.Value), Code{[]bytecode.Instr{{Op: bytecode.OpSetLocal, Small: id}}})
		}
		f.p.invariant("cannot assign to %q", t.Name)
		return seq()
	case check.MemberExpr:
		idx, ok := f.fieldIndex(t.Recv.Ty, t.Field)
		if !ok {
			f.p.invariant("field %q not found on %s", t.Field, t.Recv.Ty)
			return seq()
		}
		return seq(
			f.lowerExpr(t.Recv),
			f.lowerExpr(n.Value),
			Code{[]bytecode.Instr{{Op: bytecode.OpSetIndex, Small: idx}}},
		)
	default:
		f.p.invariant("unsupported assignment target")
		return seq()
	}
}

// lowerBlock lowers statements, popping the values of non-tail
// expression statements; the tail expression's value (if any) stays on
// the stack as the block's value.
func (f *fnLowerer) lowerBlock(n check.BlockExpr) Node {
	var nodes []Node
	for _, s := range n.Stmts {
		switch stmt := s.(type) {
		case check.LetStmt:
			nodes = append(nodes, f.lowerExpr(stmt.Value), f.buildPattern(stmt.Pattern))
		case check.ExprStmt:
			nodes = append(nodes, f.markAt(stmt.X.Span), f.lowerExpr(stmt.X))
			if stmt.X != n.Tail && produces(stmt.X) {
				nodes = append(nodes, instr(bytecode.OpPop))
			}
		}
	}
	return Block{nodes}
}

// produces reports whether an expression's lowered code leaves a value
// on the stack, which decides whether a statement position needs a Pop.
func produces(e *check.Expr) bool {
	switch n := e.Node.(type) {
	case check.AssignExpr, check.ForExpr, check.WhileExpr,
		check.BreakExpr, check.ContinueExpr, check.ReturnExpr:
		return false
	case check.TupleExpr, check.ListLit:
		return true
	case check.CallExpr:
		if n.Target != nil && n.Target.Kind != decl.KindFunction {
			return true
		}
		return !isUnitTy(e.Ty)
	case check.BlockExpr:
		return n.Tail != nil && produces(n.Tail)
	case check.IfExpr:
		return n.Else != nil && !isUnitTy(e.Ty)
	case check.MatchExpr, check.MethodCallExpr:
		return !isUnitTy(e.Ty)
	default:
		return !isUnitTy(e.Ty)
	}
}

func isUnitTy(t types.Ty) bool {
	switch v := t.(type) {
	case types.Tuple:
		return len(v.Elems) == 0
	case types.Nothing:
		return true
	}
	return false
}

func (f *fnLowerer) lowerIf(n check.IfExpr) Node {
	branch := Branch{
		Cond: seq(f.lowerExpr(n.Cond), Next{}),
		Body: f.lowerExpr(n.Then),
	}
	out := If{Branches: []Branch{branch}}
	if n.Else != nil {
		out.Else = f.lowerExpr(n.Else)
	}
	return out
}

// lowerMatch evaluates the scrutinee once, then lowers the arms into an
// If chain: each arm's condition checks against the scrutinee left on
// the stack, and the arm body first destructures (consuming the
// scrutinee) before running the arm expression.
func (f *fnLowerer) lowerMatch(n check.MatchExpr) Node {
	out := If{}
	for _, arm := range n.Arms {
		out.Branches = append(out.Branches, Branch{
			Cond: f.buildMatchCond(arm.Pattern),
			Body: seq(f.buildPattern(arm.Pattern), f.lowerExpr(arm.Body)),
		})
	}
	return seq(f.lowerExpr(n.Scrutinee), out)
}

func (f *fnLowerer) lowerWhile(n check.WhileExpr) Node {
	if n.Let != nil {
		return While{
			Cond: seq(f.lowerExpr(n.LetVal), f.buildMatchCond(n.Let)),
			Body: seq(f.buildPattern(n.Let), f.lowerStmt(n.Body), Continue{}),
		}
	}
	return While{
		Cond: seq(f.lowerExpr(n.Cond), MaybeBreak{}),
		Body: seq(f.lowerStmt(n.Body), Continue{}),
	}
}

// lowerStmt lowers e in statement position: any value it produces is
// popped.
func (f *fnLowerer) lowerStmt(e *check.Expr) Node {
	node := f.lowerExpr(e)
	if produces(e) {
		return seq(node, instr(bytecode.OpPop))
	}
	return node
}

// lowerFor desugars a for loop into the iterator protocol: make the
// iterator, then loop while `next` keeps yielding `std::Option::Some`,
// destructuring the payload into the pattern.
func (f *fnLowerer) lowerFor(e *check.Expr, n check.ForExpr) Node {
	if n.IterFn == nil || n.NextFn == nil {
		f.p.invariant("for loop over a type without the iterator protocol")
		return seq()
	}
	someDecl := f.p.Chk.Resolve([]string{"std", "Option", "Some"})
	if someDecl == nil {
		f.p.invariant("std::Option::Some is not declared")
		return seq()
	}

	iterCall := bytecode.Instr{Op: bytecode.OpCall, Small: f.p.FuncId(n.IterFn)}
	if n.IterDyn {
		iterCall.Op = bytecode.OpDynCall
	}
	nextCall := bytecode.Instr{Op: bytecode.OpCall, Small: f.p.FuncId(n.NextFn)}
	if n.NextDyn {
		nextCall.Op = bytecode.OpDynCall
	}

	makeIter := seq(f.lowerExpr(n.Iter), f.markAt(e.Span), Code{[]bytecode.Instr{iterCall}})

	cond := seq(
		Code{[]bytecode.Instr{
			{Op: bytecode.OpCopy},
			nextCall,
			{Op: bytecode.OpCopy},
			{Op: bytecode.OpMatch, Small: typeId(someDecl)},
		}},
		MaybeBreak{},
	)
	body := seq(
		Code{[]bytecode.Instr{{Op: bytecode.OpIndex, Small: 0}}},
		f.buildPattern(n.Pattern),
		f.lowerStmt(n.Body),
		Continue{},
	)
	return seq(makeIter, While{Cond: cond, Body: body})
}

func (f *fnLowerer) markAt(span ast.Span) Node {
	return Mark{Line: uint16(span.Start.Line), Col: uint16(span.Start.Col)}
}
