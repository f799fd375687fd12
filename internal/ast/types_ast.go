package ast

// NamedTypeExpr: `Path::To::Name[Arg, Arg]`
type NamedTypeExpr struct {
	Path  []string
	Args  []TypeExpr
	Span_ Span
}

func (n *NamedTypeExpr) Span() Span   { return n.Span_ }
func (n *NamedTypeExpr) typeExprNode() {}

// FuncTypeExpr: `(Arg, Arg) -> Ret`, optionally with a receiver
// `Recv.(Arg) -> Ret` for trait function signatures.
type FuncTypeExpr struct {
	Receiver TypeExpr
	Args     []TypeExpr
	Ret      TypeExpr
	Span_    Span
}

func (f *FuncTypeExpr) Span() Span   { return f.Span_ }
func (f *FuncTypeExpr) typeExprNode() {}

// TupleTypeExpr: `(A, B, C)`; empty is unit.
type TupleTypeExpr struct {
	Elems []TypeExpr
	Span_ Span
}

func (t *TupleTypeExpr) Span() Span   { return t.Span_ }
func (t *TupleTypeExpr) typeExprNode() {}
