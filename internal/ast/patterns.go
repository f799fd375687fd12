package ast

// WildcardPattern: `_`.
type WildcardPattern struct{ Span_ Span }

func (w *WildcardPattern) Span() Span { return w.Span_ }
func (w *WildcardPattern) patternNode() {}

// NamePattern: a bare name. Resolved at check time to either a unit
// struct/member pattern or a fresh variable binding.
type NamePattern struct {
	Name  string
	Span_ Span
}

func (n *NamePattern) Span() Span { return n.Span_ }
func (n *NamePattern) patternNode() {}

// LiteralPattern matches an exact literal value.
type LiteralPattern struct {
	Lit   Expr // one of IntLit/FloatLit/StringLit/BoolLit/CharLit
	Span_ Span
}

func (l *LiteralPattern) Span() Span { return l.Span_ }
func (l *LiteralPattern) patternNode() {}

// FieldPattern is one field of a StructPattern; Implied means `name` was
// written instead of `name: name`.
type FieldPattern struct {
	Name    string
	Pattern Pattern // nil when Implied
	Implied bool
	Span_   Span
}

func (f *FieldPattern) Span() Span { return f.Span_ }

// StructPattern: `Path::To::Name { f1: p1, f2 }`.
type StructPattern struct {
	Path   []string
	Fields []*FieldPattern
	Span_  Span
}

func (s *StructPattern) Span() Span { return s.Span_ }
func (s *StructPattern) patternNode() {}

// TuplePatternStruct: `Path::To::Name(p1, p2)`.
type TuplePatternStruct struct {
	Path     []string
	Elems    []Pattern
	Span_    Span
}

func (t *TuplePatternStruct) Span() Span { return t.Span_ }
func (t *TuplePatternStruct) patternNode() {}

// UnitPatternStruct: `Path::To::Name` used as a pattern (zero fields).
type UnitPatternStruct struct {
	Path  []string
	Span_ Span
}

func (u *UnitPatternStruct) Span() Span { return u.Span_ }
func (u *UnitPatternStruct) patternNode() {}

// TuplePattern: `(p1, p2, p3)` destructuring a plain tuple value (not a
// tuple struct).
type TuplePattern struct {
	Elems []Pattern
	Span_ Span
}

func (t *TuplePattern) Span() Span { return t.Span_ }
func (t *TuplePattern) patternNode() {}
