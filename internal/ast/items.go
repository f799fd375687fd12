package ast

// GenericParam is a declared type parameter: `in T`, `out T`, `T: Bound`.
type GenericParam struct {
	Name     string
	Variance Variance
	Bound    TypeExpr // nil means the implicit top bound
	Span_    Span
}

func (g *GenericParam) Span() Span { return g.Span_ }

// Variance mirrors internal/types.Variance but lives here too so the
// parser doesn't need to import the checker's type package.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// StructBody is one of Unit, Tuple([Type]), Fields([(name, Type)]).
type StructBody struct {
	Kind   StructBodyKind
	Tuple  []TypeExpr
	Fields []FieldDecl
}

type StructBodyKind int

const (
	BodyUnit StructBodyKind = iota
	BodyTuple
	BodyFields
)

type FieldDecl struct {
	Name  string
	Type  TypeExpr
	Span_ Span
}

func (f *FieldDecl) Span() Span { return f.Span_ }

// StructItem: `struct Name[Generics] Body`
type StructItem struct {
	Name     string
	Generics []*GenericParam
	Body     StructBody
	Span_    Span
}

func (s *StructItem) Span() Span { return s.Span_ }
func (s *StructItem) itemNode()  {}

// VariantItem is one member of an EnumItem; it shares StructBody's shape.
type VariantItem struct {
	Name  string
	Body  StructBody
	Span_ Span
}

func (v *VariantItem) Span() Span { return v.Span_ }

// EnumItem: `enum Name[Generics] { Variant, Variant(T), Variant { f: T } }`
type EnumItem struct {
	Name     string
	Generics []*GenericParam
	Variants []*VariantItem
	Span_    Span
}

func (e *EnumItem) Span() Span { return e.Span_ }
func (e *EnumItem) itemNode()  {}

// TraitItem: `trait Name[Generics] { fn ... }`
type TraitItem struct {
	Name     string
	Generics []*GenericParam
	Funcs    []*FunctionItem
	Span_    Span
}

func (t *TraitItem) Span() Span { return t.Span_ }
func (t *TraitItem) itemNode()  {}

// Param is one function parameter.
type Param struct {
	Name  string
	Type  TypeExpr
	Span_ Span
}

func (p *Param) Span() Span { return p.Span_ }

// FunctionItem: `fn name[Generics](recv: Self, args): Ret { body }` or
// `fn name(args): Ret` with no body (required trait function).
type FunctionItem struct {
	Name     string
	Generics []*GenericParam
	Receiver *Param // nil for free functions
	Args     []*Param
	Ret      TypeExpr // nil means unit
	Body     Expr     // nil when Required
	Required bool
	Span_    Span
}

func (f *FunctionItem) Span() Span { return f.Span_ }
func (f *FunctionItem) itemNode()  {}

// ImplItem: `impl [Trait for] Type[Generics] { fn ... }`
type ImplItem struct {
	Generics []*GenericParam
	ToTy     TypeExpr // the trait, nil for an inherent impl
	FromTy   TypeExpr // the implementing type
	Funcs    []*FunctionItem
	Span_    Span
}

func (i *ImplItem) Span() Span { return i.Span_ }
func (i *ImplItem) itemNode()  {}

// ModuleItem: `mod name { items }` — nested inline module.
type ModuleItem struct {
	Name  string
	Items []Item
	Span_ Span
}

func (m *ModuleItem) Span() Span { return m.Span_ }
func (m *ModuleItem) itemNode()  {}

// UseItem: `use a::b::c` — a qualified-name import, resolved at check time.
type UseItem struct {
	Path  []string
	Alias string // empty means last segment of Path
	Span_ Span
}

func (u *UseItem) Span() Span { return u.Span_ }
func (u *UseItem) itemNode()  {}
