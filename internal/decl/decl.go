package decl

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/emberlang/ember/internal/ast"
)

// DeclId stably identifies one Decl for the lifetime of a program run. It
// is assigned once, at resolution time, and never reused — the bytecode
// function table and vtables key on the numeric Ordinal, while the UUID
// gives each decl a process-independent identity useful for cache keys
// (internal/cache) and debug-adapter session state (internal/dap).
type DeclId struct {
	UUID    uuid.UUID
	Ordinal uint32
}

// Ordinal 0 is reserved: the lowerer constructs plain tuples and the
// built-in vector with type id 0, so no decl may claim it.
var ordinalCounter uint32

func newDeclId() DeclId {
	n := atomic.AddUint32(&ordinalCounter, 1)
	return DeclId{UUID: uuid.New(), Ordinal: n}
}

type Kind int

const (
	KindModule Kind = iota
	KindStruct
	KindEnum
	KindMember // one variant of an enum
	KindTrait
	KindFunction
)

// StructBody mirrors ast.StructBody once its field/tuple types have been
// turned into unresolved TypeExpr placeholders; the checker resolves them
// lazily via the owning Decl's File/Ast pointer the first time they're
// needed. Keeping the raw ast.StructBody here (rather than a resolved Ty)
// avoids a chicken-and-egg dependency between package decl and package
// types: Ty construction needs a complete decl forest to resolve named
// references, but the forest itself must exist first.
type StructBody = ast.StructBody

// Decl is one node of the declaration forest.
type Decl struct {
	Id     DeclId
	Name   string
	Path   ModulePath
	Kind   Kind
	Span   ast.Span
	File   string // empty for synthetic modules

	// Module
	Children []*Decl

	// Struct / Member
	Generics []*ast.GenericParam
	Body     StructBody

	// Enum
	Variants []*Decl // KindMember

	// Trait
	TraitFuncs []*Decl // KindFunction

	// Function
	Receiver *ast.Param
	Args     []*ast.Param
	Ret      ast.TypeExpr
	FuncBody ast.Expr
	Required bool
}

// Get traverses only Module.Children, Enum.Variants, and Trait.TraitFuncs;
// other kinds expose no children.
func (d *Decl) Get(segment string) *Decl {
	var candidates []*Decl
	switch d.Kind {
	case KindModule:
		candidates = d.Children
	case KindEnum:
		candidates = d.Variants
	case KindTrait:
		candidates = d.TraitFuncs
	default:
		return nil
	}
	for _, c := range candidates {
		if c.Name == segment {
			return c
		}
	}
	return nil
}

// NewDecl allocates a Decl with a fresh DeclId.
func NewDecl(name string, path ModulePath, kind Kind, span ast.Span, file string) *Decl {
	return &Decl{Id: newDeclId(), Name: name, Path: path, Kind: kind, Span: span, File: file}
}
