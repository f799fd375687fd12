package types

import (
	"fmt"
	"strings"
)

// Ty is the interface implemented by every semantic type variant.
// It is a closed sum in spirit (only the variants below
// implement it) even though Go models it as an interface.
type Ty interface {
	isTy()
	String() string
}

// Unknown is the error/absent type: it absorbs on both sides of subtyping.
type Unknown struct{}

func (Unknown) isTy()          {}
func (Unknown) String() string { return "Unknown" }

// Nothing is the bottom type.
type Nothing struct{}

func (Nothing) isTy()          {}
func (Nothing) String() string { return "Nothing" }

// Any is the top type: it accepts anything on the right of subtyping.
type Any struct{}

func (Any) isTy()          {}
func (Any) String() string { return "Any" }

// Named refers to a decl by path, with positional type arguments.
type Named struct {
	Name string // decl path, "::"-joined; same interned key as decl.ModulePath.String()
	Args []Ty
}

func (Named) isTy() {}
func (n Named) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", n.Name, strings.Join(parts, ", "))
}

// Generic is a named type parameter with declared variance and an upper
// bound. `Super` is always present (Any when undeclared).
type Generic struct {
	Name     string
	Variance Variance
	Super    Ty
}

func (Generic) isTy()          {}
func (g Generic) String() string { return g.Name }

// Meta is the type of a type expression used as a value, e.g. a struct
// name referenced as an expression rather than constructed.
type Meta struct{ Of Ty }

func (Meta) isTy()          {}
func (m Meta) String() string { return fmt.Sprintf("Meta(%s)", m.Of.String()) }

// FuncTy is a function signature: optional receiver, ordered args, return.
type FuncTy struct {
	Receiver Ty // nil when there is none
	Args     []Ty
	Ret      Ty
}

func (FuncTy) isTy() {}
func (f FuncTy) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	recv := ""
	if f.Receiver != nil {
		recv = f.Receiver.String() + "."
	}
	ret := "()"
	if f.Ret != nil {
		ret = f.Ret.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", recv, strings.Join(parts, ", "), ret)
}

// Function wraps a FuncTy so it can stand alone as a Ty.
type Function struct{ Func FuncTy }

func (Function) isTy()          {}
func (f Function) String() string { return f.Func.String() }

// Tuple is a fixed-arity product type; an empty Tuple is unit.
type Tuple struct{ Elems []Ty }

func (Tuple) isTy() {}
func (t Tuple) String() string {
	if len(t.Elems) == 0 {
		return "()"
	}
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

// Sum is the intersection of shared capabilities across its components:
// it reads as a sum of requirements, not a union of values. Its
// left/right matching rules are asymmetric; see internal/check/subtype.go.
type Sum struct{ Tys []Ty }

func (Sum) isTy() {}
func (s Sum) String() string {
	parts := make([]string, len(s.Tys))
	for i, t := range s.Tys {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

// TypeVar is an inference placeholder owned by one check.TypeState.
type TypeVar struct{ Id uint32 }

func (TypeVar) isTy()          {}
func (t TypeVar) String() string { return fmt.Sprintf("?%d", t.Id) }

// Unit is the canonical empty tuple.
func Unit() Ty { return Tuple{} }
