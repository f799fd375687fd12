// Package check implements the typed-IR checker: scope and type-variable
// state, subtyping, impl resolution, pattern checking, and control-form
// checking over the ast produced by internal/parser.
package check

import (
	"fmt"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/types"
)

// CheckError is the interface implemented by every diagnostic variant
// the checker can produce. Diagnostics originating from a std-prefixed
// decl path are suppressed at render time (internal/diag), not here —
// the checker always reports what it finds.
type CheckError interface {
	error
	Pos() ast.Span
	SrcFile() string
}

type baseErr struct {
	Span ast.Span
	File string
}

func (b baseErr) Pos() ast.Span   { return b.Span }
func (b baseErr) SrcFile() string { return b.File }

// Unresolved is reported when an identifier or path segment cannot be
// found in scope or in the decl forest.
type Unresolved struct {
	baseErr
	Name string
}

func (e Unresolved) Error() string { return fmt.Sprintf("%s: unresolved name %q", e.File, e.Name) }

// IsNotInstance is reported when expect_is_instance_of rejects a value's
// type against an expected type.
type IsNotInstance struct {
	baseErr
	Got, Want types.Ty
}

func (e IsNotInstance) Error() string {
	return fmt.Sprintf("%s: %s is not an instance of %s", e.File, e.Got, e.Want)
}

// MissingReceiver is reported when a method call omits a receiver the
// resolved function requires, or supplies one it does not expect.
type MissingReceiver struct {
	baseErr
	FuncName string
}

func (e MissingReceiver) Error() string {
	return fmt.Sprintf("%s: %s requires a receiver", e.File, e.FuncName)
}

// UnexpectedArgs is reported on arity mismatch at a call site.
type UnexpectedArgs struct {
	baseErr
	Want, Got int
}

func (e UnexpectedArgs) Error() string {
	return fmt.Sprintf("%s: expected %d arguments, got %d", e.File, e.Want, e.Got)
}

// UnboundTypeVar is reported when a type variable allocated while
// checking a function body is still unconstrained once the body has been
// checked.
type UnboundTypeVar struct {
	baseErr
	Var types.TypeVar
}

func (e UnboundTypeVar) Error() string {
	return fmt.Sprintf("%s: unbound type variable %s", e.File, e.Var)
}

// Simple wraps an ad hoc message for diagnostics that don't warrant their
// own variant.
type Simple struct {
	baseErr
	Msg string
}

func (e Simple) Error() string { return fmt.Sprintf("%s: %s", e.File, e.Msg) }

// UnexpectedWildcard describes a `_` pattern in a position that requires
// a binding. No checker path constructs it: CheckPattern accepts `_`
// wherever a pattern may appear.
type UnexpectedWildcard struct {
	baseErr
}

func (e UnexpectedWildcard) Error() string { return fmt.Sprintf("%s: unexpected wildcard", e.File) }

// ImplTypeMismatch mirrors decl.ImplTypeMismatch, carrying a Ty to
// describe what went wrong. The checker does not construct it; an impl
// whose type is not named is reported by decl.ResolveImpls.
type ImplTypeMismatch struct {
	baseErr
	Ty types.Ty
}

func (e ImplTypeMismatch) Error() string {
	return fmt.Sprintf("%s: impl type %s must be named", e.File, e.Ty)
}

func errAt(span ast.Span, file string) baseErr { return baseErr{Span: span, File: file} }

// OriginAt builds the span/file origin TypeState.Fresh records for a
// type variable, for callers outside the package (tests, tooling).
func OriginAt(span ast.Span, file string) baseErr { return errAt(span, file) }

// NewSimple constructs a Simple diagnostic for callers layered on the
// checker.
func NewSimple(span ast.Span, file, msg string) Simple {
	return Simple{errAt(span, file), msg}
}

// NewIsNotInstance constructs an IsNotInstance diagnostic for callers
// layered on the checker.
func NewIsNotInstance(span ast.Span, file string, got, want types.Ty) IsNotInstance {
	return IsNotInstance{errAt(span, file), got, want}
}
