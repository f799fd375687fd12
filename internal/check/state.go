package check

import (
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/types"
)

// Binding is the sum of what a name in scope can resolve to, restricted
// to the scope-local cases — a bare Decl reference is resolved straight
// from the forest and never shadowed.
type Binding interface{ isBinding() }

// Variable is a let-bound or parameter name with its checked type.
type Variable struct {
	Ty      types.Ty
	Mutable bool
}

func (Variable) isBinding() {}

// GenericBinding brings a function or struct's generic parameter into
// scope as a type, for use inside its own body/impl block.
type GenericBinding struct {
	Ty types.Generic
}

func (GenericBinding) isBinding() {}

// Import aliases a `use` path to the decl it resolved to.
type Import struct {
	Decl *decl.Decl
}

func (Import) isBinding() {}

// scope is one insertion-ordered layer of bindings. A slice of keys keeps
// iteration order stable for diagnostics that enumerate "names in scope".
type scope struct {
	order []string
	names map[string]Binding
}

func newScope() *scope {
	return &scope{names: map[string]Binding{}}
}

func (s *scope) set(name string, b Binding) {
	if _, ok := s.names[name]; !ok {
		s.order = append(s.order, name)
	}
	s.names[name] = b
}

func (s *scope) get(name string) (Binding, bool) {
	b, ok := s.names[name]
	return b, ok
}

// CheckState is the per-file (or per-function, nested) scope stack used
// while checking expressions.
type CheckState struct {
	scopes []*scope
	Forest *decl.Decl
	Impls  *decl.ImplIndex
	File   string
}

// NewCheckState seeds a single root scope.
func NewCheckState(forest *decl.Decl, impls *decl.ImplIndex, file string) *CheckState {
	return &CheckState{scopes: []*scope{newScope()}, Forest: forest, Impls: impls, File: file}
}

// Push opens a nested scope, e.g. entering a block or match arm.
func (c *CheckState) Push() { c.scopes = append(c.scopes, newScope()) }

// Pop closes the innermost scope.
func (c *CheckState) Pop() { c.scopes = c.scopes[:len(c.scopes)-1] }

// Bind inserts a binding into the innermost scope.
func (c *CheckState) Bind(name string, b Binding) {
	c.scopes[len(c.scopes)-1].set(name, b)
}

// Lookup searches scopes from innermost to outermost.
func (c *CheckState) Lookup(name string) (Binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i].get(name); ok {
			return b, true
		}
	}
	return nil, false
}

// WithScope runs fn inside a fresh nested scope and always pops it,
// even if fn panics via a checker bail-out.
func (c *CheckState) WithScope(fn func()) {
	c.Push()
	defer c.Pop()
	fn()
}
