package check

import (
	"strings"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/types"
)

// ImplyNamed answers whether got can reach a Named type whose path is
// wantName by walking got's impl list, applying each impl's generic
// substitution along the way. The walk is breadth-first so the shortest chain
// of impls wins when several paths exist; the substituted target type is
// returned so callers can compare its arguments.
func (c *Checker) ImplyNamed(ts *TypeState, got types.Named, wantName string) (types.Named, bool) {
	if got.Name == wantName {
		return got, true
	}
	visited := map[string]bool{got.Name: true}
	queue := []types.Named{got}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		gd := c.declByPath(cur.Name)
		if gd == nil {
			continue
		}

		for _, impl := range c.Impls.For(gd.Path) {
			if impl.ToPath == nil {
				continue
			}
			params := implGenericArgs(impl, cur)
			candidate := types.Parameterize(c.resolveImplTo(impl), params)
			cand, ok := candidate.(types.Named)
			if !ok {
				continue
			}
			if cand.Name == wantName {
				return cand, true
			}
			if !visited[cand.Name] {
				visited[cand.Name] = true
				queue = append(queue, cand)
			}
		}
	}
	return types.Named{}, false
}

// implGenericArgs pattern-matches the impl's from type against the
// concrete type being walked to bind the impl's generic names, e.g.
// matching `List[T]` against `List[Int]` binds T := Int.
func implGenericArgs(impl *decl.Impl, cur types.Named) map[string]types.Ty {
	params := map[string]types.Ty{}
	from, ok := impl.FromTy.(*ast.NamedTypeExpr)
	if !ok {
		return params
	}
	implGenerics := map[string]bool{}
	for _, g := range impl.Generics {
		implGenerics[g.Name] = true
	}
	for i, arg := range from.Args {
		if i >= len(cur.Args) {
			break
		}
		named, ok := arg.(*ast.NamedTypeExpr)
		if !ok || len(named.Path) != 1 {
			continue
		}
		if implGenerics[named.Path[0]] {
			params[named.Path[0]] = cur.Args[i]
		}
	}
	return params
}

func (c *Checker) resolveImplTo(impl *decl.Impl) types.Ty {
	st := NewCheckState(c.Forest, c.Impls, impl.File)
	c.bindGenerics(st, impl.Generics)
	return c.ResolveTypeExpr(st, impl.ToTy)
}

func genericNames(gs []*ast.GenericParam) []string {
	names := make([]string, len(gs))
	for i, g := range gs {
		names[i] = g.Name
	}
	return names
}

func (c *Checker) declByPath(name string) *decl.Decl {
	return c.Resolve(splitPath(name))
}

// DeclByPath resolves a dot-joined decl path string, the same interned
// key types.Named carries in its Name.
func (c *Checker) DeclByPath(name string) *decl.Decl { return c.declByPath(name) }

func splitPath(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, "::")
}

// IsTraitTy reports whether t's static type names a trait decl (directly,
// or through a generic parameter's bound) — the condition under which a
// method call on it dispatches dynamically.
func (c *Checker) IsTraitTy(t types.Ty) bool {
	switch v := t.(type) {
	case types.Named:
		d := c.declByPath(v.Name)
		return d != nil && d.Kind == decl.KindTrait
	case types.Generic:
		return c.IsTraitTy(v.Super)
	}
	return false
}

// FuncCandidates lists every impl-provided function named name attached
// to recvTy, one entry per impl block. More than one candidate means the
// call is ambiguous.
func (c *Checker) FuncCandidates(recvTy types.Named, name string) []*decl.Decl {
	d := c.declByPath(recvTy.Name)
	if d == nil || d.Kind == decl.KindTrait {
		return nil
	}
	var out []*decl.Decl
	for _, impl := range c.Impls.For(d.Path) {
		for _, fn := range impl.Funcs {
			if fn.Name == name {
				out = append(out, fn)
			}
		}
	}
	return out
}

// GetFunc resolves a method call's target function: it looks for an
// inherent or trait impl function named name attached to recvTy.
// Trait default bodies (Required == false) are
// only used when no impl overrides them.
func (c *Checker) GetFunc(recvTy types.Named, name string) *decl.Decl {
	d := c.declByPath(recvTy.Name)
	if d == nil {
		return nil
	}
	// A receiver whose static type IS a trait (e.g. a `g: Greet` parameter)
	// resolves straight to the trait's own function decl. The lowerer uses
	// the receiver's trait-ness as the signal to emit DynCall instead of
	// Call.
	if d.Kind == decl.KindTrait {
		if fn := d.Get(name); fn != nil {
			return fn
		}
		return nil
	}
	if cands := c.FuncCandidates(recvTy, name); len(cands) > 0 {
		return cands[0]
	}
	// Trait default methods: walk impls that name a trait and pull the
	// trait's own default body if the impl didn't override it.
	for _, impl := range c.Impls.For(d.Path) {
		if impl.ToPath == nil {
			continue
		}
		traitDecl := c.Resolve(impl.ToPath.Segments)
		if traitDecl == nil {
			continue
		}
		if fn := traitDecl.Get(name); fn != nil && !fn.Required {
			return fn
		}
	}
	return nil
}
