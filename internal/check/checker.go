package check

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/types"
)

// Checker owns the whole-program state needed to resolve names and types
// while checking any one file: the decl forest and the impl index.
// tyCache is allocated but never consulted; field/arg/return types are
// re-resolved from their ast.TypeExpr on every lookup.
type Checker struct {
	Forest *decl.Decl
	Impls  *decl.ImplIndex
	Errors []CheckError

	tyCache map[*decl.Decl]types.Ty
}

func NewChecker(forest *decl.Decl, impls *decl.ImplIndex) *Checker {
	return &Checker{Forest: forest, Impls: impls, tyCache: map[*decl.Decl]types.Ty{}}
}

func (c *Checker) report(err CheckError) { c.Errors = append(c.Errors, err) }

// Resolve walks a dotted path from the forest root; only
// Module/Enum/Trait nodes expose children. Paths
// that don't resolve at the root retry under the standard module, which
// is how `String`, `Int`, and `Option::Some` work unqualified.
func (c *Checker) Resolve(path []string) *decl.Decl {
	if d := c.resolveFrom(path); d != nil {
		return d
	}
	if len(path) > 0 && path[0] != "std" {
		return c.resolveFrom(append([]string{"std"}, path...))
	}
	return nil
}

func (c *Checker) resolveFrom(path []string) *decl.Decl {
	cur := c.Forest
	for _, seg := range path {
		next := cur.Get(seg)
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// ResolveTypeExpr turns a parsed TypeExpr into a semantic Ty, looking up
// Named heads in the decl forest and threading scope-bound generics
// through st so a function's own type parameters resolve to the same
// types.Generic value used across its signature and body.
func (c *Checker) ResolveTypeExpr(st *CheckState, t ast.TypeExpr) types.Ty {
	switch te := t.(type) {
	case nil:
		return types.Unit()
	case *ast.NamedTypeExpr:
		return c.resolveNamed(st, te)
	case *ast.FuncTypeExpr:
		f := types.FuncTy{Ret: c.ResolveTypeExpr(st, te.Ret)}
		if te.Receiver != nil {
			f.Receiver = c.ResolveTypeExpr(st, te.Receiver)
		}
		for _, a := range te.Args {
			f.Args = append(f.Args, c.ResolveTypeExpr(st, a))
		}
		return types.Function{Func: f}
	case *ast.TupleTypeExpr:
		tup := types.Tuple{}
		for _, e := range te.Elems {
			tup.Elems = append(tup.Elems, c.ResolveTypeExpr(st, e))
		}
		return tup
	default:
		return types.Unknown{}
	}
}

func (c *Checker) resolveNamed(st *CheckState, te *ast.NamedTypeExpr) types.Ty {
	if len(te.Path) == 1 {
		switch te.Path[0] {
		case "Any":
			return types.Any{}
		case "Nothing":
			return types.Nothing{}
		}
		if st != nil {
			if b, ok := st.Lookup(te.Path[0]); ok {
				if g, ok := b.(GenericBinding); ok {
					return g.Ty
				}
			}
		}
	}

	d := c.Resolve(te.Path)
	if d == nil {
		return types.Unknown{}
	}
	named := types.Named{Name: d.Path.String()}
	for _, a := range te.Args {
		named.Args = append(named.Args, c.ResolveTypeExpr(st, a))
	}
	return named
}

// FuncSig resolves a function Decl's signature to a types.FuncTy, binding
// its own generics into a fresh scope first so Receiver/Args/Ret referring
// to them resolve to matching types.Generic values.
func (c *Checker) FuncSig(d *decl.Decl) types.FuncTy {
	st := NewCheckState(c.Forest, c.Impls, d.File)
	c.bindGenerics(st, d.Generics)
	if d.Receiver != nil {
		st.Bind("Self", GenericBinding{Ty: types.Generic{
			Name:  "Self",
			Super: types.Named{Name: d.Path.Parent().String()},
		}})
	}

	sig := types.FuncTy{Ret: c.ResolveTypeExpr(st, d.Ret)}
	if d.Receiver != nil {
		sig.Receiver = types.Named{Name: d.Path.Parent().String()}
	}
	for _, a := range d.Args {
		sig.Args = append(sig.Args, c.ResolveTypeExpr(st, a.Type))
	}
	return sig
}

func (c *Checker) bindGenerics(st *CheckState, params []*ast.GenericParam) {
	for _, g := range params {
		variance := types.Invariant
		switch g.Variance {
		case ast.Covariant:
			variance = types.Covariant
		case ast.Contravariant:
			variance = types.Contravariant
		}
		super := types.Ty(types.Any{})
		if g.Bound != nil {
			super = c.ResolveTypeExpr(st, g.Bound)
		}
		st.Bind(g.Name, GenericBinding{Ty: types.Generic{Name: g.Name, Variance: variance, Super: super}})
	}
}
