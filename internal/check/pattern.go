package check

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/types"
)

// CheckPattern checks pat against the expected type want, binding any
// names it introduces into st, and returns the typed IR pattern. Failures
// are reported but never abort the walk: a bad pattern still binds its
// names at Unknown so the rest of the arm can be checked.
func (c *Checker) CheckPattern(st *CheckState, ts *TypeState, pat ast.Pattern, want types.Ty) Pattern {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return WildcardPattern{}

	case *ast.NamePattern:
		// A bare name that resolves to a unit struct or enum member is a
		// pattern for that value, not a fresh binding.
		if d := c.Resolve([]string{p.Name}); d != nil && isUnitDecl(d) {
			resolved, _ := c.resolvePatternDecl(st, ts, []string{p.Name}, want, p.Span())
			if resolved != nil {
				return StructPattern{Target: resolved}
			}
			return StructPattern{Target: d}
		}
		st.Bind(p.Name, Variable{Ty: want})
		return NamePattern{Name: p.Name, Ty: want}

	case *ast.LiteralPattern:
		lit := c.CheckExpr(st, ts, p.Lit, want)
		return LiteralPattern{Lit: lit}

	case *ast.TuplePattern:
		return c.checkTuplePattern(st, ts, p.Elems, want, p.Span())

	case *ast.UnitPatternStruct:
		d, _ := c.resolvePatternDecl(st, ts, p.Path, want, p.Span())
		if d == nil {
			return WildcardPattern{}
		}
		if d.Body.Kind != ast.BodyUnit {
			c.report(Simple{errAt(p.Span(), st.File), "struct pattern doesn't match expected shape"})
		}
		return StructPattern{Target: d}

	case *ast.TuplePatternStruct:
		d, params := c.resolvePatternDecl(st, ts, p.Path, want, p.Span())
		if d == nil {
			return WildcardPattern{}
		}
		if d.Body.Kind != ast.BodyTuple {
			c.report(Simple{errAt(p.Span(), st.File), "struct pattern doesn't match expected shape"})
			return WildcardPattern{}
		}
		if len(p.Elems) != len(d.Body.Tuple) {
			c.report(UnexpectedArgs{errAt(p.Span(), st.File), len(d.Body.Tuple), len(p.Elems)})
		}
		dst := NewCheckState(c.Forest, c.Impls, d.File)
		c.bindGenerics(dst, d.Generics)
		out := TupleStructPattern{Target: d}
		for i, e := range p.Elems {
			var elemTy types.Ty = types.Unknown{}
			if i < len(d.Body.Tuple) {
				elemTy = types.Parameterize(c.ResolveTypeExpr(dst, d.Body.Tuple[i]), params)
			}
			out.Elems = append(out.Elems, c.CheckPattern(st, ts, e, elemTy))
		}
		return out

	case *ast.StructPattern:
		d, params := c.resolvePatternDecl(st, ts, p.Path, want, p.Span())
		if d == nil {
			return WildcardPattern{}
		}
		if d.Body.Kind != ast.BodyFields {
			c.report(Simple{errAt(p.Span(), st.File), "struct pattern doesn't match expected shape"})
			return WildcardPattern{}
		}
		fieldTy := c.fieldTypes(d)
		out := StructPattern{Target: d}
		for _, fp := range p.Fields {
			ft, known := fieldTy[fp.Name]
			if !known {
				c.report(Simple{errAt(fp.Span(), st.File), "field '" + fp.Name + "' not found"})
				ft = types.Unknown{}
			}
			ft = types.Parameterize(ft, params)
			if fp.Implied || fp.Pattern == nil {
				st.Bind(fp.Name, Variable{Ty: ft})
				out.Fields = append(out.Fields, FieldPattern{Name: fp.Name, Pattern: NamePattern{Name: fp.Name, Ty: ft}})
				continue
			}
			out.Fields = append(out.Fields, FieldPattern{Name: fp.Name, Pattern: c.CheckPattern(st, ts, fp.Pattern, ft)})
		}
		return out

	default:
		return WildcardPattern{}
	}
}

func isUnitDecl(d *decl.Decl) bool {
	return (d.Kind == decl.KindStruct || d.Kind == decl.KindMember) && d.Body.Kind == ast.BodyUnit
}

// resolvePatternDecl resolves a struct/member pattern's path, verifies the
// decl names the same type the scrutinee has (modulo the member/enum
// parent unwrap), and returns the generic substitution binding the decl's
// parameters to the scrutinee type's arguments.
func (c *Checker) resolvePatternDecl(st *CheckState, ts *TypeState, path []string, want types.Ty, span ast.Span) (*decl.Decl, map[string]types.Ty) {
	d := c.Resolve(path)
	if d == nil {
		c.report(Unresolved{errAt(span, st.File), path[len(path)-1]})
		return nil, nil
	}
	if d.Kind != decl.KindStruct && d.Kind != decl.KindMember {
		c.report(Simple{errAt(span, st.File), "expected a struct"})
		return nil, nil
	}

	declPath := d.Path
	if d.Kind == decl.KindMember {
		declPath = d.Path.Parent()
	}

	if ts != nil {
		want = ts.Resolve(want)
	}
	// A generic Self on the scrutinee unwraps to its bound before the
	// names are compared.
	if g, ok := want.(types.Generic); ok && g.Name == "Self" {
		want = g.Super
	}

	params := map[string]types.Ty{}
	switch w := want.(type) {
	case types.Named:
		if w.Name != declPath.String() {
			c.report(Simple{errAt(span, st.File), "expected struct '" + w.Name + "' but found '" + declPath.String() + "'"})
			return d, params
		}
		if owner := c.declByPath(w.Name); owner != nil {
			for i, n := range genericNames(owner.Generics) {
				if i < len(w.Args) {
					params[n] = w.Args[i]
				}
			}
		}
	case types.Unknown:
		// No expectation: the pattern stands on its own.
	case types.TypeVar:
		// Still-free scrutinee: the pattern decides the type.
		inst := c.InstNamed(ts, d, span, st.File)
		ts.Bind(w, inst)
		if owner := c.declByPath(inst.Name); owner != nil {
			for i, n := range genericNames(owner.Generics) {
				if i < len(inst.Args) {
					params[n] = inst.Args[i]
				}
			}
		}
	default:
		c.report(Simple{errAt(span, st.File), "expected a struct but found " + want.String()})
	}
	return d, params
}

// InstNamed instantiates the named type a struct/member decl belongs to
// with fresh type variables for each generic parameter.
func (c *Checker) InstNamed(ts *TypeState, d *decl.Decl, span ast.Span, file string) types.Named {
	path := d.Path
	if d.Kind == decl.KindMember {
		path = d.Path.Parent()
	}
	owner := c.Resolve(path.Segments)
	named := types.Named{Name: path.String()}
	if owner == nil {
		return named
	}
	for range owner.Generics {
		named.Args = append(named.Args, ts.Fresh(errAt(span, file)))
	}
	return named
}

func (c *Checker) checkTuplePattern(st *CheckState, ts *TypeState, elems []ast.Pattern, want types.Ty, span ast.Span) Pattern {
	wantTup, ok := want.(types.Tuple)
	out := TuplePattern{}
	for i, e := range elems {
		var elemTy types.Ty = types.Unknown{}
		if ok && i < len(wantTup.Elems) {
			elemTy = wantTup.Elems[i]
		}
		out.Elems = append(out.Elems, c.CheckPattern(st, ts, e, elemTy))
	}
	if !ok {
		c.report(Simple{errAt(span, st.File), "pattern expects a tuple"})
	}
	return out
}

// fieldTypes resolves a struct/variant Decl's field names to their
// checked types, for use when checking a StructPattern against it.
func (c *Checker) fieldTypes(d *decl.Decl) map[string]types.Ty {
	if d.Body.Kind != ast.BodyFields {
		return nil
	}
	st := NewCheckState(c.Forest, c.Impls, d.File)
	c.bindGenerics(st, d.Generics)
	out := make(map[string]types.Ty, len(d.Body.Fields))
	for _, f := range d.Body.Fields {
		out[f.Name] = c.ResolveTypeExpr(st, f.Type)
	}
	return out
}
