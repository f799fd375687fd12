package check

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/types"
)

// ExpectIsInstanceOf checks whether got is usable where want is expected.
// Unknown is absorbing on both sides so one bad sub-expression doesn't
// cascade into unrelated diagnostics. ts may be nil when checking two
// fully concrete types with no inference in play.
func (c *Checker) ExpectIsInstanceOf(ts *TypeState, got, want types.Ty) bool {
	if ts != nil {
		got = ts.Resolve(got)
		want = ts.Resolve(want)
	}

	switch want.(type) {
	case types.Unknown:
		return true
	case types.Any:
		return true
	}
	if _, ok := got.(types.Unknown); ok {
		return true
	}

	switch g := got.(type) {
	case types.Nothing:
		// Nothing (the type of `return`/`break`/panic expressions) is an
		// instance of everything.
		return true
	case types.TypeVar:
		if ts == nil {
			return false
		}
		if w, ok := want.(types.TypeVar); ok {
			ts.Union(g, w)
			return true
		}
		ts.Bind(g, want)
		return true
	case types.Sum:
		// A Sum on the left succeeds if any component does.
		for _, alt := range g.Tys {
			if c.ExpectIsInstanceOf(ts, alt, want) {
				return true
			}
		}
		return false
	}

	if w, ok := want.(types.TypeVar); ok {
		if ts == nil {
			return false
		}
		ts.Bind(w, got)
		return true
	}

	if w, ok := want.(types.Generic); ok {
		// A Self-bound on the right stands for "whatever implements the
		// trait", so the bound is the real requirement; any other generic
		// parameter only accepts itself.
		if w.Name == "Self" {
			return c.ExpectIsInstanceOf(ts, got, w.Super)
		}
		if g, ok := got.(types.Generic); ok {
			return g.Name == w.Name
		}
		return false
	}

	if g, ok := got.(types.Generic); ok {
		return c.ExpectIsInstanceOf(ts, g.Super, want)
	}

	switch w := want.(type) {
	case types.Named:
		return c.namedInstanceOf(ts, got, w)
	case types.Meta:
		g, ok := got.(types.Meta)
		if !ok {
			return false
		}
		return c.ExpectIsInstanceOf(ts, g.Of, w.Of)
	case types.Function:
		return c.funcInstanceOf(ts, got, w.Func)
	case types.Tuple:
		return c.tupleInstanceOf(ts, got, w)
	case types.Sum:
		// A Sum on the right is an intersection of requirements: got must
		// satisfy every component.
		for _, req := range w.Tys {
			if !c.ExpectIsInstanceOf(ts, got, req) {
				return false
			}
		}
		return true
	}
	return false
}

func (c *Checker) namedInstanceOf(ts *TypeState, got types.Ty, want types.Named) bool {
	g, ok := got.(types.Named)
	if !ok {
		return false
	}
	if g.Name != want.Name {
		via, ok := c.ImplyNamed(ts, g, want.Name)
		if !ok {
			return false
		}
		g = via
	}
	if len(g.Args) != len(want.Args) {
		return false
	}
	return c.matchArgsWithVariance(ts, g, want)
}

// matchArgsWithVariance compares two same-path Named types argument-wise
// under the variance each generic parameter of the shared decl declares.
func (c *Checker) matchArgsWithVariance(ts *TypeState, got, want types.Named) bool {
	variances := c.declVariances(want.Name, len(want.Args))
	for i := range got.Args {
		switch variances[i] {
		case types.Covariant:
			if !c.ExpectIsInstanceOf(ts, got.Args[i], want.Args[i]) {
				return false
			}
		case types.Contravariant:
			if !c.ExpectIsInstanceOf(ts, want.Args[i], got.Args[i]) {
				return false
			}
		default:
			if !c.ExpectIsInstanceOf(ts, got.Args[i], want.Args[i]) ||
				!c.ExpectIsInstanceOf(ts, want.Args[i], got.Args[i]) {
				return false
			}
		}
	}
	return true
}

// declVariances resolves the declared variance of each generic parameter
// of the decl at path, defaulting to Covariant when the decl (or its
// parameter list) cannot be found so error recovery stays permissive.
func (c *Checker) declVariances(path string, n int) []types.Variance {
	out := make([]types.Variance, n)
	for i := range out {
		out[i] = types.Covariant
	}
	d := c.declByPath(path)
	if d == nil {
		return out
	}
	for i, g := range d.Generics {
		if i >= n {
			break
		}
		switch g.Variance {
		case ast.Covariant:
			out[i] = types.Covariant
		case ast.Contravariant:
			out[i] = types.Contravariant
		default:
			out[i] = types.Invariant
		}
	}
	return out
}

func (c *Checker) tupleInstanceOf(ts *TypeState, got types.Ty, want types.Tuple) bool {
	g, ok := got.(types.Tuple)
	if !ok || len(g.Elems) != len(want.Elems) {
		return false
	}
	for i := range g.Elems {
		if !c.ExpectIsInstanceOf(ts, g.Elems[i], want.Elems[i]) {
			return false
		}
	}
	return true
}

// funcInstanceOf implements FuncTy.expect_is_instance_of: arguments and
// the receiver (when both sides have one) are contravariant — the
// expected side must be an instance of the offered side — while the
// return is covariant. A function that accepts more and returns less is
// usable wherever the narrower signature is expected.
func (c *Checker) funcInstanceOf(ts *TypeState, got types.Ty, want types.FuncTy) bool {
	g, ok := got.(types.Function)
	if !ok {
		return false
	}
	gf := g.Func

	if gf.Receiver == nil && want.Receiver != nil {
		return false
	}
	if gf.Receiver != nil && want.Receiver != nil && !c.ExpectIsInstanceOf(ts, want.Receiver, gf.Receiver) {
		return false
	}
	if len(gf.Args) != len(want.Args) {
		return false
	}
	for i := range gf.Args {
		if !c.ExpectIsInstanceOf(ts, want.Args[i], gf.Args[i]) {
			return false
		}
	}
	if want.Ret == nil {
		return true
	}
	if gf.Ret == nil {
		return false
	}
	return c.ExpectIsInstanceOf(ts, gf.Ret, want.Ret)
}
