package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/check"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/types"
)

func checkerFor(t *testing.T, src string) *check.Checker {
	t.Helper()
	p := parser.New(lexer.New(src), "test.ember")
	f := p.ParseFile("test.ember")
	require.Empty(t, p.Errors)
	files := []*ast.File{f}
	pathFn := func(*ast.File) []string { return nil }
	forest := decl.Build(files, pathFn)
	require.Empty(t, forest.Errors)
	impls := decl.ResolveImpls(files, pathFn)
	require.Empty(t, impls.Errors)
	return check.NewChecker(forest.Root, impls)
}

func named(name string, args ...types.Ty) types.Named {
	return types.Named{Name: name, Args: args}
}

func TestReflexivity(t *testing.T) {
	c := checkerFor(t, `struct A`)
	samples := []types.Ty{
		named("A"),
		types.Tuple{},
		types.Tuple{Elems: []types.Ty{named("A")}},
		types.Any{},
		types.Function{Func: types.FuncTy{Args: []types.Ty{named("A")}, Ret: named("A")}},
	}
	for _, ty := range samples {
		assert.True(t, c.ExpectIsInstanceOf(nil, ty, ty), "%s should be an instance of itself", ty)
	}
}

func TestUnknownAndNothingAbsorb(t *testing.T) {
	c := checkerFor(t, `struct A`)
	assert.True(t, c.ExpectIsInstanceOf(nil, types.Unknown{}, named("A")))
	assert.True(t, c.ExpectIsInstanceOf(nil, named("A"), types.Unknown{}))
	assert.True(t, c.ExpectIsInstanceOf(nil, types.Nothing{}, named("A")))
	assert.True(t, c.ExpectIsInstanceOf(nil, named("A"), types.Any{}))
	assert.False(t, c.ExpectIsInstanceOf(nil, types.Any{}, named("A")))
}

func TestTuplePointwiseAndArityExact(t *testing.T) {
	c := checkerFor(t, `
struct A
struct B
`)
	ab := types.Tuple{Elems: []types.Ty{named("A"), named("B")}}
	assert.True(t, c.ExpectIsInstanceOf(nil, ab, ab))
	a := types.Tuple{Elems: []types.Ty{named("A")}}
	assert.False(t, c.ExpectIsInstanceOf(nil, a, ab))
	assert.False(t, c.ExpectIsInstanceOf(nil, ab, a))
}

func TestCovariantGeneric(t *testing.T) {
	c := checkerFor(t, `
struct Box[out T](T)
struct A
`)
	// A <: Any, so Box[A] <: Box[Any] under covariance.
	assert.True(t, c.ExpectIsInstanceOf(nil, named("Box", named("A")), named("Box", types.Any{})))
	assert.False(t, c.ExpectIsInstanceOf(nil, named("Box", types.Any{}), named("Box", named("A"))))
}

func TestContravariantGeneric(t *testing.T) {
	c := checkerFor(t, `
struct Sink[in T](T)
struct A
`)
	// direction flips: Sink[Any] <: Sink[A].
	assert.True(t, c.ExpectIsInstanceOf(nil, named("Sink", types.Any{}), named("Sink", named("A"))))
	assert.False(t, c.ExpectIsInstanceOf(nil, named("Sink", named("A")), named("Sink", types.Any{})))
}

func TestInvariantGeneric(t *testing.T) {
	c := checkerFor(t, `
struct Cell[T](T)
struct A
`)
	assert.True(t, c.ExpectIsInstanceOf(nil, named("Cell", named("A")), named("Cell", named("A"))))
	assert.False(t, c.ExpectIsInstanceOf(nil, named("Cell", named("A")), named("Cell", types.Any{})))
	assert.False(t, c.ExpectIsInstanceOf(nil, named("Cell", types.Any{}), named("Cell", named("A"))))
}

func TestImplTraversal(t *testing.T) {
	c := checkerFor(t, `
struct En
trait Greet {
    fn hello(): En
}
impl Greet for En {
    fn hello(): En = En
}
`)
	assert.True(t, c.ExpectIsInstanceOf(nil, named("En"), named("Greet")))
	assert.False(t, c.ExpectIsInstanceOf(nil, named("Greet"), named("En")))
}

func TestSumMatching(t *testing.T) {
	c := checkerFor(t, `
struct A
struct B
`)
	sum := types.Sum{Tys: []types.Ty{named("A"), named("B")}}
	// on the left: any component suffices
	assert.True(t, c.ExpectIsInstanceOf(nil, sum, named("A")))
	// on the right: every component is required
	assert.False(t, c.ExpectIsInstanceOf(nil, named("A"), sum))
	assert.True(t, c.ExpectIsInstanceOf(nil, named("A"), types.Sum{Tys: []types.Ty{named("A")}}))
}

func TestTypeVarBinding(t *testing.T) {
	c := checkerFor(t, `struct A`)
	ts := check.NewTypeState()
	tv := ts.Fresh(check.OriginAt(ast.Span{}, "test.ember"))
	require.True(t, c.ExpectIsInstanceOf(ts, tv, named("A")))
	assert.Equal(t, "A", ts.Resolve(tv).String())
	assert.Empty(t, ts.Unbound())
}

func TestTypeVarUnion(t *testing.T) {
	c := checkerFor(t, `struct A`)
	ts := check.NewTypeState()
	a := ts.Fresh(check.OriginAt(ast.Span{}, "test.ember"))
	b := ts.Fresh(check.OriginAt(ast.Span{}, "test.ember"))
	require.True(t, c.ExpectIsInstanceOf(ts, a, b))
	require.True(t, c.ExpectIsInstanceOf(ts, b, named("A")))
	assert.Equal(t, "A", ts.Resolve(a).String())
}

func TestFunctionMatching(t *testing.T) {
	c := checkerFor(t, `
struct A
struct B
`)
	f := func(args []types.Ty, ret types.Ty) types.Ty {
		return types.Function{Func: types.FuncTy{Args: args, Ret: ret}}
	}
	assert.True(t, c.ExpectIsInstanceOf(nil, f([]types.Ty{named("A")}, named("B")), f([]types.Ty{named("A")}, named("B"))))
	// arity mismatch
	assert.False(t, c.ExpectIsInstanceOf(nil, f(nil, named("B")), f([]types.Ty{named("A")}, named("B"))))
	// arguments are contravariant: accepting more is fine, accepting less is not
	assert.True(t, c.ExpectIsInstanceOf(nil, f([]types.Ty{types.Any{}}, named("B")), f([]types.Ty{named("A")}, named("B"))))
	assert.False(t, c.ExpectIsInstanceOf(nil, f([]types.Ty{named("A")}, named("B")), f([]types.Ty{types.Any{}}, named("B"))))
	// the return is covariant
	assert.True(t, c.ExpectIsInstanceOf(nil, f(nil, named("A")), f(nil, types.Any{})))
	assert.False(t, c.ExpectIsInstanceOf(nil, f(nil, types.Any{}), f(nil, named("A"))))
}

func TestGenericBoundDelegation(t *testing.T) {
	c := checkerFor(t, `
struct En
trait Greet {
    fn hello(): En
}
impl Greet for En {
    fn hello(): En = En
}
`)
	selfG := types.Generic{Name: "Self", Super: named("Greet")}
	// Self on the right accepts anything implementing the bound.
	assert.True(t, c.ExpectIsInstanceOf(nil, named("En"), selfG))
	// a generic on the left stands for its bound
	tG := types.Generic{Name: "T", Super: named("En")}
	assert.True(t, c.ExpectIsInstanceOf(nil, tG, named("Greet")))
	// a non-Self generic on the right only accepts itself
	assert.True(t, c.ExpectIsInstanceOf(nil, tG, types.Generic{Name: "T", Super: named("En")}))
	assert.False(t, c.ExpectIsInstanceOf(nil, named("En"), types.Generic{Name: "T", Super: named("En")}))
}
