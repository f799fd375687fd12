package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/check"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/types"
)

// checkAll builds the forest for src and checks every function in it,
// returning the checker with its accumulated diagnostics.
func checkAll(t *testing.T, src string) *check.Checker {
	t.Helper()
	c := checkerFor(t, src)
	var walk func(d *decl.Decl)
	walk = func(d *decl.Decl) {
		switch d.Kind {
		case decl.KindModule:
			for _, child := range d.Children {
				walk(child)
			}
		case decl.KindFunction:
			c.CheckFunc(d)
		case decl.KindTrait:
			for _, fn := range d.TraitFuncs {
				c.CheckFunc(fn)
			}
		}
	}
	walk(c.Forest)
	for _, group := range c.Impls.All() {
		for _, impl := range group {
			for _, fn := range impl.Funcs {
				c.CheckFunc(fn)
			}
		}
	}
	return c
}

func TestUnresolvedIdentifier(t *testing.T) {
	c := checkAll(t, `
fn main() {
    let x = missing
}
`)
	require.NotEmpty(t, c.Errors)
	u, ok := c.Errors[0].(check.Unresolved)
	require.True(t, ok)
	assert.Equal(t, "missing", u.Name)
}

func TestArityMismatch(t *testing.T) {
	c := checkAll(t, `
struct A
fn one(a: A) {
}
fn main() {
    one()
}
`)
	require.NotEmpty(t, c.Errors)
	ua, ok := c.Errors[0].(check.UnexpectedArgs)
	require.True(t, ok)
	assert.Equal(t, 1, ua.Want)
	assert.Equal(t, 0, ua.Got)
}

func TestAmbiguousMethod(t *testing.T) {
	c := checkAll(t, `
struct A
trait T1 {
    fn go(): A
}
trait T2 {
    fn go(): A
}
impl T1 for A {
    fn go(): A = A
}
impl T2 for A {
    fn go(): A = A
}
fn main(a: A) {
    a.go()
}
`)
	found := false
	for _, e := range c.Errors {
		if s, ok := e.(check.Simple); ok && s.Msg == "ambiguous method 'go' on A" {
			found = true
		}
	}
	assert.True(t, found, "expected an ambiguity diagnostic, got %v", c.Errors)
}

func TestMethodResolutionPrefersImplOverDefault(t *testing.T) {
	c := checkerFor(t, `
struct A
trait T1 {
    fn greet(): A = A
}
impl T1 for A {
    fn greet(): A = A
}
`)
	fn := c.GetFunc(namedOf("A"), "greet")
	require.NotNil(t, fn)
	// the impl's copy lives at path A::greet, the default at T1::greet
	assert.Equal(t, "A::greet", fn.Path.String())
}

func TestTraitDefaultUsedWhenNotOverridden(t *testing.T) {
	c := checkerFor(t, `
struct A
trait T1 {
    fn greet(): A = A
    fn must(): A
}
impl T1 for A {
    fn must(): A = A
}
`)
	fn := c.GetFunc(namedOf("A"), "greet")
	require.NotNil(t, fn)
	assert.Equal(t, "T1::greet", fn.Path.String())
}

func TestPatternAgainstWrongStructReports(t *testing.T) {
	c := checkAll(t, `
struct A
struct B

fn main() {
    let a = A
    match a {
        B => std_noop(a),
    }
}

fn std_noop(a: A) {
}
`)
	// B used as a unit pattern against an A scrutinee
	found := false
	for _, e := range c.Errors {
		if _, ok := e.(check.Simple); ok {
			found = true
		}
	}
	assert.True(t, found, "expected a mismatch diagnostic, got %v", c.Errors)
}

func TestTupleIndexOutOfBounds(t *testing.T) {
	c := checkAll(t, `
struct Pair(Pair, Pair)

fn main(p: Pair) {
    let x = p.7
}
`)
	found := false
	for _, e := range c.Errors {
		if s, ok := e.(check.Simple); ok && s.Msg == "tuple index out of bounds" {
			found = true
		}
	}
	assert.True(t, found, "got %v", c.Errors)
}

func TestUnboundTypeVarReported(t *testing.T) {
	c := checkAll(t, `
enum Opt[T] {
    Some(T),
    None,
}

fn make[T](): Opt[T]

fn main() {
    let v = make()
}
`)
	found := false
	for _, e := range c.Errors {
		if _, ok := e.(check.UnboundTypeVar); ok {
			found = true
		}
	}
	assert.True(t, found, "got %v", c.Errors)
}

func namedOf(name string) types.Named { return types.Named{Name: name} }
