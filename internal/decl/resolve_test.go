package decl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/parser"
)

func parseFile(t *testing.T, src string) *ast.File {
	t.Helper()
	p := parser.New(lexer.New(src), "test.ember")
	f := p.ParseFile("test.ember")
	require.Empty(t, p.Errors)
	return f
}

func topLevel(*ast.File) []string { return nil }

func TestBuildForest(t *testing.T) {
	f := parseFile(t, `
struct Point {
    x: Int,
    y: Int,
}

enum Opt[T] {
    Some(T),
    None,
}

trait Greet {
    fn hello(): String
}

fn main() {
}
`)
	forest := decl.Build([]*ast.File{f}, topLevel)
	require.Empty(t, forest.Errors)

	point := forest.Root.Get("Point")
	require.NotNil(t, point)
	assert.Equal(t, decl.KindStruct, point.Kind)
	assert.Equal(t, "Point", point.Path.String())

	opt := forest.Root.Get("Opt")
	require.NotNil(t, opt)
	assert.Equal(t, decl.KindEnum, opt.Kind)
	some := opt.Get("Some")
	require.NotNil(t, some)
	assert.Equal(t, decl.KindMember, some.Kind)
	assert.Equal(t, "Opt::Some", some.Path.String())

	greet := forest.Root.Get("Greet")
	require.NotNil(t, greet)
	hello := greet.Get("hello")
	require.NotNil(t, hello)
	assert.Equal(t, decl.KindFunction, hello.Kind)
	assert.True(t, hello.Required)
	// trait functions always carry a receiver, written or not
	require.NotNil(t, hello.Receiver)

	// structs expose no children
	assert.Nil(t, point.Get("x"))
}

func TestDuplicateTopLevelNameDropped(t *testing.T) {
	f := parseFile(t, `
struct A
struct A
`)
	forest := decl.Build([]*ast.File{f}, topLevel)
	require.Len(t, forest.Errors, 1)
	var dup decl.DuplicateName
	require.ErrorAs(t, forest.Errors[0], &dup)
	assert.Equal(t, "A", dup.Name)

	count := 0
	for _, c := range forest.Root.Children {
		if c.Name == "A" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNestedModulePath(t *testing.T) {
	f := parseFile(t, `
mod geometry {
    struct Circle
}
`)
	forest := decl.Build([]*ast.File{f}, topLevel)
	require.Empty(t, forest.Errors)
	geo := forest.Root.Get("geometry")
	require.NotNil(t, geo)
	circle := geo.Get("Circle")
	require.NotNil(t, circle)
	assert.Equal(t, "geometry::Circle", circle.Path.String())
}

func TestImplIndex(t *testing.T) {
	f := parseFile(t, `
struct En
trait Greet {
    fn hello(): String
}
impl Greet for En {
    fn hello(): String = "hi"
}
impl En {
    fn wave(self) {
    }
}
`)
	ix := decl.ResolveImpls([]*ast.File{f}, topLevel)
	require.Empty(t, ix.Errors)

	impls := ix.For(decl.NewModulePath("En"))
	require.Len(t, impls, 2)

	var traitImpl, inherent *decl.Impl
	for _, impl := range impls {
		if impl.ToPath != nil {
			traitImpl = impl
		} else {
			inherent = impl
		}
	}
	require.NotNil(t, traitImpl)
	require.NotNil(t, inherent)
	assert.Equal(t, "Greet", traitImpl.ToPath.String())
	require.Len(t, traitImpl.Funcs, 1)
	assert.Equal(t, "hello", traitImpl.Funcs[0].Name)
	require.Len(t, inherent.Funcs, 1)
	assert.Equal(t, "wave", inherent.Funcs[0].Name)
}

func TestDuplicateImplCoherence(t *testing.T) {
	f := parseFile(t, `
struct En
trait Greet {
    fn hello(): String
}
impl Greet for En {
    fn hello(): String = "hi"
}
impl Greet for En {
    fn hello(): String = "hello"
}
`)
	ix := decl.ResolveImpls([]*ast.File{f}, topLevel)
	require.Len(t, ix.Errors, 1)
	var dup decl.DuplicateImpl
	require.ErrorAs(t, ix.Errors[0], &dup)
	assert.Equal(t, "En", dup.FromPath.String())
}

func TestModulePathHelpers(t *testing.T) {
	p := decl.NewModulePath("std", "vec", "get")
	assert.Equal(t, "std::vec::get", p.String())
	assert.Equal(t, "std::vec", p.Parent().String())
	assert.True(t, p.IsStd())
	assert.False(t, decl.NewModulePath("main").IsStd())
	assert.True(t, p.Equal(decl.NewModulePath("std", "vec", "get")))
}
