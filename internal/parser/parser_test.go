package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/parser"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	p := parser.New(lexer.New(src), "test.ember")
	f := p.ParseFile("test.ember")
	require.Empty(t, p.Errors)
	return f
}

func TestParseFunctionWithExprBody(t *testing.T) {
	f := parse(t, `fn double(n: Int): Int = n * 2`)
	require.Len(t, f.Items, 1)
	fn := f.Items[0].(*ast.FunctionItem)
	assert.Equal(t, "double", fn.Name)
	require.Len(t, fn.Args, 1)
	assert.False(t, fn.Required)
	_, ok := fn.Body.(*ast.BinaryExpr)
	assert.True(t, ok)
}

func TestParseGenericsWithVariance(t *testing.T) {
	f := parse(t, `struct Box[in T, out U, V]`)
	s := f.Items[0].(*ast.StructItem)
	require.Len(t, s.Generics, 3)
	assert.Equal(t, ast.Contravariant, s.Generics[0].Variance)
	assert.Equal(t, ast.Covariant, s.Generics[1].Variance)
	assert.Equal(t, ast.Invariant, s.Generics[2].Variance)
}

func TestParsePrecedence(t *testing.T) {
	f := parse(t, `fn main() { let x = 2 + 3 * 4 }`)
	fn := f.Items[0].(*ast.FunctionItem)
	block := fn.Body.(*ast.BlockExpr)
	let := block.Stmts[0].(*ast.LetStmt)
	add := let.Value.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, add.Op)
	mul := add.Right.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestParseMatchArms(t *testing.T) {
	f := parse(t, `
fn main() {
    match v {
        Opt::Some(n) => n,
        Opt::None => 0,
        _ => 1,
    }
}
`)
	fn := f.Items[0].(*ast.FunctionItem)
	block := fn.Body.(*ast.BlockExpr)
	m := block.Stmts[0].(*ast.ExprStmt).X.(*ast.MatchExpr)
	require.Len(t, m.Arms, 3)
	_, ok := m.Arms[0].Pattern.(*ast.TuplePatternStruct)
	assert.True(t, ok)
	_, ok = m.Arms[1].Pattern.(*ast.UnitPatternStruct)
	assert.True(t, ok)
	_, ok = m.Arms[2].Pattern.(*ast.WildcardPattern)
	assert.True(t, ok)
}

func TestParseTupleIndexMember(t *testing.T) {
	f := parse(t, `fn main() { p.0 }`)
	fn := f.Items[0].(*ast.FunctionItem)
	block := fn.Body.(*ast.BlockExpr)
	mem := block.Stmts[0].(*ast.ExprStmt).X.(*ast.MemberExpr)
	assert.Equal(t, "0", mem.Member)
}

func TestParseImplForTrait(t *testing.T) {
	f := parse(t, `
impl[T] Greet for Box[T] {
    fn hello(): String = "hi"
}
`)
	impl := f.Items[0].(*ast.ImplItem)
	require.NotNil(t, impl.ToTy)
	to := impl.ToTy.(*ast.NamedTypeExpr)
	assert.Equal(t, []string{"Greet"}, to.Path)
	from := impl.FromTy.(*ast.NamedTypeExpr)
	assert.Equal(t, []string{"Box"}, from.Path)
	require.Len(t, impl.Generics, 1)
	require.Len(t, impl.Funcs, 1)
}

func TestSemicolonsSeparateItems(t *testing.T) {
	f := parse(t, `struct En; struct Fr`)
	require.Len(t, f.Items, 2)
}

func TestParseForAndWhile(t *testing.T) {
	f := parse(t, `
fn main() {
    for i in [1, 2] { i }
    while x > 0 { x }
    while let Opt::Some(v) = next() { v }
}
`)
	fn := f.Items[0].(*ast.FunctionItem)
	block := fn.Body.(*ast.BlockExpr)
	require.Len(t, block.Stmts, 3)
	_, ok := block.Stmts[0].(*ast.ExprStmt).X.(*ast.ForExpr)
	assert.True(t, ok)
	w := block.Stmts[1].(*ast.ExprStmt).X.(*ast.WhileExpr)
	assert.NotNil(t, w.Cond)
	wl := block.Stmts[2].(*ast.ExprStmt).X.(*ast.WhileExpr)
	assert.Nil(t, wl.Cond)
	assert.NotNil(t, wl.LetPat)
}
