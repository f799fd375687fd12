package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/check"
	"github.com/emberlang/ember/internal/pipeline"
	"github.com/emberlang/ember/internal/vm"
)

func compile(t *testing.T, src string) *pipeline.Result {
	t.Helper()
	res, err := pipeline.Compile(context.Background(), []pipeline.SourceFile{
		{Path: "main.ember", Text: src},
	})
	require.NoError(t, err)
	require.Empty(t, res.ParseErrors, "parse errors")
	require.Empty(t, res.ResolveErrors, "resolve errors")
	return res
}

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	res := compile(t, src)
	require.Empty(t, res.Diags, "diagnostics")
	machine := pipeline.NewVM(res)
	var out bytes.Buffer
	machine.Out = &out
	err := machine.Run()
	return out.String(), err
}

func TestHelloWorld(t *testing.T) {
	out, err := run(t, `
fn main() {
    std::println("hi")
}
`)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
}

func TestArithmeticAndLocals(t *testing.T) {
	out, err := run(t, `
fn main() {
    let x = 2 + 3 * 4
    std::println(x)
}
`)
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)
}

func TestEnumMatch(t *testing.T) {
	out, err := run(t, `
enum Opt[T] {
    Some(T),
    None,
}

fn main() {
    let v = Opt::Some(7)
    match v {
        Opt::Some(n) => std::println(n),
        Opt::None => std::println(0),
    }
}
`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestTraitDispatch(t *testing.T) {
	out, err := run(t, `
trait Greet {
    fn hello(): String
}

struct En
struct Fr

impl Greet for En {
    fn hello(): String = "hi"
}

impl Greet for Fr {
    fn hello(): String = "salut"
}

fn say(g: Greet) {
    std::println(g.hello())
}

fn main() {
    say(En)
    say(Fr)
}
`)
	require.NoError(t, err)
	assert.Equal(t, "hi\nsalut\n", out)
}

func TestForLoopOverList(t *testing.T) {
	out, err := run(t, `
fn main() {
    for i in [1, 2, 3] {
        std::println(i)
    }
}
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestVarianceFailure(t *testing.T) {
	res := compile(t, `
struct Box[in T](T)

fn need(b: Box[Any]) {
}

fn main() {
    need(Box(1))
}
`)
	var notInstance []check.IsNotInstance
	for _, d := range res.Diags {
		if e, ok := d.(check.IsNotInstance); ok {
			notInstance = append(notInstance, e)
		}
	}
	require.Len(t, notInstance, 1)
	assert.Equal(t, "Box[std::Int]", notInstance[0].Got.String())
	assert.Equal(t, "Box[Any]", notInstance[0].Want.String())
	require.Len(t, res.Diags, 1)
}

func TestWhileLoopWithAssignment(t *testing.T) {
	out, err := run(t, `
fn main() {
    let x = 3
    while x > 0 {
        std::println(x)
        x = x - 1
    }
}
`)
	require.NoError(t, err)
	assert.Equal(t, "3\n2\n1\n", out)
}

func TestMatchLiterals(t *testing.T) {
	out, err := run(t, `
fn main() {
    let n = 2
    match n {
        1 => std::println("one"),
        2 => std::println("two"),
        _ => std::println("many"),
    }
}
`)
	require.NoError(t, err)
	assert.Equal(t, "two\n", out)
}

func TestTupleStructFieldAccess(t *testing.T) {
	out, err := run(t, `
struct Pair(Int, Int)

fn main() {
    let p = Pair(1, 2)
    std::println(p.0)
    std::println(p.1)
    std::println(p.0 + p.1)
}
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestStructFieldPatternMatch(t *testing.T) {
	out, err := run(t, `
struct Point {
    x: Int,
    y: Int,
}

fn main() {
    let p = Point(3, 4)
    match p {
        Point { x, y } => std::println(x + y),
    }
}
`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestIfElseValue(t *testing.T) {
	out, err := run(t, `
fn main() {
    let x = 5
    let label = if x > 3 { "big" } else { "small" }
    std::println(label)
}
`)
	require.NoError(t, err)
	assert.Equal(t, "big\n", out)
}

func TestStringConcat(t *testing.T) {
	out, err := run(t, `
fn main() {
    std::println("foo" + "bar")
}
`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestPanicTerminates(t *testing.T) {
	out, err := run(t, `
fn main() {
    std::panic("boom")
    std::println("unreached")
}
`)
	var p *vm.PanicError
	require.True(t, errors.As(err, &p))
	assert.Equal(t, "boom", p.Message)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "main.ember")
	assert.NotContains(t, out, "unreached")
}

func TestFunctionCallsAndReturns(t *testing.T) {
	out, err := run(t, `
fn double(n: Int): Int = n * 2

fn main() {
    std::println(double(21))
}
`)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestMethodCallOnStruct(t *testing.T) {
	out, err := run(t, `
struct Counter {
    value: Int,
}

impl Counter {
    fn bump(self): Int {
        self.value = self.value + 1
        self.value
    }
}

fn main() {
    let c = Counter(10)
    std::println(c.bump())
    std::println(c.bump())
}
`)
	require.NoError(t, err)
	assert.Equal(t, "11\n12\n", out)
}

func TestVecIntrinsics(t *testing.T) {
	out, err := run(t, `
fn main() {
    let v = [10, 20]
    std::vec::push(v, 30)
    std::println(std::vec::len(v))
    std::println(std::vec::get(v, 2))
}
`)
	require.NoError(t, err)
	assert.Equal(t, "3\n30\n", out)
}

func TestDeterministicExecution(t *testing.T) {
	src := `
fn main() {
    for i in [1, 2, 3] {
        std::println(i * i)
    }
}
`
	first, err := run(t, src)
	require.NoError(t, err)
	second, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUnresolvedNameDiagnostic(t *testing.T) {
	res := compile(t, `
fn main() {
    std::println(missing)
}
`)
	require.NotEmpty(t, res.Diags)
	_, ok := res.Diags[0].(check.Unresolved)
	assert.True(t, ok)
}
