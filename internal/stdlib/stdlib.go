// Package stdlib ships the Ember standard module: the `std` source that
// is compiled into every program, the fixed opcode sequences behind its
// bodiless primitive functions, and the host-backed builtins (std::rpc)
// that run in the embedding process instead of the VM.
package stdlib

import (
	"strings"

	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/decl"
)

// FileName is the synthetic path the std module is parsed under. Its
// leading segment is what makes diagnostic suppression
// apply to everything in here.
const FileName = "std/std.ember"

// Source is the standard module. Primitive types are unit structs whose
// paths the checker hard-wires literals to; the bodiless functions are
// either intrinsics (print family, vec ops) or host builtins (rpc). The
// iterator protocol the `for` loop desugars onto lives here too, written
// in plain Ember over the vec intrinsics.
const Source = `
struct Int
struct Float
struct String
struct Bool
struct Char

enum Option[T] {
    Some(T),
    None,
}

fn print(msg: Any)
fn println(msg: Any)
fn panic(msg: Any)

mod vec {
    fn get(v: Any, i: std::Int): Any
    fn set(v: Any, i: std::Int, item: Any)
    fn push(v: Any, item: Any)
    fn pop(v: Any): Any
    fn peak(v: Any): Any
    fn insert(v: Any, i: std::Int, item: Any)
    fn remove(v: Any, i: std::Int): Any
    fn len(v: Any): std::Int
    fn new(): Any
}

mod rpc {
    fn call(target: std::String, method: std::String, payload: std::String): std::String
}

trait Iterator[T] {
    fn next(self): std::Option[T]
}

trait IntoIter[I] {
    fn iter(self): I
}

struct List[T]

struct ListIter[T] {
    list: std::List[T],
    index: std::Int,
}

impl[T] std::IntoIter[std::ListIter[T]] for std::List[T] {
    fn iter(self): std::ListIter[T] = std::ListIter(self, 0)
}

impl[T] std::Iterator[T] for std::ListIter[T] {
    fn next(self): std::Option[T] {
        if self.index < std::vec::len(self.list) {
            self.index = self.index + 1
            std::Option::Some(std::vec::get(self.list, self.index - 1))
        } else {
            std::Option::None
        }
    }
}
`

func op(o bytecode.Op) bytecode.Instr { return bytecode.Instr{Op: o} }

func param(i uint32) bytecode.Instr { return bytecode.Instr{Op: bytecode.OpParam, Small: i} }

// intrinsics maps a std decl path to the opcode sequence its FuncDef
// carries; the trailing Return is appended by the lowerer like any other
// function.
var intrinsics = map[string][]bytecode.Instr{
	"std::print": {param(0), op(bytecode.OpPrint)},
	"std::println": {
		param(0), op(bytecode.OpPrint),
		{Op: bytecode.OpPushChar, Char: '\n'}, op(bytecode.OpPrint),
	},
	"std::panic": {param(0), op(bytecode.OpPanic)},

	"std::vec::get":    {param(0), param(1), op(bytecode.OpVecGet)},
	"std::vec::set":    {param(0), param(2), param(1), op(bytecode.OpVecSet)},
	"std::vec::push":   {param(0), param(1), op(bytecode.OpVecPush)},
	"std::vec::pop":    {param(0), op(bytecode.OpVecPop)},
	"std::vec::peak":   {param(0), op(bytecode.OpVecPeak)},
	"std::vec::insert": {param(0), param(2), param(1), op(bytecode.OpVecInsert)},
	"std::vec::remove": {param(0), param(1), op(bytecode.OpVecRemove)},
	"std::vec::len":    {param(0), op(bytecode.OpVecLen)},
	"std::vec::new":    {{Op: bytecode.OpConstruct, Small: 0, Small2: 0}},
}

// Intrinsic returns the fixed body for a bodiless std function, if it
// has one. Bodiless std functions without an intrinsic are host builtins
// (see HostFuncs in rpc.go) and get an empty VM body.
func Intrinsic(path decl.ModulePath) ([]bytecode.Instr, bool) {
	seq, ok := intrinsics[path.String()]
	if !ok {
		return nil, false
	}
	out := make([]bytecode.Instr, len(seq))
	copy(out, seq)
	return out, true
}

// IsHostPath reports whether a std path is implemented by the host
// process rather than by VM opcodes.
func IsHostPath(path decl.ModulePath) bool {
	return strings.HasPrefix(path.String(), "std::rpc::")
}
