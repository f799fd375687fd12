package vm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/emberlang/ember/internal/bytecode"
)

// Scope is one activation record: the code being executed, the fetch
// index into it, the call arguments, locals keyed by id, and the operand
// stack.
type Scope struct {
	Code   []bytecode.Instr
	Index  int
	Args   []StackItem
	Locals map[uint32]StackItem
	Stack  []StackItem
	Id     uint32
}

func scopeFromCode(code []bytecode.Instr, id uint32, args []StackItem) *Scope {
	return &Scope{Code: code, Args: args, Locals: map[uint32]StackItem{}, Id: id}
}

// HostFunc is a function implemented by the embedding process rather
// than by bytecode — the mechanism behind std::rpc. The id it is
// registered under also has an empty-bodied FuncDef from the lowerer;
// Call checks Hosts first and diverts to the host instead of pushing a
// scope.
type HostFunc struct {
	Args int
	Fn   func(m *VM, args []StackItem) (StackItem, bool, error)
}

// VM executes a loaded module. Funcs, VTables, and FileNames are
// immutable after load; the heap and scope stack belong exclusively to
// the executing instruction stream.
type VM struct {
	Funcs     map[uint32]*bytecode.FuncDef
	VTables   map[uint64]map[uint32]uint32
	FileNames map[uint32]string
	Hosts     map[uint32]HostFunc

	Out io.Writer

	scopes []*Scope
	heap   map[uuid.UUID]HeapItem

	dbg *Debugger
}

// New builds a VM over a decoded module.
func New(mod *bytecode.Module) *VM {
	vts := make(map[uint64]map[uint32]uint32, len(mod.VTables))
	for id, vt := range mod.VTables {
		vts[id] = vt.Entries
	}
	return &VM{
		Funcs:     mod.Funcs,
		VTables:   vts,
		FileNames: mod.FileNames,
		Hosts:     map[uint32]HostFunc{},
		Out:       os.Stdout,
		heap:      map[uuid.UUID]HeapItem{},
	}
}

// PanicError is the explicit-Panic outcome: the printed operand plus the
// stack trace. The process exit code for it is 1.
type PanicError struct {
	Message string
	Trace   string
}

func (e *PanicError) Error() string { return "panic: " + e.Message }

// RuntimeError is a tier-3 failure: stack underflow, bad
// operand kinds, missing vtable entries. These indicate lowerer bugs,
// not user errors.
type RuntimeError struct {
	Message string
	Trace   string
}

func (e *RuntimeError) Error() string { return "vm: " + e.Message }

func (m *VM) fail(format string, args ...interface{}) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Trace: m.StackTrace()}
}

// Run executes from the entry function (id 0) until the scope stack
// drains. A Panic op prints the operand and trace to Out and returns a
// PanicError.
func (m *VM) Run() error {
	main, ok := m.Funcs[0]
	if !ok {
		return m.fail("no entry function with id 0")
	}
	m.scopes = []*Scope{scopeFromCode(main.Body, 0, nil)}
	for len(m.scopes) > 0 {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step fetches and executes a single instruction, honoring the debugger
// when one is attached. The debug adapter drives the VM through this
// same entry point one instruction at a time.
func (m *VM) Step() error {
	scope := m.scope()
	if m.dbg != nil {
		m.dbg.beforeFetch(scope.Id, scope.Index)
	}
	if scope.Index >= len(scope.Code) {
		// Falling off a body behaves like an implicit Return.
		return m.execReturn()
	}
	instr := scope.Code[scope.Index]
	scope.Index++
	return m.exec(instr)
}

// Done reports whether execution has drained.
func (m *VM) Done() bool { return len(m.scopes) == 0 }

func (m *VM) scope() *Scope { return m.scopes[len(m.scopes)-1] }

func (m *VM) push(it StackItem) {
	s := m.scope()
	s.Stack = append(s.Stack, it)
}

func (m *VM) pop() (StackItem, error) {
	s := m.scope()
	if len(s.Stack) == 0 {
		return nil, m.fail("stack underflow")
	}
	it := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	return it, nil
}

func (m *VM) peak() (StackItem, error) {
	s := m.scope()
	if len(s.Stack) == 0 {
		return nil, m.fail("stack underflow")
	}
	return s.Stack[len(s.Stack)-1], nil
}

func (m *VM) insert(item HeapItem) Heap {
	h := uuid.New()
	m.heap[h] = item
	return Heap{Handle: h}
}

func (m *VM) heapGet(it StackItem) (HeapItem, error) {
	ref, ok := it.(Heap)
	if !ok {
		return nil, m.fail("expected a heap reference, found %T", it)
	}
	item, ok := m.heap[ref.Handle]
	if !ok {
		return nil, m.fail("dangling heap handle")
	}
	return item, nil
}

func (m *VM) popObject() (*Object, error) {
	it, err := m.pop()
	if err != nil {
		return nil, err
	}
	item, err := m.heapGet(it)
	if err != nil {
		return nil, err
	}
	obj, ok := item.(*Object)
	if !ok {
		return nil, m.fail("expected an object, found %T", item)
	}
	return obj, nil
}

// NewString boxes a Go string for host functions.
func (m *VM) NewString(s string) StackItem { return m.insert(&Str{V: s}) }

// StringVal unboxes a heap string, for host functions consuming Ember
// string arguments.
func (m *VM) StringVal(it StackItem) (string, bool) {
	ref, ok := it.(Heap)
	if !ok {
		return "", false
	}
	str, ok := m.heap[ref.Handle].(*Str)
	if !ok {
		return "", false
	}
	return str.V, true
}

// StackTrace walks the scope stack outermost-first, resolving each
// scope's source position by scanning the function's marks for the
// first offset at or past the fetch index.
func (m *VM) StackTrace() string {
	lines := make([]string, 0, len(m.scopes))
	for _, scope := range m.scopes {
		fn := m.Funcs[scope.Id]
		if fn == nil {
			lines = append(lines, fmt.Sprintf("?:?:? (#%d)", scope.Id))
			continue
		}
		line, col := fn.Line, fn.Col
		for _, mark := range fn.Marks {
			if mark.Offset >= scope.Index {
				line, col = mark.Line, mark.Col
				break
			}
		}
		lines = append(lines, fmt.Sprintf("%s:%d:%d (%s)", m.FileNames[fn.File], line, col, fn.Name))
	}
	return strings.Join(lines, "\n")
}
