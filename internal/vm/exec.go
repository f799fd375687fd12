package vm

import (
	"fmt"

	"github.com/emberlang/ember/internal/bytecode"
)

func (m *VM) exec(instr bytecode.Instr) error {
	switch instr.Op {
	case bytecode.OpPushInt:
		m.push(Int{V: instr.Sign})
	case bytecode.OpPushFloat:
		m.push(Float{V: instr.Float})
	case bytecode.OpPushBool:
		m.push(Bool{V: instr.Bool})
	case bytecode.OpPushChar:
		m.push(Char{V: instr.Char})
	case bytecode.OpPushString:
		m.push(m.insert(&Str{V: instr.Str}))

	case bytecode.OpPop:
		_, err := m.pop()
		return err
	case bytecode.OpCopy:
		it, err := m.peak()
		if err != nil {
			return err
		}
		m.push(it)
	case bytecode.OpClone:
		return m.execClone()

	case bytecode.OpPrint:
		it, err := m.pop()
		if err != nil {
			return err
		}
		fmt.Fprint(m.Out, m.text(it))
	case bytecode.OpPanic:
		it, err := m.pop()
		if err != nil {
			return err
		}
		msg, trace := m.text(it), m.StackTrace()
		fmt.Fprintln(m.Out, msg)
		fmt.Fprintln(m.Out, trace)
		return &PanicError{Message: msg, Trace: trace}

	case bytecode.OpCall:
		return m.execCall(instr.Small)
	case bytecode.OpDynCall:
		return m.execDynCall(instr.Small)
	case bytecode.OpReturn:
		return m.execReturn()

	case bytecode.OpConstruct:
		fields := make([]StackItem, 0, instr.Small2)
		for i := uint32(0); i < instr.Small2; i++ {
			it, err := m.pop()
			if err != nil {
				return err
			}
			fields = append(fields, it)
		}
		m.push(m.insert(&Object{TypeId: instr.Small, Fields: fields}))

	case bytecode.OpDyn:
		it, err := m.pop()
		if err != nil {
			return err
		}
		m.push(m.insert(&DynBox{TypeId: instr.Big, Inner: it}))

	case bytecode.OpMatch:
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		m.push(Bool{V: obj.TypeId == instr.Small})

	case bytecode.OpIndex:
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		if int(instr.Small) >= len(obj.Fields) {
			return m.fail("field index %d out of bounds (%d fields)", instr.Small, len(obj.Fields))
		}
		m.push(obj.Fields[instr.Small])
	case bytecode.OpSetIndex:
		value, err := m.pop()
		if err != nil {
			return err
		}
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		if int(instr.Small) >= len(obj.Fields) {
			return m.fail("field index %d out of bounds (%d fields)", instr.Small, len(obj.Fields))
		}
		obj.Fields[instr.Small] = value

	case bytecode.OpVecGet, bytecode.OpVecSet, bytecode.OpVecPush, bytecode.OpVecPop,
		bytecode.OpVecPeak, bytecode.OpVecInsert, bytecode.OpVecRemove, bytecode.OpVecLen:
		return m.execVec(instr.Op)

	case bytecode.OpNewLocal, bytecode.OpSetLocal:
		it, err := m.pop()
		if err != nil {
			return err
		}
		m.scope().Locals[instr.Small] = it
	case bytecode.OpGetLocal:
		it, ok := m.scope().Locals[instr.Small]
		if !ok {
			return m.fail("local %d not found", instr.Small)
		}
		m.push(it)
	case bytecode.OpParam:
		args := m.scope().Args
		if int(instr.Small) >= len(args) {
			return m.fail("parameter %d out of range (%d args)", instr.Small, len(args))
		}
		m.push(args[instr.Small])

	case bytecode.OpGoto:
		m.scope().Index = int(instr.Small)
	case bytecode.OpJe:
		return m.execCondJump(instr.Sign, true)
	case bytecode.OpJne:
		return m.execCondJump(instr.Sign, false)
	case bytecode.OpJmp:
		m.scope().Index += int(instr.Sign)

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
		return m.execArith(instr.Op)
	case bytecode.OpEq, bytecode.OpNeq:
		b, err := m.pop()
		if err != nil {
			return err
		}
		a, err := m.pop()
		if err != nil {
			return err
		}
		eq := a == b
		if instr.Op == bytecode.OpNeq {
			eq = !eq
		}
		m.push(Bool{V: eq})
	case bytecode.OpLt, bytecode.OpGt, bytecode.OpLte, bytecode.OpGte:
		return m.execCompare(instr.Op)
	case bytecode.OpAnd, bytecode.OpOr:
		return m.execLogic(instr.Op)
	case bytecode.OpNot:
		it, err := m.pop()
		if err != nil {
			return err
		}
		b, ok := it.(Bool)
		if !ok {
			return m.fail("cannot 'not' a non-bool")
		}
		m.push(Bool{V: !b.V})

	case bytecode.OpMark:
		// position annotation only; no effect at runtime

	default:
		return m.fail("unknown opcode %d", instr.Op)
	}
	return nil
}

func (m *VM) execCondJump(offset int32, when bool) error {
	it, err := m.pop()
	if err != nil {
		return err
	}
	cond, ok := it.(Bool)
	if !ok {
		return m.fail("expected jump condition to be a boolean")
	}
	if cond.V == when {
		m.scope().Index += int(offset)
	}
	return nil
}

func (m *VM) execCall(id uint32) error {
	if host, ok := m.Hosts[id]; ok {
		return m.execHost(host)
	}
	fn, ok := m.Funcs[id]
	if !ok {
		return m.fail("call to unknown function %d", id)
	}
	args := make([]StackItem, fn.Args)
	for i := int(fn.Args) - 1; i >= 0; i-- {
		it, err := m.pop()
		if err != nil {
			return err
		}
		args[i] = it
	}
	m.scopes = append(m.scopes, scopeFromCode(fn.Body, id, args))
	return nil
}

func (m *VM) execHost(host HostFunc) error {
	args := make([]StackItem, host.Args)
	for i := host.Args - 1; i >= 0; i-- {
		it, err := m.pop()
		if err != nil {
			return err
		}
		args[i] = it
	}
	out, hasOut, err := host.Fn(m, args)
	if err != nil {
		msg, trace := err.Error(), m.StackTrace()
		fmt.Fprintln(m.Out, msg)
		fmt.Fprintln(m.Out, trace)
		return &PanicError{Message: msg, Trace: trace}
	}
	if hasOut {
		m.push(out)
	}
	return nil
}

// execDynCall pops the trait function's arguments, unwraps the Dyn box
// that must be argument 0, resolves the concrete implementation through
// the receiver type's vtable, and enters it.
func (m *VM) execDynCall(traitFuncId uint32) error {
	fn, ok := m.Funcs[traitFuncId]
	if !ok {
		return m.fail("dyncall to unknown trait function %d", traitFuncId)
	}
	args := make([]StackItem, fn.Args)
	for i := int(fn.Args) - 1; i >= 0; i-- {
		it, err := m.pop()
		if err != nil {
			return err
		}
		args[i] = it
	}
	if len(args) == 0 {
		return m.fail("dyncall with no receiver argument")
	}
	item, err := m.heapGet(args[0])
	if err != nil {
		return err
	}
	dyn, ok := item.(*DynBox)
	if !ok {
		return m.fail("dyncall receiver is not a dyn box")
	}
	args[0] = dyn.Inner

	vt, ok := m.VTables[dyn.TypeId]
	if !ok {
		return m.fail("no vtable for type %d", dyn.TypeId)
	}
	implId, ok := vt[traitFuncId]
	if !ok {
		return m.fail("vtable for type %d has no entry for trait function %d", dyn.TypeId, traitFuncId)
	}
	impl, ok := m.Funcs[implId]
	if !ok {
		return m.fail("vtable points at unknown function %d", implId)
	}
	m.scopes = append(m.scopes, scopeFromCode(impl.Body, implId, args))
	return nil
}

func (m *VM) execReturn() error {
	scope := m.scope()
	var ret StackItem
	if len(scope.Stack) > 0 {
		ret = scope.Stack[len(scope.Stack)-1]
	}
	m.scopes = m.scopes[:len(m.scopes)-1]
	if ret != nil && len(m.scopes) > 0 {
		m.push(ret)
	}
	return nil
}

// execClone deep-copies the heap item the top refers to; non-heap items
// are already value-copied.
func (m *VM) execClone() error {
	it, err := m.pop()
	if err != nil {
		return err
	}
	out, err := m.cloneItem(it)
	if err != nil {
		return err
	}
	m.push(out)
	return nil
}

func (m *VM) cloneItem(it StackItem) (StackItem, error) {
	ref, ok := it.(Heap)
	if !ok {
		return it, nil
	}
	switch item := m.heap[ref.Handle].(type) {
	case *Str:
		return m.insert(&Str{V: item.V}), nil
	case *DynBox:
		inner, err := m.cloneItem(item.Inner)
		if err != nil {
			return nil, err
		}
		return m.insert(&DynBox{TypeId: item.TypeId, Inner: inner}), nil
	case *Object:
		fields := make([]StackItem, len(item.Fields))
		for i, f := range item.Fields {
			cp, err := m.cloneItem(f)
			if err != nil {
				return nil, err
			}
			fields[i] = cp
		}
		return m.insert(&Object{TypeId: item.TypeId, Fields: fields}), nil
	default:
		return nil, m.fail("dangling heap handle")
	}
}
