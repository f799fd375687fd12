package vm

import "github.com/emberlang/ember/internal/bytecode"

// execArith implements the numeric coercion rules: `*`
// and `/` promote to Float when either operand is one, while `+` and `-`
// require matching kinds. `+` additionally concatenates heap strings and
// same-typed objects (the built-in vector), and `%` is Int-only.
func (m *VM) execArith(op bytecode.Op) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}

	switch op {
	case bytecode.OpAdd:
		switch av := a.(type) {
		case Int:
			if bv, ok := b.(Int); ok {
				m.push(Int{V: av.V + bv.V})
				return nil
			}
		case Float:
			if bv, ok := b.(Float); ok {
				m.push(Float{V: av.V + bv.V})
				return nil
			}
		case Heap:
			if _, ok := b.(Heap); ok {
				return m.execHeapAdd(a, b)
			}
		}
		return m.fail("can only add matching numbers, strings or vectors")

	case bytecode.OpSub:
		switch av := a.(type) {
		case Int:
			if bv, ok := b.(Int); ok {
				m.push(Int{V: av.V - bv.V})
				return nil
			}
		case Float:
			if bv, ok := b.(Float); ok {
				m.push(Float{V: av.V - bv.V})
				return nil
			}
		}
		return m.fail("cannot 'sub' mismatched operands")

	case bytecode.OpMul:
		af, aIsF, aOk := numeric(a)
		bf, bIsF, bOk := numeric(b)
		if !aOk || !bOk {
			return m.fail("cannot 'mul' non-numbers")
		}
		if aIsF || bIsF {
			m.push(Float{V: af * bf})
		} else {
			m.push(Int{V: a.(Int).V * b.(Int).V})
		}
		return nil

	case bytecode.OpDiv:
		af, aIsF, aOk := numeric(a)
		bf, bIsF, bOk := numeric(b)
		if !aOk || !bOk {
			return m.fail("cannot 'div' non-numbers")
		}
		if aIsF || bIsF {
			m.push(Float{V: af / bf})
			return nil
		}
		if b.(Int).V == 0 {
			return m.fail("division by zero")
		}
		m.push(Int{V: a.(Int).V / b.(Int).V})
		return nil

	case bytecode.OpMod:
		av, aOk := a.(Int)
		bv, bOk := b.(Int)
		if !aOk || !bOk {
			return m.fail("cannot 'mod' non-ints")
		}
		if bv.V == 0 {
			return m.fail("division by zero")
		}
		m.push(Int{V: av.V % bv.V})
		return nil
	}
	return m.fail("unknown arithmetic op")
}

func numeric(it StackItem) (f float32, isFloat, ok bool) {
	switch v := it.(type) {
	case Int:
		return float32(v.V), false, true
	case Float:
		return v.V, true, true
	}
	return 0, false, false
}

func (m *VM) execHeapAdd(a, b StackItem) error {
	ai, err := m.heapGet(a)
	if err != nil {
		return err
	}
	bi, err := m.heapGet(b)
	if err != nil {
		return err
	}
	switch av := ai.(type) {
	case *Str:
		bv, ok := bi.(*Str)
		if !ok {
			return m.fail("cannot add a string and a non-string")
		}
		m.push(m.insert(&Str{V: av.V + bv.V}))
		return nil
	case *Object:
		bv, ok := bi.(*Object)
		if !ok || av.TypeId != bv.TypeId {
			return m.fail("can only concatenate objects of the same type")
		}
		fields := make([]StackItem, 0, len(av.Fields)+len(bv.Fields))
		fields = append(fields, av.Fields...)
		fields = append(fields, bv.Fields...)
		m.push(m.insert(&Object{TypeId: av.TypeId, Fields: fields}))
		return nil
	}
	return m.fail("cannot add these heap items")
}

func (m *VM) execCompare(op bytecode.Op) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if av, ok := a.(Int); ok {
		if bv, ok := b.(Int); ok {
			m.push(Bool{V: compareInt(op, av.V, bv.V)})
			return nil
		}
	}
	if av, ok := a.(Float); ok {
		if bv, ok := b.(Float); ok {
			m.push(Bool{V: compareFloat(op, av.V, bv.V)})
			return nil
		}
	}
	return m.fail("cannot compare non-numbers")
}

func compareInt(op bytecode.Op, a, b int32) bool {
	switch op {
	case bytecode.OpLt:
		return a < b
	case bytecode.OpGt:
		return a > b
	case bytecode.OpLte:
		return a <= b
	default:
		return a >= b
	}
}

func compareFloat(op bytecode.Op, a, b float32) bool {
	switch op {
	case bytecode.OpLt:
		return a < b
	case bytecode.OpGt:
		return a > b
	case bytecode.OpLte:
		return a <= b
	default:
		return a >= b
	}
}

func (m *VM) execLogic(op bytecode.Op) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	av, aOk := a.(Bool)
	bv, bOk := b.(Bool)
	if !aOk || !bOk {
		return m.fail("cannot combine non-bools")
	}
	if op == bytecode.OpAnd {
		m.push(Bool{V: av.V && bv.V})
	} else {
		m.push(Bool{V: av.V || bv.V})
	}
	return nil
}

// execVec treats an Object as the built-in vector: its fields are the
// element sequence in natural order.
func (m *VM) execVec(op bytecode.Op) error {
	switch op {
	case bytecode.OpVecGet:
		idx, obj, err := m.popIndexAndVec()
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(obj.Fields) {
			return m.fail("vector index %d out of bounds (%d elements)", idx, len(obj.Fields))
		}
		m.push(obj.Fields[idx])

	case bytecode.OpVecSet:
		idxItem, err := m.pop()
		if err != nil {
			return err
		}
		idx, ok := idxItem.(Int)
		if !ok {
			return m.fail("expected vector index to be an int")
		}
		value, err := m.pop()
		if err != nil {
			return err
		}
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		if int(idx.V) < 0 || int(idx.V) >= len(obj.Fields) {
			return m.fail("vector index %d out of bounds (%d elements)", idx.V, len(obj.Fields))
		}
		obj.Fields[idx.V] = value

	case bytecode.OpVecPush:
		value, err := m.pop()
		if err != nil {
			return err
		}
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		obj.Fields = append(obj.Fields, value)

	case bytecode.OpVecPop:
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		if len(obj.Fields) == 0 {
			return m.fail("pop from an empty vector")
		}
		m.push(obj.Fields[len(obj.Fields)-1])
		obj.Fields = obj.Fields[:len(obj.Fields)-1]

	case bytecode.OpVecPeak:
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		if len(obj.Fields) == 0 {
			return m.fail("peak at an empty vector")
		}
		m.push(obj.Fields[len(obj.Fields)-1])

	case bytecode.OpVecInsert:
		idxItem, err := m.pop()
		if err != nil {
			return err
		}
		idx, ok := idxItem.(Int)
		if !ok {
			return m.fail("expected vector index to be an int")
		}
		value, err := m.pop()
		if err != nil {
			return err
		}
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		if int(idx.V) < 0 || int(idx.V) > len(obj.Fields) {
			return m.fail("vector index %d out of bounds (%d elements)", idx.V, len(obj.Fields))
		}
		obj.Fields = append(obj.Fields, nil)
		copy(obj.Fields[idx.V+1:], obj.Fields[idx.V:])
		obj.Fields[idx.V] = value

	case bytecode.OpVecRemove:
		idx, obj, err := m.popIndexAndVec()
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(obj.Fields) {
			return m.fail("vector index %d out of bounds (%d elements)", idx, len(obj.Fields))
		}
		m.push(obj.Fields[idx])
		obj.Fields = append(obj.Fields[:idx], obj.Fields[idx+1:]...)

	case bytecode.OpVecLen:
		obj, err := m.popObject()
		if err != nil {
			return err
		}
		m.push(Int{V: int32(len(obj.Fields))})
	}
	return nil
}

func (m *VM) popIndexAndVec() (int, *Object, error) {
	idxItem, err := m.pop()
	if err != nil {
		return 0, nil, err
	}
	idx, ok := idxItem.(Int)
	if !ok {
		return 0, nil, m.fail("expected vector index to be an int")
	}
	obj, err := m.popObject()
	if err != nil {
		return 0, nil, err
	}
	return int(idx.V), obj, nil
}
