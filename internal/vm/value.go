// Package vm executes Ember bytecode: a strictly single-threaded stack
// machine with a scope stack, a heap of boxed objects addressed by
// stable handles, and vtable-based dynamic dispatch.
package vm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// StackItem is one operand-stack slot. Primitives are carried by value;
// everything boxed is a handle into the heap. Every variant is a small
// comparable value so Eq/Neq can compare items structurally — for heap
// items that means handle equality.
type StackItem interface{ isItem() }

type Int struct{ V int32 }
type Float struct{ V float32 }
type Bool struct{ V bool }
type Char struct{ V rune }

// Heap references a HeapItem by its stable handle.
type Heap struct{ Handle uuid.UUID }

func (Int) isItem()   {}
func (Float) isItem() {}
func (Bool) isItem()  {}
func (Char) isItem()  {}
func (Heap) isItem()  {}

// HeapItem is one boxed value.
type HeapItem interface{ isHeapItem() }

// Object is a constructed struct, enum variant, tuple (type id 0), or
// vector (also type id 0): its fields are in pop order, which is reverse
// declaration order for structs, variants and tuples; a list literal
// pushes its elements reversed, so a vector's fields are in natural order.
type Object struct {
	TypeId uint32
	Fields []StackItem
}

// Str is a heap-allocated string.
type Str struct{ V string }

// DynBox pairs a concrete type id with a value so DynCall can index the
// vtable at runtime.
type DynBox struct {
	TypeId uint64
	Inner  StackItem
}

func (*Object) isHeapItem() {}
func (*Str) isHeapItem()    {}
func (*DynBox) isHeapItem() {}

// text renders an item for Print/Panic output.
func (m *VM) text(it StackItem) string {
	switch v := it.(type) {
	case Int:
		return fmt.Sprintf("%d", v.V)
	case Float:
		return fmt.Sprintf("%v", v.V)
	case Bool:
		return fmt.Sprintf("%t", v.V)
	case Char:
		return string(v.V)
	case Heap:
		switch h := m.heap[v.Handle].(type) {
		case *Str:
			return h.V
		case *DynBox:
			return m.text(h.Inner)
		case *Object:
			parts := make([]string, 0, len(h.Fields))
			// Fields live in reverse declaration order; render them the
			// way they were written.
			for i := len(h.Fields) - 1; i >= 0; i-- {
				parts = append(parts, m.text(h.Fields[i]))
			}
			return "(" + strings.Join(parts, ", ") + ")"
		}
	}
	return "?"
}
