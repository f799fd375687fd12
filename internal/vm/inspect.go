package vm

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// FrameInfo is one stack frame as shown by the debug adapter.
type FrameInfo struct {
	FuncId uint32
	Name   string
	File   string
	Line   uint16
	Col    uint16
	Index  int
}

// Frames lists the current scope stack innermost-first for the DAP
// stackTrace response.
func (m *VM) Frames() []FrameInfo {
	out := make([]FrameInfo, 0, len(m.scopes))
	for i := len(m.scopes) - 1; i >= 0; i-- {
		scope := m.scopes[i]
		info := FrameInfo{FuncId: scope.Id, Index: scope.Index}
		if fn := m.Funcs[scope.Id]; fn != nil {
			info.Name = fn.Name
			info.File = m.FileNames[fn.File]
			info.Line, info.Col = fn.Line, fn.Col
			for _, mark := range fn.Marks {
				if mark.Offset >= scope.Index {
					info.Line, info.Col = mark.Line, mark.Col
					break
				}
			}
		}
		out = append(out, info)
	}
	return out
}

// InspectLocals renders the innermost scope's locals and arguments for
// the DAP variables response, resolving heap handles one level deep.
func (m *VM) InspectLocals() string {
	if len(m.scopes) == 0 {
		return "<no scope>"
	}
	scope := m.scope()
	var b strings.Builder
	for i, arg := range scope.Args {
		fmt.Fprintf(&b, "arg %d = %s\n", i, m.inspectItem(arg))
	}
	ids := maps.Keys(scope.Locals)
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "local %d = %s\n", id, m.inspectItem(scope.Locals[id]))
	}
	return b.String()
}

func (m *VM) inspectItem(it StackItem) string {
	if ref, ok := it.(Heap); ok {
		if item, ok := m.heap[ref.Handle]; ok {
			return strings.TrimSpace(pretty.Sprint(item))
		}
		return "<dangling>"
	}
	return strings.TrimSpace(pretty.Sprint(it))
}
