package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/bytecode"
)

func push(v int32) Node {
	return Code{[]bytecode.Instr{{Op: bytecode.OpPushInt, Sign: v}}}
}

func ops(instrs []bytecode.Instr) []bytecode.Op {
	out := make([]bytecode.Op, len(instrs))
	for i, in := range instrs {
		out[i] = in.Op
	}
	return out
}

func TestAssembleStraightLine(t *testing.T) {
	code, marks := Assemble(seq(push(1), push(2), instr(bytecode.OpAdd)))
	assert.Equal(t, []bytecode.Op{bytecode.OpPushInt, bytecode.OpPushInt, bytecode.OpAdd}, ops(code))
	assert.Empty(t, marks)
}

func TestAssembleMarksCarryOffsets(t *testing.T) {
	code, marks := Assemble(seq(Mark{Line: 3, Col: 5}, push(1), Mark{Line: 4, Col: 1}, push(2)))
	require.Len(t, marks, 2)
	assert.Equal(t, bytecode.Mark{Offset: 0, Line: 3, Col: 5}, marks[0])
	assert.Equal(t, bytecode.Mark{Offset: 1, Line: 4, Col: 1}, marks[1])
	assert.Len(t, code, 2)
}

// A two-branch If lays out as:
//
//	0 cond1, 1 Jne(->4), 2 body1, 3 Jmp(->end), 4 cond2, 5 Jne(->end), 6 body2
func TestAssembleIfChain(t *testing.T) {
	n := If{Branches: []Branch{
		{Cond: seq(push(1), Next{}), Body: push(10)},
		{Cond: seq(push(2), Next{}), Body: push(20)},
	}}
	code, _ := Assemble(n)
	require.Len(t, code, 7)

	assert.Equal(t, bytecode.OpJne, code[1].Op)
	// a failed first check lands on the second branch's condition
	assert.Equal(t, 4, 1 + 1 + int(code[1].Sign))
	assert.Equal(t, bytecode.OpJmp, code[3].Op)
	assert.Equal(t, 7, 3 + 1 + int(code[3].Sign))
	assert.Equal(t, bytecode.OpJne, code[5].Op)
	assert.Equal(t, 7, 5 + 1 + int(code[5].Sign))
}

func TestAssembleIfElse(t *testing.T) {
	n := If{
		Branches: []Branch{{Cond: seq(push(1), Next{}), Body: push(10)}},
		Else:     push(99),
	}
	code, _ := Assemble(n)
	// 0 cond, 1 Jne(->4), 2 body, 3 Jmp(->5), 4 else
	require.Len(t, code, 5)
	assert.Equal(t, 4, 1 + 1 + int(code[1].Sign))
	assert.Equal(t, bytecode.OpJmp, code[3].Op)
	assert.Equal(t, 5, 3 + 1 + int(code[3].Sign))
}

// A While lays out as: 0 cond, 1 Jne(->4), 2 body, 3 Jmp(->0)
func TestAssembleWhileLoop(t *testing.T) {
	n := While{
		Cond: seq(push(1), MaybeBreak{}),
		Body: seq(push(2), Continue{}),
	}
	code, _ := Assemble(n)
	require.Len(t, code, 4)
	assert.Equal(t, bytecode.OpJne, code[1].Op)
	assert.Equal(t, 4, 1 + 1 + int(code[1].Sign))
	assert.Equal(t, bytecode.OpJmp, code[3].Op)
	assert.Equal(t, 0, 3 + 1 + int(code[3].Sign))
}

// A Next emitted inside a loop condition (the while-let form) exits the
// loop exactly like MaybeBreak.
func TestAssembleWhileNextExits(t *testing.T) {
	n := While{
		Cond: seq(push(1), Next{}),
		Body: seq(push(2), Continue{}),
	}
	code, _ := Assemble(n)
	require.Len(t, code, 4)
	assert.Equal(t, bytecode.OpJne, code[1].Op)
	assert.Equal(t, 4, 1 + 1 + int(code[1].Sign))
}

// break lowers as Push(false); MaybeBreak inside the body and must
// resolve past the loop end, not to the enclosing If.
func TestAssembleBreakInsideLoopBody(t *testing.T) {
	n := While{
		Cond: seq(push(1), MaybeBreak{}),
		Body: seq(
			Code{[]bytecode.Instr{{Op: bytecode.OpPushBool, Bool: false}}},
			MaybeBreak{},
			Continue{},
		),
	}
	code, _ := Assemble(n)
	// 0 cond, 1 Jne(->5), 2 push false, 3 Jne(->5), 4 Jmp(->0)
	require.Len(t, code, 5)
	assert.Equal(t, 5, 3 + 1 + int(code[3].Sign))
	assert.Equal(t, 0, 4 + 1 + int(code[4].Sign))
}
