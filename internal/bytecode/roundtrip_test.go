package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModule() *Module {
	m := NewModule()
	m.Funcs[0] = &FuncDef{
		Id:   0,
		Name: "main",
		Args: 0,
		Body: []Instr{
			{Op: OpPushInt, Sign: -7},
			{Op: OpPushFloat, Float: 2.5},
			{Op: OpPushString, Str: "hello"},
			{Op: OpPushBool, Bool: true},
			{Op: OpPushChar, Char: 'x'},
			{Op: OpConstruct, Small: 3, Small2: 2},
			{Op: OpDyn, Big: 1 << 40},
			{Op: OpCall, Small: 9},
			{Op: OpDynCall, Small: 12},
			{Op: OpIndex, Small: 1},
			{Op: OpSetIndex, Small: 0},
			{Op: OpNewLocal, Small: 4},
			{Op: OpGetLocal, Small: 4},
			{Op: OpSetLocal, Small: 4},
			{Op: OpParam, Small: 0},
			{Op: OpGoto, Small: 2},
			{Op: OpJe, Sign: 3},
			{Op: OpJne, Sign: -4},
			{Op: OpJmp, Sign: 1},
			{Op: OpMatch, Small: 5},
			{Op: OpAdd}, {Op: OpMul}, {Op: OpSub}, {Op: OpDiv}, {Op: OpMod},
			{Op: OpOr}, {Op: OpAnd}, {Op: OpNot},
			{Op: OpEq}, {Op: OpNeq}, {Op: OpLt}, {Op: OpGt}, {Op: OpLte}, {Op: OpGte},
			{Op: OpCopy}, {Op: OpClone}, {Op: OpPop},
			{Op: OpVecGet}, {Op: OpVecSet}, {Op: OpVecPush}, {Op: OpVecPop},
			{Op: OpVecPeak}, {Op: OpVecInsert}, {Op: OpVecRemove}, {Op: OpVecLen},
			{Op: OpPrint}, {Op: OpPanic},
			{Op: OpReturn},
		},
		Marks: []Mark{
			{Offset: 0, Line: 1, Col: 1},
			{Offset: 5, Line: 2, Col: 9},
		},
		Line: 1,
		Col:  1,
		File: 0,
	}
	m.Funcs[9] = &FuncDef{
		Id:   9,
		Name: "helper",
		Args: 2,
		Body: []Instr{{Op: OpParam, Small: 1}, {Op: OpReturn}},
		Line: 12,
		Col:  3,
		File: 1,
	}
	m.VTables[7] = &VTable{TypeId: 7, Entries: map[uint32]uint32{12: 9}}
	m.VTables[1 << 40] = &VTable{TypeId: 1 << 40, Entries: map[uint32]uint32{12: 9, 13: 0}}
	m.FileNames[0] = "main.ember"
	m.FileNames[1] = "std/std.ember"
	return m
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := sampleModule()
	decoded, err := DecodeModule(EncodeModule(m))
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestDecodeToleratesRecordInterleaving(t *testing.T) {
	e := NewEncoder()
	e.WriteFileName(0, "a.ember")
	e.WriteFuncDef(&FuncDef{Id: 0, Name: "main", Body: []Instr{{Op: OpReturn}}})
	e.WriteFileName(1, "b.ember")
	e.WriteVTable(&VTable{TypeId: 3, Entries: map[uint32]uint32{1: 2}})
	e.WriteFuncDef(&FuncDef{Id: 1, Name: "aux", Body: []Instr{{Op: OpReturn}}})

	m, err := DecodeModule(e.Bytes())
	require.NoError(t, err)
	assert.Len(t, m.Funcs, 2)
	assert.Len(t, m.FileNames, 2)
	assert.Len(t, m.VTables, 1)
	assert.Equal(t, "main", m.Funcs[0].Name)
	assert.Equal(t, uint32(2), m.VTables[3].Entries[1])
}

func TestDecodeRejectsUnknownTopLevelTag(t *testing.T) {
	_, err := DecodeModule([]byte{0xFE})
	require.Error(t, err)
}

func TestDecodeEmptyStream(t *testing.T) {
	m, err := DecodeModule(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Funcs)
}

func TestDisassembleShowsJumpTargets(t *testing.T) {
	f := &FuncDef{Id: 0, Name: "main", Body: []Instr{
		{Op: OpPushBool, Bool: true},
		{Op: OpJne, Sign: 1},
		{Op: OpPop},
		{Op: OpReturn},
	}}
	out := Disassemble(f)
	assert.Contains(t, out, "fn main(0) #0")
	assert.Contains(t, out, "jne +1 -> 3")
}
