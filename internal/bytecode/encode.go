package bytecode

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encoder builds the tagged binary record stream. It writes
// records in whatever order the caller hands them; decoders must
// tolerate any interleaving, so the encoder does not bother sorting.
type Encoder struct {
	buf bytes.Buffer
}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

func (e *Encoder) writeTiny(v uint16) { binary.Write(&e.buf, binary.BigEndian, v) }
func (e *Encoder) writeSmall(v uint32) { binary.Write(&e.buf, binary.BigEndian, v) }
func (e *Encoder) writeSign(v int32) { binary.Write(&e.buf, binary.BigEndian, v) }
func (e *Encoder) writeBig(v uint64) { binary.Write(&e.buf, binary.BigEndian, v) }
func (e *Encoder) writeString(s string) {
	e.writeSmall(uint32(len(s)))
	e.buf.WriteString(s)
}

// WriteFileName emits a FileName record (tag 49).
func (e *Encoder) WriteFileName(id uint32, name string) {
	e.buf.WriteByte(TagFileName)
	e.writeSmall(id)
	e.writeString(name)
}

// WriteVTable emits a VTable record (tag 1).
func (e *Encoder) WriteVTable(v *VTable) {
	e.buf.WriteByte(TagVTable)
	e.writeBig(v.TypeId)
	e.writeSmall(uint32(len(v.Entries)))
	for traitFn, implFn := range v.Entries {
		e.writeSmall(traitFn)
		e.writeSmall(implFn)
	}
}

// WriteFuncDef emits a FuncDef record (tag 0), interleaving Mark op
// records at their recorded offsets. No terminator is written: the body
// ends at the next record's tag (or at the end of the stream), which a
// decoder reads as an unknown op tag.
func (e *Encoder) WriteFuncDef(f *FuncDef) {
	e.buf.WriteByte(TagFuncDef)
	e.writeSmall(f.Id)
	e.writeSmall(f.Args)
	e.writeString(f.Name)
	e.writeTiny(f.Line)
	e.writeTiny(f.Col)
	e.writeSmall(f.File)

	marksByOffset := map[int][]Mark{}
	for _, m := range f.Marks {
		marksByOffset[m.Offset] = append(marksByOffset[m.Offset], m)
	}
	for i, instr := range f.Body {
		for _, m := range marksByOffset[i] {
			e.writeOp(Instr{Op: OpMark, Small: uint32(m.Line)<<16 | uint32(m.Col)})
		}
		e.writeOp(instr)
	}
	for _, m := range marksByOffset[len(f.Body)] {
		e.writeOp(Instr{Op: OpMark, Small: uint32(m.Line)<<16 | uint32(m.Col)})
	}
}

func (e *Encoder) writeOp(instr Instr) {
	e.buf.WriteByte(byte(instr.Op))
	switch instr.Op {
	case OpConstruct:
		e.writeSmall(instr.Small)
		e.writeSmall(instr.Small2)
	case OpDyn:
		e.writeBig(instr.Big)
	case OpCall, OpDynCall, OpIndex, OpSetIndex,
		OpNewLocal, OpGetLocal, OpSetLocal, OpParam, OpGoto, OpMatch:
		e.writeSmall(instr.Small)
	case OpJe, OpJne, OpJmp:
		e.writeSign(instr.Sign)
	case OpPushInt:
		e.writeSign(instr.Sign)
	case OpPushFloat:
		binary.Write(&e.buf, binary.BigEndian, math.Float32bits(instr.Float))
	case OpPushString:
		e.writeString(instr.Str)
	case OpPushBool:
		if instr.Bool {
			e.buf.WriteByte(1)
		} else {
			e.buf.WriteByte(0)
		}
	case OpPushChar:
		e.buf.WriteByte(byte(instr.Char))
	case OpMark:
		e.writeTiny(uint16(instr.Small >> 16))
		e.writeTiny(uint16(instr.Small & 0xffff))
	}
}

// EncodeModule serializes every FuncDef, VTable, and file-name entry of m
// in an arbitrary but deterministic (sorted by id) order.
func EncodeModule(m *Module) []byte {
	e := NewEncoder()
	for _, id := range sortedUint32Keys(m.Funcs) {
		e.WriteFuncDef(m.Funcs[id])
	}
	for _, id := range sortedUint64Keys(m.VTables) {
		e.WriteVTable(m.VTables[id])
	}
	for _, id := range sortedUint32Keys(m.FileNames) {
		e.WriteFileName(id, m.FileNames[id])
	}
	return e.Bytes()
}

func sortedUint32Keys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func sortedUint64Keys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
