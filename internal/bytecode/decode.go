package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Decoder reads the tagged binary record stream. Records may
// appear in any order and FileName records may be interleaved with
// FuncDef/VTable records at the top level.
type Decoder struct {
	r *bytes.Reader
}

func NewDecoder(data []byte) *Decoder { return &Decoder{r: bytes.NewReader(data)} }

func (d *Decoder) readTiny() (uint16, error) {
	var v uint16
	err := binary.Read(d.r, binary.BigEndian, &v)
	return v, err
}
func (d *Decoder) readSmall() (uint32, error) {
	var v uint32
	err := binary.Read(d.r, binary.BigEndian, &v)
	return v, err
}
func (d *Decoder) readSign() (int32, error) {
	var v int32
	err := binary.Read(d.r, binary.BigEndian, &v)
	return v, err
}
func (d *Decoder) readBig() (uint64, error) {
	var v uint64
	err := binary.Read(d.r, binary.BigEndian, &v)
	return v, err
}
func (d *Decoder) readString() (string, error) {
	n, err := d.readSmall()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// DecodeModule reads every record in data into a Module. Unknown tags
// abort decoding with an error; within a FuncDef body, an unrecognized
// op tag instead ends that FuncDef and is re-read as the next top-level
// tag: an unknown tag ends the FuncDef body.
func DecodeModule(data []byte) (*Module, error) {
	d := NewDecoder(data)
	m := NewModule()
	for {
		tag, err := d.r.ReadByte()
		if err == io.EOF {
			return m, nil
		}
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagFuncDef:
			f, err := d.readFuncDef()
			if err != nil {
				return nil, err
			}
			m.Funcs[f.Id] = f
		case TagVTable:
			v, err := d.readVTable()
			if err != nil {
				return nil, err
			}
			m.VTables[v.TypeId] = v
		case TagFileName:
			id, err := d.readSmall()
			if err != nil {
				return nil, err
			}
			name, err := d.readString()
			if err != nil {
				return nil, err
			}
			m.FileNames[id] = name
		default:
			return nil, fmt.Errorf("bytecode: unknown top-level tag %d", tag)
		}
	}
}

func (d *Decoder) readVTable() (*VTable, error) {
	typeId, err := d.readBig()
	if err != nil {
		return nil, err
	}
	count, err := d.readSmall()
	if err != nil {
		return nil, err
	}
	v := &VTable{TypeId: typeId, Entries: map[uint32]uint32{}}
	for i := uint32(0); i < count; i++ {
		traitFn, err := d.readSmall()
		if err != nil {
			return nil, err
		}
		implFn, err := d.readSmall()
		if err != nil {
			return nil, err
		}
		v.Entries[traitFn] = implFn
	}
	return v, nil
}

func (d *Decoder) readFuncDef() (*FuncDef, error) {
	f := &FuncDef{}
	var err error
	if f.Id, err = d.readSmall(); err != nil {
		return nil, err
	}
	if f.Args, err = d.readSmall(); err != nil {
		return nil, err
	}
	if f.Name, err = d.readString(); err != nil {
		return nil, err
	}
	if f.Line, err = d.readTiny(); err != nil {
		return nil, err
	}
	if f.Col, err = d.readTiny(); err != nil {
		return nil, err
	}
	if f.File, err = d.readSmall(); err != nil {
		return nil, err
	}

	for {
		tagByte, err := d.r.ReadByte()
		if err == io.EOF {
			return f, nil
		}
		if err != nil {
			return nil, err
		}
		op := Op(tagByte)
		if !isBodyOp(op) {
			// Not an op we recognize inside a FuncDef body: this ends
			// the body: push the byte back for the caller to re-read as
			// the next top-level tag.
			d.r.UnreadByte()
			return f, nil
		}
		if op == OpMark {
			line, err := d.readTiny()
			if err != nil {
				return nil, err
			}
			col, err := d.readTiny()
			if err != nil {
				return nil, err
			}
			f.Marks = append(f.Marks, Mark{Offset: len(f.Body), Line: line, Col: col})
			continue
		}
		instr, err := d.readOpPayload(op)
		if err != nil {
			return nil, err
		}
		f.Body = append(f.Body, instr)
	}
}

func isBodyOp(op Op) bool {
	_, known := opNames[op]
	return known
}

func (d *Decoder) readOpPayload(op Op) (Instr, error) {
	instr := Instr{Op: op}
	var err error
	switch op {
	case OpConstruct:
		if instr.Small, err = d.readSmall(); err != nil {
			return instr, err
		}
		instr.Small2, err = d.readSmall()
	case OpDyn:
		instr.Big, err = d.readBig()
	case OpCall, OpDynCall, OpIndex, OpSetIndex,
		OpNewLocal, OpGetLocal, OpSetLocal, OpParam, OpGoto, OpMatch:
		instr.Small, err = d.readSmall()
	case OpJe, OpJne, OpJmp:
		instr.Sign, err = d.readSign()
	case OpPushInt:
		instr.Sign, err = d.readSign()
	case OpPushFloat:
		var bits uint32
		if err = binary.Read(d.r, binary.BigEndian, &bits); err == nil {
			instr.Float = math.Float32frombits(bits)
		}
	case OpPushString:
		instr.Str, err = d.readString()
	case OpPushBool:
		var b byte
		if b, err = d.r.ReadByte(); err == nil {
			instr.Bool = b != 0
		}
	case OpPushChar:
		var b byte
		if b, err = d.r.ReadByte(); err == nil {
			instr.Char = rune(b)
		}
	}
	return instr, err
}
