// Package bytecode implements the stable binary and text encodings for
// Ember's compiled function table.
package bytecode

// Op is a single VM instruction tag. The numbering below is part of the
// wire format and must never be reassigned.
type Op byte

const (
	OpPop      Op = 2
	OpPrint    Op = 3
	OpPanic    Op = 4
	OpConstruct Op = 5
	OpDyn      Op = 6
	OpCall     Op = 7
	OpDynCall  Op = 8
	OpReturn   Op = 9
	OpIndex    Op = 10
	OpSetIndex Op = 11

	OpVecGet    Op = 12
	OpVecSet    Op = 13
	OpVecPush   Op = 14
	OpVecPop    Op = 15
	OpVecPeak   Op = 16
	OpVecInsert Op = 17
	OpVecRemove Op = 18
	OpVecLen    Op = 19

	OpNewLocal Op = 20
	OpGetLocal Op = 21
	OpSetLocal Op = 22
	OpParam    Op = 23

	OpGoto Op = 24
	OpJe   Op = 25
	OpJne  Op = 26
	OpJmp  Op = 27

	OpAdd Op = 28
	OpMul Op = 29
	OpSub Op = 30
	OpOr  Op = 31
	OpAnd Op = 32
	OpNot Op = 33

	OpEq  Op = 34
	OpNeq Op = 35
	OpLt  Op = 36
	OpGt  Op = 37
	OpLte Op = 38
	OpGte Op = 39

	OpMatch Op = 40
	OpClone Op = 41
	OpCopy  Op = 42

	OpPushInt    Op = 43
	OpPushFloat  Op = 44
	OpPushString Op = 45
	OpPushBool   Op = 46
	OpPushChar   Op = 47
	OpMark       Op = 48

	// Div and Mod sit past the FileName record tag as extension ops;
	// decoders that predate them treat the tag as end-of-body under the
	// format's unknown-tag rule.
	OpDiv Op = 50
	OpMod Op = 51
)

// Record tags at the top level of a bytecode file/stream.
const (
	TagFuncDef  byte = 0
	TagVTable   byte = 1
	TagFileName byte = 49
)

var opNames = map[Op]string{
	OpPop: "pop", OpPrint: "print", OpPanic: "panic", OpConstruct: "construct",
	OpDyn: "dyn", OpCall: "call", OpDynCall: "dyncall", OpReturn: "return",
	OpIndex: "index", OpSetIndex: "setindex",
	OpVecGet: "vecget", OpVecSet: "vecset", OpVecPush: "vecpush", OpVecPop: "vecpop",
	OpVecPeak: "vecpeak", OpVecInsert: "vecinsert", OpVecRemove: "vecremove", OpVecLen: "veclen",
	OpNewLocal: "newlocal", OpGetLocal: "getlocal", OpSetLocal: "setlocal", OpParam: "param",
	OpGoto: "goto", OpJe: "je", OpJne: "jne", OpJmp: "jmp",
	OpAdd: "add", OpMul: "mul", OpSub: "sub", OpOr: "or", OpAnd: "and", OpNot: "not",
	OpEq: "eq", OpNeq: "neq", OpLt: "lt", OpGt: "gt", OpLte: "lte", OpGte: "gte",
	OpMatch: "match", OpClone: "clone", OpCopy: "copy",
	OpPushInt: "push.int", OpPushFloat: "push.float", OpPushString: "push.string",
	OpPushBool: "push.bool", OpPushChar: "push.char", OpMark: "mark",
	OpDiv: "div", OpMod: "mod",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "unknown"
}

// payloadLen reports how many trailing bytes the op carries that the
// decoder must consume before looking at the next tag, and whether a
// variable-length part follows them.
func (o Op) payloadLen() (fixed int, variable bool) {
	switch o {
	case OpConstruct:
		return 8, false // id:small, len:small
	case OpDyn:
		return 8, false // type_id:big
	case OpCall, OpDynCall:
		return 4, false
	case OpIndex, OpSetIndex:
		return 4, false
	case OpNewLocal, OpGetLocal, OpSetLocal, OpParam:
		return 4, false
	case OpGoto:
		return 4, false
	case OpJe, OpJne, OpJmp:
		return 4, false
	case OpMatch:
		return 4, false
	case OpPushInt:
		return 4, false
	case OpPushFloat:
		return 4, false
	case OpPushString:
		return 4, true // small-length prefix + bytes
	case OpPushBool, OpPushChar:
		return 1, false
	case OpMark:
		return 4, false // line:tiny, col:tiny
	default:
		return 0, false
	}
}
