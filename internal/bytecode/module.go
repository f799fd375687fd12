package bytecode

// Instr is one decoded instruction. Not every field is meaningful for
// every Op; see opcodes.go's payloadLen for which fields a given Op
// populates. Keeping a single flat struct (rather than one Go type per
// Op) keeps decode cheap: the wire format is record-based, and one
// struct per record is the natural decode unit.
type Instr struct {
	Op Op

	Small  uint32 // id / index / func_id / local id / abs target
	Small2 uint32 // secondary small (e.g. Construct's len)
	Big    uint64 // type_id
	Sign   int32  // signed relative jump offset, or pushed int literal
	Float  float32
	Str    string
	Bool   bool
	Char   rune
}

// Mark annotates an instruction offset in a FuncDef's assembled Body with
// a source line/column, used by panics and the debug adapter to recover
// positions without carrying a span on every instruction.
type Mark struct {
	Offset int
	Line   uint16
	Col    uint16
}

// FuncDef is one compiled function, an entry of the program's function
// table.
type FuncDef struct {
	Id   uint32
	Name string
	Args uint32
	Body []Instr
	Marks []Mark
	Line uint16
	Col  uint16
	File uint32
}

// VTable maps trait-function ids to concrete impl-function ids for one
// implementing type.
type VTable struct {
	TypeId uint64
	Entries map[uint32]uint32 // trait_func_id -> impl_func_id
}

// Module is the decoded form of a whole bytecode program: every FuncDef,
// VTable, and file-name record found in the stream, order-independent
// since records may appear in any order.
type Module struct {
	Funcs     map[uint32]*FuncDef
	VTables   map[uint64]*VTable
	FileNames map[uint32]string
}

func NewModule() *Module {
	return &Module{
		Funcs:     map[uint32]*FuncDef{},
		VTables:   map[uint64]*VTable{},
		FileNames: map[uint32]string{},
	}
}
