package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a FuncDef's linear body as readable opcode
// mnemonics with resolved operands and jump targets.
func Disassemble(f *FuncDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "fn %s(%d) #%d\n", f.Name, f.Args, f.Id)
	for i, instr := range f.Body {
		fmt.Fprintf(&b, "%4d  %s\n", i, disasmInstr(i, instr))
	}
	return b.String()
}

func disasmInstr(i int, instr Instr) string {
	switch instr.Op {
	case OpConstruct:
		return fmt.Sprintf("construct decl=%d len=%d", instr.Small, instr.Small2)
	case OpDyn:
		return fmt.Sprintf("dyn type=%d", instr.Big)
	case OpCall:
		return fmt.Sprintf("call func=%d", instr.Small)
	case OpDynCall:
		return fmt.Sprintf("dyncall traitfn=%d", instr.Small)
	case OpIndex:
		return fmt.Sprintf("index %d", instr.Small)
	case OpSetIndex:
		return fmt.Sprintf("setindex %d", instr.Small)
	case OpNewLocal:
		return fmt.Sprintf("newlocal %d", instr.Small)
	case OpGetLocal:
		return fmt.Sprintf("getlocal %d", instr.Small)
	case OpSetLocal:
		return fmt.Sprintf("setlocal %d", instr.Small)
	case OpParam:
		return fmt.Sprintf("param %d", instr.Small)
	case OpGoto:
		return fmt.Sprintf("goto %d", instr.Small)
	case OpJe:
		return fmt.Sprintf("je %+d -> %d", instr.Sign, int(instr.Sign)+i+1)
	case OpJne:
		return fmt.Sprintf("jne %+d -> %d", instr.Sign, int(instr.Sign)+i+1)
	case OpJmp:
		return fmt.Sprintf("jmp %+d -> %d", instr.Sign, int(instr.Sign)+i+1)
	case OpMatch:
		return fmt.Sprintf("match decl=%d", instr.Small)
	case OpPushInt:
		return fmt.Sprintf("push.int %d", instr.Sign)
	case OpPushFloat:
		return fmt.Sprintf("push.float %v", instr.Float)
	case OpPushString:
		return fmt.Sprintf("push.string %q", instr.Str)
	case OpPushBool:
		return fmt.Sprintf("push.bool %v", instr.Bool)
	case OpPushChar:
		return fmt.Sprintf("push.char %q", instr.Char)
	default:
		return instr.Op.String()
	}
}
