package lower

import "github.com/emberlang/ember/internal/bytecode"

// asmCtx carries the innermost enclosing If branch's "bail out" patch
// list and the innermost enclosing While's loop-top offset and "jump
// past loop" patch list, so Next/Continue/MaybeBreak leaves resolve
// against the right target no matter how deeply they nest inside Blocks.
type asmCtx struct {
	nextPatches *[]int

	loopStart    int
	breakPatches *[]int
}

// Assemble flattens a Node tree into linear bytecode plus its mark
// table, resolving Next, MaybeBreak, and Continue sentinels into
// signed-relative Jne/Jmp instructions. The VM
// pre-increments the instruction pointer before applying an offset, so
// every patched offset is relative to the instruction after the jump.
func Assemble(n Node) ([]bytecode.Instr, []bytecode.Mark) {
	a := &assembler{out: make([]bytecode.Instr, 0, 64)}
	a.assemble(n, asmCtx{})
	return a.out, a.marks
}

type assembler struct {
	out   []bytecode.Instr
	marks []bytecode.Mark
}

func (a *assembler) assemble(n Node, ctx asmCtx) {
	switch v := n.(type) {
	case nil:
		return
	case Code:
		a.out = append(a.out, v.Instrs...)
	case Block:
		for _, sub := range v.Nodes {
			a.assemble(sub, ctx)
		}
	case If:
		a.assembleIf(v, ctx)
	case While:
		a.assembleWhile(v, ctx)
	case Next:
		idx := len(a.out)
		a.out = append(a.out, bytecode.Instr{Op: bytecode.OpJne})
		if ctx.nextPatches != nil {
			*ctx.nextPatches = append(*ctx.nextPatches, idx)
		}
	case MaybeBreak:
		idx := len(a.out)
		a.out = append(a.out, bytecode.Instr{Op: bytecode.OpJne})
		if ctx.breakPatches != nil {
			*ctx.breakPatches = append(*ctx.breakPatches, idx)
		}
	case Continue:
		idx := len(a.out)
		a.out = append(a.out, bytecode.Instr{Op: bytecode.OpJmp, Sign: int32(ctx.loopStart - (idx + 1))})
	case Mark:
		a.marks = append(a.marks, bytecode.Mark{Offset: len(a.out), Line: v.Line, Col: v.Col})
	}
}

func (a *assembler) assembleIf(n If, ctx asmCtx) {
	var endPatches []int
	for i, branch := range n.Branches {
		// A failed check inside this branch's Cond bails to the start of
		// the next branch (or the else/end when this is the last one).
		var bailPatches []int
		condCtx := ctx
		condCtx.nextPatches = &bailPatches

		a.assemble(branch.Cond, condCtx)
		a.assemble(branch.Body, ctx)

		last := i == len(n.Branches)-1
		if !last || n.Else != nil {
			idx := len(a.out)
			a.out = append(a.out, bytecode.Instr{Op: bytecode.OpJmp})
			endPatches = append(endPatches, idx)
		}
		next := len(a.out)
		for _, idx := range bailPatches {
			a.patchJump(idx, next)
		}
	}
	if n.Else != nil {
		a.assemble(n.Else, ctx)
	}
	end := len(a.out)
	for _, idx := range endPatches {
		a.patchJump(idx, end)
	}
}

func (a *assembler) assembleWhile(n While, ctx asmCtx) {
	loopStart := len(a.out)
	var breakPatches []int

	// Inside a loop condition, a failed check exits the loop: both
	// MaybeBreak and any Next sentinels a destructuring condition emits
	// resolve past the loop end.
	condCtx := ctx
	condCtx.loopStart = loopStart
	condCtx.breakPatches = &breakPatches
	condCtx.nextPatches = &breakPatches
	a.assemble(n.Cond, condCtx)

	bodyCtx := ctx
	bodyCtx.loopStart = loopStart
	bodyCtx.breakPatches = &breakPatches
	a.assemble(n.Body, bodyCtx)

	end := len(a.out)
	for _, idx := range breakPatches {
		a.patchJump(idx, end)
	}
}

// patchJump sets the instruction at idx's signed relative offset so
// that, once the VM's fetch has moved past idx, adding the offset lands
// the index at target.
func (a *assembler) patchJump(idx, target int) {
	a.out[idx].Sign = int32(target - (idx + 1))
}
