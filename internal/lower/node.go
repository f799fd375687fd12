// Package lower turns checked typed IR (package check) into bytecode
// (package bytecode).
package lower

import "github.com/emberlang/ember/internal/bytecode"

// Node is one node of the intermediate ByteCodeNode tree: a tree shape
// with structured control flow that gets flattened into linear bytecode
// by Assemble, resolving the three sentinel leaves into concrete
// Jne/Jmp instructions with signed relative offsets. The tree shape
// keeps nested match/if/for/while lowering free of label bookkeeping.
type Node interface{ isNode() }

// Code is a straight-line run of instructions with no internal control
// flow.
type Code struct{ Instrs []bytecode.Instr }

// Block sequences a list of nodes.
type Block struct{ Nodes []Node }

// Branch is one arm of an If. Cond contains Next sentinels at every
// check point; a check that fails skips the rest of the branch.
type Branch struct {
	Cond Node
	Body Node
}

// If lowers both `if`/`else` expressions and match arm chains: each
// Branch's Cond runs in order, bailing to the next branch through its
// Next sentinels; a Branch whose Cond falls through runs its Body and
// then skips past the remaining branches. Else runs if every Branch
// bailed.
type If struct {
	Branches []Branch
	Else     Node // nil if absent
}

// While lowers both `while` loops and `for` loops (desugared into a
// `while`-shaped iterator-protocol loop before Assemble ever sees it).
// The loop carries no implicit jumps of its own: Cond exits through
// MaybeBreak (or Next) sentinels and Body returns to the top through an
// explicit Continue.
type While struct {
	Cond Node
	Body Node
}

// Next pops a Bool and, when it is false, jumps to the end of the
// current branch of the nearest enclosing If — "this check failed, try
// the next arm". Inside a While condition it exits the loop instead.
type Next struct{}

// MaybeBreak pops a Bool and, when it is false, jumps out of the nearest
// enclosing While — used both for loop conditions and for an explicit
// `break` (which pushes false first).
type MaybeBreak struct{}

// Continue jumps unconditionally back to the top of the nearest
// enclosing While.
type Continue struct{}

// Mark records a source position against the next instruction offset. It
// emits no instruction; Assemble collects marks into the FuncDef's mark
// table.
type Mark struct {
	Line uint16
	Col  uint16
}

func (Code) isNode()       {}
func (Block) isNode()      {}
func (If) isNode()         {}
func (While) isNode()      {}
func (Next) isNode()       {}
func (MaybeBreak) isNode() {}
func (Continue) isNode()   {}
func (Mark) isNode()       {}

func instr(op bytecode.Op) Node { return Code{Instrs: []bytecode.Instr{{Op: op}}} }

func seq(nodes ...Node) Node { return Block{Nodes: nodes} }
