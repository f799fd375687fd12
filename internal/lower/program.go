package lower

import (
	"fmt"
	"sort"

	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/check"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/stdlib"
)

// Program lowers a fully checked declaration forest into a bytecode
// module: one FuncDef per function decl, one VTable per implementing
// type (holding the entries of every trait it implements), and the
// file-name table used by panic traces and the debugger.
type Program struct {
	Forest *decl.Decl
	Impls  *decl.ImplIndex
	Chk    *check.Checker

	// Bodies maps each function decl to its checked body, produced by
	// check.CheckFunc during the pipeline's check phase.
	Bodies map[*decl.Decl]*check.Expr

	mod     *bytecode.Module
	fileIds map[string]uint32
	main    *decl.Decl
	errs    []error
}

// NewProgram wires a lowerer over the given checked state.
func NewProgram(forest *decl.Decl, impls *decl.ImplIndex, chk *check.Checker, bodies map[*decl.Decl]*check.Expr) *Program {
	return &Program{
		Forest:  forest,
		Impls:   impls,
		Chk:     chk,
		Bodies:  bodies,
		mod:     bytecode.NewModule(),
		fileIds: map[string]uint32{},
	}
}

// Lower produces the bytecode module. Checker bugs surfacing here
// (unresolved identifiers in supposedly well-formed IR, closures that
// reached the lowerer) come back as errors rather than diagnostics.
func (p *Program) Lower() (*bytecode.Module, error) {
	funcs := p.collectFuncs()
	p.main = findMain(funcs)

	// File ids are assigned in sorted path order so identical inputs
	// produce identical modules.
	paths := map[string]bool{}
	for _, d := range funcs {
		if d.File != "" {
			paths[d.File] = true
		}
	}
	sorted := make([]string, 0, len(paths))
	for f := range paths {
		sorted = append(sorted, f)
	}
	sort.Strings(sorted)
	for i, f := range sorted {
		p.fileIds[f] = uint32(i)
		p.mod.FileNames[uint32(i)] = f
	}

	for _, d := range funcs {
		def := p.lowerFunc(d)
		p.mod.Funcs[def.Id] = def
	}
	p.buildVTables()

	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}
	return p.mod, nil
}

func (p *Program) invariant(format string, args ...interface{}) {
	p.errs = append(p.errs, fmt.Errorf("lower: "+format, args...))
}

// FuncId maps a function decl to its bytecode id: execution begins in
// function 0, so main always lowers there; everything else keeps its
// decl ordinal.
func (p *Program) FuncId(d *decl.Decl) uint32 {
	if d == p.main {
		return 0
	}
	return d.Id.Ordinal
}

func typeId(d *decl.Decl) uint32 { return d.Id.Ordinal }

func findMain(funcs []*decl.Decl) *decl.Decl {
	for _, d := range funcs {
		if d.Name == "main" && d.FuncBody != nil && d.Receiver == nil {
			return d
		}
	}
	return nil
}

// collectFuncs gathers every function decl that needs a FuncDef: free
// functions, trait functions (required ones get an empty body so DynCall
// can read their arg count), and impl functions.
func (p *Program) collectFuncs() []*decl.Decl {
	var out []*decl.Decl
	var walk func(d *decl.Decl)
	walk = func(d *decl.Decl) {
		switch d.Kind {
		case decl.KindModule:
			for _, c := range d.Children {
				walk(c)
			}
		case decl.KindFunction:
			out = append(out, d)
		case decl.KindTrait:
			out = append(out, d.TraitFuncs...)
		}
	}
	walk(p.Forest)
	for _, group := range p.Impls.All() {
		for _, impl := range group {
			out = append(out, impl.Funcs...)
		}
	}
	return out
}

// buildVTables emits one vtable entry per (implementing type, trait
// function): the impl's override when present, the trait's own default
// body otherwise.
func (p *Program) buildVTables() {
	for _, group := range p.Impls.All() {
		for _, impl := range group {
			if impl.ToPath == nil {
				continue
			}
			fromDecl := p.Chk.Resolve(impl.FromPath.Segments)
			traitDecl := p.Chk.Resolve(impl.ToPath.Segments)
			if fromDecl == nil || traitDecl == nil || traitDecl.Kind != decl.KindTrait {
				continue
			}
			tid := uint64(typeId(fromDecl))
			vt := p.mod.VTables[tid]
			if vt == nil {
				vt = &bytecode.VTable{TypeId: tid, Entries: map[uint32]uint32{}}
				p.mod.VTables[tid] = vt
			}
			for _, tf := range traitDecl.TraitFuncs {
				var target *decl.Decl
				for _, fn := range impl.Funcs {
					if fn.Name == tf.Name {
						target = fn
						break
					}
				}
				if target == nil && !tf.Required {
					target = tf // trait default body
				}
				if target == nil {
					continue
				}
				vt.Entries[p.FuncId(tf)] = p.FuncId(target)
			}
		}
	}
}

// lowerFunc assembles one FuncDef. Bodiless std functions get the fixed
// intrinsic opcode sequence keyed by their path; bodiless
// trait functions get an empty body that only exists to carry the
// argument count DynCall reads.
func (p *Program) lowerFunc(d *decl.Decl) *bytecode.FuncDef {
	f := newFnLowerer(p, d)

	var body []bytecode.Instr
	var marks []bytecode.Mark
	switch {
	case d.FuncBody != nil:
		checked, ok := p.Bodies[d]
		if !ok || checked == nil {
			p.invariant("missing checked body for %s", d.Path)
		} else {
			node := seq(
				Mark{Line: uint16(d.Span.Start.Line), Col: uint16(d.Span.Start.Col)},
				f.lowerExpr(checked),
			)
			body, marks = Assemble(node)
		}
	case d.Path.IsStd():
		if seqInstrs, ok := stdlib.Intrinsic(d.Path); ok {
			body = seqInstrs
		}
	}
	body = append(body, bytecode.Instr{Op: bytecode.OpReturn})

	return &bytecode.FuncDef{
		Id:    p.FuncId(d),
		Name:  d.Name,
		Args:  uint32(len(f.params)),
		Body:  body,
		Marks: marks,
		Line:  uint16(d.Span.Start.Line),
		Col:   uint16(d.Span.Start.Col),
		File:  p.fileIds[d.File],
	}
}
