package lower

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/check"
	"github.com/emberlang/ember/internal/decl"
)

// trivialPattern reports whether a pattern matches unconditionally, so
// its condition contributes no checks.
func trivialPattern(p check.Pattern) bool {
	switch p.(type) {
	case check.WildcardPattern, check.NamePattern:
		return true
	}
	return false
}

// buildMatchCond emits the condition half of the match protocol: the
// scrutinee stays on the stack throughout; every check Copys
// it (or a field extracted from it), tests, and bails through a Next
// sentinel when the test fails. Extracted fields are popped once their
// sub-checks pass so nested conditions always see their own value on
// top.
func (f *fnLowerer) buildMatchCond(p check.Pattern) Node {
	switch pat := p.(type) {
	case check.WildcardPattern, check.NamePattern:
		return seq()

	case check.LiteralPattern:
		return seq(
			instr(bytecode.OpCopy),
			f.lowerExpr(pat.Lit),
			instr(bytecode.OpEq),
			Next{},
		)

	case check.StructPattern:
		nodes := []Node{
			Code{[]bytecode.Instr{
				{Op: bytecode.OpCopy},
				{Op: bytecode.OpMatch, Small: typeId(pat.Target)},
			}},
			Next{},
		}
		for _, field := range pat.Fields {
			if trivialPattern(field.Pattern) {
				continue
			}
			idx, ok := declFieldIndex(pat.Target, field.Name)
			if !ok {
				f.p.invariant("field %q not found on %s", field.Name, pat.Target.Path)
				continue
			}
			nodes = append(nodes,
				Code{[]bytecode.Instr{
					{Op: bytecode.OpCopy},
					{Op: bytecode.OpIndex, Small: idx},
				}},
				f.buildMatchCond(field.Pattern),
				instr(bytecode.OpPop),
			)
		}
		return Block{nodes}

	case check.TupleStructPattern:
		nodes := []Node{
			Code{[]bytecode.Instr{
				{Op: bytecode.OpCopy},
				{Op: bytecode.OpMatch, Small: typeId(pat.Target)},
			}},
			Next{},
		}
		nodes = append(nodes, f.positionalConds(pat.Elems)...)
		return Block{nodes}

	case check.TuplePattern:
		return Block{f.positionalConds(pat.Elems)}

	default:
		f.p.invariant("unlowerable pattern %T", p)
		return seq()
	}
}

func (f *fnLowerer) positionalConds(elems []check.Pattern) []Node {
	var nodes []Node
	for i, sub := range elems {
		if trivialPattern(sub) {
			continue
		}
		idx := uint32(len(elems) - 1 - i)
		nodes = append(nodes,
			Code{[]bytecode.Instr{
				{Op: bytecode.OpCopy},
				{Op: bytecode.OpIndex, Small: idx},
			}},
			f.buildMatchCond(sub),
			instr(bytecode.OpPop),
		)
	}
	return nodes
}

// buildPattern emits the destructuring half: it consumes the value on
// top of the stack, binding names to fresh locals along the way.
func (f *fnLowerer) buildPattern(p check.Pattern) Node {
	switch pat := p.(type) {
	case check.NamePattern:
		return Code{[]bytecode.Instr{{Op: bytecode.OpNewLocal, Small: f.localId(pat.Name)}}}

	case check.WildcardPattern, check.LiteralPattern:
		return instr(bytecode.OpPop)

	case check.StructPattern:
		var nodes []Node
		for _, field := range pat.Fields {
			idx, ok := declFieldIndex(pat.Target, field.Name)
			if !ok {
				f.p.invariant("field %q not found on %s", field.Name, pat.Target.Path)
				continue
			}
			nodes = append(nodes,
				Code{[]bytecode.Instr{
					{Op: bytecode.OpCopy},
					{Op: bytecode.OpIndex, Small: idx},
				}},
				f.buildPattern(field.Pattern),
			)
		}
		nodes = append(nodes, instr(bytecode.OpPop))
		return Block{nodes}

	case check.TupleStructPattern:
		return Block{f.positionalBuilds(pat.Elems)}

	case check.TuplePattern:
		return Block{f.positionalBuilds(pat.Elems)}

	default:
		f.p.invariant("unlowerable pattern %T", p)
		return instr(bytecode.OpPop)
	}
}

func (f *fnLowerer) positionalBuilds(elems []check.Pattern) []Node {
	var nodes []Node
	for i, sub := range elems {
		idx := uint32(len(elems) - 1 - i)
		nodes = append(nodes,
			Code{[]bytecode.Instr{
				{Op: bytecode.OpCopy},
				{Op: bytecode.OpIndex, Small: idx},
			}},
			f.buildPattern(sub),
		)
	}
	nodes = append(nodes, instr(bytecode.OpPop))
	return nodes
}

// declFieldIndex maps a named field to its heap slot under the
// reverse-declaration-order layout.
func declFieldIndex(d *decl.Decl, name string) (uint32, bool) {
	if d == nil || d.Body.Kind != ast.BodyFields {
		return 0, false
	}
	for i, fd := range d.Body.Fields {
		if fd.Name == name {
			return uint32(len(d.Body.Fields) - 1 - i), true
		}
	}
	return 0, false
}
