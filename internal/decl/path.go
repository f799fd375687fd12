// Package decl builds the declaration forest: module tree,
// struct/enum/trait/function/member decls with stable ids, and the
// impl_map produced by impl resolution.
package decl

import "strings"

// ModulePath is an interned ordered sequence of segment names. Equal paths
// compare equal by value — a plain string join is already the cheapest
// correct interning key, since Go string equality is itself value equality
// and the checker never needs pointer identity faster than that.
type ModulePath struct {
	Segments []string
}

func NewModulePath(segs ...string) ModulePath {
	cp := make([]string, len(segs))
	copy(cp, segs)
	return ModulePath{Segments: cp}
}

func (p ModulePath) String() string {
	return strings.Join(p.Segments, "::")
}

func (p ModulePath) Equal(o ModulePath) bool {
	if len(p.Segments) != len(o.Segments) {
		return false
	}
	for i := range p.Segments {
		if p.Segments[i] != o.Segments[i] {
			return false
		}
	}
	return true
}

func (p ModulePath) Join(seg string) ModulePath {
	return NewModulePath(append(append([]string{}, p.Segments...), seg)...)
}

// Parent drops the last segment, e.g. the enclosing struct path of one
// of its method decls.
func (p ModulePath) Parent() ModulePath {
	if len(p.Segments) == 0 {
		return p
	}
	return NewModulePath(p.Segments[:len(p.Segments)-1]...)
}

// First returns the leading segment, or "" if empty.
func (p ModulePath) First() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[0]
}

// IsStd reports whether this path starts in the standard module, whose
// diagnostics are suppressed.
func (p ModulePath) IsStd() bool {
	return p.First() == "std"
}
