package decl

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/emberlang/ember/internal/ast"
)

// Impl records one `impl [Trait for] T { ... }` block.
// FromTy/ToTy are kept as unresolved TypeExpr here; package check resolves
// them to types.Ty lazily the same way it resolves Decl field/arg types,
// once a Ty model that can see the whole decl forest exists.
type Impl struct {
	FromTy   ast.TypeExpr
	FromPath ModulePath // resolved head path of FromTy, used to index impl_map
	ToTy     ast.TypeExpr
	ToPath   *ModulePath // nil for inherent impls
	Generics []*ast.GenericParam
	Funcs    []*Decl
	Span     ast.Span
	File     string
}

// ImplTypeMismatch is reported when an impl's FromTy does not resolve to
// a Named type; the impl is dropped.
type ImplTypeMismatch struct {
	Span ast.Span
	File string
}

func (e ImplTypeMismatch) Error() string { return "impl type must be named" }

// DuplicateImpl is a coherence violation: two impls of the
// same trait for the same concrete type.
type DuplicateImpl struct {
	FromPath, ToPath ModulePath
	File             string
}

func (e DuplicateImpl) Error() string {
	return fmt.Sprintf("duplicate impl of %s for %s", e.ToPath, e.FromPath)
}

// ImplIndex maps the path of the implementing type to every Impl found
// for it.
type ImplIndex struct {
	byType map[string][]*Impl
	Errors []error
}

func NewImplIndex() *ImplIndex {
	return &ImplIndex{byType: map[string][]*Impl{}}
}

func (ix *ImplIndex) For(path ModulePath) []*Impl {
	return ix.byType[path.String()]
}

// All returns every impl in the index, grouped by implementing-type path
// in sorted key order so callers (vtable emission, diagnostics) iterate
// deterministically.
func (ix *ImplIndex) All() [][]*Impl {
	keys := maps.Keys(ix.byType)
	slices.Sort(keys)
	out := make([][]*Impl, 0, len(keys))
	for _, k := range keys {
		out = append(out, ix.byType[k])
	}
	return out
}

func namedHead(t ast.TypeExpr) (ModulePath, bool) {
	n, ok := t.(*ast.NamedTypeExpr)
	if !ok {
		return ModulePath{}, false
	}
	return NewModulePath(n.Path...), true
}

// ResolveImpls walks every ImplItem across the parsed files and builds the
// ImplIndex. Impl generics/functions are turned into Decls (without being
// attached to the module tree, since impls aren't named top-level items).
func ResolveImpls(files []*ast.File, modulePathOf func(*ast.File) []string) *ImplIndex {
	ix := NewImplIndex()
	for _, file := range files {
		segs := modulePathOf(file)
		ix.walkItems(NewModulePath(segs...), file.Items, file.Path)
	}
	ix.checkCoherence()
	return ix
}

func (ix *ImplIndex) walkItems(parentPath ModulePath, items []ast.Item, file string) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.ImplItem:
			ix.addImpl(it, file)
		case *ast.ModuleItem:
			ix.walkItems(parentPath.Join(it.Name), it.Items, file)
		}
	}
}

func (ix *ImplIndex) addImpl(it *ast.ImplItem, file string) {
	fromPath, ok := namedHead(it.FromTy)
	if !ok {
		ix.Errors = append(ix.Errors, ImplTypeMismatch{Span: it.Span_, File: file})
		return
	}

	impl := &Impl{
		FromTy:   it.FromTy,
		FromPath: fromPath,
		ToTy:     it.ToTy,
		Generics: it.Generics,
		Span:     it.Span_,
		File:     file,
	}
	if it.ToTy != nil {
		if toPath, ok := namedHead(it.ToTy); ok {
			impl.ToPath = &toPath
		}
	}
	for _, fn := range it.Funcs {
		d := funcDecl(fn, fromPath, file)
		ensureReceiver(d)
		// The impl block's generics are in scope for every function it
		// provides, so they ride along on each function decl.
		d.Generics = append(append([]*ast.GenericParam{}, it.Generics...), d.Generics...)
		impl.Funcs = append(impl.Funcs, d)
	}

	key := fromPath.String()
	ix.byType[key] = append(ix.byType[key], impl)
}

// checkCoherence reports the duplicate-impl coherence check:
// two impls of the same trait for the same *concrete* (non-generic) type.
func (ix *ImplIndex) checkCoherence() {
	for _, impls := range ix.byType {
		seen := map[string]*Impl{}
		for _, impl := range impls {
			if len(impl.Generics) > 0 || impl.ToPath == nil {
				continue
			}
			key := impl.ToPath.String()
			if _, dup := seen[key]; dup {
				ix.Errors = append(ix.Errors, DuplicateImpl{FromPath: impl.FromPath, ToPath: *impl.ToPath, File: impl.File})
				continue
			}
			seen[key] = impl
		}
	}
}
