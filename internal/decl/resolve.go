package decl

import (
	"fmt"

	"github.com/emberlang/ember/internal/ast"
)

// Unresolved is the identity of a path segment lookup that didn't find a
// Decl.
type Unresolved struct {
	Name string
	File string
}

func (u Unresolved) Error() string {
	return fmt.Sprintf("unresolved: %s (in %s)", u.Name, u.File)
}

// DuplicateName is reported and the second definition dropped.
type DuplicateName struct {
	Name string
	File string
}

func (d DuplicateName) Error() string {
	return fmt.Sprintf("duplicate declaration %q in %s", d.Name, d.File)
}

// Forest is the result of decl resolution: a single root module plus the
// diagnostics produced while building it.
type Forest struct {
	Root   *Decl
	Errors []error
}

// moduleOf finds or creates the module Decl for the given path segments,
// creating intermediate modules as needed.
func moduleOf(root *Decl, segs []string) *Decl {
	cur := root
	path := NewModulePath()
	for _, s := range segs {
		path = path.Join(s)
		next := cur.Get(s)
		if next == nil || next.Kind != KindModule {
			next = NewDecl(s, path, KindModule, ast.Span{}, "")
			cur.Children = append(cur.Children, next)
		}
		cur = next
	}
	return cur
}

// Build constructs the decl forest from a set of parsed files, keyed by
// the module path segments each file contributes to (e.g. a file at
// "std/collections/list.ember" contributes to ["std","collections"]).
func Build(files []*ast.File, modulePathOf func(*ast.File) []string) *Forest {
	root := NewDecl("", NewModulePath(), KindModule, ast.Span{}, "")
	f := &Forest{Root: root}

	for _, file := range files {
		segs := modulePathOf(file)
		mod := moduleOf(root, segs)
		f.addItems(mod, NewModulePath(segs...), file.Items, file.Path)
	}

	return f
}

func (f *Forest) addItems(parent *Decl, parentPath ModulePath, items []ast.Item, file string) {
	seen := map[string]bool{}
	for _, item := range items {
		var name string
		switch it := item.(type) {
		case *ast.StructItem:
			name = it.Name
		case *ast.EnumItem:
			name = it.Name
		case *ast.TraitItem:
			name = it.Name
		case *ast.FunctionItem:
			name = it.Name
		case *ast.ModuleItem:
			name = it.Name
		case *ast.ImplItem, *ast.UseItem:
			// impls/uses are not named top-level decls; handled elsewhere.
		}
		if name != "" {
			if seen[name] {
				f.Errors = append(f.Errors, DuplicateName{Name: name, File: file})
				continue
			}
			seen[name] = true
		}

		switch it := item.(type) {
		case *ast.StructItem:
			d := NewDecl(it.Name, parentPath.Join(it.Name), KindStruct, it.Span_, file)
			d.Generics = it.Generics
			d.Body = it.Body
			parent.Children = append(parent.Children, d)
		case *ast.EnumItem:
			d := NewDecl(it.Name, parentPath.Join(it.Name), KindEnum, it.Span_, file)
			d.Generics = it.Generics
			for _, v := range it.Variants {
				vd := NewDecl(v.Name, d.Path.Join(v.Name), KindMember, v.Span_, file)
				vd.Body = v.Body
				vd.Generics = it.Generics
				d.Variants = append(d.Variants, vd)
			}
			parent.Children = append(parent.Children, d)
		case *ast.TraitItem:
			d := NewDecl(it.Name, parentPath.Join(it.Name), KindTrait, it.Span_, file)
			d.Generics = it.Generics
			for _, fn := range it.Funcs {
				fd := funcDecl(fn, d.Path, file)
				ensureReceiver(fd)
				d.TraitFuncs = append(d.TraitFuncs, fd)
			}
			parent.Children = append(parent.Children, d)
		case *ast.FunctionItem:
			parent.Children = append(parent.Children, funcDecl(it, parentPath, file))
		case *ast.ModuleItem:
			sub := NewDecl(it.Name, parentPath.Join(it.Name), KindModule, it.Span_, file)
			parent.Children = append(parent.Children, sub)
			f.addItems(sub, sub.Path, it.Items, file)
		}
	}
}

// ensureReceiver gives trait and impl functions an implicit `self`
// receiver when the source omits it: method-position calls always pass
// the receiver as argument 0, so the decl must carry one.
func ensureReceiver(d *Decl) {
	if d.Receiver == nil {
		d.Receiver = &ast.Param{Name: "self"}
	}
}

func funcDecl(fn *ast.FunctionItem, parentPath ModulePath, file string) *Decl {
	d := NewDecl(fn.Name, parentPath.Join(fn.Name), KindFunction, fn.Span_, file)
	d.Generics = fn.Generics
	d.Receiver = fn.Receiver
	d.Args = fn.Args
	d.Ret = fn.Ret
	d.FuncBody = fn.Body
	d.Required = fn.Required
	return d
}

