// Package pipeline drives source text end to end: parse, decl and impl
// resolution, per-file type checking (independent files fan out onto an
// errgroup), and lowering into a bytecode module.
package pipeline

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/check"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/lower"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/stdlib"
	"github.com/emberlang/ember/internal/vm"
)

// SourceFile is one compilation input: display path, the module path
// segments the file contributes to, and its text.
type SourceFile struct {
	Path   string
	Module []string
	Text   string
}

// Result is everything a caller might want back: the compiled module,
// user-facing diagnostics (std's own are already suppressed), and the
// resolved state the LSP and debugger layers read.
type Result struct {
	Module *bytecode.Module
	Diags  []check.CheckError

	ParseErrors   []error
	ResolveErrors []error

	Forest  *decl.Forest
	Impls   *decl.ImplIndex
	Checker *check.Checker
	Bodies  map[*decl.Decl]*check.Expr
	Prog    *lower.Program
}

// Compile runs the whole pipeline over the given files plus the
// standard module.
func Compile(ctx context.Context, files []SourceFile) (*Result, error) {
	all := make([]SourceFile, 0, len(files)+1)
	all = append(all, SourceFile{Path: stdlib.FileName, Module: []string{"std"}, Text: stdlib.Source})
	all = append(all, files...)

	parsed := make([]*ast.File, len(all))
	parseErrs := make([][]error, len(all))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range all {
		g.Go(func() error {
			f := all[i]
			p := parser.New(lexer.New(f.Text), f.Path)
			parsed[i] = p.ParseFile(f.Path)
			parseErrs[i] = p.Errors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	moduleOf := map[string][]string{}
	for _, f := range all {
		moduleOf[f.Path] = f.Module
	}
	pathFn := func(f *ast.File) []string { return moduleOf[f.Path] }

	forest := decl.Build(parsed, pathFn)
	impls := decl.ResolveImpls(parsed, pathFn)

	res := &Result{
		Forest: forest,
		Impls:  impls,
		Bodies: map[*decl.Decl]*check.Expr{},
	}
	for i, errs := range parseErrs {
		if len(all[i].Module) > 0 && all[i].Module[0] == "std" {
			continue
		}
		res.ParseErrors = append(res.ParseErrors, errs...)
	}
	res.ResolveErrors = append(res.ResolveErrors, forest.Errors...)
	res.ResolveErrors = append(res.ResolveErrors, impls.Errors...)

	res.Checker = check.NewChecker(forest.Root, impls)
	importsByFile := resolveImports(res.Checker, parsed)
	byFile := functionsByFile(forest.Root, impls)

	// Each file checks on its own Checker (the forest and impl index are
	// immutable by now); diagnostics and checked bodies merge under a
	// lock.
	var mu sync.Mutex
	cg, _ := errgroup.WithContext(ctx)
	cg.SetLimit(runtime.NumCPU())
	for file, fns := range byFile {
		cg.Go(func() error {
			chk := check.NewChecker(forest.Root, impls)
			bodies := map[*decl.Decl]*check.Expr{}
			for _, d := range fns {
				if body := chk.CheckFuncWith(d, importsByFile[file]); body != nil {
					bodies[d] = body
				}
			}
			mu.Lock()
			defer mu.Unlock()
			for d, b := range bodies {
				res.Bodies[d] = b
			}
			if !isStdFile(file) {
				res.Diags = append(res.Diags, chk.Errors...)
			}
			return nil
		})
	}
	if err := cg.Wait(); err != nil {
		return nil, err
	}

	// A file that produced diagnostics has placeholder IR in it; lowering
	// assumes well-formed IR and only runs on clean input.
	if len(res.Diags) == 0 && len(res.ParseErrors) == 0 {
		res.Prog = lower.NewProgram(forest.Root, impls, res.Checker, res.Bodies)
		mod, err := res.Prog.Lower()
		if err != nil {
			return nil, err
		}
		res.Module = mod
	}
	return res, nil
}

func isStdFile(file string) bool {
	return file == stdlib.FileName
}

// resolveImports maps each file to its `use` bindings, resolved from the
// forest root. Imports resolve at check time and tolerate forward
// references.
func resolveImports(chk *check.Checker, files []*ast.File) map[string]map[string]*decl.Decl {
	out := map[string]map[string]*decl.Decl{}
	for _, f := range files {
		for _, item := range f.Items {
			use, ok := item.(*ast.UseItem)
			if !ok {
				continue
			}
			target := chk.Resolve(use.Path)
			if target == nil {
				continue
			}
			name := use.Alias
			if name == "" {
				name = use.Path[len(use.Path)-1]
			}
			if out[f.Path] == nil {
				out[f.Path] = map[string]*decl.Decl{}
			}
			out[f.Path][name] = target
		}
	}
	return out
}

// functionsByFile groups every function decl (free, trait, impl) by the
// file it came from, the unit of parallel checking.
func functionsByFile(root *decl.Decl, impls *decl.ImplIndex) map[string][]*decl.Decl {
	out := map[string][]*decl.Decl{}
	var walk func(d *decl.Decl)
	walk = func(d *decl.Decl) {
		switch d.Kind {
		case decl.KindModule:
			for _, c := range d.Children {
				walk(c)
			}
		case decl.KindFunction:
			out[d.File] = append(out[d.File], d)
		case decl.KindTrait:
			for _, fn := range d.TraitFuncs {
				out[fn.File] = append(out[fn.File], fn)
			}
		}
	}
	walk(root)
	for _, group := range impls.All() {
		for _, impl := range group {
			for _, fn := range impl.Funcs {
				out[fn.File] = append(out[fn.File], fn)
			}
		}
	}
	return out
}

// NewVM builds a VM over a compile result with the host-backed std
// builtins registered under their lowered function ids.
func NewVM(res *Result) *vm.VM {
	machine := vm.New(res.Module)
	hosts := stdlib.HostFuncs()
	for path, host := range hosts {
		if d := res.Checker.DeclByPath(path); d != nil {
			machine.Hosts[res.Prog.FuncId(d)] = host
		}
	}
	return machine
}
