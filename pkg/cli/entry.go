// Package cli implements the emberc command surface: a hand-parsed
// os.Args dispatcher over the compile pipeline, the bytecode codec, the
// VM, and the artifact cache.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/cache"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/manifest"
	"github.com/emberlang/ember/internal/pipeline"
	"github.com/emberlang/ember/internal/vm"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// SourceExt is the Ember source extension; CompiledExt the compiled
// bytecode extension.
const (
	SourceExt   = ".ember"
	CompiledExt = ".embc"
)

const usageText = `usage: emberc <command> [arguments]

commands:
  build <file.ember> [-o out.embc]   compile a program to bytecode
  run <file.ember | file.embc>       compile (or load) and execute
  disasm <file.ember | file.embc>    print readable bytecode
  cache [stats | clear]              inspect or reset the artifact cache
  version                            print the toolchain version
`

// Run executes the CLI and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return 2
	}
	switch args[0] {
	case "build":
		return cmdBuild(args[1:], stdout, stderr)
	case "run":
		return cmdRun(args[1:], stdout, stderr)
	case "disasm":
		return cmdDisasm(args[1:], stdout, stderr)
	case "cache":
		return cmdCache(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "emberc %s\n", Version)
		return 0
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return 0
	default:
		fmt.Fprintf(stderr, "emberc: unknown command %q\n", args[0])
		fmt.Fprint(stderr, usageText)
		return 2
	}
}

// compile runs the pipeline over one source file, rendering diagnostics
// to stderr. On a clean compile it stores the encoded module in the
// artifact cache; it does not read the cache, so every call recompiles.
func compile(path string, stderr io.Writer) (*pipeline.Result, []byte, int) {
	text, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "emberc: %v\n", err)
		return nil, nil, 2
	}

	res, err := pipeline.Compile(context.Background(), []pipeline.SourceFile{
		{Path: path, Module: nil, Text: string(text)},
	})
	if err != nil {
		fmt.Fprintf(stderr, "emberc: %v\n", err)
		return nil, nil, 2
	}

	for _, perr := range res.ParseErrors {
		fmt.Fprintf(stderr, "%v\n", perr)
	}
	for _, rerr := range res.ResolveErrors {
		fmt.Fprintf(stderr, "%v\n", rerr)
	}
	rendered := diag.New(stderr).Render(res.Diags)
	if rendered > 0 || len(res.ParseErrors) > 0 || len(res.ResolveErrors) > 0 {
		return res, nil, 2
	}

	blob := bytecode.EncodeModule(res.Module)
	storeInCache(path, string(text), blob, stderr)
	return res, blob, 0
}

func storeInCache(path, text string, blob []byte, stderr io.Writer) {
	m, err := manifest.Load(filepath.Dir(path))
	if err != nil {
		return
	}
	store, err := cache.Open(m.CachePath())
	if err != nil {
		return
	}
	defer store.Close()
	if err := store.Put(cache.Key(text), blob); err != nil {
		fmt.Fprintf(stderr, "emberc: cache: %v\n", err)
	}
}

func cmdBuild(args []string, stdout, stderr io.Writer) int {
	var src, out string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-o" && i+1 < len(args):
			out = args[i+1]
			i++
		case src == "":
			src = args[i]
		default:
			fmt.Fprintf(stderr, "emberc: unexpected argument %q\n", args[i])
			return 2
		}
	}
	if src == "" {
		fmt.Fprintln(stderr, "emberc: build needs a source file")
		return 2
	}
	if out == "" {
		out = strings.TrimSuffix(src, SourceExt) + CompiledExt
	}

	_, blob, code := compile(src, stderr)
	if code != 0 {
		return code
	}
	if err := os.WriteFile(out, blob, 0o644); err != nil {
		fmt.Fprintf(stderr, "emberc: %v\n", err)
		return 2
	}
	fmt.Fprintf(stdout, "wrote %s (%s)\n", out, humanize.Bytes(uint64(len(blob))))
	return 0
}

func cmdRun(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "emberc: run needs exactly one file")
		return 2
	}
	path := args[0]

	var machine *vm.VM
	if strings.HasSuffix(path, CompiledExt) {
		blob, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "emberc: %v\n", err)
			return 2
		}
		mod, err := bytecode.DecodeModule(blob)
		if err != nil {
			fmt.Fprintf(stderr, "emberc: %v\n", err)
			return 2
		}
		machine = vm.New(mod)
	} else {
		res, _, code := compile(path, stderr)
		if code != 0 {
			return code
		}
		machine = pipeline.NewVM(res)
	}

	machine.Out = stdout
	if err := machine.Run(); err != nil {
		var p *vm.PanicError
		if errors.As(err, &p) {
			// the VM already printed the panic operand and trace
			return 1
		}
		fmt.Fprintf(stderr, "emberc: %v\n", err)
		return 1
	}
	return 0
}

func cmdDisasm(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "emberc: disasm needs exactly one file")
		return 2
	}
	path := args[0]

	var mod *bytecode.Module
	if strings.HasSuffix(path, CompiledExt) {
		blob, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "emberc: %v\n", err)
			return 2
		}
		m, err := bytecode.DecodeModule(blob)
		if err != nil {
			fmt.Fprintf(stderr, "emberc: %v\n", err)
			return 2
		}
		mod = m
	} else {
		res, _, code := compile(path, stderr)
		if code != 0 {
			return code
		}
		mod = res.Module
	}

	ids := make([]uint32, 0, len(mod.Funcs))
	for id := range mod.Funcs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Fprint(stdout, bytecode.Disassemble(mod.Funcs[id]))
	}
	return 0
}

func cmdCache(args []string, stdout, stderr io.Writer) int {
	sub := "stats"
	if len(args) > 0 {
		sub = args[0]
	}
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "emberc: %v\n", err)
		return 2
	}
	m, err := manifest.Load(wd)
	if err != nil {
		fmt.Fprintf(stderr, "emberc: %v\n", err)
		return 2
	}
	store, err := cache.Open(m.CachePath())
	if err != nil {
		fmt.Fprintf(stderr, "emberc: %v\n", err)
		return 2
	}
	defer store.Close()

	switch sub {
	case "stats":
		entries, size, err := store.Stats()
		if err != nil {
			fmt.Fprintf(stderr, "emberc: %v\n", err)
			return 2
		}
		fmt.Fprintf(stdout, "%d cached artifacts, %s\n", entries, humanize.Bytes(uint64(size)))
		return 0
	case "clear":
		if err := store.Clear(); err != nil {
			fmt.Fprintf(stderr, "emberc: %v\n", err)
			return 2
		}
		fmt.Fprintln(stdout, "cache cleared")
		return 0
	default:
		fmt.Fprintf(stderr, "emberc: unknown cache subcommand %q\n", sub)
		return 2
	}
}
