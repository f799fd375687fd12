// Package diag renders checker diagnostics to a terminal, colorizing
// only when the destination is a real TTY.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/exp/slices"

	"github.com/emberlang/ember/internal/check"
)

// Renderer writes diagnostics. Color is decided once at construction.
type Renderer struct {
	Out   io.Writer
	Color bool
}

// New builds a renderer for w, enabling color only when w is a real
// terminal.
func New(w io.Writer) *Renderer {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{Out: w, Color: isTTY}
}

// Render prints every diagnostic, sorted by file then position, skipping
// those originating in the standard module. It returns the
// number rendered.
func (r *Renderer) Render(diags []check.CheckError) int {
	filtered := make([]check.CheckError, 0, len(diags))
	for _, d := range diags {
		if strings.HasPrefix(d.SrcFile(), "std/") || d.SrcFile() == "std" {
			continue
		}
		filtered = append(filtered, d)
	}
	slices.SortStableFunc(filtered, func(a, b check.CheckError) int {
		if a.SrcFile() != b.SrcFile() {
			return strings.Compare(a.SrcFile(), b.SrcFile())
		}
		if a.Pos().Start.Line != b.Pos().Start.Line {
			return a.Pos().Start.Line - b.Pos().Start.Line
		}
		return a.Pos().Start.Col - b.Pos().Start.Col
	})

	errLabel := "error"
	if r.Color {
		errLabel = color.New(color.FgRed, color.Bold).Sprint("error")
	}
	for _, d := range filtered {
		pos := d.Pos().Start
		loc := fmt.Sprintf("%s:%d:%d", d.SrcFile(), pos.Line, pos.Col)
		if r.Color {
			loc = color.New(color.FgCyan).Sprint(loc)
		}
		fmt.Fprintf(r.Out, "%s: %s: %s\n", loc, errLabel, message(d))
	}
	return len(filtered)
}

// message strips the file prefix the error strings carry for log
// contexts, since the renderer prints the location itself.
func message(d check.CheckError) string {
	msg := d.Error()
	if prefix := d.SrcFile() + ": "; strings.HasPrefix(msg, prefix) {
		return msg[len(prefix):]
	}
	return msg
}
