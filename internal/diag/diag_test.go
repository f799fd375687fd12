package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/check"
	"github.com/emberlang/ember/internal/types"
)

func at(file string, line, col int) ast.Span {
	return ast.Span{Start: ast.Pos{Line: line, Col: col}}
}

func TestRenderSkipsStdAndSorts(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{Out: &buf}

	errs := []check.CheckError{
		mkSimple("b.ember", 2, 1, "second"),
		mkSimple("std/std.ember", 1, 1, "suppressed"),
		mkSimple("a.ember", 9, 4, "first file"),
		mkSimple("b.ember", 1, 1, "first"),
	}
	n := r.Render(errs)
	assert.Equal(t, 3, n)

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	first := bytes.Index([]byte(out), []byte("a.ember:9:4"))
	second := bytes.Index([]byte(out), []byte("b.ember:1:1"))
	third := bytes.Index([]byte(out), []byte("b.ember:2:1"))
	assert.True(t, first >= 0 && first < second && second < third, out)
}

func TestRenderMessageHasNoDuplicateFilePrefix(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{Out: &buf}
	r.Render([]check.CheckError{mkIsNotInstance("main.ember", 3, 7)})
	out := buf.String()
	assert.Contains(t, out, "main.ember:3:7: error: ")
	// the location appears exactly once per line
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("main.ember")))
}

func mkSimple(file string, line, col int, msg string) check.CheckError {
	return check.NewSimple(at(file, line, col), file, msg)
}

func mkIsNotInstance(file string, line, col int) check.CheckError {
	return check.NewIsNotInstance(at(file, line, col), file,
		types.Named{Name: "A"}, types.Named{Name: "B"})
}
