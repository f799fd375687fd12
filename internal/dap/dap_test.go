package dap

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/vm"
)

func debuggee() *vm.VM {
	mod := bytecode.NewModule()
	mod.Funcs[0] = &bytecode.FuncDef{Id: 0, Name: "main", Body: []bytecode.Instr{
		{Op: bytecode.OpPushInt, Sign: 1},
		{Op: bytecode.OpPrint},
		{Op: bytecode.OpPushInt, Sign: 2},
		{Op: bytecode.OpPrint},
		{Op: bytecode.OpReturn},
	}}
	mod.FileNames[0] = "main.ember"
	return vm.New(mod)
}

func TestInitializeReportsSession(t *testing.T) {
	s := NewSession(debuggee())
	resp := s.Handle(Request{Seq: 1, Command: "initialize"})
	require.True(t, resp.Success)
	body := resp.Body.(map[string]interface{})
	assert.Equal(t, s.Id, body["sessionId"])
	assert.NotEmpty(t, s.Id)
}

func TestUnknownCommandFails(t *testing.T) {
	s := NewSession(debuggee())
	resp := s.Handle(Request{Seq: 2, Command: "bogus"})
	assert.False(t, resp.Success)
}

func TestLaunchRunsToCompletion(t *testing.T) {
	machine := debuggee()
	var out bytes.Buffer
	machine.Out = &out
	s := NewSession(machine)

	resp := s.Handle(Request{Seq: 1, Command: "launch"})
	require.True(t, resp.Success)
	require.NoError(t, s.Wait())
	assert.Equal(t, "12", out.String())
}

func TestBreakpointStopsThenContinues(t *testing.T) {
	machine := debuggee()
	var out bytes.Buffer
	machine.Out = &out
	s := NewSession(machine)

	args, _ := json.Marshal(SetBreakpointsArgs{Breakpoints: []BreakpointRef{{FuncId: 0, Index: 2}}})
	require.True(t, s.Handle(Request{Seq: 1, Command: "setBreakpoints", Arguments: args}).Success)
	require.True(t, s.Handle(Request{Seq: 2, Command: "launch"}).Success)

	ev := <-s.Events()
	assert.Equal(t, vm.StopBreakpoint, ev.Reason)
	assert.Equal(t, "1", out.String())

	frames := s.Handle(Request{Seq: 3, Command: "stackTrace"})
	require.True(t, frames.Success)

	require.True(t, s.Handle(Request{Seq: 4, Command: "continue"}).Success)
	require.NoError(t, s.Wait())
	assert.Equal(t, "12", out.String())
}
