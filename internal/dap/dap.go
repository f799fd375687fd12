// Package dap is the thin debug-adapter layer over the VM's debugger:
// it owns a session, translates the handful of DAP commands the
// toolchain consumes (initialize, launch, setBreakpoints) into debugger
// state, and runs the poll loop that drives the VM one instruction at a
// time.
package dap

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/emberlang/ember/internal/vm"
)

// Request is one incoming DAP command.
type Request struct {
	Seq       int             `json:"seq"`
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response answers a Request.
type Response struct {
	RequestSeq int         `json:"request_seq"`
	Command    string      `json:"command"`
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Body       interface{} `json:"body,omitempty"`
}

// SetBreakpointsArgs carries instruction-level breakpoints: the adapter
// has already mapped source lines to (func_id, instr_index) pairs using
// the function mark tables.
type SetBreakpointsArgs struct {
	Breakpoints []BreakpointRef `json:"breakpoints"`
}

type BreakpointRef struct {
	FuncId uint32 `json:"funcId"`
	Index  int    `json:"index"`
}

// Session owns one debuggee VM and its poll loop.
type Session struct {
	Id string

	machine *vm.VM
	dbg     *vm.Debugger

	mu       sync.Mutex
	launched bool
	done     chan error
}

// NewSession wires a debugger onto the VM. The VM must not have been
// started yet.
func NewSession(machine *vm.VM) *Session {
	dbg := vm.NewDebugger()
	machine.Attach(dbg)
	return &Session{
		Id:      uuid.NewString(),
		machine: machine,
		dbg:     dbg,
		done:    make(chan error, 1),
	}
}

// Events exposes the debugger's stop events for the transport layer to
// forward as DAP "stopped" events.
func (s *Session) Events() <-chan vm.StopEvent { return s.dbg.Events }

// Wait blocks until the debuggee finishes and returns its outcome.
func (s *Session) Wait() error { return <-s.done }

// Handle dispatches one DAP command.
func (s *Session) Handle(req Request) Response {
	resp := Response{RequestSeq: req.Seq, Command: req.Command, Success: true}
	switch req.Command {
	case "initialize":
		resp.Body = map[string]interface{}{
			"supportsConfigurationDoneRequest": true,
			"sessionId":                        s.Id,
		}
	case "setBreakpoints":
		var args SetBreakpointsArgs
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return s.failure(req, err)
		}
		bps := make([]vm.Breakpoint, len(args.Breakpoints))
		for i, ref := range args.Breakpoints {
			bps[i] = vm.Breakpoint{FuncId: ref.FuncId, Index: ref.Index}
		}
		s.dbg.SetBreakpoints(bps)
	case "launch":
		s.launch()
	case "pause":
		s.dbg.Pause()
	case "continue":
		s.dbg.Continue()
	case "next", "stepIn":
		s.dbg.StepOne()
	case "stackTrace":
		resp.Body = map[string]interface{}{"stackFrames": s.machine.Frames()}
	case "variables":
		resp.Body = map[string]interface{}{"variables": s.machine.InspectLocals()}
	default:
		return s.failure(req, fmt.Errorf("unsupported command %q", req.Command))
	}
	return resp
}

func (s *Session) failure(req Request, err error) Response {
	return Response{RequestSeq: req.Seq, Command: req.Command, Success: false, Message: err.Error()}
}

// launch starts the poll loop: a second coarse thread that steps the VM
// one instruction at a time, with the debugger's beforeFetch hook
// providing the pause points.
func (s *Session) launch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return
	}
	s.launched = true
	go func() {
		s.done <- s.run()
	}()
}

func (s *Session) run() error {
	return s.machine.Run()
}
