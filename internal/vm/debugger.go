package vm

import "sync"

// StopReason says why the debugger halted execution.
type StopReason int

const (
	StopPause StopReason = iota
	StopBreakpoint
	StopStep
)

// StopEvent is delivered to the debug adapter whenever execution halts.
type StopEvent struct {
	Reason StopReason
	FuncId uint32
	Index  int
}

// Breakpoint addresses a single instruction, keyed by
// (func_id, instr_index).
type Breakpoint struct {
	FuncId uint32
	Index  int
}

// Debugger pauses the VM between instruction fetches. The VM itself
// stays single-threaded: a poll loop (internal/dap) drives Step one
// instruction at a time, and this struct is the coordination point
// between that loop and the adapter setting paused/breakpoints from its
// request handler.
type Debugger struct {
	mu          sync.Mutex
	cond        *sync.Cond
	paused      bool
	stepping    bool
	breakpoints map[Breakpoint]bool

	Events chan StopEvent
}

func NewDebugger() *Debugger {
	d := &Debugger{
		breakpoints: map[Breakpoint]bool{},
		Events:      make(chan StopEvent, 16),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Attach installs the debugger on a VM before Run/Step is first called.
func (m *VM) Attach(d *Debugger) { m.dbg = d }

// SetBreakpoints replaces the breakpoint set.
func (d *Debugger) SetBreakpoints(bps []Breakpoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints = make(map[Breakpoint]bool, len(bps))
	for _, bp := range bps {
		d.breakpoints[bp] = true
	}
}

// Pause halts execution at the next fetch.
func (d *Debugger) Pause() {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
}

// StepOne lets a paused VM execute exactly one instruction.
func (d *Debugger) StepOne() {
	d.mu.Lock()
	d.stepping = true
	d.paused = false
	d.cond.Broadcast()
	d.mu.Unlock()
}

// Continue resumes a paused VM.
func (d *Debugger) Continue() {
	d.mu.Lock()
	d.paused = false
	d.stepping = false
	d.cond.Broadcast()
	d.mu.Unlock()
}

// beforeFetch runs on the executing thread immediately before each
// instruction fetch: it reports breakpoint hits and blocks while the
// adapter holds the VM paused.
func (d *Debugger) beforeFetch(funcId uint32, index int) {
	d.mu.Lock()
	if d.breakpoints[Breakpoint{FuncId: funcId, Index: index}] && !d.paused {
		d.paused = true
		d.notify(StopEvent{Reason: StopBreakpoint, FuncId: funcId, Index: index})
	}
	if d.stepping {
		d.stepping = false
		d.paused = true
		d.notify(StopEvent{Reason: StopStep, FuncId: funcId, Index: index})
	}
	for d.paused {
		d.cond.Wait()
	}
	d.mu.Unlock()
}

func (d *Debugger) notify(ev StopEvent) {
	select {
	case d.Events <- ev:
	default:
	}
}
