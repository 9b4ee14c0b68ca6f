package pipeline

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions completed (retired).
	Instructions uint64
	// Stalls is the number of load-use stall cycles.
	Stalls uint64
	// Flushes is the number of taken branches that squashed the pipeline.
	Flushes uint64
	// Jumps is the number of jumps resolved in ID.
	Jumps uint64
	// Forwards is the number of operands that bypassed the register file.
	Forwards uint64
}

// CPI returns the cycles per instruction. A run that retired nothing
// yields +Inf or NaN.
func (s Statistics) CPI() float64 {
	return float64(s.Cycles) / float64(s.Instructions)
}

// Events describes the hazard handling that happened in one cycle.
type Events struct {
	Stalled          bool
	Squashed         bool
	Jumped           bool
	ForwardedFromEX  bool
	ForwardedFromMEM bool
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger. Hazard events are logged at V(2).
func WithLogger(logger logr.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline implements a 5-stage pipelined CPU model.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
type Pipeline struct {
	state State

	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	hazardUnit *HazardUnit

	regFile *emu.RegFile

	logger logr.Logger

	stats Statistics

	halted bool
	err    error
}

// NewPipeline creates a new 5-stage pipeline with every stage empty. Call
// SetPC before running it.
func NewPipeline(
	regFile *emu.RegFile,
	imem *emu.InstrMemory,
	dmem *emu.DataMemory,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		state:          EmptyState(),
		fetchStage:     NewFetchStage(imem),
		decodeStage:    NewDecodeStage(regFile),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(dmem),
		writebackStage: NewWritebackStage(regFile),
		hazardUnit:     NewHazardUnit(),
		regFile:        regFile,
		logger:         logr.Discard(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PC returns the address of the instruction in IF.
func (p *Pipeline) PC() uint64 {
	return p.state.IF.PC
}

// SetPC fetches the instruction at pc into IF and empties the other stages.
func (p *Pipeline) SetPC(pc uint64) error {
	fetched, err := p.fetchStage.Fetch(pc)
	if err != nil {
		return err
	}

	p.state = EmptyState()
	p.state.IF = fetched
	return nil
}

// State returns the current content of the pipeline registers.
func (p *Pipeline) State() State {
	return p.state
}

// RegFile returns the register file the pipeline writes back to.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Halted returns true once the terminating syscall has left WB.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Err returns the fault that stopped the pipeline, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Run ticks the pipeline until it halts or faults.
func (p *Pipeline) Run() error {
	for !p.halted {
		if err := p.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		if err := p.Tick(); err != nil {
			return false, err
		}
	}
	return !p.halted, nil
}

// Tick executes one pipeline cycle.
//
// The instruction in WB at the start of the cycle leaves the pipeline: it
// is counted as retired unless it is a no-op, and the pipeline halts after
// the cycle in which a syscall leaves. The cycle itself is computed by Next.
//
// Once Tick has returned an error the pipeline is faulted and every later
// call returns the same error.
func (p *Pipeline) Tick() error {
	if p.err != nil {
		return p.err
	}
	if p.halted {
		return nil
	}

	leaving := p.state.WB.Inst
	p.stats.Cycles++

	next, events, err := p.Next(p.state)
	if err != nil {
		p.err = err
		p.logger.Error(err, "pipeline faulted", "cycle", p.stats.Cycles)
		return err
	}

	p.state = next
	p.record(events)

	if !leaving.IsNop() {
		p.stats.Instructions++
	}
	if leaving.Op == insts.OpSYSCALL {
		p.halted = true
		p.logger.V(1).Info("syscall retired",
			"cycles", p.stats.Cycles, "instructions", p.stats.Instructions)
	}

	return nil
}

func (p *Pipeline) record(ev Events) {
	if ev.Stalled {
		p.stats.Stalls++
	}
	if ev.Squashed {
		p.stats.Flushes++
	}
	if ev.Jumped {
		p.stats.Jumps++
	}
	if ev.ForwardedFromEX {
		p.stats.Forwards++
	}
	if ev.ForwardedFromMEM {
		p.stats.Forwards++
	}

	if ev != (Events{}) {
		p.logger.V(2).Info("hazard",
			"cycle", p.stats.Cycles,
			"stalled", ev.Stalled,
			"squashed", ev.Squashed,
			"jumped", ev.Jumped,
			"forwardEX", ev.ForwardedFromEX,
			"forwardMEM", ev.ForwardedFromMEM)
	}
}

// Next computes the pipeline state one cycle after cur.
//
// The result in cur.WB is written back first, so operands read for the
// next EX already see it. Every stage is then computed from cur alone, as
// if all five ran in parallel:
//   - IF fetches the jump target if ID holds a jump, else the branch target
//     if MEM holds a taken branch, else the next sequential instruction
//   - ID takes what IF fetched, or a bubble if ID holds a jump
//   - EX reads the operands of the instruction in ID
//   - MEM runs the ALU on the instruction in EX, so an overflow faults even
//     when the instruction is about to be squashed
//   - WB performs the memory access of the instruction in MEM
//
// Hazards are then resolved on the computed state, in this order:
//   - a taken branch in MEM turns the next ID, EX and MEM into bubbles
//   - a register read in ID and written by the instruction in MEM takes
//     the value MEM produces; one written by EX takes the EX ALU result
//   - a register read in ID and written by a load in EX repeats the
//     current IF and ID for one cycle and sends a bubble into EX, whether
//     or not a branch was taken
//
// Stores in cur.MEM update data memory as a side effect of Next.
func (p *Pipeline) Next(cur State) (State, Events, error) {
	var (
		next   State
		events Events
	)

	if err := p.writebackStage.Writeback(&cur.WB); err != nil {
		return cur, events, err
	}

	branchTaken := cur.MEM.BranchTaken()
	jump := cur.ID.Inst.Op == insts.OpJ

	// IF
	fetched, err := p.fetchStage.Fetch(p.nextPC(&cur, branchTaken, jump))
	if err != nil {
		return cur, events, err
	}
	next.IF = fetched

	// ID
	if jump {
		next.ID.Clear()
	} else {
		next.ID = IDRegister{Inst: cur.IF.Inst}
	}

	// EX
	ex, err := p.decodeStage.Decode(&cur.ID)
	if err != nil {
		return cur, events, err
	}
	next.EX = ex

	// MEM
	mem, err := p.executeStage.Execute(&cur.EX)
	if err != nil {
		return cur, events, err
	}
	next.MEM = mem

	// WB
	wb, err := p.memoryStage.Access(&cur.MEM)
	if err != nil {
		return cur, events, err
	}
	next.WB = wb

	events = p.resolveHazards(&cur, &next, branchTaken)
	events.Jumped = jump

	return next, events, nil
}

// resolveHazards applies the squash, forwarding and load-use stall to the
// freshly computed next state.
func (p *Pipeline) resolveHazards(cur, next *State, branchTaken bool) Events {
	loadUse := p.hazardUnit.DetectLoadUseHazard(&cur.ID, &cur.EX)
	stalls := p.hazardUnit.ComputeStalls(loadUse, branchTaken)

	events := Events{
		Squashed: branchTaken,
		Stalled:  stalls.InsertBubbleEX,
	}

	if stalls.FlushID {
		next.ID.Clear()
	}
	if stalls.FlushEX {
		next.EX.Clear()
	}
	if stalls.FlushMEM {
		next.MEM.Clear()
	}

	if !stalls.FlushEX && !stalls.InsertBubbleEX {
		fwd := p.hazardUnit.DetectForwarding(&cur.ID, &cur.EX, &cur.MEM)
		next.EX.RsValue = p.hazardUnit.GetForwardedValue(
			fwd.ForwardRs, next.EX.RsValue, &next.MEM, &next.WB)
		next.EX.RtValue = p.hazardUnit.GetForwardedValue(
			fwd.ForwardRt, next.EX.RtValue, &next.MEM, &next.WB)

		events.ForwardedFromEX = fwd.ForwardRs == ForwardFromEX || fwd.ForwardRt == ForwardFromEX
		events.ForwardedFromMEM = fwd.ForwardRs == ForwardFromMEM || fwd.ForwardRt == ForwardFromMEM
	}

	if stalls.StallIF {
		next.IF = cur.IF
	}
	if stalls.StallID {
		next.ID = cur.ID
	}
	if stalls.InsertBubbleEX {
		next.EX.Clear()
	}

	return events
}

func (p *Pipeline) nextPC(cur *State, branchTaken, jump bool) uint64 {
	switch {
	case jump:
		return uint64(cur.ID.Inst.Imm)
	case branchTaken:
		return uint64(cur.MEM.BranchTarget)
	default:
		return cur.IF.PC + 4
	}
}
