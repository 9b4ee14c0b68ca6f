// Package core provides the cycle-accurate CPU core model.
// It wraps the pipeline implementation to provide a high-level interface.
package core

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/loader"
	"github.com/sarchlab/mipsim/timing/pipeline"
)

// ErrMaxCycles is returned by Run when the configured cycle limit is
// reached before the program terminates.
var ErrMaxCycles = errors.New("cycle limit reached")

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of stall cycles.
	Stalls uint64
	// Flushes is the number of pipeline flushes.
	Flushes uint64
	// Jumps is the number of jumps resolved in decode.
	Jumps uint64
	// Forwards is the number of forwarded operands.
	Forwards uint64
	// ClockFrequency is the frequency the core is clocked at.
	ClockFrequency sim.Freq
}

// CPI returns the cycles per instruction.
func (s Stats) CPI() float64 {
	return float64(s.Cycles) / float64(s.Instructions)
}

// SimulatedTime returns the simulated run time in seconds.
func (s Stats) SimulatedTime() float64 {
	return float64(s.Cycles) / float64(s.ClockFrequency)
}

// Snapshot is the state of the core at the start of a cycle.
type Snapshot struct {
	// Cycle is the number of cycles completed so far.
	Cycle uint64
	// Retired is the number of instructions retired so far.
	Retired uint64
	// State is the content of the pipeline registers.
	State pipeline.State
	// Registers is a copy of the register file.
	Registers [insts.NumRegs]int64
}

// Observer is notified at the start of every cycle.
type Observer interface {
	OnCycle(s Snapshot)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(s Snapshot)

// OnCycle calls f(s).
func (f ObserverFunc) OnCycle(s Snapshot) {
	f(s)
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the logger of the core and its pipeline.
func WithLogger(logger logr.Logger) Option {
	return func(c *Core) {
		c.logger = logger
	}
}

// WithObserver registers an observer for per-cycle snapshots.
func WithObserver(o Observer) Option {
	return func(c *Core) {
		c.observers = append(c.observers, o)
	}
}

// Core represents a cycle-accurate CPU core model.
// It wraps a 5-stage pipeline and provides a simple interface for simulation.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	// Shared resources
	regFile *emu.RegFile
	imem    *emu.InstrMemory
	dmem    *emu.DataMemory

	image *loader.Image

	maxCycles uint64
	freq      sim.Freq

	logger    logr.Logger
	observers []Observer
}

// NewCore creates a new Core over existing architectural state. The core
// uses the run limit and clock of cfg.
func NewCore(
	regFile *emu.RegFile,
	imem *emu.InstrMemory,
	dmem *emu.DataMemory,
	cfg *config.Config,
	opts ...Option,
) *Core {
	c := &Core{
		regFile:   regFile,
		imem:      imem,
		dmem:      dmem,
		maxCycles: cfg.MaxCycles,
		freq:      cfg.ClockFrequency,
		logger:    logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Pipeline = pipeline.NewPipeline(regFile, imem, dmem,
		pipeline.WithLogger(c.logger.WithName("pipeline")))

	return c
}

// Build creates fresh architectural state for cfg, links prog into it and
// points the pipeline at the entry symbol. Link errors are static errors
// and no cycle is run.
func Build(prog *asm.Program, cfg *config.Config, opts ...Option) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	order, err := cfg.Order()
	if err != nil {
		return nil, err
	}

	regFile := emu.NewRegFile(cfg.GPInit, cfg.SPInit)
	imem := emu.NewInstrMemory(cfg.TextSegmentStart)
	dmem := emu.NewDataMemory(cfg.DataSegmentStart, cfg.StackSegmentEnd, order)

	image, err := loader.Link(prog, imem, dmem, loader.Layout{
		TextStart:   cfg.TextSegmentStart,
		DataStart:   cfg.DataSegmentStart,
		EntrySymbol: cfg.EntrySymbol,
	})
	if err != nil {
		return nil, err
	}

	c := NewCore(regFile, imem, dmem, cfg, opts...)
	c.image = image

	if err := c.SetPC(image.Entry); err != nil {
		return nil, err
	}

	c.logger.V(1).Info("program linked",
		"entry", fmt.Sprintf("0x%08x", image.Entry),
		"instructions", len(image.Instrs),
		"symbols", image.Symbols.Len(),
		"dataBytes", prog.DataSize)

	return c, nil
}

// AddObserver registers an observer after construction.
func (c *Core) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// Image returns the linked program, or nil when the core was not created
// by Build.
func (c *Core) Image() *loader.Image {
	return c.image
}

// RegFile returns the register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// InstrMemory returns the instruction memory.
func (c *Core) InstrMemory() *emu.InstrMemory {
	return c.imem
}

// DataMemory returns the data memory.
func (c *Core) DataMemory() *emu.DataMemory {
	return c.dmem
}

// SetPC restarts fetching at pc.
func (c *Core) SetPC(pc uint64) error {
	return c.Pipeline.SetPC(pc)
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() error {
	return c.Pipeline.Tick()
}

// Halted returns true once the terminating syscall has retired.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:         pipeStats.Cycles,
		Instructions:   pipeStats.Instructions,
		Stalls:         pipeStats.Stalls,
		Flushes:        pipeStats.Flushes,
		Jumps:          pipeStats.Jumps,
		Forwards:       pipeStats.Forwards,
		ClockFrequency: c.freq,
	}
}

// Snapshot returns the current state of the core.
func (c *Core) Snapshot() Snapshot {
	stats := c.Pipeline.Stats()
	return Snapshot{
		Cycle:     stats.Cycles,
		Retired:   stats.Instructions,
		State:     c.Pipeline.State(),
		Registers: c.regFile.Snapshot(),
	}
}

// Run executes the core until the syscall retires, the pipeline faults or
// the cycle limit is hit. Observers see the state before every cycle,
// including a cycle that faults.
func (c *Core) Run() (Stats, error) {
	c.logger.V(1).Info("run started", "maxCycles", c.maxCycles)

	for !c.Halted() {
		if c.maxCycles > 0 && c.Pipeline.Stats().Cycles >= c.maxCycles {
			return c.Stats(), fmt.Errorf("%w: %d cycles", ErrMaxCycles, c.maxCycles)
		}

		c.notify()

		if err := c.Tick(); err != nil {
			return c.Stats(), err
		}
	}

	stats := c.Stats()
	c.logger.V(1).Info("run finished",
		"cycles", stats.Cycles,
		"instructions", stats.Instructions,
		"cpi", stats.CPI())

	return stats, nil
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles && !c.Halted(); i++ {
		c.notify()
		if err := c.Tick(); err != nil {
			return false, err
		}
	}
	return !c.Halted(), nil
}

func (c *Core) notify() {
	if len(c.observers) == 0 {
		return
	}

	s := c.Snapshot()
	for _, o := range c.observers {
		o.OnCycle(s)
	}
}
