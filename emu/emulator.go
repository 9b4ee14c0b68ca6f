package emu

import (
	"fmt"

	"github.com/sarchlab/mipsim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true once the terminating syscall has executed.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes instructions one at a time without modeling the
// pipeline. It shares the ALU and load/store semantics with the timing
// model and serves as its architectural reference.
type Emulator struct {
	regFile *RegFile
	imem    *InstrMemory
	dmem    *DataMemory

	// Execution units
	alu *ALU
	lsu *LoadStoreUnit

	pc               uint64
	halted           bool
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates an emulator over existing machine state.
func NewEmulator(
	regFile *RegFile,
	imem *InstrMemory,
	dmem *DataMemory,
	opts ...EmulatorOption,
) *Emulator {
	e := &Emulator{
		regFile: regFile,
		imem:    imem,
		dmem:    dmem,
		alu:     NewALU(),
		lsu:     NewLoadStoreUnit(dmem),
		pc:      imem.TextStart(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// DataMemory returns the emulator's data memory.
func (e *Emulator) DataMemory() *DataMemory {
	return e.dmem
}

// PC returns the address of the next instruction.
func (e *Emulator) PC() uint64 {
	return e.pc
}

// SetPC sets the address of the next instruction.
func (e *Emulator) SetPC(pc uint64) {
	e.pc = pc
}

// Halted reports whether the terminating syscall has executed.
func (e *Emulator) Halted() bool {
	return e.halted
}

// InstructionCount returns the number of instructions executed, no-ops
// included.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	inst, err := e.imem.Read(e.pc)
	if err != nil {
		return StepResult{Err: err}
	}

	e.instructionCount++

	if inst.Op == insts.OpSYSCALL {
		e.halted = true
		return StepResult{Halted: true}
	}

	res, err := e.execute(inst)
	if err != nil {
		return StepResult{Err: err}
	}

	e.pc = NextPC(e.pc, inst, res)
	return StepResult{}
}

func (e *Emulator) execute(inst insts.Instruction) (ALUResult, error) {
	rsReg, rtReg := insts.RegsRead(inst)

	rs, err := e.readOperand(rsReg)
	if err != nil {
		return ALUResult{}, err
	}
	rt, err := e.readOperand(rtReg)
	if err != nil {
		return ALUResult{}, err
	}

	res, err := e.alu.Execute(inst.Op, rs, rt, inst.Imm)
	if err != nil {
		return res, err
	}

	value := res.Value
	switch {
	case insts.IsLoad(inst.Op):
		value, err = e.lsu.Load(inst.Op, res.Value)
	case insts.IsStore(inst.Op):
		err = e.lsu.Store(inst.Op, res.Value, rt)
	}
	if err != nil {
		return res, err
	}

	if dst := insts.RegWritten(inst); dst != insts.RegNone {
		if err := e.regFile.Write(dst, value); err != nil {
			return res, err
		}
	}

	return res, nil
}

func (e *Emulator) readOperand(reg insts.Reg) (int64, error) {
	if reg == insts.RegNone {
		return NoValue, nil
	}
	return e.regFile.Read(reg)
}

// Run executes instructions until the terminating syscall or an error.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}
