// Package pipeline provides the 5-stage pipeline implementation for timing simulation.
package pipeline

import (
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// IFRegister holds the instruction fetched this cycle.
type IFRegister struct {
	// PC is the address the instruction was fetched from.
	PC uint64

	// Inst is the fetched instruction.
	Inst insts.Instruction
}

// Clear resets the IF register to a bubble.
func (r *IFRegister) Clear() {
	r.PC = 0
	r.Inst = insts.Nop()
}

// IDRegister holds the instruction being decoded.
type IDRegister struct {
	// Inst is the instruction in decode.
	Inst insts.Instruction
}

// Clear resets the ID register to a bubble.
func (r *IDRegister) Clear() {
	r.Inst = insts.Nop()
}

// EXRegister holds an instruction and its operands on the way to the ALU.
type EXRegister struct {
	// Inst is the instruction in execute.
	Inst insts.Instruction

	// Operand values read from the register file or forwarded. NoValue
	// when the instruction does not read the slot.
	RsValue int64
	RtValue int64

	// ImmValue is the immediate operand.
	ImmValue int64
}

// Clear resets the EX register to a bubble.
func (r *EXRegister) Clear() {
	r.Inst = insts.Nop()
	r.RsValue = emu.NoValue
	r.RtValue = emu.NoValue
	r.ImmValue = emu.NoValue
}

// MEMRegister holds the ALU output of an instruction in the memory stage.
type MEMRegister struct {
	// Inst is the instruction in memory access.
	Inst insts.Instruction

	// RtValue is the value a store writes.
	RtValue int64

	// ALUResult is the result, effective address or branch difference.
	ALUResult int64

	// Zero is set when ALUResult is zero.
	Zero bool

	// BranchTarget is the target of BEQ/BNE.
	BranchTarget int64
}

// Clear resets the MEM register to a bubble.
func (r *MEMRegister) Clear() {
	r.Inst = insts.Nop()
	r.RtValue = emu.NoValue
	r.ALUResult = emu.NoValue
	r.Zero = false
	r.BranchTarget = emu.NoValue
}

// BranchTaken reports whether the register holds a taken conditional branch.
func (r *MEMRegister) BranchTaken() bool {
	return emu.BranchTaken(r.Inst.Op, r.Zero)
}

// WBRegister holds the value an instruction writes back.
type WBRegister struct {
	// Inst is the instruction in writeback.
	Inst insts.Instruction

	// Result is the loaded value or the ALU result.
	Result int64
}

// Clear resets the WB register to a bubble.
func (r *WBRegister) Clear() {
	r.Inst = insts.Nop()
	r.Result = emu.NoValue
}

// State is the content of all five pipeline registers. Each cycle produces a
// complete new State from the previous one.
type State struct {
	IF  IFRegister
	ID  IDRegister
	EX  EXRegister
	MEM MEMRegister
	WB  WBRegister
}

// EmptyState returns a pipeline filled with bubbles.
func EmptyState() State {
	var s State
	s.IF.Clear()
	s.ID.Clear()
	s.EX.Clear()
	s.MEM.Clear()
	s.WB.Clear()
	return s
}
