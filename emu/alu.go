package emu

import "github.com/sarchlab/mipsim/insts"

const mask32 int64 = 0xFFFFFFFF

// ALUResult is the output of the execute stage for one instruction.
type ALUResult struct {
	// Value is the arithmetic result, the effective address of a memory
	// operation, or rs-rt for a branch. NoValue when the operation has none.
	Value int64

	// BranchTarget is the absolute target of BEQ/BNE, NoValue otherwise.
	BranchTarget int64
}

// Zero reports whether the result is zero, which decides BEQ and BNE.
func (r ALUResult) Zero() bool {
	return r.Value == 0
}

// ALU implements the arithmetic and logic operations of the instruction set.
// Operands and results are 64-bit so that overflow past 32 bits is detected
// instead of wrapping.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Execute computes the result of op. rs and rt are the operand register
// values (NoValue when the slot is unused) and imm is the immediate.
func (a *ALU) Execute(op insts.Op, rs, rt, imm int64) (ALUResult, error) {
	res := ALUResult{Value: NoValue, BranchTarget: NoValue}

	switch op {
	case insts.OpADD:
		res.Value = rs + rt
	case insts.OpADDI, insts.OpLW, insts.OpLH, insts.OpLHU, insts.OpLB,
		insts.OpLBU, insts.OpSW, insts.OpSH, insts.OpSB:
		res.Value = rs + imm
	case insts.OpSUB:
		res.Value = rs - rt
	case insts.OpAND:
		res.Value = rs & rt
	case insts.OpANDI:
		res.Value = rs & imm
	case insts.OpOR:
		res.Value = rs | rt
	case insts.OpORI:
		res.Value = rs | imm
	case insts.OpNOR:
		res.Value = ^(rs | rt)
	case insts.OpSLL:
		res.Value = shiftLeft(rs, imm)
	case insts.OpSRL:
		res.Value = (rs & mask32) >> shiftAmount(imm)
	case insts.OpBEQ, insts.OpBNE:
		res.Value = rs - rt
		res.BranchTarget = imm
	case insts.OpSLT:
		res.Value = boolToInt(rs < rt)
	case insts.OpSLTI:
		res.Value = boolToInt(rs < imm)
	case insts.OpSLTU:
		res.Value = boolToInt(uint32(rs) < uint32(rt))
	case insts.OpSLTIU:
		res.Value = boolToInt(uint32(rs) < uint32(imm))
	case insts.OpLUI:
		res.Value = imm << 16
	case insts.OpMOVE:
		res.Value = rs
	case insts.OpLI:
		res.Value = imm
	case insts.OpINCR:
		res.Value = rs + imm
	case insts.OpDECR:
		res.Value = rs - imm
	case insts.OpNOP, insts.OpJ, insts.OpSYSCALL:
		return res, nil
	default:
		panic("emu: ALU cannot execute " + op.String())
	}

	if res.Value < MinRegValue {
		return res, RuntimeErrorf("Arithmetic underflow: %d (value does not fit in 32 bits)", res.Value)
	}
	if res.Value >= RegValueLimit {
		return res, RuntimeErrorf("Arithmetic overflow: %d (value does not fit in 32 bits)", res.Value)
	}

	return res, nil
}

func shiftAmount(imm int64) uint {
	return uint(imm) & 0x1F
}

// shiftLeft keeps a negative operand negative when bit 31 of the shifted
// value is still set, and truncates to 32 bits otherwise.
func shiftLeft(rs, imm int64) int64 {
	r := rs << shiftAmount(imm)
	if rs < 0 && r&(1<<31) != 0 {
		return r | ^mask32
	}
	return r & mask32
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
