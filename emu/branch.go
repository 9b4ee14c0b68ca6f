package emu

import "github.com/sarchlab/mipsim/insts"

// BranchTaken reports whether a conditional branch with the given zero flag
// transfers control. It is false for every other operation.
func BranchTaken(op insts.Op, zero bool) bool {
	switch op {
	case insts.OpBEQ:
		return zero
	case insts.OpBNE:
		return !zero
	default:
		return false
	}
}

// NextPC returns the address of the instruction that architecturally
// follows inst when it executes at pc with ALU result res.
func NextPC(pc uint64, inst insts.Instruction, res ALUResult) uint64 {
	switch {
	case inst.Op == insts.OpJ:
		return uint64(inst.Imm)
	case BranchTaken(inst.Op, res.Zero()):
		return uint64(res.BranchTarget)
	default:
		return pc + 4
	}
}
