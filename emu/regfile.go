package emu

import "github.com/sarchlab/mipsim/insts"

// Register value range. A register holds any value that has a 32-bit
// representation, signed or unsigned: [MinRegValue, RegValueLimit).
const (
	MinRegValue   int64 = -1 << 31
	RegValueLimit int64 = 1 << 32
)

// Default initial values of the global and stack pointers.
const (
	DefaultGPInit int64 = 0x10008000
	DefaultSPInit int64 = 0x7FFFFFFC
)

// NoValue marks a register or data slot that holds nothing meaningful.
const NoValue int64 = -1

// FitsInRegister reports whether v can be stored in a register.
func FitsInRegister(v int64) bool {
	return v >= MinRegValue && v < RegValueLimit
}

// RegFile represents the MIPS register file.
// It holds 32 general-purpose registers. Register 0 always reads as 0.
type RegFile struct {
	regs [insts.NumRegs]int64
}

// NewRegFile creates a register file with every register cleared except
// $gp and $sp.
func NewRegFile(gp, sp int64) *RegFile {
	r := &RegFile{}
	r.regs[insts.RegGP] = gp
	r.regs[insts.RegSP] = sp
	return r
}

// Read returns the value of a register.
func (r *RegFile) Read(reg insts.Reg) (int64, error) {
	if !reg.Valid() {
		return 0, RuntimeErrorf("%d is not a valid register number", int(reg))
	}
	return r.regs[reg], nil
}

// Write stores v into a register. Writes to register 0 are validated and
// then dropped.
func (r *RegFile) Write(reg insts.Reg, v int64) error {
	if !reg.Valid() {
		return RuntimeErrorf("%d is not a valid register number", int(reg))
	}
	if !FitsInRegister(v) {
		return RuntimeErrorf("The value %d does not fit in a 32-bit register", v)
	}
	if reg == insts.RegZero {
		return nil
	}
	r.regs[reg] = v
	return nil
}

// Snapshot returns a copy of all registers for display.
func (r *RegFile) Snapshot() [insts.NumRegs]int64 {
	return r.regs
}
