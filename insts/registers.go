package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// Reg is a general-purpose register number in [0, NumRegs).
type Reg int8

// NumRegs is the number of general-purpose registers.
const NumRegs = 32

// RegNone marks an unused register operand.
const RegNone Reg = -1

// Register numbers by conventional name.
const (
	RegZero Reg = iota
	RegAT
	RegV0
	RegV1
	RegA0
	RegA1
	RegA2
	RegA3
	RegT0
	RegT1
	RegT2
	RegT3
	RegT4
	RegT5
	RegT6
	RegT7
	RegS0
	RegS1
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegT8
	RegT9
	RegK0
	RegK1
	RegGP
	RegSP
	RegFP
	RegRA
)

var regNames = [NumRegs]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// Valid reports whether r names a real register.
func (r Reg) Valid() bool {
	return r >= 0 && r < NumRegs
}

// Name returns the conventional name without the leading '$'.
func (r Reg) Name() (string, error) {
	if !r.Valid() {
		return "", fmt.Errorf("%d is not a valid register number", int(r))
	}
	return regNames[r], nil
}

// String renders the register as it appears in assembly, "$t0".
func (r Reg) String() string {
	name, err := r.Name()
	if err != nil {
		return "$?"
	}
	return "$" + name
}

// RegByName parses a register operand. Both symbolic ("$t0", "t0") and
// numeric ("$8") forms are accepted.
func RegByName(s string) (Reg, error) {
	name := strings.TrimPrefix(strings.TrimSpace(s), "$")

	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n >= NumRegs {
			return RegNone, fmt.Errorf("%d is not a valid register number", n)
		}
		return Reg(n), nil
	}

	if name == "s8" {
		return RegFP, nil
	}
	for i, candidate := range regNames {
		if candidate == name {
			return Reg(i), nil
		}
	}

	return RegNone, fmt.Errorf("unknown register %q", s)
}
