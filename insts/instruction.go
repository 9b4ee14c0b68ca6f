package insts

import (
	"fmt"
	"strings"
)

// LineGenerated marks an instruction that does not come from a source line,
// such as a pipeline bubble.
const LineGenerated = -1

// ImmNone is held by the immediate slot of operations without an immediate.
const ImmNone int64 = -1

// Format describes the operand shape of an operation in assembly syntax.
type Format uint8

// Operand shapes.
const (
	// FormatEmpty takes no operands: nop, syscall.
	FormatEmpty Format = iota
	// FormatRRR is "op rd, rs, rt".
	FormatRRR
	// FormatRR is "op rd, rs".
	FormatRR
	// FormatRRI is "op rt, rs, imm" or, for branches, "op rs, rt, target".
	FormatRRI
	// FormatRIR is "op rt, imm(rs)".
	FormatRIR
	// FormatRI is "op rt, imm".
	FormatRI
	// FormatI is "op target".
	FormatI
)

// FormatOf returns the operand shape of op.
func FormatOf(op Op) Format {
	switch op {
	case OpADD, OpSUB, OpAND, OpOR, OpNOR, OpSLT, OpSLTU:
		return FormatRRR
	case OpMOVE:
		return FormatRR
	case OpADDI, OpANDI, OpORI, OpSLL, OpSRL, OpSLTI, OpSLTIU, OpBEQ, OpBNE:
		return FormatRRI
	case OpLW, OpLH, OpLHU, OpLB, OpLBU, OpSW, OpSH, OpSB:
		return FormatRIR
	case OpLUI, OpLI, OpINCR, OpDECR:
		return FormatRI
	case OpJ:
		return FormatI
	case OpNOP, OpSYSCALL:
		return FormatEmpty
	default:
		panic(fmt.Sprintf("insts: unknown operation %d", uint8(op)))
	}
}

// Instruction is a decoded instruction.
type Instruction struct {
	// Op is the operation.
	Op Op

	// Rd, Rs and Rt are the register operands, RegNone when unused.
	Rd Reg
	Rs Reg
	Rt Reg

	// Imm is the immediate operand. After linking it holds the absolute
	// address of a branch or jump target.
	Imm int64

	// Line is the source line, LineGenerated for synthesized instructions.
	Line int
}

// Nop returns a generated no-op.
func Nop() Instruction {
	return NewEmpty(OpNOP, LineGenerated)
}

// NewRRR creates an instruction with three register operands.
func NewRRR(op Op, rd, rs, rt Reg, line int) Instruction {
	return Instruction{Op: op, Rd: rd, Rs: rs, Rt: rt, Imm: ImmNone, Line: line}
}

// NewRR creates an instruction with a destination and one source register.
func NewRR(op Op, rd, rs Reg, line int) Instruction {
	return Instruction{Op: op, Rd: rd, Rs: rs, Rt: RegNone, Imm: ImmNone, Line: line}
}

// NewRRI creates an instruction with two registers and an immediate. It
// covers both the I-type arithmetic shape and loads, stores and branches.
func NewRRI(op Op, rs, rt Reg, imm int64, line int) Instruction {
	return Instruction{Op: op, Rd: RegNone, Rs: rs, Rt: rt, Imm: imm, Line: line}
}

// NewRI creates an instruction with a single register and an immediate.
func NewRI(op Op, rt Reg, imm int64, line int) Instruction {
	return Instruction{Op: op, Rd: RegNone, Rs: RegNone, Rt: rt, Imm: imm, Line: line}
}

// NewI creates an instruction with only an immediate operand.
func NewI(op Op, imm int64, line int) Instruction {
	return Instruction{Op: op, Rd: RegNone, Rs: RegNone, Rt: RegNone, Imm: imm, Line: line}
}

// NewEmpty creates an instruction without operands.
func NewEmpty(op Op, line int) Instruction {
	return Instruction{Op: op, Rd: RegNone, Rs: RegNone, Rt: RegNone, Imm: ImmNone, Line: line}
}

// WithImm returns a copy of the instruction with a different immediate.
func (i Instruction) WithImm(imm int64) Instruction {
	i.Imm = imm
	return i
}

// WithRs returns a copy of the instruction with a different rs operand.
func (i Instruction) WithRs(rs Reg) Instruction {
	i.Rs = rs
	return i
}

// IsNop reports whether the instruction is a no-op.
func (i Instruction) IsNop() bool {
	return i.Op == OpNOP
}

// RegsRead returns the registers the instruction reads in the rs and rt
// slots. Unused slots are RegNone. INCR and DECR read their rt register and
// report it in the rs slot.
func RegsRead(i Instruction) (rs, rt Reg) {
	switch i.Op {
	case OpADD, OpSUB, OpAND, OpOR, OpNOR, OpSW, OpSH, OpSB,
		OpBEQ, OpBNE, OpSLT, OpSLTU:
		return i.Rs, i.Rt
	case OpADDI, OpANDI, OpORI, OpSLL, OpSRL, OpLW, OpLH, OpLHU, OpLB,
		OpLBU, OpSLTI, OpSLTIU, OpMOVE:
		return i.Rs, RegNone
	case OpINCR, OpDECR:
		return i.Rt, RegNone
	case OpNOP, OpLI, OpLUI, OpJ, OpSYSCALL:
		return RegNone, RegNone
	default:
		panic(fmt.Sprintf("insts: unknown operation %d", uint8(i.Op)))
	}
}

// RegWritten returns the register the instruction writes, or RegNone.
func RegWritten(i Instruction) Reg {
	switch i.Op {
	case OpADD, OpSUB, OpAND, OpOR, OpNOR, OpSLT, OpSLTU, OpMOVE:
		return i.Rd
	case OpADDI, OpANDI, OpORI, OpSLL, OpSRL, OpLW, OpLH, OpLHU, OpLB,
		OpLBU, OpLUI, OpSLTI, OpSLTIU, OpLI, OpINCR, OpDECR:
		return i.Rt
	case OpNOP, OpSW, OpSH, OpSB, OpBEQ, OpBNE, OpJ, OpSYSCALL:
		return RegNone
	default:
		panic(fmt.Sprintf("insts: unknown operation %d", uint8(i.Op)))
	}
}

// String renders the instruction in assembly syntax. Branch and jump
// targets are printed as hexadecimal addresses.
func (i Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(i.Op.String())

	switch FormatOf(i.Op) {
	case FormatRRR:
		fmt.Fprintf(&sb, " %s, %s, %s", i.Rd, i.Rs, i.Rt)
	case FormatRR:
		fmt.Fprintf(&sb, " %s, %s", i.Rd, i.Rs)
	case FormatRRI:
		if IsBranch(i.Op) {
			fmt.Fprintf(&sb, " %s, %s, %X", i.Rs, i.Rt, i.Imm)
		} else {
			fmt.Fprintf(&sb, " %s, %s, %d", i.Rt, i.Rs, i.Imm)
		}
	case FormatRIR:
		fmt.Fprintf(&sb, " %s, %d(%s)", i.Rt, i.Imm, i.Rs)
	case FormatRI:
		fmt.Fprintf(&sb, " %s, %d", i.Rt, i.Imm)
	case FormatI:
		fmt.Fprintf(&sb, " %X", i.Imm)
	}

	return sb.String()
}

// LineString describes where the instruction came from.
func (i Instruction) LineString() string {
	if i.Line == LineGenerated {
		return "generated"
	}
	return fmt.Sprintf("line %d", i.Line)
}
