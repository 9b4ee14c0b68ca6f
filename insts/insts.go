// Package insts provides the MIPS instruction subset understood by the
// simulator.
//
// Instructions are immutable values. Operand slots that an operation does not
// use hold RegNone or ImmNone, so the operand shape can be recovered from the
// opcode alone:
//
//	add := insts.NewRRR(insts.OpADD, insts.RegT2, insts.RegT0, insts.RegT1, 3)
//	rs, rt := insts.RegsRead(add) // $t0, $t1
//	rd := insts.RegWritten(add)   // $t2
package insts

import "fmt"

// Op identifies an operation.
type Op uint8

// Supported operations. MOVE, LI, INCR and DECR are assembler pseudo
// instructions that the simulator executes directly.
const (
	OpNOP Op = iota
	OpMOVE
	OpLI
	OpINCR
	OpDECR
	OpADD
	OpSUB
	OpADDI
	OpLW
	OpLH
	OpLHU
	OpLB
	OpLBU
	OpLUI
	OpSW
	OpSH
	OpSB
	OpAND
	OpOR
	OpNOR
	OpANDI
	OpORI
	OpSLL
	OpSRL
	OpBEQ
	OpBNE
	OpSLT
	OpSLTU
	OpSLTI
	OpSLTIU
	OpJ
	OpSYSCALL

	numOps
)

var mnemonics = [numOps]string{
	OpNOP:     "nop",
	OpMOVE:    "move",
	OpLI:      "li",
	OpINCR:    "incr",
	OpDECR:    "decr",
	OpADD:     "add",
	OpSUB:     "sub",
	OpADDI:    "addi",
	OpLW:      "lw",
	OpLH:      "lh",
	OpLHU:     "lhu",
	OpLB:      "lb",
	OpLBU:     "lbu",
	OpLUI:     "lui",
	OpSW:      "sw",
	OpSH:      "sh",
	OpSB:      "sb",
	OpAND:     "and",
	OpOR:      "or",
	OpNOR:     "nor",
	OpANDI:    "andi",
	OpORI:     "ori",
	OpSLL:     "sll",
	OpSRL:     "srl",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpJ:       "j",
	OpSYSCALL: "syscall",
}

// String returns the assembler mnemonic of the operation.
func (op Op) String() string {
	if op >= numOps {
		return fmt.Sprintf("op(%d)", uint8(op))
	}
	return mnemonics[op]
}

// OpByMnemonic looks up an operation by its assembler mnemonic.
func OpByMnemonic(name string) (Op, bool) {
	for op := OpNOP; op < numOps; op++ {
		if mnemonics[op] == name {
			return op, true
		}
	}
	return OpNOP, false
}

// Ops returns every supported operation in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, numOps)
	for op := OpNOP; op < numOps; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Category groups operations by the pipeline resources they use.
type Category uint8

// Operation categories.
const (
	CategoryOther Category = iota
	CategoryArithmeticLogical
	CategoryLoad
	CategoryStore
	CategoryProgramControl
)

func (c Category) String() string {
	switch c {
	case CategoryArithmeticLogical:
		return "arithmetic/logical"
	case CategoryLoad:
		return "load"
	case CategoryStore:
		return "store"
	case CategoryProgramControl:
		return "program control"
	default:
		return "other"
	}
}

// CategoryOf returns the category of op.
//
// LUI is classified as a load: a consumer directly behind it waits one
// cycle, exactly like a consumer of a memory load.
func CategoryOf(op Op) Category {
	switch op {
	case OpADD, OpSUB, OpADDI, OpAND, OpOR, OpNOR, OpANDI, OpORI,
		OpSLL, OpSRL:
		return CategoryArithmeticLogical
	case OpLW, OpLH, OpLHU, OpLB, OpLBU, OpLUI:
		return CategoryLoad
	case OpSW, OpSH, OpSB:
		return CategoryStore
	case OpBEQ, OpBNE, OpSLT, OpSLTU, OpSLTI, OpSLTIU, OpJ:
		return CategoryProgramControl
	case OpNOP, OpMOVE, OpLI, OpINCR, OpDECR, OpSYSCALL:
		return CategoryOther
	default:
		panic(fmt.Sprintf("insts: unknown operation %d", uint8(op)))
	}
}

// IsLoad reports whether op reads data memory.
func IsLoad(op Op) bool {
	switch op {
	case OpLW, OpLH, OpLHU, OpLB, OpLBU:
		return true
	}
	return false
}

// IsStore reports whether op writes data memory.
func IsStore(op Op) bool {
	return CategoryOf(op) == CategoryStore
}

// IsBranch reports whether op is a conditional branch resolved in MEM.
func IsBranch(op Op) bool {
	return op == OpBEQ || op == OpBNE
}

// AccessWidth returns the number of bytes a load or store touches and
// whether a load zero-extends. It returns 0 for every other operation.
func AccessWidth(op Op) (size int, unsigned bool) {
	switch op {
	case OpLW, OpSW:
		return 4, false
	case OpLH, OpSH:
		return 2, false
	case OpLHU:
		return 2, true
	case OpLB, OpSB:
		return 1, false
	case OpLBU:
		return 1, true
	}
	return 0, false
}
