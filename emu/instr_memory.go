package emu

import "github.com/sarchlab/mipsim/insts"

// DefaultTextStart is the first address of the text segment.
const DefaultTextStart uint64 = 0x00400000

const (
	initialInstrSlots = 10
	addressSpaceLimit = uint64(1) << 32
)

// InstrMemory stores decoded instructions indexed by word address.
// Reads past the last written instruction return generated no-ops, so the
// pipeline can keep fetching after the final instruction of a program.
type InstrMemory struct {
	textStart uint64
	instrs    []insts.Instruction
}

// NewInstrMemory creates an instruction memory whose text segment begins at
// textStart.
func NewInstrMemory(textStart uint64) *InstrMemory {
	m := &InstrMemory{textStart: textStart}
	m.instrs = nopSlice(initialInstrSlots)
	return m
}

func nopSlice(n int) []insts.Instruction {
	s := make([]insts.Instruction, n)
	for i := range s {
		s[i] = insts.Nop()
	}
	return s
}

// TextStart returns the base address of the text segment.
func (m *InstrMemory) TextStart() uint64 {
	return m.textStart
}

// Len returns the number of instruction slots currently backed.
func (m *InstrMemory) Len() int {
	return len(m.instrs)
}

func (m *InstrMemory) index(addr uint64) (int, error) {
	if addr < m.textStart {
		return 0, RuntimeErrorf("The address 0x%x points below the text segment", addr)
	}
	if addr%4 != 0 {
		return 0, RuntimeErrorf("Instruction address 0x%x is not 4-byte aligned", addr)
	}
	if addr >= addressSpaceLimit {
		return 0, RuntimeErrorf("The address 0x%x points outside the 4 GiB address space", addr)
	}
	return int((addr - m.textStart) / 4), nil
}

// Read returns the instruction stored at addr.
func (m *InstrMemory) Read(addr uint64) (insts.Instruction, error) {
	idx, err := m.index(addr)
	if err != nil {
		return insts.Nop(), err
	}
	if idx >= len(m.instrs) {
		return insts.Nop(), nil
	}
	return m.instrs[idx], nil
}

// Write stores an instruction at addr, growing the backing store as needed.
func (m *InstrMemory) Write(addr uint64, inst insts.Instruction) error {
	idx, err := m.index(addr)
	if err != nil {
		return err
	}
	if idx >= len(m.instrs) {
		grown := nopSlice(2 * (idx + 1))
		copy(grown, m.instrs)
		m.instrs = grown
	}
	m.instrs[idx] = inst
	return nil
}
