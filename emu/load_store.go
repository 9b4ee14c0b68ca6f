package emu

import "github.com/sarchlab/mipsim/insts"

// LoadStoreUnit performs the data memory side of load and store
// instructions.
type LoadStoreUnit struct {
	memory *DataMemory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// data memory.
func NewLoadStoreUnit(memory *DataMemory) *LoadStoreUnit {
	return &LoadStoreUnit{memory: memory}
}

// EffectiveAddress maps an ALU result to a machine address. A negative
// result lies below the data segment.
func EffectiveAddress(v int64) (uint64, error) {
	if v < 0 {
		return 0, RuntimeErrorf("The address %d points below the data segment", v)
	}
	return uint64(v), nil
}

// Load reads the value addressed by a load instruction.
func (lsu *LoadStoreUnit) Load(op insts.Op, addr int64) (int64, error) {
	size, unsigned := insts.AccessWidth(op)
	if !insts.IsLoad(op) {
		panic("emu: " + op.String() + " is not a load")
	}
	ea, err := EffectiveAddress(addr)
	if err != nil {
		return 0, err
	}
	return lsu.memory.Read(ea, size, unsigned)
}

// Store writes value with the width of a store instruction. Bits above the
// width are discarded.
func (lsu *LoadStoreUnit) Store(op insts.Op, addr int64, value int64) error {
	size, _ := insts.AccessWidth(op)
	if !insts.IsStore(op) {
		panic("emu: " + op.String() + " is not a store")
	}
	ea, err := EffectiveAddress(addr)
	if err != nil {
		return err
	}
	return lsu.memory.Write(ea, truncate(value, size), size)
}

// truncate keeps the low size bytes of v, sign-extended.
func truncate(v int64, size int) int64 {
	switch size {
	case 4:
		return int64(int32(v))
	case 2:
		return int64(int16(v))
	default:
		return int64(int8(v))
	}
}
