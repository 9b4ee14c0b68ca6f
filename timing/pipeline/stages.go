package pipeline

import (
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// FetchStage handles instruction fetch from memory.
type FetchStage struct {
	imem *emu.InstrMemory
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(imem *emu.InstrMemory) *FetchStage {
	return &FetchStage{imem: imem}
}

// Fetch reads the instruction at the given PC.
func (s *FetchStage) Fetch(pc uint64) (IFRegister, error) {
	inst, err := s.imem.Read(pc)
	if err != nil {
		return IFRegister{}, err
	}
	return IFRegister{PC: pc, Inst: inst}, nil
}

// DecodeStage reads the register operands of the instruction leaving ID.
type DecodeStage struct {
	regFile *emu.RegFile
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{regFile: regFile}
}

// Decode builds the EX register for the instruction in id.
func (s *DecodeStage) Decode(id *IDRegister) (EXRegister, error) {
	rs, rt := insts.RegsRead(id.Inst)

	rsValue, err := s.readOperand(rs)
	if err != nil {
		return EXRegister{}, err
	}
	rtValue, err := s.readOperand(rt)
	if err != nil {
		return EXRegister{}, err
	}

	return EXRegister{
		Inst:     id.Inst,
		RsValue:  rsValue,
		RtValue:  rtValue,
		ImmValue: id.Inst.Imm,
	}, nil
}

func (s *DecodeStage) readOperand(reg insts.Reg) (int64, error) {
	if reg == insts.RegNone {
		return emu.NoValue, nil
	}
	return s.regFile.Read(reg)
}

// ExecuteStage handles ALU operations and address calculation.
type ExecuteStage struct {
	alu *emu.ALU
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{alu: emu.NewALU()}
}

// Execute runs the instruction in ex through the ALU.
func (s *ExecuteStage) Execute(ex *EXRegister) (MEMRegister, error) {
	res, err := s.alu.Execute(ex.Inst.Op, ex.RsValue, ex.RtValue, ex.ImmValue)
	if err != nil {
		return MEMRegister{}, err
	}

	return MEMRegister{
		Inst:         ex.Inst,
		RtValue:      ex.RtValue,
		ALUResult:    res.Value,
		Zero:         res.Zero(),
		BranchTarget: res.BranchTarget,
	}, nil
}

// MemoryStage handles loads and stores.
type MemoryStage struct {
	lsu *emu.LoadStoreUnit
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(dmem *emu.DataMemory) *MemoryStage {
	return &MemoryStage{lsu: emu.NewLoadStoreUnit(dmem)}
}

// Access performs the data memory access of the instruction in mem. Stores
// take effect immediately.
func (s *MemoryStage) Access(mem *MEMRegister) (WBRegister, error) {
	result := WBRegister{Inst: mem.Inst, Result: mem.ALUResult}

	switch {
	case insts.IsLoad(mem.Inst.Op):
		v, err := s.lsu.Load(mem.Inst.Op, mem.ALUResult)
		if err != nil {
			return WBRegister{}, err
		}
		result.Result = v
	case insts.IsStore(mem.Inst.Op):
		if err := s.lsu.Store(mem.Inst.Op, mem.ALUResult, mem.RtValue); err != nil {
			return WBRegister{}, err
		}
	}

	return result, nil
}

// WritebackStage handles register writeback.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback commits the result in wb to its destination register, if any.
func (s *WritebackStage) Writeback(wb *WBRegister) error {
	dst := insts.RegWritten(wb.Inst)
	if dst == insts.RegNone {
		return nil
	}
	return s.regFile.Write(dst, wb.Result)
}
