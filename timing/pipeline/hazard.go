package pipeline

import "github.com/sarchlab/mipsim/insts"

// ForwardSource indicates where a forwarded value should come from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed - use register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromEX means forward the ALU result the EX instruction is
	// producing this cycle.
	ForwardFromEX
	// ForwardFromMEM means forward the value the MEM instruction is
	// producing this cycle.
	ForwardFromMEM
)

func (s ForwardSource) String() string {
	switch s {
	case ForwardFromEX:
		return "EX"
	case ForwardFromMEM:
		return "MEM"
	default:
		return "none"
	}
}

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	// ForwardRs specifies the forwarding source for the rs operand slot.
	ForwardRs ForwardSource
	// ForwardRt specifies the forwarding source for the rt operand slot.
	ForwardRt ForwardSource
}

// Any reports whether either operand is forwarded.
func (f ForwardingResult) Any() bool {
	return f.ForwardRs != ForwardNone || f.ForwardRt != ForwardNone
}

// StallResult contains stall and flush control signals.
type StallResult struct {
	// StallIF indicates IF should keep its current instruction.
	StallIF bool
	// StallID indicates ID should keep its current instruction.
	StallID bool
	// InsertBubbleEX indicates a bubble should enter EX.
	InsertBubbleEX bool
	// FlushID, FlushEX and FlushMEM discard the instructions that would
	// advance into those stages.
	FlushID  bool
	FlushEX  bool
	FlushMEM bool
}

// HazardUnit detects data hazards and determines forwarding/stall signals.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines, for the instruction currently in ID, which
// operands must bypass the register file when it enters EX. A producer in
// EX takes precedence over one in MEM since it is more recent.
func (h *HazardUnit) DetectForwarding(
	id *IDRegister,
	ex *EXRegister,
	mem *MEMRegister,
) ForwardingResult {
	rs, rt := insts.RegsRead(id.Inst)

	return ForwardingResult{
		ForwardRs: h.detectForwardForReg(rs, ex, mem),
		ForwardRt: h.detectForwardForReg(rt, ex, mem),
	}
}

func (h *HazardUnit) detectForwardForReg(
	reg insts.Reg,
	ex *EXRegister,
	mem *MEMRegister,
) ForwardSource {
	// $zero always reads as 0, no need to forward
	if reg == insts.RegNone || reg == insts.RegZero {
		return ForwardNone
	}

	if insts.RegWritten(ex.Inst) == reg {
		return ForwardFromEX
	}

	if insts.RegWritten(mem.Inst) == reg {
		return ForwardFromMEM
	}

	return ForwardNone
}

// DetectLoadUseHazard reports whether the instruction in ID needs a value
// that the load-category instruction in EX has not produced yet.
func (h *HazardUnit) DetectLoadUseHazard(id *IDRegister, ex *EXRegister) bool {
	if insts.CategoryOf(ex.Inst.Op) != insts.CategoryLoad {
		return false
	}

	dst := insts.RegWritten(ex.Inst)
	if dst == insts.RegNone || dst == insts.RegZero {
		return false
	}

	rs, rt := insts.RegsRead(id.Inst)
	return dst == rs || dst == rt
}

// ComputeStalls computes stall and flush signals based on hazard conditions.
// The two are independent: a load-use hazard still stalls IF and ID in a
// cycle where a taken branch flushes the stages behind it.
func (h *HazardUnit) ComputeStalls(loadUseHazard bool, branchTaken bool) StallResult {
	result := StallResult{}

	if branchTaken {
		result.FlushID = true
		result.FlushEX = true
		result.FlushMEM = true
	}

	// Load-use hazard: stall IF and ID, insert bubble in EX
	if loadUseHazard {
		result.StallIF = true
		result.StallID = true
		result.InsertBubbleEX = true
	}

	return result
}

// GetForwardedValue returns the value to use based on forwarding decision.
// nextMEM and nextWB are the registers being computed this cycle.
func (h *HazardUnit) GetForwardedValue(
	forward ForwardSource,
	originalValue int64,
	nextMEM *MEMRegister,
	nextWB *WBRegister,
) int64 {
	switch forward {
	case ForwardFromEX:
		return nextMEM.ALUResult
	case ForwardFromMEM:
		return nextWB.Result
	default:
		return originalValue
	}
}
