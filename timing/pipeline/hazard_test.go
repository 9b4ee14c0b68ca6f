package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/timing/pipeline"
)

func mustReg(name string) insts.Reg {
	r, err := insts.RegByName(name)
	Expect(err).NotTo(HaveOccurred())
	return r
}

func addi(rt, rs string, imm int64) insts.Instruction {
	return insts.NewRRI(insts.OpADDI, mustReg(rs), mustReg(rt), imm, 1)
}

func add(rd, rs, rt string) insts.Instruction {
	return insts.NewRRR(insts.OpADD, mustReg(rd), mustReg(rs), mustReg(rt), 1)
}

func lw(rt string, imm int64, rs string) insts.Instruction {
	return insts.NewRRI(insts.OpLW, mustReg(rs), mustReg(rt), imm, 1)
}

var _ = Describe("HazardUnit", func() {
	var (
		hazardUnit *pipeline.HazardUnit
		id         *pipeline.IDRegister
		ex         *pipeline.EXRegister
		mem        *pipeline.MEMRegister
	)

	BeforeEach(func() {
		hazardUnit = pipeline.NewHazardUnit()
		id = &pipeline.IDRegister{Inst: add("t3", "t1", "t2")}
		ex = &pipeline.EXRegister{}
		ex.Clear()
		mem = &pipeline.MEMRegister{}
		mem.Clear()
	})

	Describe("DetectForwarding", func() {
		Context("when no forwarding is needed", func() {
			It("should return ForwardNone for both operands", func() {
				ex.Inst = addi("t5", "t6", 1)
				result := hazardUnit.DetectForwarding(id, ex, mem)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardNone))
				Expect(result.Any()).To(BeFalse())
			})
		})

		Context("when the producer is in EX", func() {
			It("should forward rs from EX", func() {
				ex.Inst = addi("t1", "zero", 3)
				result := hazardUnit.DetectForwarding(id, ex, mem)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardFromEX))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardNone))
			})

			It("should forward rt from EX", func() {
				ex.Inst = addi("t2", "zero", 3)
				result := hazardUnit.DetectForwarding(id, ex, mem)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromEX))
			})
		})

		Context("when the producer is in MEM", func() {
			It("should forward from MEM", func() {
				mem.Inst = addi("t2", "zero", 3)
				result := hazardUnit.DetectForwarding(id, ex, mem)

				Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromMEM))
			})
		})

		It("should prefer EX over MEM", func() {
			ex.Inst = addi("t1", "zero", 3)
			mem.Inst = addi("t1", "zero", 4)
			result := hazardUnit.DetectForwarding(id, ex, mem)

			Expect(result.ForwardRs).To(Equal(pipeline.ForwardFromEX))
		})

		It("should never forward $zero", func() {
			id.Inst = add("t3", "zero", "zero")
			ex.Inst = addi("zero", "zero", 5)
			mem.Inst = addi("zero", "zero", 6)

			Expect(hazardUnit.DetectForwarding(id, ex, mem).Any()).To(BeFalse())
		})

		It("should forward the value a store writes", func() {
			id.Inst = insts.NewRRI(insts.OpSW, mustReg("sp"), mustReg("t0"), -4, 1)
			ex.Inst = addi("t0", "zero", 1)

			Expect(hazardUnit.DetectForwarding(id, ex, mem).ForwardRt).
				To(Equal(pipeline.ForwardFromEX))
		})

		It("should forward the register incremented by incr", func() {
			id.Inst = insts.NewRI(insts.OpINCR, mustReg("t0"), 1, 1)
			ex.Inst = addi("t0", "zero", 1)

			Expect(hazardUnit.DetectForwarding(id, ex, mem).ForwardRs).
				To(Equal(pipeline.ForwardFromEX))
		})
	})

	Describe("DetectLoadUseHazard", func() {
		It("should detect a load followed by a consumer", func() {
			ex.Inst = lw("t1", 0, "gp")
			Expect(hazardUnit.DetectLoadUseHazard(id, ex)).To(BeTrue())
		})

		It("should treat lui as a load", func() {
			ex.Inst = insts.NewRI(insts.OpLUI, mustReg("t2"), 1, 1)
			Expect(hazardUnit.DetectLoadUseHazard(id, ex)).To(BeTrue())
		})

		It("should ignore loads into unrelated registers", func() {
			ex.Inst = lw("t7", 0, "gp")
			Expect(hazardUnit.DetectLoadUseHazard(id, ex)).To(BeFalse())
		})

		It("should ignore loads into $zero", func() {
			id.Inst = add("t3", "zero", "t1")
			ex.Inst = lw("zero", 0, "gp")
			Expect(hazardUnit.DetectLoadUseHazard(id, ex)).To(BeFalse())
		})

		It("should ignore arithmetic producers", func() {
			ex.Inst = addi("t1", "zero", 1)
			Expect(hazardUnit.DetectLoadUseHazard(id, ex)).To(BeFalse())
		})
	})

	Describe("ComputeStalls", func() {
		It("should stall IF and ID on a load-use hazard", func() {
			result := hazardUnit.ComputeStalls(true, false)

			Expect(result.StallIF).To(BeTrue())
			Expect(result.StallID).To(BeTrue())
			Expect(result.InsertBubbleEX).To(BeTrue())
			Expect(result.FlushID).To(BeFalse())
		})

		It("should flush ID, EX and MEM on a taken branch", func() {
			result := hazardUnit.ComputeStalls(false, true)

			Expect(result).To(Equal(pipeline.StallResult{
				FlushID: true, FlushEX: true, FlushMEM: true,
			}))
		})

		It("should stall and flush in the same cycle", func() {
			result := hazardUnit.ComputeStalls(true, true)

			Expect(result).To(Equal(pipeline.StallResult{
				StallIF: true, StallID: true, InsertBubbleEX: true,
				FlushID: true, FlushEX: true, FlushMEM: true,
			}))
		})
	})

	Describe("GetForwardedValue", func() {
		It("should select the source", func() {
			nextMEM := &pipeline.MEMRegister{ALUResult: 11}
			nextWB := &pipeline.WBRegister{Result: 22}

			Expect(hazardUnit.GetForwardedValue(pipeline.ForwardNone, 7, nextMEM, nextWB)).
				To(Equal(int64(7)))
			Expect(hazardUnit.GetForwardedValue(pipeline.ForwardFromEX, 7, nextMEM, nextWB)).
				To(Equal(int64(11)))
			Expect(hazardUnit.GetForwardedValue(pipeline.ForwardFromMEM, 7, nextMEM, nextWB)).
				To(Equal(int64(22)))
		})
	})
})
