package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/insts"
)

var _ = Describe("Insts Package", func() {
	Describe("Nop", func() {
		It("should be a generated no-op with unused operands", func() {
			nop := insts.Nop()

			Expect(nop.Op).To(Equal(insts.OpNOP))
			Expect(nop.IsNop()).To(BeTrue())
			Expect(nop.Line).To(Equal(insts.LineGenerated))
			Expect(nop.Rd).To(Equal(insts.RegNone))
			Expect(nop.Rs).To(Equal(insts.RegNone))
			Expect(nop.Rt).To(Equal(insts.RegNone))
			Expect(nop.LineString()).To(Equal("generated"))
		})
	})

	Describe("Mnemonics", func() {
		It("should round trip every operation", func() {
			for _, op := range insts.Ops() {
				found, ok := insts.OpByMnemonic(op.String())
				Expect(ok).To(BeTrue(), op.String())
				Expect(found).To(Equal(op))
			}
		})

		It("should reject unknown mnemonics", func() {
			_, ok := insts.OpByMnemonic("mul")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("CategoryOf", func() {
		DescribeTable("categorizes operations",
			func(op insts.Op, want insts.Category) {
				Expect(insts.CategoryOf(op)).To(Equal(want))
			},
			Entry("add", insts.OpADD, insts.CategoryArithmeticLogical),
			Entry("srl", insts.OpSRL, insts.CategoryArithmeticLogical),
			Entry("lw", insts.OpLW, insts.CategoryLoad),
			Entry("lbu", insts.OpLBU, insts.CategoryLoad),
			Entry("lui", insts.OpLUI, insts.CategoryLoad),
			Entry("sh", insts.OpSH, insts.CategoryStore),
			Entry("beq", insts.OpBEQ, insts.CategoryProgramControl),
			Entry("sltiu", insts.OpSLTIU, insts.CategoryProgramControl),
			Entry("j", insts.OpJ, insts.CategoryProgramControl),
			Entry("syscall", insts.OpSYSCALL, insts.CategoryOther),
			Entry("li", insts.OpLI, insts.CategoryOther),
		)

		It("should cover every operation", func() {
			for _, op := range insts.Ops() {
				Expect(func() { insts.CategoryOf(op) }).NotTo(Panic())
			}
		})
	})

	Describe("RegsRead and RegWritten", func() {
		It("should report rs and rt for R-type operations", func() {
			add := insts.NewRRR(insts.OpADD, insts.RegT2, insts.RegT0, insts.RegT1, 1)

			rs, rt := insts.RegsRead(add)
			Expect(rs).To(Equal(insts.RegT0))
			Expect(rt).To(Equal(insts.RegT1))
			Expect(insts.RegWritten(add)).To(Equal(insts.RegT2))
		})

		It("should report only rs for loads and write rt", func() {
			lw := insts.NewRRI(insts.OpLW, insts.RegSP, insts.RegT0, -4, 1)

			rs, rt := insts.RegsRead(lw)
			Expect(rs).To(Equal(insts.RegSP))
			Expect(rt).To(Equal(insts.RegNone))
			Expect(insts.RegWritten(lw)).To(Equal(insts.RegT0))
		})

		It("should read both operands of a store and write nothing", func() {
			sw := insts.NewRRI(insts.OpSW, insts.RegSP, insts.RegT0, -4, 1)

			rs, rt := insts.RegsRead(sw)
			Expect(rs).To(Equal(insts.RegSP))
			Expect(rt).To(Equal(insts.RegT0))
			Expect(insts.RegWritten(sw)).To(Equal(insts.RegNone))
		})

		It("should report the counter of incr in the rs slot", func() {
			incr := insts.NewRI(insts.OpINCR, insts.RegS0, 1, 1)

			rs, rt := insts.RegsRead(incr)
			Expect(rs).To(Equal(insts.RegS0))
			Expect(rt).To(Equal(insts.RegNone))
			Expect(insts.RegWritten(incr)).To(Equal(insts.RegS0))
		})

		It("should read and write nothing for control without registers", func() {
			for _, inst := range []insts.Instruction{
				insts.Nop(),
				insts.NewI(insts.OpJ, 0x400000, 1),
				insts.NewEmpty(insts.OpSYSCALL, 1),
			} {
				rs, rt := insts.RegsRead(inst)
				Expect(rs).To(Equal(insts.RegNone))
				Expect(rt).To(Equal(insts.RegNone))
				Expect(insts.RegWritten(inst)).To(Equal(insts.RegNone))
			}
		})

		It("should not write on branches", func() {
			beq := insts.NewRRI(insts.OpBEQ, insts.RegT0, insts.RegT1, 0x400010, 1)
			Expect(insts.RegWritten(beq)).To(Equal(insts.RegNone))
		})
	})

	Describe("AccessWidth", func() {
		It("should describe memory operations", func() {
			size, unsigned := insts.AccessWidth(insts.OpLHU)
			Expect(size).To(Equal(2))
			Expect(unsigned).To(BeTrue())

			size, unsigned = insts.AccessWidth(insts.OpSB)
			Expect(size).To(Equal(1))
			Expect(unsigned).To(BeFalse())

			size, _ = insts.AccessWidth(insts.OpADD)
			Expect(size).To(BeZero())
		})
	})

	Describe("String", func() {
		DescribeTable("renders assembly syntax",
			func(inst insts.Instruction, want string) {
				Expect(inst.String()).To(Equal(want))
			},
			Entry("rrr", insts.NewRRR(insts.OpADD, insts.RegT2, insts.RegT0, insts.RegT1, 1),
				"add $t2, $t0, $t1"),
			Entry("rr", insts.NewRR(insts.OpMOVE, insts.RegA0, insts.RegV0, 1),
				"move $a0, $v0"),
			Entry("rri", insts.NewRRI(insts.OpADDI, insts.RegZero, insts.RegT0, 5, 1),
				"addi $t0, $zero, 5"),
			Entry("memory", insts.NewRRI(insts.OpLW, insts.RegSP, insts.RegT0, -4, 1),
				"lw $t0, -4($sp)"),
			Entry("branch", insts.NewRRI(insts.OpBNE, insts.RegT0, insts.RegT1, 0x400010, 1),
				"bne $t0, $t1, 400010"),
			Entry("ri", insts.NewRI(insts.OpLUI, insts.RegT0, 16, 1),
				"lui $t0, 16"),
			Entry("jump", insts.NewI(insts.OpJ, 0x400020, 1),
				"j 400020"),
			Entry("empty", insts.NewEmpty(insts.OpSYSCALL, 1),
				"syscall"),
		)

		It("should name the source line", func() {
			Expect(insts.NewEmpty(insts.OpSYSCALL, 12).LineString()).To(Equal("line 12"))
		})
	})

	Describe("Registers", func() {
		It("should parse symbolic and numeric names", func() {
			r, err := insts.RegByName("$t0")
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(insts.RegT0))

			r, err = insts.RegByName("$31")
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(insts.RegRA))

			r, err = insts.RegByName("sp")
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(insts.RegSP))
		})

		It("should reject unknown and out-of-range registers", func() {
			_, err := insts.RegByName("$32")
			Expect(err).To(MatchError(ContainSubstring("not a valid register number")))

			_, err = insts.RegByName("$x9")
			Expect(err).To(HaveOccurred())
		})

		It("should name every register", func() {
			name, err := insts.RegGP.Name()
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("gp"))

			_, err = insts.Reg(40).Name()
			Expect(err).To(HaveOccurred())
			Expect(insts.RegNone.String()).To(Equal("$?"))
		})
	})
})
