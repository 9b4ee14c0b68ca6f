package emu_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

var _ = Describe("DataMemory", func() {
	var mem *emu.DataMemory

	BeforeEach(func() {
		mem = emu.NewDataMemory(emu.DefaultDataStart, emu.DefaultStackEnd, binary.BigEndian)
	})

	It("should read back a written word", func() {
		Expect(mem.Write(emu.DefaultDataStart, 123456, 4)).To(Succeed())
		Expect(mem.Read(emu.DefaultDataStart, 4, false)).To(Equal(int64(123456)))
	})

	It("should read unwritten memory as zero", func() {
		Expect(mem.Read(emu.DefaultDataStart+0x400, 4, false)).To(BeZero())
		Expect(mem.Read(0x50000000, 2, true)).To(BeZero())
	})

	Context("sign extension", func() {
		It("should sign-extend signed reads", func() {
			Expect(mem.Write(emu.DefaultDataStart, -1, 1)).To(Succeed())

			Expect(mem.Read(emu.DefaultDataStart, 1, false)).To(Equal(int64(-1)))
			Expect(mem.Read(emu.DefaultDataStart, 1, true)).To(Equal(int64(0xFF)))
		})

		It("should treat a positive high bit as negative for halfwords", func() {
			Expect(mem.Write(emu.DefaultDataStart+2, 0x8001, 2)).To(Succeed())

			Expect(mem.Read(emu.DefaultDataStart+2, 2, false)).To(Equal(int64(-0x7FFF)))
			Expect(mem.Read(emu.DefaultDataStart+2, 2, true)).To(Equal(int64(0x8001)))
		})

		It("should sign-extend words from bit 31", func() {
			Expect(mem.Write(emu.DefaultDataStart, 0xFFFFFFFE, 4)).To(Succeed())
			Expect(mem.Read(emu.DefaultDataStart, 4, false)).To(Equal(int64(-2)))
		})
	})

	Context("byte order", func() {
		It("should place the most significant byte first when big-endian", func() {
			Expect(mem.Write(emu.DefaultDataStart, 0x01020304, 4)).To(Succeed())
			Expect(mem.Read(emu.DefaultDataStart, 1, true)).To(Equal(int64(0x01)))
			Expect(mem.Read(emu.DefaultDataStart+3, 1, true)).To(Equal(int64(0x04)))
		})

		It("should place the least significant byte first when little-endian", func() {
			mem = emu.NewDataMemory(emu.DefaultDataStart, emu.DefaultStackEnd, binary.LittleEndian)

			Expect(mem.Write(emu.DefaultDataStart, 0x01020304, 4)).To(Succeed())
			Expect(mem.Read(emu.DefaultDataStart, 1, true)).To(Equal(int64(0x04)))
			Expect(mem.Read(emu.DefaultDataStart+2, 2, true)).To(Equal(int64(0x0102)))
		})
	})

	Context("growth", func() {
		It("should grow the data window transparently", func() {
			Expect(mem.Write(emu.DefaultDataStart, 11, 4)).To(Succeed())
			Expect(mem.Write(emu.DefaultDataStart+4000, 22, 4)).To(Succeed())

			Expect(mem.Read(emu.DefaultDataStart, 4, false)).To(Equal(int64(11)))
			Expect(mem.Read(emu.DefaultDataStart+4000, 4, false)).To(Equal(int64(22)))

			segs := mem.Segments()
			Expect(segs[0].Name).To(Equal("data"))
			Expect(len(segs[0].Data)).To(BeNumerically(">=", 4004))
		})

		It("should grow the stack window downward keeping addresses", func() {
			top := uint64(emu.DefaultSPInit) - 4
			Expect(mem.Write(top, 33, 4)).To(Succeed())
			Expect(mem.Write(0x7FFF0000, 44, 4)).To(Succeed())

			Expect(mem.Read(top, 4, false)).To(Equal(int64(33)))
			Expect(mem.Read(0x7FFF0000, 4, false)).To(Equal(int64(44)))

			stack := mem.Segments()[1]
			Expect(stack.Base).To(BeNumerically("<=", 0x7FFF0000))
			Expect(stack.Base + uint64(len(stack.Data))).To(Equal(emu.DefaultStackEnd))
		})

		It("should keep many scattered values", func() {
			for i := uint64(0); i < 64; i++ {
				Expect(mem.Write(emu.DefaultDataStart+i*64, int64(i), 4)).To(Succeed())
				Expect(mem.Write(0x7FFFFF00-i*64, int64(-i), 4)).To(Succeed())
			}
			for i := uint64(0); i < 64; i++ {
				Expect(mem.Read(emu.DefaultDataStart+i*64, 4, false)).To(Equal(int64(i)))
				Expect(mem.Read(0x7FFFFF00-i*64, 4, false)).To(Equal(-int64(i)))
			}
		})
	})

	DescribeTable("should round-trip the low bytes of a value through each width",
		func(op insts.Op, size int, value int64) {
			lsu := emu.NewLoadStoreUnit(mem)
			addr := emu.DefaultDataStart + 0x40

			Expect(lsu.Store(op, int64(addr), value)).To(Succeed())

			mod := int64(1) << (8 * size)
			want := ((value % mod) + mod) % mod
			Expect(mem.Read(addr, size, true)).To(Equal(want))
		},
		Entry("byte", insts.OpSB, 1, int64(0x1234)),
		Entry("negative byte", insts.OpSB, 1, int64(-2)),
		Entry("halfword", insts.OpSH, 2, int64(0x7_8001)),
		Entry("negative halfword", insts.OpSH, 2, int64(-0x8000)),
		Entry("word", insts.OpSW, 4, int64(0x1234_5678)),
		Entry("high-bit word", insts.OpSW, 4, int64(0xF000_0000)),
		Entry("negative word", insts.OpSW, 4, int64(-1)),
	)

	It("should read a high-bit word unsigned", func() {
		Expect(mem.Write(emu.DefaultDataStart, -0x1000_0000, 4)).To(Succeed())
		Expect(mem.Read(emu.DefaultDataStart, 4, true)).To(Equal(int64(0xF000_0000)))
	})

	Context("validation", func() {
		It("should reject addresses below the data segment", func() {
			_, err := mem.Read(emu.DefaultDataStart-4, 4, false)
			Expect(err).To(MatchError(emu.ErrRuntime))
			Expect(err).To(MatchError(ContainSubstring("points below the data segment")))
		})

		It("should reject addresses above the stack segment", func() {
			err := mem.Write(uint64(emu.DefaultSPInit), 1, 4)
			Expect(err).To(MatchError(ContainSubstring("points above the stack segment")))
		})

		It("should reject misaligned accesses", func() {
			_, err := mem.Read(emu.DefaultDataStart+2, 4, false)
			Expect(err).To(MatchError(ContainSubstring("is not 4-byte aligned")))

			Expect(mem.Write(emu.DefaultDataStart+1, 0, 2)).To(MatchError(emu.ErrRuntime))
			Expect(mem.Write(emu.DefaultDataStart+1, 0, 1)).To(Succeed())
		})

		It("should panic when a value does not fit its width", func() {
			Expect(func() { _ = mem.Write(emu.DefaultDataStart, 0x1FF, 1) }).To(Panic())
		})
	})
})

var _ = Describe("InstrMemory", func() {
	var imem *emu.InstrMemory

	BeforeEach(func() {
		imem = emu.NewInstrMemory(emu.DefaultTextStart)
	})

	It("should return written instructions", func() {
		add := insts.NewRRR(insts.OpADD, insts.RegT0, insts.RegT1, insts.RegT2, 4)
		Expect(imem.Write(emu.DefaultTextStart+8, add)).To(Succeed())

		Expect(imem.Read(emu.DefaultTextStart + 8)).To(Equal(add))
	})

	It("should return no-ops beyond the written program", func() {
		inst, err := imem.Read(emu.DefaultTextStart + 0x10000)
		Expect(err).NotTo(HaveOccurred())
		Expect(inst).To(Equal(insts.Nop()))
	})

	It("should grow and fill the gap with no-ops", func() {
		j := insts.NewI(insts.OpJ, int64(emu.DefaultTextStart), 2)
		Expect(imem.Write(emu.DefaultTextStart+400, j)).To(Succeed())

		Expect(imem.Len()).To(Equal(2 * 101))
		Expect(imem.Read(emu.DefaultTextStart + 396)).To(Equal(insts.Nop()))
		Expect(imem.Read(emu.DefaultTextStart + 400)).To(Equal(j))
	})

	It("should reject addresses below the text segment", func() {
		_, err := imem.Read(emu.DefaultTextStart - 4)
		Expect(err).To(MatchError(ContainSubstring("points below the text segment")))
	})

	It("should reject misaligned addresses", func() {
		_, err := imem.Read(emu.DefaultTextStart + 2)
		Expect(err).To(MatchError(ContainSubstring("is not 4-byte aligned")))
	})

	It("should reject addresses outside 32 bits", func() {
		err := imem.Write(1<<32, insts.Nop())
		Expect(err).To(MatchError(ContainSubstring("outside the 4 GiB address space")))
	})
})
