package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/loader"
)

const linkedProgram = `
        .data
count:  .word 3
bytes:  .byte 1, 2
        .text
__start:
        lw   $t0, count
        sb   $t0, bytes
loop:   addi $t0, $t0, -1
        bne  $t0, $zero, loop
        j    done
done:   syscall
`

var _ = Describe("Loader", func() {
	var (
		imem   *emu.InstrMemory
		dmem   *emu.DataMemory
		layout loader.Layout
	)

	BeforeEach(func() {
		imem = emu.NewInstrMemory(emu.DefaultTextStart)
		dmem = emu.NewDataMemory(emu.DefaultDataStart, emu.DefaultStackEnd, binary.BigEndian)
		layout = loader.DefaultLayout()
	})

	link := func(src string) (*loader.Image, error) {
		prog, err := asm.ParseString(src)
		Expect(err).NotTo(HaveOccurred())
		return loader.Link(prog, imem, dmem, layout)
	}

	Describe("Link", func() {
		It("should assign addresses to text and data labels", func() {
			img, err := link(linkedProgram)
			Expect(err).NotTo(HaveOccurred())

			Expect(img.Entry).To(Equal(uint64(0x00400000)))

			addr, ok := img.Symbols.Lookup("loop")
			Expect(ok).To(BeTrue())
			Expect(addr).To(Equal(uint64(0x00400008)))

			addr, _ = img.Symbols.Lookup("bytes")
			Expect(addr).To(Equal(uint64(0x10000004)))

			Expect(img.Symbols.Names()).To(Equal([]string{
				"__start", "loop", "done", "count", "bytes",
			}))
			Expect(img.TextEnd).To(Equal(uint64(0x00400018)))
		})

		It("should turn label memory operands into absolute accesses", func() {
			img, err := link(linkedProgram)
			Expect(err).NotTo(HaveOccurred())

			lw := img.Instrs[0]
			Expect(lw.Rs).To(Equal(insts.RegZero))
			Expect(lw.Imm).To(Equal(int64(0x10000000)))
			Expect(img.Instrs[1].Imm).To(Equal(int64(0x10000004)))
		})

		It("should resolve branch and jump targets to addresses", func() {
			img, err := link(linkedProgram)
			Expect(err).NotTo(HaveOccurred())

			Expect(img.Instrs[3].String()).To(Equal("bne $t0, $zero, 400008"))
			Expect(img.Instrs[4].String()).To(Equal("j 400014"))
		})

		It("should write instructions into instruction memory", func() {
			img, err := link(linkedProgram)
			Expect(err).NotTo(HaveOccurred())

			for i, want := range img.Instrs {
				got, err := imem.Read(emu.DefaultTextStart + 4*uint64(i))
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			}

			after, err := imem.Read(img.TextEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.IsNop()).To(BeTrue())
		})

		It("should initialize the data segment", func() {
			_, err := link(linkedProgram)
			Expect(err).NotTo(HaveOccurred())

			Expect(dmem.Read(0x10000000, 4, false)).To(Equal(int64(3)))
			Expect(dmem.Read(0x10000005, 1, true)).To(Equal(int64(2)))
		})

		It("should honor a custom layout", func() {
			layout.TextStart = 0x1000
			layout.EntrySymbol = "main"
			imem = emu.NewInstrMemory(0x1000)

			img, err := link("nop\nmain: syscall\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Entry).To(Equal(uint64(0x1004)))
		})

		It("should require an entry point", func() {
			_, err := link("main: syscall")

			Expect(emu.IsStatic(err)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring(`should be labeled "__start"`)))
		})

		It("should report every undefined label", func() {
			_, err := link("__start: j nowhere\nbeq $t0, $t1, elsewhere\n")

			Expect(emu.IsStatic(err)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring(`line 1: undefined label "nowhere"`)))
			Expect(err).To(MatchError(ContainSubstring(`line 2: undefined label "elsewhere"`)))
		})
	})

	Describe("Load", func() {
		It("should parse and link a file", func() {
			dir, err := os.MkdirTemp("", "loader-test")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = os.RemoveAll(dir) }()

			path := filepath.Join(dir, "prog.s")
			Expect(os.WriteFile(path, []byte(linkedProgram), 0644)).To(Succeed())

			img, err := loader.Load(path, imem, dmem, layout)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Instrs).To(HaveLen(6))
		})

		It("should pass parse errors through", func() {
			dir, err := os.MkdirTemp("", "loader-test")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = os.RemoveAll(dir) }()

			path := filepath.Join(dir, "bad.s")
			Expect(os.WriteFile(path, []byte("__start: frob\n"), 0644)).To(Succeed())

			_, err = loader.Load(path, imem, dmem, layout)
			Expect(emu.IsStatic(err)).To(BeTrue())
		})
	})
})

var _ = Describe("SymbolTable", func() {
	It("should reject duplicate names", func() {
		t := loader.NewSymbolTable()

		Expect(t.Add("x", 4)).To(Succeed())
		err := t.Add("x", 8)
		Expect(emu.IsStatic(err)).To(BeTrue())

		addr, _ := t.Lookup("x")
		Expect(addr).To(Equal(uint64(4)))
		Expect(t.Has("x")).To(BeTrue())
		Expect(t.Has("y")).To(BeFalse())
		Expect(t.Len()).To(Equal(1))
	})

	It("should list names by address", func() {
		t := loader.NewSymbolTable()
		Expect(t.Add("b", 8)).To(Succeed())
		Expect(t.Add("c", 4)).To(Succeed())
		Expect(t.Add("a", 8)).To(Succeed())

		Expect(t.Names()).To(Equal([]string{"c", "a", "b"}))
	})
})
