// Package loader links parsed assembly programs and places them into
// instruction and data memory.
package loader

import (
	"errors"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// Layout tells the linker where segments start and where execution begins.
type Layout struct {
	TextStart   uint64
	DataStart   uint64
	EntrySymbol string
}

// DefaultLayout returns the standard MIPS layout with "__start" as entry.
func DefaultLayout() Layout {
	return Layout{
		TextStart:   emu.DefaultTextStart,
		DataStart:   emu.DefaultDataStart,
		EntrySymbol: "__start",
	}
}

// Image describes a linked program that has been written into memory.
type Image struct {
	// Entry is the address of the entry symbol.
	Entry uint64

	// Symbols holds every label of the program.
	Symbols *SymbolTable

	// Instrs are the resolved instructions in address order.
	Instrs []insts.Instruction

	// TextEnd is the address after the last instruction.
	TextEnd uint64
}

// Load parses the program at path and links it.
func Load(
	path string,
	imem *emu.InstrMemory,
	dmem *emu.DataMemory,
	layout Layout,
) (*Image, error) {
	prog, err := asm.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Link(prog, imem, dmem, layout)
}

// Link resolves label operands and writes the program into memory.
// Loads and stores that name a label become absolute accesses through
// $zero; branches and jumps get the absolute address of their target.
// Every problem found is a static error.
func Link(
	prog *asm.Program,
	imem *emu.InstrMemory,
	dmem *emu.DataMemory,
	layout Layout,
) (*Image, error) {
	symbols, err := buildSymbolTable(prog, layout)
	if err != nil {
		return nil, err
	}

	entry, ok := symbols.Lookup(layout.EntrySymbol)
	if !ok {
		return nil, emu.StaticErrorf(
			"Program misses an entry point (should be labeled %q)", layout.EntrySymbol)
	}

	resolved, err := resolve(prog, symbols)
	if err != nil {
		return nil, err
	}

	for _, item := range prog.Data {
		addr := layout.DataStart + item.Offset
		if err := dmem.Write(addr, item.Value, item.Size); err != nil {
			return nil, emu.StaticErrorf("line %d: cannot place data: %v", item.Line, err)
		}
	}

	addr := layout.TextStart
	for _, inst := range resolved {
		if err := imem.Write(addr, inst); err != nil {
			return nil, emu.StaticErrorf("%s: cannot place instruction: %v", inst.LineString(), err)
		}
		addr += 4
	}

	return &Image{
		Entry:   entry,
		Symbols: symbols,
		Instrs:  resolved,
		TextEnd: addr,
	}, nil
}

func buildSymbolTable(prog *asm.Program, layout Layout) (*SymbolTable, error) {
	symbols := NewSymbolTable()
	for _, def := range prog.Labels {
		addr := layout.TextStart + 4*def.Offset
		if def.Section == asm.SectionData {
			addr = layout.DataStart + def.Offset
		}
		if err := symbols.Add(def.Name, addr); err != nil {
			return nil, err
		}
	}
	return symbols, nil
}

func resolve(prog *asm.Program, symbols *SymbolTable) ([]insts.Instruction, error) {
	var errs []error
	resolved := make([]insts.Instruction, 0, len(prog.Instrs))

	for _, pi := range prog.Instrs {
		inst := pi.Inst
		if pi.Label != "" {
			addr, ok := symbols.Lookup(pi.Label)
			if !ok {
				errs = append(errs, emu.StaticErrorf(
					"%s: undefined label %q", inst.LineString(), pi.Label))
				continue
			}

			inst = inst.WithImm(int64(addr))
			if insts.IsLoad(inst.Op) || insts.IsStore(inst.Op) {
				inst = inst.WithRs(insts.RegZero)
			}
		}
		resolved = append(resolved, inst)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return resolved, nil
}
