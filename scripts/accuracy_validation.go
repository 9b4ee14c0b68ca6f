// Package main provides accuracy validation for the pipeline model.
// Ensures that hazard handling preserves the architectural results of the
// functional emulator.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/benchmarks"
	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/loader"
	"github.com/sarchlab/mipsim/timing/core"
)

type machineState struct {
	regs     [insts.NumRegs]int64
	segments []emu.Segment
}

func runFunctional(prog *asm.Program, cfg *config.Config) (machineState, error) {
	order, err := cfg.Order()
	if err != nil {
		return machineState{}, err
	}

	regFile := emu.NewRegFile(cfg.GPInit, cfg.SPInit)
	imem := emu.NewInstrMemory(cfg.TextSegmentStart)
	dmem := emu.NewDataMemory(cfg.DataSegmentStart, cfg.StackSegmentEnd, order)

	image, err := loader.Link(prog, imem, dmem, loader.Layout{
		TextStart:   cfg.TextSegmentStart,
		DataStart:   cfg.DataSegmentStart,
		EntrySymbol: cfg.EntrySymbol,
	})
	if err != nil {
		return machineState{}, err
	}

	emulator := emu.NewEmulator(regFile, imem, dmem, emu.WithMaxInstructions(cfg.MaxCycles))
	emulator.SetPC(image.Entry)
	if err := emulator.Run(); err != nil {
		return machineState{}, err
	}

	return machineState{regs: regFile.Snapshot(), segments: dmem.Segments()}, nil
}

func runPipelined(prog *asm.Program, cfg *config.Config) (machineState, core.Stats, error) {
	c, err := core.Build(prog, cfg)
	if err != nil {
		return machineState{}, core.Stats{}, err
	}

	stats, err := c.Run()
	if err != nil {
		return machineState{}, stats, err
	}

	return machineState{
		regs:     c.RegFile().Snapshot(),
		segments: c.DataMemory().Segments(),
	}, stats, nil
}

func compare(functional, pipelined machineState) error {
	for i := range functional.regs {
		if functional.regs[i] != pipelined.regs[i] {
			return fmt.Errorf("%s: functional %d, pipelined %d",
				insts.Reg(i), functional.regs[i], pipelined.regs[i])
		}
	}

	if len(functional.segments) != len(pipelined.segments) {
		return fmt.Errorf("segment count differs: %d vs %d",
			len(functional.segments), len(pipelined.segments))
	}
	for i, seg := range functional.segments {
		other := pipelined.segments[i]
		if seg.Base != other.Base || !bytes.Equal(seg.Data, other.Data) {
			return fmt.Errorf("%s segment differs", seg.Name)
		}
	}

	return nil
}

// validateBenchmark runs one benchmark through both models.
func validateBenchmark(b benchmarks.Benchmark, cfg *config.Config) bool {
	prog, err := asm.ParseString(b.Source)
	if err != nil {
		fmt.Printf("❌ %s: %v\n", b.Name, err)
		return false
	}

	functional, err := runFunctional(prog, cfg)
	if err != nil {
		fmt.Printf("❌ %s: functional run failed: %v\n", b.Name, err)
		return false
	}

	pipelined, stats, err := runPipelined(prog, cfg)
	if err != nil {
		fmt.Printf("❌ %s: pipelined run failed: %v\n", b.Name, err)
		return false
	}

	if err := compare(functional, pipelined); err != nil {
		fmt.Printf("❌ %s: %v\n", b.Name, err)
		return false
	}

	fmt.Printf("✅ %s: state matches (cycles=%d, stalls=%d, flushes=%d, forwards=%d)\n",
		b.Name, stats.Cycles, stats.Stalls, stats.Flushes, stats.Forwards)
	return true
}

func main() {
	fmt.Println("mipsim Accuracy Validation - Pipeline vs Functional Emulator")
	fmt.Println("=============================================================")

	allPassed := true

	for _, order := range []string{config.BigEndian, config.LittleEndian} {
		cfg := config.DefaultConfig()
		cfg.ByteOrder = order
		cfg.MaxCycles = 1_000_000

		fmt.Printf("\nByte order: %s\n", order)
		for _, b := range benchmarks.GetMicrobenchmarks() {
			if !validateBenchmark(b, cfg) {
				allPassed = false
			}
		}
	}

	fmt.Println("")
	if !allPassed {
		fmt.Println("❌ Validation FAILED")
		os.Exit(1)
	}
	fmt.Println("✅ All validations passed")
}
