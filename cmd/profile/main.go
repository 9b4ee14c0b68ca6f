// Package main provides a profiling wrapper for mipsim to identify
// performance bottlenecks in the simulator itself.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/loader"
	"github.com/sarchlab/mipsim/timing/core"
)

var (
	timing      = flag.Bool("timing", true, "Profile the pipeline model (false: functional emulator)")
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 1000000, "max instructions (cycles in timing mode) to execute (0 = unlimited)")
	repeat      = flag.Int("repeat", 1, "number of times to run the program")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := asm.ParseFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Instructions: %d, data bytes: %d\n", len(prog.Instrs), prog.DataSize)

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	var (
		instrCount uint64
		cycles     uint64
		runErr     error
	)

	for i := 0; i < *repeat; i++ {
		var n, c uint64
		if *timing {
			n, c, runErr = runTimingProfile(prog)
		} else {
			n, runErr = runEmulationProfile(prog)
		}
		instrCount += n
		cycles += c
		if runErr != nil {
			break
		}
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	if runErr != nil {
		fmt.Printf("Stopped: %v\n", runErr)
	}
	fmt.Printf("Instructions executed: %d\n", instrCount)
	if *timing {
		fmt.Printf("Cycles simulated: %d\n", cycles)
	}
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
	if cycles > 0 {
		fmt.Printf("Cycles/second: %.0f\n", float64(cycles)/elapsed.Seconds())
	}
}

// runEmulationProfile runs the program on the functional emulator.
func runEmulationProfile(prog *asm.Program) (uint64, error) {
	cfg := config.DefaultConfig()
	order, err := cfg.Order()
	if err != nil {
		return 0, err
	}

	regFile := emu.NewRegFile(cfg.GPInit, cfg.SPInit)
	imem := emu.NewInstrMemory(cfg.TextSegmentStart)
	dmem := emu.NewDataMemory(cfg.DataSegmentStart, cfg.StackSegmentEnd, order)

	image, err := loader.Link(prog, imem, dmem, loader.DefaultLayout())
	if err != nil {
		return 0, err
	}

	emulator := emu.NewEmulator(regFile, imem, dmem, emu.WithMaxInstructions(*instruction))
	emulator.SetPC(image.Entry)

	err = emulator.Run()
	return emulator.InstructionCount(), err
}

// runTimingProfile runs the program on the pipeline model.
func runTimingProfile(prog *asm.Program) (uint64, uint64, error) {
	cfg := config.DefaultConfig()
	cfg.MaxCycles = *instruction

	c, err := core.Build(prog, cfg)
	if err != nil {
		return 0, 0, err
	}

	stats, err := c.Run()
	if errors.Is(err, core.ErrMaxCycles) {
		fmt.Printf("Cycle limit of %d reached\n", *instruction)
	}
	return stats.Instructions, stats.Cycles, err
}
