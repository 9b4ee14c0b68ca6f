// Package main provides the entry point for mipsim.
// mipsim runs a MIPS assembly program on a cycle-accurate 5-stage pipeline
// and writes an HTML trace of every cycle.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/k0kubun/pp/v3"
	"github.com/mattn/go-isatty"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/timing/core"
	"github.com/sarchlab/mipsim/trace"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	tracePath  string
	noTrace    bool
	verbosity  int
	dump       bool
	maxCycles  uint64
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	fs := flag.NewFlagSet("mipsim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "Path to simulation configuration JSON file")
	fs.StringVar(&opts.tracePath, "o", "", "Path of the HTML trace (default: <program>.html)")
	fs.BoolVar(&opts.noTrace, "no-trace", false, "Do not write the HTML trace")
	fs.IntVar(&opts.verbosity, "v", 0, "Log verbosity (1: run summary, 2: hazards)")
	fs.BoolVar(&opts.dump, "dump", false, "Pretty-print the final machine state")
	fs.Uint64Var(&opts.maxCycles, "max-cycles", 0, "Stop after this many cycles (0: use config)")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: mipsim [options] <program.s>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return opts, fs.Args(), nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		return 1
	}
	if len(rest) != 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: mipsim [options] <program.s>\n")
		return 1
	}
	programPath := rest[0]

	logger := newLogger(stderr, opts.verbosity)

	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return 1
		}
	}
	if opts.maxCycles > 0 {
		cfg.MaxCycles = opts.maxCycles
	}

	prog, err := asm.ParseFile(programPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Could not load %s: %v\n", programPath, err)
		return 1
	}

	c, err := core.Build(prog, cfg, core.WithLogger(logger))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Could not load %s: %v\n", programPath, err)
		return 1
	}

	var tw *trace.HTMLWriter
	if !opts.noTrace {
		path := opts.tracePath
		if path == "" {
			path = defaultTracePath(programPath)
		}

		tw, err = trace.CreateHTMLFile(path)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		tw.Begin()
		c.AddObserver(tw)
		logger.V(1).Info("tracing", "path", path)
	}

	stats, runErr := c.Run()

	if tw != nil {
		if err := tw.End(stats); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error writing trace: %v\n", err)
			runErr = errors.Join(runErr, err)
		}
	}

	if opts.dump {
		dumpState(stdout, c)
	}

	if runErr != nil {
		_, _ = fmt.Fprintf(stderr, "Error after %d cycles: %v\n", stats.Cycles, runErr)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "Number of cycles: %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(stdout, "Number of retired instructions: %d\n", stats.Instructions)
	_, _ = fmt.Fprintf(stdout, "Average CPI: %f\n", stats.CPI())

	return 0
}

// defaultTracePath replaces the extension of the program with ".html".
func defaultTracePath(programPath string) string {
	return strings.TrimSuffix(programPath, filepath.Ext(programPath)) + ".html"
}

func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}

// finalState is what -dump prints.
type finalState struct {
	Cycles    uint64
	Retired   uint64
	PC        string
	Registers map[string]int64
	Memory    []emu.Segment
}

func dumpState(w io.Writer, c *core.Core) {
	stats := c.Stats()
	regs := c.RegFile().Snapshot()

	state := finalState{
		Cycles:    stats.Cycles,
		Retired:   stats.Instructions,
		PC:        fmt.Sprintf("0x%08X", c.Pipeline.PC()),
		Registers: make(map[string]int64),
		Memory:    c.DataMemory().Segments(),
	}
	for i, v := range regs {
		if v != 0 {
			state.Registers[insts.Reg(i).String()] = v
		}
	}

	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(isTerminal(w))
	_, _ = printer.Println(state)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
