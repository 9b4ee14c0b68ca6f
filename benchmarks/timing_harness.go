// Package benchmarks provides the timing benchmark harness for the pipeline
// model.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/timing/core"
)

// Version is reported in JSON output.
const Version = "0.3.0"

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction, 0 when nothing retired
	CPI float64 `json:"cpi"`

	// StallCycles is the number of load-use stall cycles
	StallCycles uint64 `json:"stall_cycles"`

	// PipelineFlushes is the number of taken branches
	PipelineFlushes uint64 `json:"pipeline_flushes"`

	// Jumps is the number of jumps resolved in decode
	Jumps uint64 `json:"jumps"`

	// Forwards is the number of cycles an operand bypassed the register file
	Forwards uint64 `json:"forwards"`

	// SimulatedTime is the run time at the configured clock, in seconds
	SimulatedTime float64 `json:"simulated_time_s"`

	// Result is the final value of the benchmark's result register
	Result int64 `json:"result"`

	// Passed is set when the run finished and Result matched the expectation
	Passed bool `json:"passed"`

	// Error describes a failed run
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Source is the assembly program
	Source string

	// ResultRegister names the register that holds the answer
	ResultRegister string

	// ExpectedResult is the value ResultRegister must hold after the run
	ExpectedResult int64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Sim is the simulation configuration every benchmark runs with
	Sim *config.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives core and pipeline logs
	Logger logr.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	sim := config.DefaultConfig()
	sim.MaxCycles = 1_000_000

	return HarnessConfig{
		Sim:     sim,
		Output:  os.Stdout,
		Logger:  logr.Discard(),
		Verbose: false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Sim == nil {
		config.Sim = DefaultConfig().Sim
	}
	if config.Logger.GetSink() == nil {
		config.Logger = logr.Discard()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh core.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	logger := h.config.Logger.WithValues("benchmark", bench.Name)

	prog, err := asm.ParseString(bench.Source)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	c, err := core.Build(prog, h.config.Sim, core.WithLogger(logger))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	stats, runErr := c.Run()
	result.WallTime = time.Since(start)

	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.StallCycles = stats.Stalls
	result.PipelineFlushes = stats.Flushes
	result.Jumps = stats.Jumps
	result.Forwards = stats.Forwards
	result.SimulatedTime = stats.SimulatedTime()
	if stats.Instructions > 0 {
		result.CPI = stats.CPI()
	}

	if runErr != nil {
		result.Error = runErr.Error()
		return result
	}

	reg, err := insts.RegByName(bench.ResultRegister)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Result, _ = c.RegFile().Read(reg)
	result.Passed = result.Result == bench.ExpectedResult
	if !result.Passed {
		result.Error = fmt.Sprintf("%s = %d, expected %d",
			bench.ResultRegister, result.Result, bench.ExpectedResult)
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== MIPS Pipeline Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Passed {
			_, _ = fmt.Fprintf(h.config.Output, "  Result: %d (ok)\n", r.Result)
		} else {
			_, _ = fmt.Fprintf(h.config.Output, "  Result: FAILED (%s)\n", r.Error)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Pipeline Flushes:     %d\n", r.PipelineFlushes)
		_, _ = fmt.Fprintf(h.config.Output, "  Jumps:                %d\n", r.Jumps)
		_, _ = fmt.Fprintf(h.config.Output, "  Forwards:             %d\n", r.Forwards)

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "  Simulated Time: %.3g s\n", r.SimulatedTime)
			_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		}
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,flushes,jumps,forwards,result,passed")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.PipelineFlushes,
			r.Jumps,
			r.Forwards,
			r.Result,
			r.Passed,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Config is the simulation configuration used
	Config *config.Config `json:"config"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Passed is the number of benchmarks that produced the expected result
	Passed int `json:"passed"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
		if r.Passed {
			summary.Passed++
		}
	}

	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config:    h.config.Sim,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
