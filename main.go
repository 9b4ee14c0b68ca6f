// Package main provides the entry point for mipsim.
// mipsim is a cycle-accurate 5-stage MIPS pipeline simulator.
//
// For the full CLI, use: go run ./cmd/mipsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mipsim - 5-stage MIPS Pipeline Simulator")
	fmt.Println("")
	fmt.Println("Usage: mipsim [options] <program.s>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to simulation configuration JSON file")
	fmt.Println("  -o           Path of the HTML trace (default: <program>.html)")
	fmt.Println("  -no-trace    Do not write the HTML trace")
	fmt.Println("  -dump        Pretty-print the final machine state")
	fmt.Println("  -max-cycles  Stop after this many cycles")
	fmt.Println("  -v           Log verbosity")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mipsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mipsim' instead.")
	}
}
