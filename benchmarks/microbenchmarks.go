package benchmarks

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// targets a single behavior of the pipeline.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		independentALU(),
		dependencyChain(),
		loadUse(),
		branchLoop(),
		jumpChain(),
		memoryCopy(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: straight
// line code, a loop and memory traffic.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		independentALU(),
		branchLoop(),
		memoryCopy(),
	}
}

// 1. Independent ALU - no hazards, CPI approaches 1
func independentALU() Benchmark {
	return Benchmark{
		Name:        "independent_alu",
		Description: "8 independent ADDIs - measures pipeline fill and peak throughput",
		Source: `
	.text
	.globl __start
__start:
	addi $t0, $zero, 1
	addi $t1, $zero, 2
	addi $t2, $zero, 3
	addi $t3, $zero, 4
	addi $t4, $zero, 5
	addi $t5, $zero, 6
	addi $t6, $zero, 7
	addi $t7, $zero, 8
	syscall
`,
		ResultRegister: "$t7",
		ExpectedResult: 8,
	}
}

// 2. Dependency Chain - every instruction consumes the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "9 dependent ADDIs ($t0 = $t0 + 1) - measures EX forwarding",
		Source: `
	.text
	.globl __start
__start:
	addi $t0, $zero, 1
	addi $t0, $t0, 1
	addi $t0, $t0, 1
	addi $t0, $t0, 1
	addi $t0, $t0, 1
	addi $t0, $t0, 1
	addi $t0, $t0, 1
	addi $t0, $t0, 1
	addi $t0, $t0, 1
	syscall
`,
		ResultRegister: "$t0",
		ExpectedResult: 9,
	}
}

// 3. Load-Use - each loaded value is consumed immediately
func loadUse() Benchmark {
	return Benchmark{
		Name:        "load_use",
		Description: "Sum of 4 words, each add right after its load - measures load-use stalls",
		Source: `
	.data
vals:	.word 1, 2, 3, 4

	.text
	.globl __start
__start:
	lui  $a0, 0x1000
	lw   $t0, 0($a0)
	add  $s0, $s0, $t0
	lw   $t0, 4($a0)
	add  $s0, $s0, $t0
	lw   $t0, 8($a0)
	add  $s0, $s0, $t0
	lw   $t0, 12($a0)
	add  $s0, $s0, $t0
	syscall
`,
		ResultRegister: "$s0",
		ExpectedResult: 10,
	}
}

// 4. Branch Loop - a taken BNE every iteration
func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "Counting loop summing 5..1 - measures taken-branch flushes",
		Source: `
	.text
	.globl __start
__start:
	addi $t0, $zero, 5
	add  $t1, $zero, $zero
loop:
	add  $t1, $t1, $t0
	addi $t0, $t0, -1
	bne  $t0, $zero, loop
	syscall
`,
		ResultRegister: "$t1",
		ExpectedResult: 15,
	}
}

// 5. Jump Chain - unconditional jumps resolved in decode
func jumpChain() Benchmark {
	return Benchmark{
		Name:        "jump_chain",
		Description: "3 jumps over poisoned slots - measures the decode-stage jump bubble",
		Source: `
	.text
	.globl __start
__start:
	j    first
	addi $t0, $zero, 99
first:
	addi $t0, $zero, 1
	j    second
	addi $t0, $zero, 99
second:
	addi $t0, $t0, 1
	j    third
	addi $t0, $zero, 99
third:
	addi $t0, $t0, 1
	syscall
`,
		ResultRegister: "$t0",
		ExpectedResult: 3,
	}
}

// 6. Memory Copy - loads and stores in a loop
func memoryCopy() Benchmark {
	return Benchmark{
		Name:        "memory_copy",
		Description: "Copies 4 words with LW/SW - mixes load-use stalls and branch flushes",
		Source: `
	.data
src:	.word 7, 11, 13, 17
dst:	.space 16

	.text
	.globl __start
__start:
	lui  $a0, 0x1000
	addi $a1, $a0, 16
	addi $t2, $zero, 4
copy:
	lw   $t0, 0($a0)
	sw   $t0, 0($a1)
	addi $a0, $a0, 4
	addi $a1, $a1, 4
	addi $t2, $t2, -1
	bne  $t2, $zero, copy
	lw   $v0, -4($a1)
	syscall
`,
		ResultRegister: "$v0",
		ExpectedResult: 17,
	}
}
