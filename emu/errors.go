// Package emu provides the architectural state of the MIPS machine and a
// functional reference emulator.
package emu

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced while loading or running a program
// wraps exactly one of them, so callers classify with errors.Is.
var (
	// ErrStatic is raised before execution starts: syntax errors, undefined
	// labels, a missing entry point.
	ErrStatic = errors.New("Static MIPS error")

	// ErrRuntime is raised while the program executes: arithmetic out of
	// range, bad register numbers, invalid or misaligned addresses.
	ErrRuntime = errors.New("MIPS runtime error")
)

// StaticErrorf formats a static error.
func StaticErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStatic, fmt.Sprintf(format, args...))
}

// RuntimeErrorf formats a runtime error.
func RuntimeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRuntime, fmt.Sprintf(format, args...))
}

// IsStatic reports whether err is a static error.
func IsStatic(err error) bool {
	return errors.Is(err, ErrStatic)
}

// IsRuntime reports whether err is a runtime error.
func IsRuntime(err error) bool {
	return errors.Is(err, ErrRuntime)
}
