// Package config holds the simulation configuration: memory layout, initial
// register values, byte order, clock frequency and run limits.
package config

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mipsim/emu"
)

// Byte orders accepted in the byte_order field.
const (
	BigEndian    = "big"
	LittleEndian = "little"
)

// DefaultEntrySymbol is the label execution starts at.
const DefaultEntrySymbol = "__start"

// Config holds the parameters of one simulation.
type Config struct {
	// TextSegmentStart is the address of the first instruction slot.
	TextSegmentStart uint64 `json:"text_segment_start"`

	// DataSegmentStart is the lowest valid data address.
	DataSegmentStart uint64 `json:"data_segment_start"`

	// StackSegmentEnd is the exclusive upper bound of the stack segment.
	StackSegmentEnd uint64 `json:"stack_segment_end"`

	// GPInit and SPInit are the initial values of $gp and $sp.
	GPInit int64 `json:"gp_init"`
	SPInit int64 `json:"sp_init"`

	// ByteOrder is "big" or "little". Default: big.
	ByteOrder string `json:"byte_order"`

	// EntrySymbol names the label where execution starts.
	EntrySymbol string `json:"entry_symbol"`

	// MaxCycles stops a run that does not reach its syscall. 0 means no
	// limit.
	MaxCycles uint64 `json:"max_cycles"`

	// ClockFrequency converts cycle counts into simulated time.
	// Default: 1 GHz.
	ClockFrequency sim.Freq `json:"clock_frequency"`
}

// DefaultConfig returns the standard MIPS memory layout.
func DefaultConfig() *Config {
	return &Config{
		TextSegmentStart: emu.DefaultTextStart,
		DataSegmentStart: emu.DefaultDataStart,
		StackSegmentEnd:  emu.DefaultStackEnd,
		GPInit:           emu.DefaultGPInit,
		SPInit:           emu.DefaultSPInit,
		ByteOrder:        BigEndian,
		EntrySymbol:      DefaultEntrySymbol,
		MaxCycles:        0,
		ClockFrequency:   1 * sim.GHz,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the layout is consistent.
func (c *Config) Validate() error {
	if c.TextSegmentStart%4 != 0 {
		return fmt.Errorf("text_segment_start must be 4-byte aligned")
	}
	if c.TextSegmentStart >= 1<<32 {
		return fmt.Errorf("text_segment_start must be below 4 GiB")
	}
	if c.DataSegmentStart%4 != 0 {
		return fmt.Errorf("data_segment_start must be 4-byte aligned")
	}
	if c.StackSegmentEnd > 1<<32 {
		return fmt.Errorf("stack_segment_end must not exceed 4 GiB")
	}
	if c.StackSegmentEnd <= c.DataSegmentStart+64 {
		return fmt.Errorf("stack_segment_end must be above data_segment_start")
	}
	if !emu.FitsInRegister(c.GPInit) || !emu.FitsInRegister(c.SPInit) {
		return fmt.Errorf("gp_init and sp_init must fit in 32 bits")
	}
	if _, err := c.Order(); err != nil {
		return err
	}
	if c.EntrySymbol == "" {
		return fmt.Errorf("entry_symbol must not be empty")
	}
	if c.ClockFrequency <= 0 {
		return fmt.Errorf("clock_frequency must be > 0")
	}
	return nil
}

// Order returns the configured byte order.
func (c *Config) Order() (binary.ByteOrder, error) {
	switch c.ByteOrder {
	case BigEndian, "":
		return binary.BigEndian, nil
	case LittleEndian:
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("byte_order must be %q or %q, got %q",
			BigEndian, LittleEndian, c.ByteOrder)
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
