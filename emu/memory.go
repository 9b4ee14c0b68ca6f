package emu

import (
	"encoding/binary"
	"fmt"
)

// Default data memory layout.
const (
	DefaultDataStart uint64 = 0x10000000
	// DefaultStackEnd is the exclusive upper bound of the stack segment.
	DefaultStackEnd uint64 = 0x7FFFFFFF
)

const initialSegmentSize = 10

// segment is a contiguous window of backed bytes starting at base.
type segment struct {
	base uint64
	buf  []byte
}

func (s *segment) end() uint64 {
	return s.base + uint64(len(s.buf))
}

func (s *segment) covers(addr, size uint64) bool {
	return addr >= s.base && addr+size <= s.end()
}

func (s *segment) coversByte(addr uint64) bool {
	return addr >= s.base && addr < s.end()
}

// Segment is a read-only view of one backed window of data memory.
type Segment struct {
	Name string
	Base uint64
	Data []byte
}

// DataMemory is the byte-addressable data memory. It backs two windows: the
// data window grows upward from the start of the data segment and the stack
// window grows downward from the end of the stack segment. Growth doubles
// the affected window so that a run of accesses costs amortized O(1).
type DataMemory struct {
	dataStart uint64
	stackEnd  uint64
	order     binary.ByteOrder

	data  segment
	stack segment
}

// NewDataMemory creates a data memory covering [dataStart, stackEnd). All
// multi-byte values are encoded with order.
func NewDataMemory(dataStart, stackEnd uint64, order binary.ByteOrder) *DataMemory {
	if stackEnd <= dataStart+2*initialSegmentSize {
		panic(fmt.Sprintf("emu: stack end 0x%x too close to data start 0x%x",
			stackEnd, dataStart))
	}

	return &DataMemory{
		dataStart: dataStart,
		stackEnd:  stackEnd,
		order:     order,
		data: segment{
			base: dataStart,
			buf:  make([]byte, initialSegmentSize),
		},
		stack: segment{
			base: stackEnd - initialSegmentSize,
			buf:  make([]byte, initialSegmentSize),
		},
	}
}

// ByteOrder returns the byte order used to encode multi-byte values.
func (m *DataMemory) ByteOrder() binary.ByteOrder {
	return m.order
}

// Segments returns copies of the data and stack windows.
func (m *DataMemory) Segments() []Segment {
	return []Segment{
		{Name: "data", Base: m.data.base, Data: append([]byte(nil), m.data.buf...)},
		{Name: "stack", Base: m.stack.base, Data: append([]byte(nil), m.stack.buf...)},
	}
}

func (m *DataMemory) validate(addr, size uint64) error {
	switch size {
	case 1, 2, 4:
	default:
		panic(fmt.Sprintf("emu: invalid access size %d", size))
	}

	if addr < m.dataStart {
		return RuntimeErrorf("The address 0x%x points below the data segment", addr)
	}
	if addr+size >= m.stackEnd {
		return RuntimeErrorf("The address 0x%x points above the stack segment", addr)
	}
	if addr%size != 0 {
		return RuntimeErrorf("Address 0x%x is not %d-byte aligned", addr, size)
	}
	return nil
}

// ensure grows one of the two windows so that [addr, addr+size) is backed.
// The window that needs the smaller extension grows; ties go to data.
func (m *DataMemory) ensure(addr, size uint64) {
	if m.data.covers(addr, size) || m.stack.covers(addr, size) {
		return
	}

	limit := m.stackEnd - m.dataStart
	dataIncr := addr + size - m.data.end()
	stackIncr := m.stack.base - addr

	if dataIncr <= stackIncr {
		newLen := min(2*(uint64(len(m.data.buf))+dataIncr), limit)
		grown := make([]byte, newLen)
		copy(grown, m.data.buf)
		m.data.buf = grown
		return
	}

	oldLen := uint64(len(m.stack.buf))
	newLen := min(2*(oldLen+stackIncr), limit)
	grown := make([]byte, newLen)
	copy(grown[newLen-oldLen:], m.stack.buf)
	m.stack.buf = grown
	m.stack.base = m.stackEnd - newLen
}

// window returns the backing bytes of [addr, addr+size) when one window
// covers the whole range. The data window wins when both do.
func (m *DataMemory) window(addr, size uint64) []byte {
	if m.data.covers(addr, size) {
		off := addr - m.data.base
		return m.data.buf[off : off+size]
	}
	if m.stack.covers(addr, size) {
		off := addr - m.stack.base
		return m.stack.buf[off : off+size]
	}
	return nil
}

func (m *DataMemory) byteAt(addr uint64) byte {
	switch {
	case m.data.coversByte(addr):
		return m.data.buf[addr-m.data.base]
	case m.stack.coversByte(addr):
		return m.stack.buf[addr-m.stack.base]
	default:
		return 0
	}
}

// Read loads size bytes at addr. Signed reads sign-extend from the top bit
// of the accessed width and unsigned reads zero-extend. Bytes that were
// never written read as 0.
func (m *DataMemory) Read(addr uint64, size int, unsigned bool) (int64, error) {
	n := uint64(size)
	if err := m.validate(addr, n); err != nil {
		return 0, err
	}

	raw := m.window(addr, n)
	if raw == nil {
		raw = make([]byte, n)
		for i := range raw {
			raw[i] = m.byteAt(addr + uint64(i))
		}
	}

	switch size {
	case 4:
		v := m.order.Uint32(raw)
		if unsigned {
			return int64(v), nil
		}
		return int64(int32(v)), nil
	case 2:
		v := m.order.Uint16(raw)
		if unsigned {
			return int64(v), nil
		}
		return int64(int16(v)), nil
	default:
		if unsigned {
			return int64(raw[0]), nil
		}
		return int64(int8(raw[0])), nil
	}
}

// Write stores the low size bytes of value at addr, growing the backing
// windows as needed. The bits of value above the accessed width must be a
// pure sign or zero extension.
func (m *DataMemory) Write(addr uint64, value int64, size int) error {
	n := uint64(size)
	if err := m.validate(addr, n); err != nil {
		return err
	}

	if high := value >> (8 * n); high != 0 && high != -1 {
		panic(fmt.Sprintf("emu: value %d does not fit in %d bytes", value, size))
	}

	m.ensure(addr, n)
	raw := m.window(addr, n)

	switch size {
	case 4:
		m.order.PutUint32(raw, uint32(value))
	case 2:
		m.order.PutUint16(raw, uint16(value))
	default:
		raw[0] = byte(value)
	}
	return nil
}
