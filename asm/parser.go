package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// Section identifies the segment a label or item belongs to.
type Section uint8

// Sections.
const (
	SectionText Section = iota
	SectionData
)

func (s Section) String() string {
	if s == SectionData {
		return ".data"
	}
	return ".text"
}

// LabelDef is a label definition. Offset is an instruction index for text
// labels and a byte offset from the start of the data segment for data
// labels.
type LabelDef struct {
	Name    string
	Section Section
	Offset  uint64
	Line    int
}

// ParsedInstr is an instruction whose label operand, if any, is not yet
// resolved to an address.
type ParsedInstr struct {
	// Label is the label operand, empty when the instruction has none.
	Label string

	// Inst is the parsed instruction.
	Inst insts.Instruction
}

// DataItem is one value emitted by a .byte, .half or .word directive.
type DataItem struct {
	Offset uint64
	Size   int
	Value  int64
	Line   int
}

// Program is the result of parsing a source file.
type Program struct {
	Instrs  []ParsedInstr
	Data    []DataItem
	Labels  []LabelDef
	Globals []string

	// DataSize is the number of bytes reserved in the data segment.
	DataSize uint64
}

type parser struct {
	prog       *Program
	section    Section
	line       int
	dataOffset uint64

	// Data labels bind to the next item after alignment.
	pendingData []LabelDef
	defined     map[string]int

	errs []error
}

// ParseFile parses the assembly program stored at path.
func ParseFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// ParseString parses an assembly program held in memory.
func ParseString(src string) (*Program, error) {
	return Parse(strings.NewReader(src))
}

// Parse reads an assembly program. All syntax errors are reported together;
// each wraps emu.ErrStatic and names its line.
func Parse(r io.Reader) (*Program, error) {
	p := &parser{
		prog:    &Program{},
		section: SectionText,
		defined: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			p.errs = append(p.errs, emu.StaticErrorf("line %d: %v", p.line, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}

	p.bindPendingData(p.dataOffset)
	p.prog.DataSize = p.dataOffset

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return p.prog, nil
}

func (p *parser) parseLine(text string) error {
	toks, err := lexLine(text)
	if err != nil {
		return err
	}

	for len(toks) >= 2 && toks[0].kind == tokIdent && toks[1].kind == tokColon {
		if err := p.defineLabel(toks[0].text); err != nil {
			return err
		}
		toks = toks[2:]
	}

	if len(toks) == 0 {
		return nil
	}

	switch toks[0].kind {
	case tokDirective:
		return p.parseDirective(toks[0].text, &operands{toks: toks[1:]})
	case tokIdent:
		return p.parseInstruction(toks[0].text, &operands{toks: toks[1:]})
	default:
		return fmt.Errorf("unexpected %s %q", toks[0].kind, toks[0].text)
	}
}

func (p *parser) defineLabel(name string) error {
	if line, ok := p.defined[name]; ok {
		return fmt.Errorf("label %q already defined on line %d", name, line)
	}
	p.defined[name] = p.line

	def := LabelDef{Name: name, Section: p.section, Line: p.line}
	if p.section == SectionData {
		p.pendingData = append(p.pendingData, def)
		return nil
	}

	def.Offset = uint64(len(p.prog.Instrs))
	p.prog.Labels = append(p.prog.Labels, def)
	return nil
}

func (p *parser) bindPendingData(offset uint64) {
	for _, def := range p.pendingData {
		def.Offset = offset
		p.prog.Labels = append(p.prog.Labels, def)
	}
	p.pendingData = p.pendingData[:0]
}

func (p *parser) parseDirective(name string, o *operands) error {
	switch name {
	case ".text":
		p.bindPendingData(p.dataOffset)
		p.section = SectionText
	case ".data":
		p.section = SectionData
	case ".globl":
		sym, err := o.ident()
		if err != nil {
			return err
		}
		p.prog.Globals = append(p.prog.Globals, sym)
	case ".ent", ".end":
		if !o.atEnd() {
			if _, err := o.ident(); err != nil {
				return err
			}
		}
	case ".byte":
		return p.parseData(name, 1, o)
	case ".half":
		return p.parseData(name, 2, o)
	case ".word":
		return p.parseData(name, 4, o)
	case ".space":
		if p.section != SectionData {
			return fmt.Errorf("%s outside the .data section", name)
		}
		n, err := o.integer()
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%s needs a non-negative size", name)
		}
		p.bindPendingData(p.dataOffset)
		p.dataOffset += uint64(n)
	default:
		return fmt.Errorf("unknown directive %s", name)
	}

	return o.done()
}

func (p *parser) parseData(name string, size int, o *operands) error {
	if p.section != SectionData {
		return fmt.Errorf("%s outside the .data section", name)
	}

	width := uint64(size)
	if rem := p.dataOffset % width; rem != 0 {
		p.dataOffset += width - rem
	}
	p.bindPendingData(p.dataOffset)

	for {
		v, err := o.integer()
		if err != nil {
			return err
		}
		if !fitsInBytes(v, size) {
			return fmt.Errorf("%d does not fit in %d byte(s)", v, size)
		}

		p.prog.Data = append(p.prog.Data, DataItem{
			Offset: p.dataOffset,
			Size:   size,
			Value:  v,
			Line:   p.line,
		})
		p.dataOffset += width

		if o.atEnd() {
			return nil
		}
		if err := o.comma(); err != nil {
			return err
		}
	}
}

// fitsInBytes accepts both the signed and the unsigned range of the width.
func fitsInBytes(v int64, size int) bool {
	bits := uint(8 * size)
	return v >= -(int64(1)<<(bits-1)) && v < int64(1)<<bits
}

func (p *parser) parseInstruction(mnemonic string, o *operands) error {
	op, ok := insts.OpByMnemonic(strings.ToLower(mnemonic))
	if !ok {
		return fmt.Errorf("unknown instruction %q", mnemonic)
	}
	if p.section != SectionText {
		return fmt.Errorf("instruction %q outside the .text section", mnemonic)
	}

	parsed, err := parseOperands(op, o, p.line)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := o.done(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.prog.Instrs = append(p.prog.Instrs, parsed)
	return nil
}

func parseOperands(op insts.Op, o *operands, line int) (ParsedInstr, error) {
	switch insts.FormatOf(op) {
	case insts.FormatRRR:
		regs, err := o.regList(3)
		if err != nil {
			return ParsedInstr{}, err
		}
		return ParsedInstr{Inst: insts.NewRRR(op, regs[0], regs[1], regs[2], line)}, nil

	case insts.FormatRR:
		regs, err := o.regList(2)
		if err != nil {
			return ParsedInstr{}, err
		}
		return ParsedInstr{Inst: insts.NewRR(op, regs[0], regs[1], line)}, nil

	case insts.FormatRRI:
		regs, err := o.regList(2)
		if err != nil {
			return ParsedInstr{}, err
		}
		if err := o.comma(); err != nil {
			return ParsedInstr{}, err
		}
		if insts.IsBranch(op) {
			label, imm, err := o.target()
			if err != nil {
				return ParsedInstr{}, err
			}
			return ParsedInstr{
				Label: label,
				Inst:  insts.NewRRI(op, regs[0], regs[1], imm, line),
			}, nil
		}
		imm, err := o.integer()
		if err != nil {
			return ParsedInstr{}, err
		}
		if err := checkImmediate(op, imm); err != nil {
			return ParsedInstr{}, err
		}
		return ParsedInstr{Inst: insts.NewRRI(op, regs[1], regs[0], imm, line)}, nil

	case insts.FormatRIR:
		rt, err := o.reg()
		if err != nil {
			return ParsedInstr{}, err
		}
		if err := o.comma(); err != nil {
			return ParsedInstr{}, err
		}
		return o.memory(op, rt, line)

	case insts.FormatRI:
		rt, err := o.reg()
		if err != nil {
			return ParsedInstr{}, err
		}
		imm := int64(1)
		if !(o.atEnd() && (op == insts.OpINCR || op == insts.OpDECR)) {
			if err := o.comma(); err != nil {
				return ParsedInstr{}, err
			}
			if imm, err = o.integer(); err != nil {
				return ParsedInstr{}, err
			}
		}
		if err := checkImmediate(op, imm); err != nil {
			return ParsedInstr{}, err
		}
		return ParsedInstr{Inst: insts.NewRI(op, rt, imm, line)}, nil

	case insts.FormatI:
		label, imm, err := o.target()
		if err != nil {
			return ParsedInstr{}, err
		}
		return ParsedInstr{Label: label, Inst: insts.NewI(op, imm, line)}, nil

	default:
		return ParsedInstr{Inst: insts.NewEmpty(op, line)}, nil
	}
}

func checkImmediate(op insts.Op, imm int64) error {
	lo, hi := int64(-0x8000), int64(0x7FFF)
	switch op {
	case insts.OpSLL, insts.OpSRL:
		lo, hi = 0, 31
	case insts.OpANDI, insts.OpORI, insts.OpLUI:
		lo, hi = 0, 0xFFFF
	case insts.OpLI:
		lo, hi = emu.MinRegValue, emu.RegValueLimit-1
	}

	if imm < lo || imm > hi {
		return fmt.Errorf("immediate %d out of range [%d, %d]", imm, lo, hi)
	}
	return nil
}

// operands walks the operand tokens of one statement.
type operands struct {
	toks []token
	pos  int
}

func (o *operands) atEnd() bool {
	return o.pos >= len(o.toks)
}

func (o *operands) peek() (token, bool) {
	if o.atEnd() {
		return token{}, false
	}
	return o.toks[o.pos], true
}

func (o *operands) next(kind tokenKind) (token, error) {
	tok, ok := o.peek()
	if !ok {
		return token{}, fmt.Errorf("expected %s, found end of line", kind)
	}
	if tok.kind != kind {
		return token{}, fmt.Errorf("expected %s, found %q", kind, tok.text)
	}
	o.pos++
	return tok, nil
}

func (o *operands) done() error {
	if tok, ok := o.peek(); ok {
		return fmt.Errorf("unexpected %q", tok.text)
	}
	return nil
}

func (o *operands) comma() error {
	_, err := o.next(tokComma)
	return err
}

func (o *operands) reg() (insts.Reg, error) {
	tok, err := o.next(tokRegister)
	if err != nil {
		return insts.RegNone, err
	}
	return insts.RegByName(tok.text)
}

func (o *operands) regList(n int) ([]insts.Reg, error) {
	regs := make([]insts.Reg, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := o.comma(); err != nil {
				return nil, err
			}
		}
		r, err := o.reg()
		if err != nil {
			return nil, err
		}
		regs = append(regs, r)
	}
	return regs, nil
}

func (o *operands) integer() (int64, error) {
	tok, err := o.next(tokInteger)
	if err != nil {
		return 0, err
	}
	return tok.value, nil
}

func (o *operands) ident() (string, error) {
	tok, err := o.next(tokIdent)
	if err != nil {
		return "", err
	}
	return tok.text, nil
}

// target reads a branch or jump target: a label or an absolute address.
func (o *operands) target() (string, int64, error) {
	tok, ok := o.peek()
	if ok && tok.kind == tokIdent {
		o.pos++
		return tok.text, 0, nil
	}
	imm, err := o.integer()
	if err != nil {
		return "", 0, fmt.Errorf("expected a label or address")
	}
	return "", imm, nil
}

// memory reads "imm(rs)", "(rs)", "imm" or "label".
func (o *operands) memory(op insts.Op, rt insts.Reg, line int) (ParsedInstr, error) {
	tok, ok := o.peek()
	if !ok {
		return ParsedInstr{}, fmt.Errorf("expected a memory operand")
	}

	if tok.kind == tokIdent {
		o.pos++
		return ParsedInstr{
			Label: tok.text,
			Inst:  insts.NewRRI(op, insts.RegNone, rt, 0, line),
		}, nil
	}

	imm := int64(0)
	if tok.kind == tokInteger {
		o.pos++
		imm = tok.value
		if o.atEnd() {
			if imm < 0 || imm >= emu.RegValueLimit {
				return ParsedInstr{}, fmt.Errorf("address %d out of range", imm)
			}
			return ParsedInstr{Inst: insts.NewRRI(op, insts.RegZero, rt, imm, line)}, nil
		}
	}

	if err := checkImmediate(op, imm); err != nil {
		return ParsedInstr{}, err
	}
	if _, err := o.next(tokLParen); err != nil {
		return ParsedInstr{}, err
	}
	rs, err := o.reg()
	if err != nil {
		return ParsedInstr{}, err
	}
	if _, err := o.next(tokRParen); err != nil {
		return ParsedInstr{}, err
	}

	return ParsedInstr{Inst: insts.NewRRI(op, rs, rt, imm, line)}, nil
}
