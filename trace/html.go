// Package trace renders per-cycle pipeline traces.
package trace

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/timing/core"
)

const headerHTML = `<html>
<head>
<style>
body { font-family: arial, sans; }
</style>
</head>
<body>
<table><tr valign=top>
`

var cycleTemplate = template.Must(template.New("cycle").Parse(`<td>
<table rules=groups frame=box width="100%">
<thead><tr><th colspan=3 align=left>Cycle {{.Cycle}} ({{.Retired}} retired)</th> </tr></thead>
{{range .Stages}}<tbody>
<tr><td nowrap>{{.Name}} stage:</td><td/><td/></tr>
<tr><td/> <td nowrap>Instruction:&nbsp;</td> <td nowrap><code>{{.Inst}}</code> ({{.Line}})&nbsp;</td></tr>
{{range .Fields}}<tr><td/> <td nowrap>{{.Label}}:&nbsp;</td> <td nowrap>{{.Value}}&nbsp;</td></tr>
{{end}}</tbody>
{{end}}</table><p/>
<table rules=groups frame=box width="100%">
<thead><tr><th colspan=8 align=left nowrap>Register File</th></tr></thead>
<tbody>
{{range .Registers}}<tr>{{range .}}<td nowrap>R{{.Num}} ({{.Name}})&nbsp;</td> <td nowrap>= {{.Value}}&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;</td>{{end}}</tr>
{{end}}</tbody>
</table>
</td> <td>&nbsp;</td>
`))

var footerTemplate = template.Must(template.New("footer").Parse(`</tr></table><p/>
Time &rarr;
<p>Number of cycles: {{.Cycles}}<br/>
Number of retired instructions: {{.Instructions}}<br/>
Average CPI: {{printf "%f" .CPI}}</p>
</body>
</html>
`))

type field struct {
	Label template.HTML
	Value string
}

type stageView struct {
	Name   string
	Inst   string
	Line   string
	Fields []field
}

type regView struct {
	Num   int
	Name  string
	Value int64
}

type cycleView struct {
	Cycle     uint64
	Retired   uint64
	Stages    []stageView
	Registers [][]regView
}

type footerView struct {
	Cycles       uint64
	Instructions uint64
	CPI          float64
}

// HTMLWriter writes a trace with one table column per cycle. It implements
// core.Observer. Write errors are kept and returned by End.
type HTMLWriter struct {
	w      io.Writer
	closer io.Closer
	err    error
}

// NewHTMLWriter creates a writer that renders to w.
func NewHTMLWriter(w io.Writer) *HTMLWriter {
	return &HTMLWriter{w: w}
}

// CreateHTMLFile creates the file at path and returns a writer that closes
// it in End.
func CreateHTMLFile(path string) (*HTMLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	return &HTMLWriter{w: f, closer: f}, nil
}

// Begin writes the document header.
func (t *HTMLWriter) Begin() {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, headerHTML)
}

// OnCycle renders the state at the start of one cycle.
func (t *HTMLWriter) OnCycle(s core.Snapshot) {
	if t.err != nil {
		return
	}
	t.err = cycleTemplate.Execute(t.w, newCycleView(s))
}

// End closes the document. It still produces a well-formed document after
// a run that stopped on an error.
func (t *HTMLWriter) End(stats core.Stats) error {
	if t.err == nil {
		t.err = footerTemplate.Execute(t.w, footerView{
			Cycles:       stats.Cycles,
			Instructions: stats.Instructions,
			CPI:          stats.CPI(),
		})
	}

	if t.closer != nil {
		if err := t.closer.Close(); err != nil && t.err == nil {
			t.err = fmt.Errorf("failed to close trace file: %w", err)
		}
		t.closer = nil
	}

	return t.err
}

func newCycleView(s core.Snapshot) cycleView {
	st := s.State
	v := cycleView{
		Cycle:   s.Cycle,
		Retired: s.Retired,
		Stages: []stageView{
			newStageView("IF", st.IF.Inst,
				field{"PC", fmt.Sprintf("0x%X", st.IF.PC)}),
			newStageView("ID", st.ID.Inst),
			newStageView("Ex", st.EX.Inst,
				intField("<i>rs</i> value", st.EX.RsValue),
				intField("<i>rt</i> value", st.EX.RtValue),
				intField("Immediate value", st.EX.ImmValue)),
			newStageView("Mem", st.MEM.Inst,
				intField("<i>rt</i> value", st.MEM.RtValue),
				intField("ALU result", st.MEM.ALUResult),
				field{"Zero", boolDigit(st.MEM.Zero)},
				intField("Branch target", st.MEM.BranchTarget)),
			newStageView("WB", st.WB.Inst,
				intField("Result", st.WB.Result)),
		},
	}

	for r := 0; r < insts.NumRegs/4; r++ {
		row := make([]regView, 0, 4)
		for c := 0; c < 4; c++ {
			reg := insts.Reg(r + 8*c)
			name, _ := reg.Name()
			row = append(row, regView{Num: int(reg), Name: name, Value: s.Registers[reg]})
		}
		v.Registers = append(v.Registers, row)
	}

	return v
}

func newStageView(name string, inst insts.Instruction, fields ...field) stageView {
	return stageView{
		Name:   name,
		Inst:   inst.String(),
		Line:   inst.LineString(),
		Fields: fields,
	}
}

func intField(label template.HTML, v int64) field {
	return field{Label: label, Value: fmt.Sprintf("%d", v)}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
