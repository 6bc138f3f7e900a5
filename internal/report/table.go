// Package report renders the reconstructed trace as an HTML report:
// a synchronized timeline table (one column per worker, one row per
// relative timestamp) embedded into a static page template.
package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/mlevart/blocklog_viewer/internal/blocklog"
	"github.com/mlevart/blocklog_viewer/internal/trace"
)

// cellClass maps a message type to its presentational table-cell class.
// Purely cosmetic, never affects semantics.
func cellClass(t blocklog.MessageType) string {
	switch t {
	case blocklog.BlockPostcondition:
		return "precondition"
	case blocklog.ErrorCondition, blocklog.ErrorConditionUnreachable:
		return "postcondition"
	default:
		return "normal"
	}
}

type cellData struct {
	Empty    bool
	Class    string
	Title    string
	Arrow    template.HTML
	Sender   string
	Type     blocklog.MessageType
	Receiver string
	Payload  string
}

type rowData struct {
	Time  int64
	Cells []cellData
}

type tableData struct {
	Columns []string
	Rows    []rowData
}

const tableTmpl = `<table class="worker">
<tr class="header_row"><th>time</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr><td>{{.Time}}</td>{{range .Cells}}{{if .Empty}}<td></td>{{else}}<td class="{{.Class}}"><div title="{{.Title}}"><p><span>{{.Arrow}}</span> <span>React to message from <strong>{{.Sender}}</strong>:</span></p><p>Calculated new {{.Type}} message for <strong>{{.Receiver}}</strong></p><textarea readonly>{{.Payload}}</textarea></div></td>{{end}}{{end}}</tr>
{{end}}</table>`

var tableTemplate = template.Must(template.New("table").Parse(tableTmpl))

// newCell renders one populated matrix slot into its view model. The
// originating worker's joined code lines become the hover title; the
// classifier's sender/receiver sets become the summary lines; the raw
// payload (or its placeholder) goes into the scrollable textarea.
func newCell(msg *blocklog.Message, logs map[string]*blocklog.BlockLog) cellData {
	d := trace.Classify(*msg, logs)
	title := ""
	if infos, ok := logs[msg.From]; ok {
		title = infos.JoinedCode()
	}
	return cellData{
		Class:    cellClass(msg.Type),
		Title:    title,
		Arrow:    template.HTML(d.Arrow),
		Sender:   d.SenderLabel(),
		Type:     msg.Type,
		Receiver: d.ReceiverLabel(),
		Payload:  trace.DisplayPayload(*msg),
	}
}

// Table renders the timeline matrix as table markup. Rows are emitted
// by relative timestamp ascending; empty slots become empty cells so
// every row keeps the full column width. Output is deterministic for
// a given input.
func Table(m *trace.Matrix, logs map[string]*blocklog.BlockLog) (template.HTML, error) {
	data := tableData{Columns: m.Columns}
	for _, t := range m.Times() {
		row := rowData{Time: t}
		for _, slot := range m.Row(t) {
			if slot == nil {
				row.Cells = append(row.Cells, cellData{Empty: true})
				continue
			}
			row.Cells = append(row.Cells, newCell(slot, logs))
		}
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return template.HTML(buf.String()), nil
}
