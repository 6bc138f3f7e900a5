package trace

import (
	"fmt"
	"sort"

	"github.com/mlevart/blocklog_viewer/internal/blocklog"
)

// Matrix is the derived timeline grid: one row per relative timestamp,
// one slot per worker in column order. A slot is nil when the worker
// produced nothing at that time. The matrix is transient; it is built
// for one render and discarded.
type Matrix struct {
	// Columns holds the worker ids in display order.
	Columns []string

	// Collisions counts (worker, relative-timestamp) slots that were
	// written more than once. Last write wins, matching the replay
	// behavior of the log producer; callers may surface a warning.
	Collisions int

	colIndex map[string]int
	rows     map[int64][]*blocklog.Message
}

// Align buckets the globally sorted messages into relative-time rows
// and per-worker columns. Rows are created lazily on first message and
// sized to the worker count so every row keeps column alignment. The
// input sort order is (timestamp, id suffix), not purely timestamp, so
// row iteration must go through Times, which sorts explicitly.
//
// A message from a worker missing from logs means the log pair is
// inconsistent and is a fatal error.
func Align(messages []blocklog.Message, logs map[string]*blocklog.BlockLog) (*Matrix, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("align: no messages")
	}

	columns := blocklog.SortedIDs(logs)
	colIndex := make(map[string]int, len(columns))
	for i, id := range columns {
		colIndex[id] = i
	}

	first := messages[0].Timestamp
	m := &Matrix{
		Columns:  columns,
		colIndex: colIndex,
		rows:     make(map[int64][]*blocklog.Message),
	}

	for i := range messages {
		msg := &messages[i]
		col, ok := colIndex[msg.From]
		if !ok {
			return nil, fmt.Errorf("align: message at timestamp %d from unknown worker %q", msg.Timestamp, msg.From)
		}
		rel := msg.Timestamp - first
		row, ok := m.rows[rel]
		if !ok {
			row = make([]*blocklog.Message, len(columns))
			m.rows[rel] = row
		}
		if row[col] != nil {
			m.Collisions++
		}
		row[col] = msg
	}
	return m, nil
}

// Times returns the relative timestamps (row keys) in ascending order.
func (m *Matrix) Times() []int64 {
	times := make([]int64, 0, len(m.rows))
	for t := range m.rows {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times
}

// Row returns the slots for one relative timestamp, one per column.
// Unknown timestamps return nil.
func (m *Matrix) Row(rel int64) []*blocklog.Message {
	return m.rows[rel]
}

// At returns the message a worker produced at a relative timestamp, or
// nil for an empty slot.
func (m *Matrix) At(rel int64, worker string) *blocklog.Message {
	row, ok := m.rows[rel]
	if !ok {
		return nil
	}
	col, ok := m.colIndex[worker]
	if !ok {
		return nil
	}
	return row[col]
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.rows)
}
