// Package blocklog loads and models the message logs written by a
// distributed block-analysis run.
//
// The run produces two JSON files: block_analysis.json, a map from
// worker id to that worker's log (code, topology, messages), and
// blocks.json, a topology-only summary used for the graph. Both decode
// into the same BlockLog shape. All data is read-only after load.
package blocklog

import (
	"strconv"
	"strings"
)

// MessageType is the protocol-defined kind of a message. The set is
// closed on the producer side; unrecognized values are passed through
// and classified with the neutral default rule.
type MessageType string

const (
	BlockPostcondition        MessageType = "BLOCK_POSTCONDITION"
	ErrorCondition            MessageType = "ERROR_CONDITION"
	ErrorConditionUnreachable MessageType = "ERROR_CONDITION_UNREACHABLE"
	FoundResult               MessageType = "FOUND_RESULT"
)

// Message is a single timestamped communication event attributed to one
// worker. Timestamps are globally comparable but advance independently
// per worker.
type Message struct {
	From      string      `json:"from"`
	Timestamp int64       `json:"timestamp"`
	Type      MessageType `json:"type"`
	Payload   string      `json:"payload"`
}

// BlockLog is one worker's recorded log. Predecessors and Successors
// are the statically declared topology edges, independent of runtime
// messages; nil means "not declared" and is displayed as ["none"].
type BlockLog struct {
	ID           string    `json:"-"`
	Code         []string  `json:"code"`
	Predecessors []string  `json:"predecessors"`
	Successors   []string  `json:"successors"`
	Messages     []Message `json:"messages"`
}

// JoinedCode returns the worker's non-empty code lines joined by
// newlines. Empty entries in the source log are filtered out.
func (b *BlockLog) JoinedCode() string {
	var lines []string
	for _, l := range b.Code {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// DisplayPredecessors returns the declared predecessor set, or ["none"]
// when the log declares none.
func (b *BlockLog) DisplayPredecessors() []string {
	if b.Predecessors == nil {
		return []string{"none"}
	}
	return b.Predecessors
}

// DisplaySuccessors returns the declared successor set, or ["none"]
// when the log declares none.
func (b *BlockLog) DisplaySuccessors() []string {
	if b.Successors == nil {
		return []string{"none"}
	}
	return b.Successors
}

// idSuffix parses the numeric suffix of a worker id ("B12" -> 12).
// The second return is false for ids without a parsable suffix.
func idSuffix(id string) (int, bool) {
	if len(id) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// LessID orders worker ids by numeric suffix ascending. This ordering
// fixes the timeline table's column order. Ids without a parsable
// suffix sort after well-formed ids, by raw string as a tie-break.
func LessID(a, b string) bool {
	na, oka := idSuffix(a)
	nb, okb := idSuffix(b)
	switch {
	case oka && okb:
		if na != nb {
			return na < nb
		}
		return a < b
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}
