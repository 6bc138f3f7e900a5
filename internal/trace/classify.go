// Package trace reconstructs the message-passing trace: it classifies
// each message by its protocol direction semantics and aligns all
// messages onto a shared relative time axis.
package trace

import (
	"strings"

	"github.com/mlevart/blocklog_viewer/internal/blocklog"
)

// Arrow is the directional glyph attached to a classified message.
type Arrow string

const (
	// ArrowDown marks messages flowing along declared successor edges.
	ArrowDown Arrow = "&darr;"
	// ArrowUp marks messages flowing against them.
	ArrowUp Arrow = "&uarr;"
	// ArrowNeutral marks messages with no direction semantics.
	ArrowNeutral Arrow = "-"
)

// PayloadPlaceholder is rendered instead of an empty payload.
const PayloadPlaceholder = "no contents available"

// Direction is the classifier's verdict for one message: who it logically
// reacts to, who the produced condition targets, and the glyph. The
// literal values "all" and "none" are rendered as-is, never expanded to
// the worker set.
type Direction struct {
	Senders   []string
	Receivers []string
	Arrow     Arrow
}

// SenderLabel joins the sender set for display. An empty (declared but
// zero-length) set means the worker reacted to its own state.
func (d Direction) SenderLabel() string {
	if len(d.Senders) == 0 {
		return "self"
	}
	return strings.Join(d.Senders, ", ")
}

// ReceiverLabel joins the receiver set for display.
func (d Direction) ReceiverLabel() string {
	return strings.Join(d.Receivers, ", ")
}

// Classify applies the type-keyed rule table to one message. The
// originating worker's declared topology (with ["none"] substituted for
// absent sets) feeds the per-type rules; unrecognized types keep the
// neutral default. The variant set is closed, so a plain switch suffices.
func Classify(msg blocklog.Message, logs map[string]*blocklog.BlockLog) Direction {
	d := Direction{
		Senders:   []string{"all"},
		Receivers: []string{"all"},
		Arrow:     ArrowNeutral,
	}

	infos, ok := logs[msg.From]
	if !ok {
		return d
	}
	predecessors := infos.DisplayPredecessors()
	successors := infos.DisplaySuccessors()

	switch msg.Type {
	case blocklog.BlockPostcondition:
		d.Receivers = successors
		d.Senders = predecessors
		d.Arrow = ArrowDown
	case blocklog.ErrorCondition:
		d.Receivers = predecessors
		d.Senders = successors
		d.Arrow = ArrowUp
	case blocklog.ErrorConditionUnreachable:
		d.Receivers = []string{"all"}
		d.Senders = successors
		d.Arrow = ArrowUp
	case blocklog.FoundResult:
		d.Senders = []string{msg.From}
	}
	return d
}

// DisplayPayload returns the message payload, or the placeholder text
// when the payload is empty.
func DisplayPayload(msg blocklog.Message) string {
	if msg.Payload == "" {
		return PayloadPlaceholder
	}
	return msg.Payload
}
