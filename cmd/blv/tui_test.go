package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlevart/blocklog_viewer/internal/blocklog"
	"github.com/mlevart/blocklog_viewer/internal/trace"
)

// testTrace creates trace data for rendering tests.
func testTrace(t *testing.T) *traceData {
	t.Helper()
	analysis := map[string]*blocklog.BlockLog{
		"B0": {
			ID:         "B0",
			Code:       []string{"x = 0;"},
			Successors: []string{"B1"},
			Messages: []blocklog.Message{
				{From: "B0", Timestamp: 100, Type: blocklog.BlockPostcondition, Payload: "x > 0"},
			},
		},
		"B1": {
			ID:           "B1",
			Predecessors: []string{"B0"},
			Messages: []blocklog.Message{
				{From: "B1", Timestamp: 103, Type: blocklog.FoundResult, Payload: "verdict reached"},
			},
		},
	}
	messages := blocklog.CollectMessages(analysis)
	matrix, err := trace.Align(messages, analysis)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	return &traceData{
		dir:      "testdir",
		analysis: analysis,
		summary:  analysis,
		workers:  blocklog.SortedIDs(analysis),
		messages: messages,
		matrix:   matrix,
		loadedAt: time.Now(),
	}
}

// testModel creates a uiModel with test data (no watcher needed for
// render tests).
func testModel(t *testing.T) uiModel {
	t.Helper()
	m := uiModel{
		data:   testTrace(t),
		width:  100,
		height: 30,
	}
	m.help.Width = 100
	return m
}

func TestQuitClosesWatcherOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, blocklog.AnalysisFile)
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	w, err := blocklog.NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	m := testModel(t)
	m.watcher = w

	// Quit closes the watcher inside Update; runTUI closes it again on
	// its own exit path. The second close must not panic.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit key should produce a command")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestViewTinyTerminal(t *testing.T) {
	m := testModel(t)
	m.height = 2 // shorter than the chrome rows

	// Must render without panicking even though no content fits.
	if out := m.View(); out == "" {
		t.Error("View should still render the chrome on a tiny terminal")
	}
}

func TestViewLoading(t *testing.T) {
	m := testModel(t)
	m.width = 0 // triggers "Loading..." state

	if out := m.View(); out != "Loading..." {
		t.Errorf("expected 'Loading...' when width=0, got %q", out)
	}
}

func TestViewIDString(t *testing.T) {
	tests := []struct {
		v    viewID
		want string
	}{
		{viewTimeline, "Timeline"},
		{viewMessages, "Messages"},
		{viewWorkers, "Workers"},
		{viewTopology, "Topology"},
		{viewID(99), "?"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("viewID(%d).String() = %q, want %q", int(tt.v), got, tt.want)
		}
	}
}

func TestRenderTimelineGrid(t *testing.T) {
	m := testModel(t)
	out := m.renderTimeline()

	if !strings.Contains(out, "B0") || !strings.Contains(out, "B1") {
		t.Error("timeline header should list the worker columns")
	}
	if !strings.Contains(out, "POST") {
		t.Error("timeline should show the postcondition cell")
	}
	if !strings.Contains(out, "RESULT") {
		t.Error("timeline should show the result cell")
	}
	if !strings.Contains(out, "↓") {
		t.Error("timeline should render the downward arrow glyph")
	}
}

func TestRenderTimelineNoMessages(t *testing.T) {
	m := testModel(t)
	m.data.matrix = nil
	m.data.messages = nil

	out := m.renderTimeline()
	if !strings.Contains(out, "no messages") {
		t.Error("timeline should report an empty log")
	}
}

func TestRenderMessagesContents(t *testing.T) {
	m := testModel(t)
	out := m.renderMessages()

	if !strings.Contains(out, "x > 0") {
		t.Error("messages view should contain the first payload")
	}
	if !strings.Contains(out, "verdict reached") {
		t.Error("messages view should contain the second payload")
	}
	if !strings.Contains(out, "[t+0]") || !strings.Contains(out, "[t+3]") {
		t.Error("messages view should show relative timestamps")
	}
}

func TestRenderMessagesFiltered(t *testing.T) {
	m := testModel(t)
	m.filterWorker = "B1"

	out := m.renderMessages()
	if strings.Contains(out, "x > 0") {
		t.Error("filter should hide B0's message")
	}
	if !strings.Contains(out, "verdict reached") {
		t.Error("filter should keep B1's message")
	}
}

func TestRenderWorkersTable(t *testing.T) {
	m := testModel(t)
	out := m.renderWorkers()

	if !strings.Contains(out, "B0") || !strings.Contains(out, "B1") {
		t.Error("workers view should list both workers")
	}
	if !strings.Contains(out, "none") {
		t.Error("workers view should display 'none' for an absent topology set")
	}
}

func TestRenderTopologyEdges(t *testing.T) {
	m := testModel(t)
	out := m.renderTopology()

	if !strings.Contains(out, "B0") || !strings.Contains(out, "B1") {
		t.Error("topology view should show the declared edge endpoints")
	}
	if !strings.Contains(out, "→") {
		t.Error("topology view should draw edges")
	}
}

func TestNextWorkerCycle(t *testing.T) {
	workers := []string{"B0", "B1", "B2"}

	tests := []struct {
		current, want string
	}{
		{"", "B0"},
		{"B0", "B1"},
		{"B1", "B2"},
		{"B2", ""},  // wrap to "all"
		{"B99", ""}, // stale filter resets
	}
	for _, tt := range tests {
		if got := nextWorker(workers, tt.current); got != tt.want {
			t.Errorf("nextWorker(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestNextWorkerEmptyList(t *testing.T) {
	if got := nextWorker(nil, ""); got != "" {
		t.Errorf("nextWorker(nil, \"\") = %q, want empty", got)
	}
}

func TestShortType(t *testing.T) {
	tests := []struct {
		in   blocklog.MessageType
		want string
	}{
		{blocklog.BlockPostcondition, "POST"},
		{blocklog.ErrorCondition, "ERR"},
		{blocklog.ErrorConditionUnreachable, "ERR-UNREACH"},
		{blocklog.FoundResult, "RESULT"},
		{"CUSTOM", "CUSTOM"},
	}
	for _, tt := range tests {
		if got := shortType(tt.in); got != tt.want {
			t.Errorf("shortType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("alpha beta gamma delta", 11)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	for _, l := range lines {
		if len(l) > 11 {
			t.Errorf("line %q exceeds width", l)
		}
	}
}

func TestWrapTextHardSplit(t *testing.T) {
	lines := wrapText("abcdefghij", 4)
	if len(lines) != 3 {
		t.Fatalf("expected 3 hard-split lines, got %v", lines)
	}
}

func TestWrapTextMultibyteHardSplit(t *testing.T) {
	// A long word of multi-byte runes must split on rune boundaries.
	lines := wrapText(strings.Repeat("→", 10), 4)
	if len(lines) != 3 {
		t.Fatalf("expected 3 hard-split lines, got %v", lines)
	}
	for _, l := range lines {
		if !utf8.ValidString(l) {
			t.Errorf("line %q holds a torn rune", l)
		}
		if utf8.RuneCountInString(l) > 4 {
			t.Errorf("line %q exceeds width", l)
		}
	}
}

func TestWrapTextRespectsNewlines(t *testing.T) {
	lines := wrapText("a\nb", 80)
	if len(lines) != 2 {
		t.Errorf("embedded newline should split paragraphs, got %v", lines)
	}
}
