package blocklog

import (
	"os"
	"path/filepath"
	"testing"
)

// writeLog writes a JSON log file into dir and returns its path.
func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const sampleAnalysis = `{
  "B0": {
    "code": ["int x;", "", "x = 1;"],
    "successors": ["B1"],
    "messages": [
      {"from": "B0", "timestamp": 100, "type": "BLOCK_POSTCONDITION", "payload": "x > 0"}
    ]
  },
  "B1": {
    "code": [],
    "predecessors": ["B0"],
    "messages": [
      {"from": "B1", "timestamp": 102, "type": "FOUND_RESULT", "payload": ""}
    ]
  }
}`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, AnalysisFile, sampleAnalysis)

	logs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(logs))
	}

	b0 := logs["B0"]
	if b0 == nil {
		t.Fatal("worker B0 missing")
	}
	if b0.ID != "B0" {
		t.Errorf("ID = %q, want B0 (map key must become ID)", b0.ID)
	}
	if len(b0.Messages) != 1 || b0.Messages[0].Type != BlockPostcondition {
		t.Errorf("B0 messages = %+v", b0.Messages)
	}
	if b0.Predecessors != nil {
		t.Errorf("B0 predecessors = %v, want nil (absent field)", b0.Predecessors)
	}
	if len(b0.Successors) != 1 || b0.Successors[0] != "B1" {
		t.Errorf("B0 successors = %v", b0.Successors)
	}

	b1 := logs["B1"]
	if b1.Messages[0].Payload != "" {
		t.Errorf("B1 payload = %q, want empty", b1.Messages[0].Payload)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, AnalysisFile, "{not json")
	if _, err := Load(path); err == nil {
		t.Error("Load should fail for malformed JSON")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, AnalysisFile, sampleAnalysis)
	writeLog(t, dir, SummaryFile, `{"B0": {"code": [], "successors": ["B1"]}, "B1": {"code": []}}`)

	analysis, summary, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(analysis) != 2 || len(summary) != 2 {
		t.Errorf("got %d analysis / %d summary workers, want 2/2", len(analysis), len(summary))
	}
}

func TestLoadDirMissingSummary(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, AnalysisFile, sampleAnalysis)
	if _, _, err := LoadDir(dir); err == nil {
		t.Error("LoadDir should fail when the summary file is missing")
	}
}

func TestCollectMessagesSorted(t *testing.T) {
	logs := map[string]*BlockLog{
		"B2": {ID: "B2", Messages: []Message{
			{From: "B2", Timestamp: 105, Type: ErrorCondition},
			{From: "B2", Timestamp: 100, Type: BlockPostcondition},
		}},
		"B10": {ID: "B10", Messages: []Message{
			{From: "B10", Timestamp: 100, Type: BlockPostcondition},
		}},
		"B0": {ID: "B0", Messages: []Message{
			{From: "B0", Timestamp: 103, Type: FoundResult},
		}},
	}

	all := CollectMessages(logs)
	if len(all) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(all))
	}

	// Timestamp ascending; ties broken by numeric id suffix.
	wantOrder := []struct {
		from string
		ts   int64
	}{
		{"B2", 100},
		{"B10", 100},
		{"B0", 103},
		{"B2", 105},
	}
	for i, w := range wantOrder {
		if all[i].From != w.from || all[i].Timestamp != w.ts {
			t.Errorf("message %d = %s@%d, want %s@%d",
				i, all[i].From, all[i].Timestamp, w.from, w.ts)
		}
	}
}

func TestCollectMessagesEmpty(t *testing.T) {
	logs := map[string]*BlockLog{
		"B0": {ID: "B0"},
		"B1": {ID: "B1"},
	}
	if all := CollectMessages(logs); len(all) != 0 {
		t.Errorf("expected no messages, got %d", len(all))
	}
}
