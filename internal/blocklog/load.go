package blocklog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	// AnalysisFile holds the per-worker message logs.
	AnalysisFile = "block_analysis.json"
	// SummaryFile holds the topology-only summary used for the graph.
	SummaryFile = "blocks.json"
)

// Load decodes one log file: a JSON map from worker id to BlockLog.
// The map keys become the ID field of each entry.
func Load(path string) (map[string]*BlockLog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logs := make(map[string]*BlockLog)
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for id, b := range logs {
		if b == nil {
			b = &BlockLog{}
			logs[id] = b
		}
		b.ID = id
	}
	return logs, nil
}

// LoadDir loads the analysis and summary files from dir.
func LoadDir(dir string) (analysis, summary map[string]*BlockLog, err error) {
	analysis, err = Load(filepath.Join(dir, AnalysisFile))
	if err != nil {
		return nil, nil, err
	}
	summary, err = Load(filepath.Join(dir, SummaryFile))
	if err != nil {
		return nil, nil, err
	}
	return analysis, summary, nil
}

// SortedIDs returns the worker ids in display order (numeric suffix
// ascending, see LessID).
func SortedIDs(logs map[string]*BlockLog) []string {
	ids := make([]string, 0, len(logs))
	for id := range logs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return LessID(ids[i], ids[j]) })
	return ids
}

// CollectMessages flattens every worker's messages into one slice
// sorted by (timestamp ascending, sender id ascending by numeric
// suffix). The tie-break keeps concurrent messages in a deterministic
// column-friendly order.
func CollectMessages(logs map[string]*BlockLog) []Message {
	var all []Message
	for _, b := range logs {
		all = append(all, b.Messages...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Timestamp != all[j].Timestamp {
			return all[i].Timestamp < all[j].Timestamp
		}
		return LessID(all[i].From, all[j].From)
	})
	return all
}
