package blocklog

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultDir is the conventional location the analysis run writes to.
const defaultDir = "output/block_analysis"

// Discover finds the input log directory.
// Priority: BLOCKLOG_DIR env var > output/block_analysis in CWD > walk
// up parents. A directory qualifies if it contains block_analysis.json.
func Discover() (string, error) {
	if env := os.Getenv("BLOCKLOG_DIR"); env != "" {
		if hasAnalysis(env) {
			return env, nil
		}
		return "", fmt.Errorf("BLOCKLOG_DIR=%q: no %s found: %w", env, AnalysisFile, os.ErrNotExist)
	}

	// Check CWD first.
	if hasAnalysis(defaultDir) {
		abs, err := filepath.Abs(defaultDir)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path for %s: %w", defaultDir, err)
		}
		return abs, nil
	}

	// Walk up parent directories.
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, defaultDir)
		if hasAnalysis(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no block logs found (looked for %s/%s)", defaultDir, AnalysisFile)
}

func hasAnalysis(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, AnalysisFile))
	return err == nil
}
