// blv reconstructs and visualizes the message-passing trace of a
// distributed block analysis.
//
// It reads the block_analysis.json / blocks.json pair written by the
// analysis run and renders report.html (a synchronized timeline table)
// plus graph.dot / graph.png (the worker topology).
//
// Usage:
//
//	blv                         # Auto-discover output/block_analysis
//	blv --dir <path>            # Use specific input directory
//	blv --open                  # Open the report in the default browser
//	blv --json                  # Dump the normalized trace as JSON and exit
//	blv --watch                 # Re-render whenever the logs change
//	blv --tui                   # Interactive terminal viewer
//	blv --version               # Print version and exit
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/browser"

	"github.com/mlevart/blocklog_viewer/internal/blocklog"
	"github.com/mlevart/blocklog_viewer/internal/report"
	"github.com/mlevart/blocklog_viewer/internal/topology"
	"github.com/mlevart/blocklog_viewer/internal/trace"
)

// Version is set via ldflags at build time (e.g. -X main.Version=v0.1.0).
var Version = "dev"

func main() {
	dirFlag := flag.String("dir", "", "input log directory (default: auto-discover)")
	openFlag := flag.Bool("open", false, "open report.html in the default browser")
	jsonMode := flag.Bool("json", false, "dump normalized trace as JSON and exit (no files written)")
	watchMode := flag.Bool("watch", false, "stay running and re-render on log changes")
	tuiMode := flag.Bool("tui", false, "interactive terminal viewer instead of the batch report")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("blv %s\n", Version)
		os.Exit(0)
	}

	if *dirFlag != "" {
		os.Setenv("BLOCKLOG_DIR", *dirFlag)
	}

	dir, err := blocklog.Discover()
	if err != nil {
		fmt.Fprintf(os.Stderr, "blv: %v\n", err)
		os.Exit(1)
	}

	if *jsonMode {
		if err := dumpJSON(dir); err != nil {
			fmt.Fprintf(os.Stderr, "blv: json: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *tuiMode {
		if err := runTUI(dir); err != nil {
			fmt.Fprintf(os.Stderr, "blv: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := render(dir, *openFlag); err != nil {
		fmt.Fprintf(os.Stderr, "blv: %v\n", err)
		os.Exit(1)
	}

	if *watchMode {
		w, err := blocklog.NewWatcher(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "blv: watch: %v\n", err)
			os.Exit(1)
		}
		defer w.Close()
		fmt.Fprintf(os.Stderr, "blv: watching %s\n", dir)
		for range w.Changes() {
			// Opening the browser again on every change would be noise.
			if err := render(dir, false); err != nil {
				fmt.Fprintf(os.Stderr, "blv: %v\n", err)
				continue
			}
			fmt.Fprintf(os.Stderr, "blv: re-rendered %s\n", report.Path(dir))
		}
	}
}

// render runs one batch transform: load, align, write report and graph.
// A log pair with zero messages renders nothing and is not an error.
func render(dir string, open bool) error {
	analysis, summary, err := blocklog.LoadDir(dir)
	if err != nil {
		return err
	}

	messages := blocklog.CollectMessages(analysis)
	if len(messages) == 0 {
		return nil
	}

	matrix, err := trace.Align(messages, analysis)
	if err != nil {
		return err
	}
	if matrix.Collisions > 0 {
		fmt.Fprintf(os.Stderr, "blv: warning: %d timeline slot(s) overwritten (same worker, same relative timestamp)\n", matrix.Collisions)
	}

	table, err := report.Table(matrix, analysis)
	if err != nil {
		return err
	}
	reportPath, err := report.Write(dir, table)
	if err != nil {
		return err
	}

	g := topology.Build(summary)
	dotPath, err := topology.WriteDOT(g, dir)
	if err != nil {
		return err
	}
	if _, err := topology.RenderPNG(dotPath); err != nil {
		return err
	}

	if open {
		if err := browser.OpenFile(reportPath); err != nil {
			return fmt.Errorf("open %s: %w", reportPath, err)
		}
	}
	return nil
}

// --- JSON output ---

// jsonOutput is the structure for --json mode: the normalized trace as
// the renderers see it.
type jsonOutput struct {
	Workers  []jsonWorker  `json:"workers"`
	Messages []jsonMessage `json:"messages"`
	Stats    jsonStats     `json:"stats"`
}

type jsonWorker struct {
	ID           string   `json:"id"`
	Predecessors []string `json:"predecessors"`
	Successors   []string `json:"successors"`
	CodeLines    int      `json:"code_lines"`
	Messages     int      `json:"messages"`
}

type jsonMessage struct {
	From         string   `json:"from"`
	Timestamp    int64    `json:"timestamp"`
	RelativeTime int64    `json:"relative_time"`
	Type         string   `json:"type"`
	Senders      []string `json:"senders"`
	Receivers    []string `json:"receivers"`
	Payload      string   `json:"payload"`
}

type jsonStats struct {
	Workers    int `json:"workers"`
	Messages   int `json:"messages"`
	Rows       int `json:"rows"`
	Collisions int `json:"collisions"`
}

func dumpJSON(dir string) error {
	analysis, _, err := blocklog.LoadDir(dir)
	if err != nil {
		return err
	}
	out, err := buildJSONOutput(analysis)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// buildJSONOutput converts the loaded logs into the JSON output structure.
func buildJSONOutput(analysis map[string]*blocklog.BlockLog) (jsonOutput, error) {
	ids := blocklog.SortedIDs(analysis)
	workers := make([]jsonWorker, len(ids))
	for i, id := range ids {
		b := analysis[id]
		workers[i] = jsonWorker{
			ID:           id,
			Predecessors: b.DisplayPredecessors(),
			Successors:   b.DisplaySuccessors(),
			CodeLines:    len(b.Code),
			Messages:     len(b.Messages),
		}
	}

	out := jsonOutput{
		Workers: workers,
		Stats:   jsonStats{Workers: len(ids)},
	}

	messages := blocklog.CollectMessages(analysis)
	if len(messages) == 0 {
		return out, nil
	}
	matrix, err := trace.Align(messages, analysis)
	if err != nil {
		return jsonOutput{}, err
	}

	first := messages[0].Timestamp
	out.Messages = make([]jsonMessage, len(messages))
	for i, msg := range messages {
		d := trace.Classify(msg, analysis)
		out.Messages[i] = jsonMessage{
			From:         msg.From,
			Timestamp:    msg.Timestamp,
			RelativeTime: msg.Timestamp - first,
			Type:         string(msg.Type),
			Senders:      d.Senders,
			Receivers:    d.Receivers,
			Payload:      msg.Payload,
		}
	}
	out.Stats.Messages = len(messages)
	out.Stats.Rows = matrix.Len()
	out.Stats.Collisions = matrix.Collisions
	return out, nil
}
