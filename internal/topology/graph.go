// Package topology renders the static worker dependency graph. The
// graph is built from each worker's declared successor set, exported as
// a DOT description, and rasterized by graphviz as the external layout
// engine.
package topology

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/emicklei/dot"

	"github.com/mlevart/blocklog_viewer/internal/blocklog"
)

const (
	// DotFile is the intermediate graph description artifact.
	DotFile = "graph.dot"
	// PNGFile is the rasterized graph image artifact.
	PNGFile = "graph.png"
)

// Build constructs the directed worker graph: one box node per worker,
// labeled with the id plus its joined code lines (bare id if the worker
// has no code), and one edge per declared (worker, successor) pair.
// Workers declaring no successors contribute no outgoing edges.
func Build(logs map[string]*blocklog.BlockLog) *dot.Graph {
	g := dot.NewGraph(dot.Directed)

	ids := blocklog.SortedIDs(logs)
	for _, id := range ids {
		label := id
		if code := logs[id].JoinedCode(); code != "" {
			label = id + ":\n" + code
		}
		g.Node(id).Attr("shape", "box").Attr("label", label)
	}
	for _, id := range ids {
		for _, succ := range logs[id].Successors {
			g.Edge(g.Node(id), g.Node(succ))
		}
	}
	return g
}

// WriteDOT writes the graph description into dir and returns its path.
func WriteDOT(g *dot.Graph, dir string) (string, error) {
	path := filepath.Join(dir, DotFile)
	if err := os.WriteFile(path, []byte(g.String()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// RenderPNG rasterizes a DOT file with the graphviz layout tool and
// returns the image path.
func RenderPNG(dotPath string) (string, error) {
	bin, err := exec.LookPath("dot")
	if err != nil {
		return "", fmt.Errorf("graphviz not found: install it to render %s: %w", PNGFile, err)
	}
	pngPath := filepath.Join(filepath.Dir(dotPath), PNGFile)
	cmd := exec.Command(bin, "-Tpng", dotPath, "-o", pngPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("dot -Tpng %s: %v: %s", dotPath, err, out)
	}
	return pngPath, nil
}
