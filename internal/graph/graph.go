// Package graph aggregates tags across files into a directed weighted
// multigraph of file-to-file reference edges.
package graph

import (
	"math"
	"sort"

	gograph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"

	"codemap/internal/tag"
)

// selfEdgeWeight keeps files whose identifiers are defined but never
// referenced connected to the graph instead of dropping out as isolates.
const selfEdgeWeight = 0.1

// Edge is one (referencing file → defining file, identifier) line. Multiple
// edges may connect the same pair of files.
type Edge struct {
	From   string
	To     string
	Ident  string
	Weight float64
}

// Graph is the reference multigraph over file paths. The gonum structure
// carries nodes and cross-file lines; gonum multigraphs reject self-loops,
// so the full edge list (self-edges included) lives in Edges and is what
// rank propagation walks.
type Graph struct {
	Edges []Edge

	// Defines maps identifier → set of defining files.
	Defines map[string]map[string]struct{}
	// RefCounts maps identifier → referencing file → occurrence count.
	RefCounts map[string]map[string]int

	g          *multi.WeightedDirectedGraph
	nodeByFile map[string]gograph.Node
	fileByID   map[int64]string
}

// Build constructs the reference graph from the full tag set. For every
// identifier with at least one definition:
//
//   - no references anywhere → one low-weight self-edge per defining file;
//   - otherwise one edge per (referencing file, defining file) pair with
//     base weight sqrt(count of that file's references), so hot identifiers
//     referenced many times in one file do not run away with the weight.
//
// Ambiguously defined identifiers fan out: every referencer gets an edge to
// every definer.
func Build(tags []tag.Tag) *Graph {
	g := &Graph{
		Defines:    make(map[string]map[string]struct{}),
		RefCounts:  make(map[string]map[string]int),
		g:          multi.NewWeightedDirectedGraph(),
		nodeByFile: make(map[string]gograph.Node),
		fileByID:   make(map[int64]string),
	}

	for i := range tags {
		t := &tags[i]
		switch {
		case t.Kind.IsDefinition():
			if g.Defines[t.Name] == nil {
				g.Defines[t.Name] = make(map[string]struct{})
			}
			g.Defines[t.Name][t.File] = struct{}{}
		case t.Kind.IsReference():
			if g.RefCounts[t.Name] == nil {
				g.RefCounts[t.Name] = make(map[string]int)
			}
			g.RefCounts[t.Name][t.File]++
		}
	}

	// Nodes: every file that defines anything, plus every file referencing
	// an identifier someone defines.
	for _, defFiles := range g.Defines {
		for f := range defFiles {
			g.ensureNode(f)
		}
	}
	for ident, refFiles := range g.RefCounts {
		if g.Defines[ident] == nil {
			continue
		}
		for f := range refFiles {
			g.ensureNode(f)
		}
	}

	// Sorted iteration keeps edge order deterministic run to run.
	for _, ident := range sortedKeys(g.Defines) {
		defFiles := sortedKeys(g.Defines[ident])
		refFiles := g.RefCounts[ident]

		if len(refFiles) == 0 {
			for _, defFile := range defFiles {
				g.Edges = append(g.Edges, Edge{
					From: defFile, To: defFile, Ident: ident, Weight: selfEdgeWeight,
				})
			}
			continue
		}

		for _, refFile := range sortedKeys(refFiles) {
			weight := math.Sqrt(float64(refFiles[refFile]))
			for _, defFile := range defFiles {
				g.addEdge(refFile, defFile, ident, weight)
			}
		}
	}

	return g
}

func (g *Graph) ensureNode(file string) gograph.Node {
	if n, ok := g.nodeByFile[file]; ok {
		return n
	}
	n := g.g.NewNode()
	g.g.AddNode(n)
	g.nodeByFile[file] = n
	g.fileByID[n.ID()] = file
	return n
}

func (g *Graph) addEdge(from, to, ident string, weight float64) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, Ident: ident, Weight: weight})
	if from == to {
		return
	}
	fn := g.ensureNode(from)
	tn := g.ensureNode(to)
	g.g.SetWeightedLine(g.g.NewWeightedLine(fn, tn, weight))
}

// NodeCount returns the number of file nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodeByFile)
}

// Files returns all file nodes in sorted order.
func (g *Graph) Files() []string {
	files := make([]string, 0, len(g.nodeByFile))
	for f := range g.nodeByFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Gonum exposes the underlying multigraph for library rank algorithms.
func (g *Graph) Gonum() *multi.WeightedDirectedGraph {
	return g.g
}

// FileOf resolves a gonum node ID back to its file path.
func (g *Graph) FileOf(id int64) (string, bool) {
	f, ok := g.fileByID[id]
	return f, ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
