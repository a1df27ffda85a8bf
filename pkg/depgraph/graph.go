package depgraph

import (
	"cmp"
	"context"
	"slices"

	"github.com/nginly/nginx-analyze-ci/pkg/includes"
	"github.com/nginly/nginx-analyze-ci/pkg/nginxconf"
)

// DocumentSource supplies parsed documents by absolute path.
type DocumentSource interface {
	Document(path string) (*nginxconf.Document, error)
}

// Edge is a single include relationship: From includes To.
type Edge struct {
	From string
	To   string
}

// Graph holds forward include edges between absolute file paths.
// It is read-only once built.
type Graph struct {
	files []string
	edges map[string][]string
}

// NewGraph returns a graph over files with the given forward edges. Edge
// lists are used as given; callers keep them duplicate-free.
func NewGraph(files []string, edges map[string][]string) Graph {
	if edges == nil {
		edges = map[string][]string{}
	}
	return Graph{files: files, edges: edges}
}

// Build resolves the include directives of every file and returns the
// resulting graph. Only edges between members of files are recorded.
// Cancelling ctx stops the build early; files not yet visited get no edges.
func Build(ctx context.Context, files []string, src DocumentSource) Graph {
	r := includes.NewResolver(files)
	edges := make(map[string][]string, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			edges[f] = nil
			continue
		}
		doc, err := src.Document(f)
		if err != nil || doc == nil {
			edges[f] = nil
			continue
		}
		edges[f] = r.Dependencies(doc, f)
	}
	return Graph{files: files, edges: edges}
}

// Files returns the files the graph was built over, in input order.
func (g Graph) Files() []string { return g.files }

// Dependencies returns the files that file includes.
func (g Graph) Dependencies(file string) []string { return g.edges[file] }

// Edges returns every edge sorted by source then target.
func (g Graph) Edges() []Edge {
	var out []Edge
	for from, tos := range g.edges {
		for _, to := range tos {
			out = append(out, Edge{From: from, To: to})
		}
	}
	slices.SortFunc(out, func(a, b Edge) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	return out
}

// Reverse returns the graph with every edge flipped. Dependents are listed
// in the order their sources appear in Files.
func (g Graph) Reverse() Graph {
	rev := make(map[string][]string, len(g.edges))
	for _, from := range g.order() {
		for _, to := range g.edges[from] {
			rev[to] = append(rev[to], from)
		}
	}
	return Graph{files: g.files, edges: rev}
}

// order lists edge sources deterministically: input files first, then any
// source missing from files in sorted order.
func (g Graph) order() []string {
	seen := make(map[string]struct{}, len(g.files))
	out := make([]string, 0, len(g.edges))
	for _, f := range g.files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	var extra []string
	for f := range g.edges {
		if _, ok := seen[f]; !ok {
			extra = append(extra, f)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}
