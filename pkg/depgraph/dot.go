package depgraph

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts g to Graphviz DOT format. Each tree becomes a cluster and
// root files are drawn bold. Node labels are paths relative to baseDir.
func ToDOT(g Graph, trees []Tree, baseDir string) string {
	label := func(path string) string {
		if rel, err := filepath.Rel(baseDir, path); err == nil {
			return filepath.ToSlash(rel)
		}
		return path
	}

	var buf bytes.Buffer
	buf.WriteString("digraph includes {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("\n")

	for i, t := range trees {
		roots := make(map[string]bool, len(t.RootFiles))
		for _, r := range t.RootFiles {
			roots[r] = true
		}
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("tree %d", i+1))
		buf.WriteString("    style=dashed;\n")
		for _, f := range t.AllFiles {
			attrs := fmt.Sprintf("label=%q", label(f))
			if roots[f] {
				attrs += ", penwidth=2, fontname=\"Helvetica-Bold\""
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", f, attrs)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
