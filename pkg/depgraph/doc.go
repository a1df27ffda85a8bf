// Package depgraph builds the include graph over a set of nginx configuration
// files and partitions it into independent configuration trees.
//
// # Graph
//
// [Build] parses every candidate file through a [DocumentSource] and records
// the candidate files each one includes (see package includes). Files that
// cannot be read or parsed contribute no edges; they never abort the build.
// Self-loops are kept and cycles are allowed.
//
// # Partitioning
//
// [Partition] groups files into connected components of the undirected
// closure of the graph: an include edge A→B joins A and B regardless of
// direction. Within each [Tree], root files are those no other file of the
// same tree includes. A pure cycle has no such file, so the first file
// visited is reported as the single root; that choice depends on the order
// of the input file list.
//
//	g := depgraph.Build(ctx, files, loader)
//	for _, t := range depgraph.Partition(files, g) {
//	    fmt.Println(t.RootFiles, len(t.AllFiles))
//	}
//
// # Visualization
//
// [ToDOT] renders a graph as Graphviz DOT with one cluster per tree, and
// [RenderSVG] turns DOT into SVG using the embedded Graphviz library.
package depgraph
