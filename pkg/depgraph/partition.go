package depgraph

// Tree is one independent configuration: a connected component of the
// include graph.
type Tree struct {
	// RootFiles are the files no other file in the tree includes.
	RootFiles []string `json:"rootFiles"`
	// AllFiles lists every file of the tree in visit order.
	AllFiles []string `json:"allFiles"`
}

// Partition splits files into trees. Trees appear in the order their first
// file appears in files, and every file belongs to exactly one tree. Runs in
// O(F+E).
func Partition(files []string, g Graph) []Tree {
	rev := g.Reverse()
	visited := make(map[string]bool, len(files))
	var trees []Tree

	for _, f := range files {
		if visited[f] {
			continue
		}
		component := walkComponent(f, g, rev, visited)
		trees = append(trees, Tree{
			RootFiles: rootFiles(component, rev),
			AllFiles:  component,
		})
	}
	return trees
}

// walkComponent runs a breadth-first search over forward and reverse edges.
func walkComponent(start string, g, rev Graph, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		component = append(component, cur)

		for _, dep := range g.edges[cur] {
			if !visited[dep] {
				queue = append(queue, dep)
			}
		}
		for _, dep := range rev.edges[cur] {
			if !visited[dep] {
				queue = append(queue, dep)
			}
		}
	}
	return component
}

func rootFiles(component []string, rev Graph) []string {
	members := make(map[string]struct{}, len(component))
	for _, f := range component {
		members[f] = struct{}{}
	}

	var roots []string
	for _, f := range component {
		included := false
		for _, by := range rev.edges[f] {
			if by == f {
				continue
			}
			if _, ok := members[by]; ok {
				included = true
				break
			}
		}
		if !included {
			roots = append(roots, f)
		}
	}
	if len(roots) == 0 {
		return []string{component[0]}
	}
	return roots
}
