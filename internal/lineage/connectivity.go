package lineage

import "sort"

// ConnectedSubgraph returns the full set of node ids connected to
// selectedID: everything reachable following edges downstream plus
// everything that reaches it upstream, including selectedID itself. Each
// direction visits a node at most once, so cyclic graphs terminate. The
// graph is not mutated; this is a pure query used for highlight/dim state.
func ConnectedSubgraph(g *Graph, selectedID string) map[string]struct{} {
	connected := map[string]struct{}{selectedID: {}}

	downstream := make(map[string][]string)
	upstream := make(map[string][]string)
	for _, e := range g.Edges {
		downstream[e.Source] = append(downstream[e.Source], e.Target)
		upstream[e.Target] = append(upstream[e.Target], e.Source)
	}

	bfs := func(adjacency map[string][]string) {
		queue := []string{selectedID}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			for _, next := range adjacency[node] {
				if _, ok := connected[next]; !ok {
					connected[next] = struct{}{}
					queue = append(queue, next)
				}
			}
		}
	}

	bfs(downstream)
	bfs(upstream)
	return connected
}

// Upstream returns all transitive dependencies of a node (sources it reads
// from, directly or indirectly), sorted, excluding the node itself.
func Upstream(g *Graph, id string) []string {
	upstream := make(map[string][]string)
	for _, e := range g.Edges {
		upstream[e.Target] = append(upstream[e.Target], e.Source)
	}
	return traverse(upstream, id)
}

// Downstream returns all transitive dependents of a node (everything its
// data feeds into), sorted, excluding the node itself.
func Downstream(g *Graph, id string) []string {
	downstream := make(map[string][]string)
	for _, e := range g.Edges {
		downstream[e.Source] = append(downstream[e.Source], e.Target)
	}
	return traverse(downstream, id)
}

func traverse(adjacency map[string][]string, start string) []string {
	seen := make(map[string]struct{})
	queue := []string{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[node] {
			if _, ok := seen[next]; !ok && next != start {
				seen[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}
