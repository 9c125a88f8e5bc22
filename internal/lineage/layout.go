package lineage

import "sort"

// Position is a 2-D layout coordinate for one node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout spacing constants. Presentation parameters, not correctness
// invariants: the canvas renders nodes roughly 260px wide.
const (
	XSpacing   = 380.0 // horizontal distance between adjacent levels
	YSpacing   = 130.0 // vertical distance between adjacent same-level nodes
	ClusterGap = 80.0  // extra vertical gap between independent clusters
	XOffset    = 80.0  // left margin before level 0
)

// Levels assigns every node a horizontal level equal to its longest-path
// distance from any node with no incoming edges. Cycles are broken by
// assigning level 0 to a node re-entered while still being resolved, which
// bounds the recursion on cyclic graphs. Traversal order is fixed by sorted
// node ids so the result is deterministic.
func Levels(g *Graph) map[string]int {
	incoming := make(map[string][]string)
	for _, e := range g.Edges {
		incoming[e.Target] = append(incoming[e.Target], e.Source)
	}

	levels := make(map[string]int, len(g.Nodes))
	visiting := make(map[string]struct{})

	var level func(id string) int
	level = func(id string) int {
		if l, ok := levels[id]; ok {
			return l
		}
		if _, ok := visiting[id]; ok {
			// Cycle: break it by treating this node as a root.
			levels[id] = 0
			return 0
		}
		visiting[id] = struct{}{}
		result := 0
		for _, parent := range incoming[id] {
			if pl := level(parent) + 1; pl > result {
				result = pl
			}
		}
		levels[id] = result
		delete(visiting, id)
		return result
	}

	for _, id := range g.NodeIDs() {
		level(id)
	}
	return levels
}

// findClusters partitions the node set into weakly-connected components,
// treating edges as undirected. Each cluster comes back as a sorted slice;
// clusters are ordered by their lexicographically smallest member because
// the outer loop walks sorted node ids.
func findClusters(g *Graph) [][]string {
	downstream := make(map[string][]string)
	upstream := make(map[string][]string)
	for _, e := range g.Edges {
		downstream[e.Source] = append(downstream[e.Source], e.Target)
		upstream[e.Target] = append(upstream[e.Target], e.Source)
	}

	visited := make(map[string]struct{})
	var clusters [][]string

	for _, id := range g.NodeIDs() {
		if _, ok := visited[id]; ok {
			continue
		}
		member := make(map[string]struct{})
		queue := []string{id}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if _, ok := member[n]; ok {
				continue
			}
			member[n] = struct{}{}
			for _, child := range downstream[n] {
				if _, ok := member[child]; !ok {
					queue = append(queue, child)
				}
			}
			for _, parent := range upstream[n] {
				if _, ok := member[parent]; !ok {
					queue = append(queue, parent)
				}
			}
		}

		cluster := make([]string, 0, len(member))
		for n := range member {
			visited[n] = struct{}{}
			cluster = append(cluster, n)
		}
		sort.Strings(cluster)
		clusters = append(clusters, cluster)
	}

	return clusters
}

// CalculatePositions computes (x, y) coordinates for every node.
//
// Nodes are placed left to right by topological level and grouped into
// weakly-connected clusters laid out as separated vertical bands, so
// independent pipelines do not interleave. Within a level, root nodes are
// ordered alphabetically and deeper nodes by the mean y of their already
// positioned parents, which keeps children near their parents and reduces
// edge crossings. The finished layout is re-centered around y=0.
//
// Never fails: an empty graph yields an empty map and cyclic edge sets are
// handled by the level computation's cycle break.
func CalculatePositions(g *Graph) map[string]Position {
	positions := make(map[string]Position, len(g.Nodes))
	if g == nil || len(g.Nodes) == 0 {
		return positions
	}

	levels := Levels(g)

	incoming := make(map[string][]string)
	for _, e := range g.Edges {
		incoming[e.Target] = append(incoming[e.Target], e.Source)
	}

	currentY := 0.0
	for _, cluster := range findClusters(g) {
		byLevel := make(map[int][]string)
		for _, id := range cluster {
			byLevel[levels[id]] = append(byLevel[levels[id]], id)
		}

		clusterLevels := make([]int, 0, len(byLevel))
		maxRows := 0
		for lvl, nodes := range byLevel {
			clusterLevels = append(clusterLevels, lvl)
			if len(nodes) > maxRows {
				maxRows = len(nodes)
			}
		}
		sort.Ints(clusterLevels)
		bandHeight := float64(maxRows-1) * YSpacing

		for _, lvl := range clusterLevels {
			nodes := byLevel[lvl]
			sort.Strings(nodes)
			if lvl > 0 {
				// Stable keeps the alphabetical order for ties.
				sort.SliceStable(nodes, func(i, j int) bool {
					return meanParentY(nodes[i], incoming, positions) <
						meanParentY(nodes[j], incoming, positions)
				})
			}

			x := float64(lvl)*XSpacing + XOffset
			colHeight := float64(len(nodes)-1) * YSpacing
			yStart := currentY + (bandHeight-colHeight)/2
			for i, id := range nodes {
				positions[id] = Position{X: x, Y: yStart + float64(i)*YSpacing}
			}
		}

		currentY += bandHeight + ClusterGap + YSpacing
	}

	recenter(positions)
	return positions
}

// meanParentY averages the y coordinates of a node's already positioned
// parents; nodes with none default to 0.
func meanParentY(id string, incoming map[string][]string, positions map[string]Position) float64 {
	sum := 0.0
	count := 0
	for _, parent := range incoming[id] {
		if p, ok := positions[parent]; ok {
			sum += p.Y
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// recenter shifts all positions so the vertical midpoint sits at y=0.
func recenter(positions map[string]Position) {
	if len(positions) == 0 {
		return
	}
	first := true
	var minY, maxY float64
	for _, p := range positions {
		if first {
			minY, maxY = p.Y, p.Y
			first = false
			continue
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	mid := (minY + maxY) / 2
	for id, p := range positions {
		p.Y -= mid
		positions[id] = p
	}
}
