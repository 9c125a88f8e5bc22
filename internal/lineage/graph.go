// Package lineage infers table-level data lineage from ClickHouse
// materialized view definitions. It parses CREATE MATERIALIZED VIEW
// statements to recover source and target tables, assembles them into a
// directed graph, computes a deterministic 2-D layout for display, and
// answers connectivity queries used for interactive highlighting.
package lineage

import "sort"

// EngineKind classifies how a node's engine attribute was determined.
type EngineKind int

const (
	// EngineResolved means the engine name came from an authoritative
	// schema lookup (system.tables). Name holds the engine string.
	EngineResolved EngineKind = iota
	// EngineMaterializedView marks nodes registered as materialized views.
	EngineMaterializedView
	// EngineSource marks tables only ever discovered as read sources.
	EngineSource
	// EngineTarget marks explicit TO targets without a schema entry.
	EngineTarget
	// EngineImplicit marks hidden .inner backing tables.
	EngineImplicit
)

// Engine is a node's storage engine classification. Kind is exhaustive;
// Name carries the authoritative engine string only for EngineResolved.
type Engine struct {
	Kind EngineKind
	Name string
}

// ResolvedEngine wraps an authoritative engine name from a schema lookup.
func ResolvedEngine(name string) Engine {
	return Engine{Kind: EngineResolved, Name: name}
}

// String renders the authoritative engine name, or the sentinel spelling
// used by the display layer for structural classifications.
func (e Engine) String() string {
	switch e.Kind {
	case EngineResolved:
		return e.Name
	case EngineMaterializedView:
		return "MaterializedView"
	case EngineSource:
		return "Source"
	case EngineTarget:
		return "target"
	case EngineImplicit:
		return "implicit"
	}
	return "Unknown"
}

// TableNode represents a table or materialized view in the lineage graph.
type TableNode struct {
	Database string
	Name     string
	Engine   Engine
}

// FullName returns the node's graph key, "database.name".
func (n *TableNode) FullName() string {
	return n.Database + "." + n.Name
}

// Edge represents one "view reads from / writes to" relationship.
// MVName records which materialized view produced the edge.
type Edge struct {
	Source string
	Target string
	MVName string
}

// Graph is the complete lineage graph. Nodes are keyed by full name;
// Edges keep discovery order so rebuilds are reproducible.
type Graph struct {
	Nodes       map[string]*TableNode
	Edges       []Edge
	MVNames     map[string]struct{}
	TargetNames map[string]struct{}
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:       make(map[string]*TableNode),
		MVNames:     make(map[string]struct{}),
		TargetNames: make(map[string]struct{}),
	}
}

// AddNode registers a node under its full name. The first registration
// wins: a node already present is never overwritten by a later discovery.
func (g *Graph) AddNode(node *TableNode) *TableNode {
	if existing, ok := g.Nodes[node.FullName()]; ok {
		return existing
	}
	g.Nodes[node.FullName()] = node
	return node
}

// AddEdge appends an edge in discovery order.
func (g *Graph) AddEdge(source, target, mvName string) {
	g.Edges = append(g.Edges, Edge{Source: source, Target: target, MVName: mvName})
}

// HasNode reports whether a node with the given full name is registered.
func (g *Graph) HasNode(fullName string) bool {
	_, ok := g.Nodes[fullName]
	return ok
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

// NodeIDs returns all node full names, sorted for deterministic iteration.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
