package flow

import (
	"fmt"

	"github.com/chview-io/chview/internal/lineage"
)

// resolveCategory maps a node to its visual category. Registration order
// can leave a table with a stale engine kind, so membership in the MV and
// target sets wins over the stored engine.
func resolveCategory(g *lineage.Graph, fullName string) string {
	if _, ok := g.MVNames[fullName]; ok {
		return "MaterializedView"
	}
	if _, ok := g.TargetNames[fullName]; ok {
		if node, exists := g.Nodes[fullName]; exists && node.Engine.Kind == lineage.EngineImplicit {
			return "implicit"
		}
		return "target"
	}
	return "source"
}

// truncateLabel shortens long table names for display.
func truncateLabel(name string) string {
	if len(name) <= 35 {
		return name
	}
	return name[:32] + "..."
}

// nodeRoles classifies every node as input (only outgoing edges), output
// (only incoming) or default (both or neither).
func nodeRoles(g *lineage.Graph) map[string]string {
	hasIncoming := make(map[string]bool)
	hasOutgoing := make(map[string]bool)
	for _, e := range g.Edges {
		hasOutgoing[e.Source] = true
		hasIncoming[e.Target] = true
	}

	roles := make(map[string]string, len(g.Nodes))
	for id := range g.Nodes {
		switch {
		case hasIncoming[id] && hasOutgoing[id]:
			roles[id] = "default"
		case hasOutgoing[id]:
			roles[id] = "input"
		default:
			roles[id] = "output"
		}
	}
	return roles
}

// nodeCSS assembles the inline style map for one node.
func nodeCSS(style nodeStyle, highlighted, hasError, dimmed bool) map[string]string {
	css := map[string]string{
		"background":   style.Background,
		"border":       "2px solid " + style.Border,
		"borderRadius": "12px",
		"padding":      "16px 20px",
		"fontSize":     "14px",
		"fontFamily":   "Inter, -apple-system, sans-serif",
		"fontWeight":   "400",
		"color":        "#0D1525",
		"width":        "260px",
		"textAlign":    "left",
		"cursor":       "pointer",
		"boxShadow":    "0 2px 8px " + style.Shadow,
	}

	if highlighted && !dimmed {
		css["boxShadow"] = fmt.Sprintf("0 0 0 3px %s40, 0 4px 12px %s", style.Border, style.Shadow)
	}
	if hasError && !dimmed {
		css["border"] = errorBorder
		css["boxShadow"] = errorShadow
	}
	if dimmed {
		css["opacity"] = "0.15"
		css["filter"] = "grayscale(0.5)"
		css["boxShadow"] = "none"
	}
	return css
}

// buildFlowState converts the graph into the renderable payload. A nil
// connected set means nothing is highlighted and nothing dims; highlight
// and connected come from the caller so the function stays stateless.
func buildFlowState(
	g *lineage.Graph,
	positions map[string]lineage.Position,
	errorViews map[string]struct{},
	connected map[string]struct{},
	highlight string,
) FlowState {
	roles := nodeRoles(g)

	nodes := make([]FlowNode, 0, len(g.Nodes))
	for _, id := range g.NodeIDs() {
		node := g.Nodes[id]
		category := resolveCategory(g, id)
		style, ok := nodeStyles[category]
		if !ok {
			style = nodeStyles["source"]
		}

		_, hasError := errorViews[id]
		dimmed := false
		if connected != nil {
			_, in := connected[id]
			dimmed = !in
		}
		highlighted := id == highlight

		content := fmt.Sprintf("**%s %s**\n\n%s", style.Icon, style.Label, truncateLabel(node.Name))

		nodes = append(nodes, FlowNode{
			ID:       id,
			Content:  content,
			Type:     roles[id],
			Position: positions[id],
			Style:    nodeCSS(style, highlighted, hasError, dimmed),
			HasError: hasError,
			Dimmed:   dimmed,
		})
	}

	edges := make([]FlowEdge, 0, len(g.Edges))
	for i, e := range g.Edges {
		color := sourceEdgeColor
		if _, isMV := g.MVNames[e.Source]; isMV {
			color = mvEdgeColor
		}

		dimmed := false
		if connected != nil {
			_, srcIn := connected[e.Source]
			_, dstIn := connected[e.Target]
			dimmed = !srcIn || !dstIn
		}

		style := map[string]string{"stroke": color, "strokeWidth": "1.5"}
		if dimmed {
			style["opacity"] = "0.08"
			style["strokeWidth"] = "1"
		}

		edges = append(edges, FlowEdge{
			ID:          fmt.Sprintf("e%d", i),
			Source:      e.Source,
			Target:      e.Target,
			Animated:    !dimmed,
			MarkerColor: color,
			Style:       style,
		})
	}

	return FlowState{Nodes: nodes, Edges: edges, Highlight: highlight}
}
