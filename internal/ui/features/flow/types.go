// Package flow serves the interactive lineage graph as React Flow
// compatible JSON, with highlight dimming and per-session node positions.
package flow

import "github.com/chview-io/chview/internal/lineage"

// nodeStyle groups the visual palette for one node category.
type nodeStyle struct {
	Background string
	Border     string
	BadgeBg    string
	BadgeText  string
	Shadow     string
	Label      string
	Icon       string
}

// nodeStyles is indexed by visual category, not raw engine name.
var nodeStyles = map[string]nodeStyle{
	"source": {
		Background: "#E8F8F7",
		Border:     "#07A4AE",
		BadgeBg:    "#D0F0ED",
		BadgeText:  "#058489",
		Shadow:     "rgba(7,164,174,0.12)",
		Label:      "Source",
		Icon:       "⊳",
	},
	"MaterializedView": {
		Background: "#FCE9ED",
		Border:     "#E51745",
		BadgeBg:    "#F9D3DB",
		BadgeText:  "#C21339",
		Shadow:     "rgba(229,23,69,0.10)",
		Label:      "Mat. View",
		Icon:       "⬡",
	},
	"target": {
		Background: "#F8F2EC",
		Border:     "#BF8659",
		BadgeBg:    "#F0E2D4",
		BadgeText:  "#A06F46",
		Shadow:     "rgba(191,134,89,0.12)",
		Label:      "Target",
		Icon:       "⊲",
	},
	"implicit": {
		Background: "#F1F2F5",
		Border:     "#A4ABBA",
		BadgeBg:    "#E5E7ED",
		BadgeText:  "#636B7F",
		Shadow:     "rgba(164,171,186,0.10)",
		Label:      "Implicit",
		Icon:       "∘",
	},
}

const (
	mvEdgeColor     = "#E51745"
	sourceEdgeColor = "#07A4AE"
	errorBorder     = "2px solid #FF5C4D"
	errorShadow     = "0 0 0 3px rgba(255,92,77,0.15), 0 2px 8px rgba(255,92,77,0.20)"
)

// FlowNode is one renderable node.
type FlowNode struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Type     string            `json:"type"` // input, output or default
	Position lineage.Position  `json:"position"`
	Style    map[string]string `json:"style"`
	HasError bool              `json:"hasError"`
	Dimmed   bool              `json:"dimmed"`
}

// FlowEdge is one renderable edge.
type FlowEdge struct {
	ID          string            `json:"id"`
	Source      string            `json:"source"`
	Target      string            `json:"target"`
	Animated    bool              `json:"animated"`
	MarkerColor string            `json:"markerColor"`
	Style       map[string]string `json:"style"`
}

// FlowState is the full graph payload sent to the frontend.
type FlowState struct {
	Nodes     []FlowNode `json:"nodes"`
	Edges     []FlowEdge `json:"edges"`
	Highlight string     `json:"highlight,omitempty"`
}

// Stats summarises the current snapshot for the stats panel.
type Stats struct {
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
	Views       int    `json:"views"`
	ErrorViews  int    `json:"errorViews"`
	RefreshedAt string `json:"refreshedAt,omitempty"`
}

// selectSignals is the click payload from the frontend.
type selectSignals struct {
	ID string `json:"id"`
}
