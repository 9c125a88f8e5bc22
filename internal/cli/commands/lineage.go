package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/chview-io/chview/internal/lineage"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	OutputFormat string
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage [table]",
		Short: "Show materialized view lineage",
		Long: `Display the lineage inferred from materialized view DDL.

Without arguments, lists every materialized view with its sources and
target. With a table argument, shows that table's upstream dependencies
and downstream dependents.`,
		Example: `  # Summarize all materialized views
  chview lineage

  # Show lineage for one table
  chview lineage analytics.orders

  # Output as JSON
  chview lineage analytics.orders --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			return runLineage(cmd, target, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (text|json)")

	return cmd
}

func runLineage(cmd *cobra.Command, target string, opts *LineageOptions) error {
	cfg := ConfigFrom(cmd.Context())

	repo, db, err := openRepository(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	g, err := buildGraph(cmd.Context(), repo, cfg.Database)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if target == "" {
		if opts.OutputFormat == "json" {
			return renderSummaryJSON(w, g)
		}
		return renderSummaryTable(w, g)
	}

	if !g.HasNode(target) {
		return fmt.Errorf("table not found in lineage: %s", target)
	}
	detail := tableDetail(g, target)
	if opts.OutputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	}
	renderDetailText(w, detail)
	return nil
}

// buildGraph fetches DDL and schema from the cluster and builds the graph.
func buildGraph(ctx context.Context, source lineageSource, database string) (*lineage.Graph, error) {
	views, err := source.FetchMaterializedViews(ctx, database)
	if err != nil {
		return nil, err
	}
	tables, err := source.FetchSchema(ctx, database)
	if err != nil {
		return nil, err
	}

	schema := make([]lineage.TableSchema, 0, len(tables))
	for _, t := range tables {
		schema = append(schema, t.Schema())
	}
	return lineage.BuildLineage(views, schema), nil
}

// mvSummary is one row of the lineage overview.
type mvSummary struct {
	View    string   `json:"view"`
	Sources []string `json:"sources"`
	Target  string   `json:"target"`
}

// summarize collects per-view sources and targets from the edge list.
func summarize(g *lineage.Graph) []mvSummary {
	sources := make(map[string][]string)
	targets := make(map[string]string)
	for _, e := range g.Edges {
		if e.Target == e.MVName {
			sources[e.MVName] = append(sources[e.MVName], e.Source)
		}
		if e.Source == e.MVName {
			targets[e.MVName] = e.Target
		}
	}

	var rows []mvSummary
	for _, id := range g.NodeIDs() {
		if _, ok := g.MVNames[id]; !ok {
			continue
		}
		rows = append(rows, mvSummary{
			View:    id,
			Sources: sources[id],
			Target:  targets[id],
		})
	}
	return rows
}

func renderSummaryTable(w io.Writer, g *lineage.Graph) error {
	rows := summarize(g)
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No materialized views found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Materialized View", "Sources", "Target"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.View, strings.Join(row.Sources, "\n"), row.Target})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d views, %d tables, %d edges)\n",
		len(rows), g.NodeCount(), g.EdgeCount())
	return nil
}

func renderSummaryJSON(w io.Writer, g *lineage.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summarize(g))
}

// detail is the per-table lineage output.
type detail struct {
	Table      string   `json:"table"`
	Engine     string   `json:"engine"`
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
}

func tableDetail(g *lineage.Graph, id string) detail {
	d := detail{
		Table:      id,
		Upstream:   lineage.Upstream(g, id),
		Downstream: lineage.Downstream(g, id),
	}
	if node, ok := g.Nodes[id]; ok {
		d.Engine = node.Engine.String()
	}
	return d
}

func renderDetailText(w io.Writer, d detail) {
	_, _ = fmt.Fprintf(w, "Lineage for: %s (%s)\n\n", d.Table, d.Engine)

	_, _ = fmt.Fprintf(w, "Upstream dependencies (%d):\n", len(d.Upstream))
	for _, id := range d.Upstream {
		_, _ = fmt.Fprintf(w, "  - %s\n", id)
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "Downstream dependents (%d):\n", len(d.Downstream))
	for _, id := range d.Downstream {
		_, _ = fmt.Fprintf(w, "  - %s\n", id)
	}
}
