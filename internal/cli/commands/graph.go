package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/chview-io/chview/internal/lineage"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	OutputFormat string
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the lineage graph by dependency level",
		Long: `Display the inferred graph grouped by dependency level.

Level 0 holds pure sources; each table sits one level to the right of
its deepest upstream dependency, matching the dashboard layout.`,
		Example: `  # Level summary for the whole cluster
  chview graph

  # Level summary for one database
  chview graph -d analytics

  # Output as JSON
  chview graph --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (text|json)")

	return cmd
}

func runGraph(cmd *cobra.Command, opts *GraphOptions) error {
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
	if opts.OutputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(levelRows(g))
	}
	return renderLevelTable(w, g)
}

// levelRow is one dependency level of the graph.
type levelRow struct {
	Level  int      `json:"level"`
	Tables []string `json:"tables"`
}

// levelRows groups nodes by level, sorted within each level.
func levelRows(g *lineage.Graph) []levelRow {
	levels := lineage.Levels(g)

	maxLevel := -1
	byLevel := make(map[int][]string)
	for _, id := range g.NodeIDs() {
		lvl := levels[id]
		byLevel[lvl] = append(byLevel[lvl], id)
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	var rows []levelRow
	for lvl := 0; lvl <= maxLevel; lvl++ {
		if tables, ok := byLevel[lvl]; ok {
			rows = append(rows, levelRow{Level: lvl, Tables: tables})
		}
	}
	return rows
}

func renderLevelTable(w io.Writer, g *lineage.Graph) error {
	rows := levelRows(g)
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No tables found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Level", "Count", "Tables"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Level, len(row.Tables), strings.Join(row.Tables, "\n")})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d tables across %d levels)\n", g.NodeCount(), len(rows))
	return nil
}
