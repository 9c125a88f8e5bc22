package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/chview-io/chview/internal/clickhouse"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check cluster connectivity and lineage prerequisites",
		Long: `Verify that chview can reach the cluster and read what it needs.

Checks the connection, lists user databases, sums table storage, counts
materialized views, and probes the query_views_log table used for error
badges.`,
		Example: `  # Run all checks
  chview doctor`,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg := ConfigFrom(cmd.Context())
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Check", "Status", "Detail"})

	repo, db, err := openRepository(ctx, cfg)
	if err != nil {
		t.AppendRow(table.Row{"connection", "FAIL", err.Error()})
		t.Render()
		return fmt.Errorf("cluster unreachable")
	}
	defer func() { _ = db.Close() }()

	version, _ := clickhouse.Ping(ctx, db)
	t.AppendRow(table.Row{"connection", "OK", fmt.Sprintf("%s (ClickHouse %s)", cfg.ClickHouse.Addr(), version)})

	if databases, err := repo.FetchDatabases(ctx); err != nil {
		t.AppendRow(table.Row{"databases", "FAIL", err.Error()})
	} else {
		t.AppendRow(table.Row{"databases", "OK", strings.Join(databases, ", ")})
	}

	if metrics, err := repo.FetchStorageMetrics(ctx, cfg.Database); err != nil {
		t.AppendRow(table.Row{"storage", "FAIL", err.Error()})
	} else {
		var rows, bytes int64
		for _, m := range metrics {
			rows += m.Rows
			bytes += m.BytesOnDisk
		}
		t.AppendRow(table.Row{"storage", "OK",
			fmt.Sprintf("%d tables with parts, %d rows, %s on disk", len(metrics), rows, formatBytes(bytes))})
	}

	if info, err := repo.FetchClusterInfo(ctx, cfg.Database); err != nil {
		t.AppendRow(table.Row{"cluster info", "FAIL", err.Error()})
	} else {
		t.AppendRow(table.Row{"cluster info", "OK",
			fmt.Sprintf("%d tables, %d materialized views", info.UserTables, info.MVCount)})
	}

	// FetchViewErrors swallows a missing log table; distinguish that case
	// by whether any rows could come back at all.
	viewErrors, err := repo.FetchViewErrors(ctx, cfg.ErrorWindowHours, cfg.Database)
	switch {
	case err != nil:
		t.AppendRow(table.Row{"query_views_log", "WARN", err.Error()})
	case viewErrors == nil:
		t.AppendRow(table.Row{"query_views_log", "WARN", "not readable; error badges disabled"})
	default:
		t.AppendRow(table.Row{"query_views_log", "OK",
			fmt.Sprintf("%d failing views in the last %dh", len(viewErrors), cfg.ErrorWindowHours)})
	}

	t.Render()
	return nil
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
