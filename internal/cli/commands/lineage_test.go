package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chview-io/chview/internal/lineage"
)

func builtGraph() *lineage.Graph {
	views := []lineage.ViewDefinition{
		{
			Database:         "db",
			Name:             "mv_orders",
			CreateTableQuery: "CREATE MATERIALIZED VIEW db.mv_orders TO db.orders_agg AS SELECT * FROM db.orders",
		},
		{
			Database:         "db",
			Name:             "mv_daily",
			CreateTableQuery: "CREATE MATERIALIZED VIEW db.mv_daily TO db.daily AS SELECT * FROM db.orders_agg",
		},
	}
	schema := []lineage.TableSchema{
		{Database: "db", Name: "orders", Engine: "MergeTree"},
		{Database: "db", Name: "orders_agg", Engine: "SummingMergeTree"},
	}
	return lineage.BuildLineage(views, schema)
}

func TestSummarize(t *testing.T) {
	rows := summarize(builtGraph())
	require.Len(t, rows, 2)

	// Rows come back in sorted node order.
	assert.Equal(t, "db.mv_daily", rows[0].View)
	assert.Equal(t, []string{"db.orders_agg"}, rows[0].Sources)
	assert.Equal(t, "db.daily", rows[0].Target)

	assert.Equal(t, "db.mv_orders", rows[1].View)
	assert.Equal(t, []string{"db.orders"}, rows[1].Sources)
	assert.Equal(t, "db.orders_agg", rows[1].Target)
}

func TestSummarize_EmptyGraph(t *testing.T) {
	assert.Empty(t, summarize(lineage.NewGraph()))
}

func TestTableDetail(t *testing.T) {
	g := builtGraph()

	d := tableDetail(g, "db.orders_agg")
	assert.Equal(t, "db.orders_agg", d.Table)
	assert.Equal(t, "SummingMergeTree", d.Engine)
	assert.Equal(t, []string{"db.mv_orders", "db.orders"}, d.Upstream)
	assert.Equal(t, []string{"db.daily", "db.mv_daily"}, d.Downstream)
}

func TestRenderSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderSummaryTable(&buf, builtGraph()))

	out := buf.String()
	assert.Contains(t, out, "db.mv_orders")
	assert.Contains(t, out, "db.orders_agg")
	assert.Contains(t, out, "(2 views, 5 tables, 4 edges)")
}

func TestRenderSummaryTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderSummaryTable(&buf, lineage.NewGraph()))
	assert.Contains(t, buf.String(), "No materialized views")
}

func TestRenderDetailText(t *testing.T) {
	var buf bytes.Buffer
	renderDetailText(&buf, tableDetail(builtGraph(), "db.orders"))

	out := buf.String()
	assert.Contains(t, out, "Lineage for: db.orders (MergeTree)")
	assert.Contains(t, out, "Upstream dependencies (0):")
	assert.Contains(t, out, "Downstream dependents (4):")
	assert.Contains(t, out, "  - db.mv_orders")
}
