package clickhouse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDatabaseFilter(t *testing.T) {
	tests := []struct {
		name          string
		database      string
		excludeSystem bool
		wantClause    string
		wantArgs      []any
	}{
		{"explicit database", "analytics", true, "WHERE database = ?", []any{"analytics"}},
		{"exclude system", "", true, "WHERE database NOT IN " + systemDatabases, nil},
		{"no filter", "", false, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := buildDatabaseFilter("database", tt.database, tt.excludeSystem)
			assert.Equal(t, tt.wantClause, clause)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildMaterializedViewsQuery(t *testing.T) {
	query, args := buildMaterializedViewsQuery("")
	assert.Contains(t, query, "engine = 'MaterializedView'")
	assert.Contains(t, query, "dependencies_database")
	assert.Empty(t, args)

	query, args = buildMaterializedViewsQuery("analytics")
	assert.Contains(t, query, "database = ?")
	assert.Contains(t, query, "AND engine = 'MaterializedView'")
	assert.Equal(t, []any{"analytics"}, args)
}

func TestBuildSchemaQuery(t *testing.T) {
	query, args := buildSchemaQuery("")
	assert.Contains(t, query, "NOT IN "+systemDatabases)
	assert.Empty(t, args)

	query, args = buildSchemaQuery("analytics")
	assert.NotContains(t, query, "NOT IN")
	assert.Equal(t, []any{"analytics"}, args)
}

func TestBuildViewErrorsQuery(t *testing.T) {
	query, args := buildViewErrorsQuery(24, "")
	assert.Contains(t, query, "query_views_log")
	assert.Contains(t, query, "INTERVAL ? HOUR")
	assert.Equal(t, []any{24}, args)

	query, args = buildViewErrorsQuery(6, "analytics")
	assert.Contains(t, query, "view_name LIKE ?")
	assert.Equal(t, []any{6, "analytics.%"}, args)
}

func TestBuildStorageMetricsQuery(t *testing.T) {
	query, args := buildStorageMetricsQuery("")
	assert.Contains(t, query, "active = 1")
	assert.Contains(t, query, "GROUP BY database, table")
	assert.Empty(t, args)

	query, args = buildStorageMetricsQuery("analytics")
	assert.Contains(t, query, "database = ? AND active = 1")
	assert.Equal(t, []any{"analytics"}, args)
}

func TestBuildClusterInfoQuery(t *testing.T) {
	query, args := buildClusterInfoQuery("")
	assert.Contains(t, query, "version()")
	assert.Empty(t, args)

	query, args = buildClusterInfoQuery("analytics")
	assert.Equal(t, 3, strings.Count(query, "?"))
	assert.Equal(t, []any{"analytics", "analytics", "analytics"}, args)
}
