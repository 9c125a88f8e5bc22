package clickhouse

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arrayConverter lets []string row values (ClickHouse Array(String) columns)
// pass through sqlmock, whose default converter only accepts driver.Value types.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if _, ok := v.([]string); ok {
		return v, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestFetchMaterializedViews(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := mock.NewRows([]string{
		"database", "name", "create_table_query", "dependencies_database", "dependencies_table",
	}).AddRow(
		"analytics", "mv_orders",
		"CREATE MATERIALIZED VIEW analytics.mv_orders TO analytics.orders_agg AS SELECT * FROM analytics.orders",
		[]string{"analytics"}, []string{"orders"},
	)
	mock.ExpectQuery("FROM system.tables").WillReturnRows(rows)

	views, err := repo.FetchMaterializedViews(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Equal(t, "analytics", views[0].Database)
	assert.Equal(t, "mv_orders", views[0].Name)
	assert.Equal(t, []string{"analytics"}, views[0].DependenciesDatabase)
	assert.Equal(t, []string{"orders"}, views[0].DependenciesTable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchMaterializedViews_DatabaseFilter(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM system.tables").
		WithArgs("analytics").
		WillReturnRows(mock.NewRows([]string{
			"database", "name", "create_table_query", "dependencies_database", "dependencies_table",
		}))

	views, err := repo.FetchMaterializedViews(context.Background(), "analytics")
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSchema(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := mock.NewRows([]string{"database", "name", "engine", "total_rows", "total_bytes"}).
		AddRow("analytics", "orders", "MergeTree", int64(1000), int64(1<<20)).
		AddRow("analytics", "orders_agg", "SummingMergeTree", nil, nil)
	mock.ExpectQuery("FROM system.tables").WillReturnRows(rows)

	tables, err := repo.FetchSchema(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, tables, 2)

	assert.Equal(t, "analytics.orders", tables[0].FullName())
	assert.Equal(t, int64(1000), tables[0].TotalRows)
	assert.Equal(t, "MergeTree", tables[0].Schema().Engine)
	// Nullable sizes come back as zero.
	assert.Zero(t, tables[1].TotalRows)
	assert.Zero(t, tables[1].TotalBytes)
}

func TestFetchDatabases(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM system.databases").
		WillReturnRows(mock.NewRows([]string{"name"}).AddRow("analytics").AddRow("staging"))

	names, err := repo.FetchDatabases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"analytics", "staging"}, names)
}

func TestFetchViewErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	rows := mock.NewRows([]string{"view_name", "exception_code", "exception", "event_time"}).
		AddRow("analytics.mv_orders", int32(241), "Memory limit exceeded", now)
	mock.ExpectQuery("FROM system.query_views_log").WithArgs(24).WillReturnRows(rows)

	viewErrors, err := repo.FetchViewErrors(context.Background(), 24, "")
	require.NoError(t, err)
	require.Len(t, viewErrors, 1)
	assert.Equal(t, "analytics.mv_orders", viewErrors[0].ViewName)
	assert.Equal(t, int32(241), viewErrors[0].ExceptionCode)
}

func TestFetchViewErrors_MissingLogTableTolerated(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM system.query_views_log").
		WillReturnError(errors.New("Table system.query_views_log doesn't exist"))

	viewErrors, err := repo.FetchViewErrors(context.Background(), 24, "")
	assert.NoError(t, err)
	assert.Empty(t, viewErrors)
}

func TestFetchStorageMetrics(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := mock.NewRows([]string{
		"database", "table", "rows", "bytes_on_disk", "compressed_bytes", "uncompressed_bytes",
	}).AddRow("analytics", "orders", int64(5000), int64(4096), int64(2048), int64(8192))
	mock.ExpectQuery("FROM system.parts").WillReturnRows(rows)

	metrics, err := repo.FetchStorageMetrics(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, int64(5000), metrics[0].Rows)
	assert.Equal(t, int64(4096), metrics[0].BytesOnDisk)
}

func TestFetchClusterInfo(t *testing.T) {
	repo, mock := newMockRepo(t)

	row := mock.NewRows([]string{"version()", "uptime()", "dbs", "tables", "mvs", "disk"}).
		AddRow("24.8.1", int64(3600), int64(2), int64(40), int64(7), int64(1<<30))
	mock.ExpectQuery("SELECT").WillReturnRows(row)

	info, err := repo.FetchClusterInfo(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "24.8.1", info.Version)
	assert.Equal(t, int64(7), info.MVCount)
	assert.Equal(t, int64(1<<30), info.TotalDiskBytes)
}
