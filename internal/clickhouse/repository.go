package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chview-io/chview/internal/lineage"
)

// TableInfo is a schema row from system.tables.
type TableInfo struct {
	Database   string
	Name       string
	Engine     string
	TotalRows  int64
	TotalBytes int64
}

// FullName returns the qualified table name.
func (t *TableInfo) FullName() string {
	return t.Database + "." + t.Name
}

// Schema converts the row to the lookup record the lineage builder expects.
func (t *TableInfo) Schema() lineage.TableSchema {
	return lineage.TableSchema{Database: t.Database, Name: t.Name, Engine: t.Engine}
}

// ViewError is one failing view execution from query_views_log.
type ViewError struct {
	ViewName      string
	ExceptionCode int32
	Exception     string
	EventTime     time.Time
}

// StorageMetric aggregates active part sizes for one table.
type StorageMetric struct {
	Database          string
	Table             string
	Rows              int64
	BytesOnDisk       int64
	CompressedBytes   int64
	UncompressedBytes int64
}

// ClusterInfo is the overview shown on the stats panel.
type ClusterInfo struct {
	Version        string
	UptimeSeconds  int64
	UserDatabases  int64
	UserTables     int64
	MVCount        int64
	TotalDiskBytes int64
}

// Repository reads lineage inputs from the cluster's system tables.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository over an open connection pool.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FetchMaterializedViews returns every materialized view with its DDL and
// explicit dependency metadata, optionally restricted to one database.
func (r *Repository) FetchMaterializedViews(ctx context.Context, database string) ([]lineage.ViewDefinition, error) {
	query, args := buildMaterializedViewsQuery(database)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching materialized views: %w", err)
	}
	defer rows.Close()

	var views []lineage.ViewDefinition
	for rows.Next() {
		var v lineage.ViewDefinition
		if err := rows.Scan(&v.Database, &v.Name, &v.CreateTableQuery,
			&v.DependenciesDatabase, &v.DependenciesTable); err != nil {
			return nil, fmt.Errorf("scanning materialized view row: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// FetchSchema returns all non-system tables with engine and size info.
func (r *Repository) FetchSchema(ctx context.Context, database string) ([]TableInfo, error) {
	query, args := buildSchemaQuery(database)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching schema: %w", err)
	}
	defer rows.Close()

	var tables []TableInfo
	for rows.Next() {
		var t TableInfo
		var totalRows, totalBytes sql.NullInt64
		if err := rows.Scan(&t.Database, &t.Name, &t.Engine, &totalRows, &totalBytes); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		t.TotalRows = totalRows.Int64
		t.TotalBytes = totalBytes.Int64
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// FetchDatabases lists user databases.
func (r *Repository) FetchDatabases(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, buildDatabasesQuery())
	if err != nil {
		return nil, fmt.Errorf("fetching databases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning database row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FetchViewErrors returns recent failing view executions. Older servers
// have no query_views_log; a failed query yields a nil result instead of
// an error so lineage still renders without error badges. A readable but
// empty log yields a non-nil empty slice.
func (r *Repository) FetchViewErrors(ctx context.Context, hours int, database string) ([]ViewError, error) {
	query, args := buildViewErrorsQuery(hours, database)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()

	errors := []ViewError{}
	for rows.Next() {
		var e ViewError
		if err := rows.Scan(&e.ViewName, &e.ExceptionCode, &e.Exception, &e.EventTime); err != nil {
			return nil, fmt.Errorf("scanning view error row: %w", err)
		}
		errors = append(errors, e)
	}
	return errors, rows.Err()
}

// FetchStorageMetrics aggregates active part sizes per table.
func (r *Repository) FetchStorageMetrics(ctx context.Context, database string) ([]StorageMetric, error) {
	query, args := buildStorageMetricsQuery(database)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching storage metrics: %w", err)
	}
	defer rows.Close()

	var metrics []StorageMetric
	for rows.Next() {
		var m StorageMetric
		if err := rows.Scan(&m.Database, &m.Table, &m.Rows, &m.BytesOnDisk,
			&m.CompressedBytes, &m.UncompressedBytes); err != nil {
			return nil, fmt.Errorf("scanning storage metric row: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// FetchClusterInfo returns the overview counters.
func (r *Repository) FetchClusterInfo(ctx context.Context, database string) (*ClusterInfo, error) {
	query, args := buildClusterInfoQuery(database)
	var info ClusterInfo
	var totalDisk sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&info.Version, &info.UptimeSeconds,
		&info.UserDatabases, &info.UserTables, &info.MVCount, &totalDisk); err != nil {
		return nil, fmt.Errorf("fetching cluster info: %w", err)
	}
	info.TotalDiskBytes = totalDisk.Int64
	return &info, nil
}
