package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chview-io/chview/internal/clickhouse"
	"github.com/chview-io/chview/internal/config"
	"github.com/chview-io/chview/internal/lineage"
)

// lineageSource is the subset of the repository the read-only commands
// need, kept narrow so tests can substitute an in-memory source.
type lineageSource interface {
	FetchMaterializedViews(ctx context.Context, database string) ([]lineage.ViewDefinition, error)
	FetchSchema(ctx context.Context, database string) ([]clickhouse.TableInfo, error)
}

// openRepository connects to the cluster and verifies the connection.
// The caller owns the returned *sql.DB and must close it.
func openRepository(ctx context.Context, cfg *config.Config) (*clickhouse.Repository, *sql.DB, error) {
	db := clickhouse.Open(&cfg.ClickHouse)

	version, err := clickhouse.Ping(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connecting to %s: %w", cfg.ClickHouse.Addr(), err)
	}

	LoggerFrom(ctx).Debug("connected to ClickHouse",
		"addr", cfg.ClickHouse.Addr(), "version", version)

	return clickhouse.NewRepository(db), db, nil
}
