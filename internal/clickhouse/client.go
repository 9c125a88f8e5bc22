// Package clickhouse provides read-only access to the monitored cluster's
// system tables. It returns plain records; all lineage interpretation
// happens in internal/lineage.
package clickhouse

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/chview-io/chview/internal/config"
)

// Open creates a database/sql connection pool for the configured server.
// No connection is attempted until first use; call Ping to verify.
func Open(cfg *config.ClickHouseConfig) *sql.DB {
	opts := &clickhouse.Options{
		Addr: []string{cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout: time.Duration(cfg.SendReceiveTimeout) * time.Second,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	}
	if cfg.Secure {
		opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	db := clickhouse.OpenDB(opts)
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	return db
}

// Ping verifies connectivity and returns the server version.
func Ping(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("pinging clickhouse: %w", err)
	}
	return version, nil
}
