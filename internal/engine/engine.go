// Package engine coordinates data refresh and caches the derived lineage
// artifacts served to the UI and CLI. The lineage computation itself is
// pure (internal/lineage); this package owns the only mutable state: the
// snapshot swapped in on each refresh.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chview-io/chview/internal/clickhouse"
	"github.com/chview-io/chview/internal/lineage"
)

// Source provides the raw records a lineage graph is built from.
type Source interface {
	FetchMaterializedViews(ctx context.Context, database string) ([]lineage.ViewDefinition, error)
	FetchSchema(ctx context.Context, database string) ([]clickhouse.TableInfo, error)
	FetchViewErrors(ctx context.Context, hours int, database string) ([]clickhouse.ViewError, error)
}

// Snapshot is an immutable view of the last successful refresh. Handlers
// read it without locking; a new refresh swaps in a fresh snapshot rather
// than mutating this one.
type Snapshot struct {
	Graph       *lineage.Graph
	Positions   map[string]lineage.Position
	ErrorViews  map[string]struct{}
	Tables      map[string]clickhouse.TableInfo
	RefreshedAt time.Time
}

// Config holds construction options for the Engine.
type Config struct {
	Source Source
	Logger *slog.Logger

	// Database restricts lineage to one database; empty means all.
	Database string

	// ErrorWindowHours bounds the failing-view lookback.
	ErrorWindowHours int

	// OnRefresh is called after each successful refresh (e.g. to ping
	// SSE subscribers). Optional.
	OnRefresh func()
}

// Engine caches the lineage graph, layout, and error set between refreshes.
type Engine struct {
	source           Source
	logger           *slog.Logger
	database         string
	errorWindowHours int
	onRefresh        func()

	mu       sync.RWMutex
	snapshot *Snapshot
}

// New creates an Engine. No data is loaded until the first Refresh.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hours := cfg.ErrorWindowHours
	if hours <= 0 {
		hours = 24
	}
	return &Engine{
		source:           cfg.Source,
		logger:           logger,
		database:         cfg.Database,
		errorWindowHours: hours,
		onRefresh:        cfg.OnRefresh,
	}
}

// Refresh rebuilds the graph and layout from the source. The previous
// snapshot stays visible until the rebuild succeeds.
func (e *Engine) Refresh(ctx context.Context) error {
	start := time.Now()

	views, err := e.source.FetchMaterializedViews(ctx, e.database)
	if err != nil {
		return fmt.Errorf("refreshing lineage: %w", err)
	}
	tables, err := e.source.FetchSchema(ctx, e.database)
	if err != nil {
		return fmt.Errorf("refreshing schema: %w", err)
	}

	schema := make([]lineage.TableSchema, 0, len(tables))
	tableIndex := make(map[string]clickhouse.TableInfo, len(tables))
	for _, t := range tables {
		schema = append(schema, t.Schema())
		tableIndex[t.FullName()] = t
	}

	errorViews := make(map[string]struct{})
	viewErrors, err := e.source.FetchViewErrors(ctx, e.errorWindowHours, e.database)
	if err != nil {
		// Error badges are decoration; lineage still renders without them.
		e.logger.Warn("failed to fetch view errors", "error", err)
	}
	for _, ve := range viewErrors {
		errorViews[ve.ViewName] = struct{}{}
	}

	graph := lineage.BuildLineage(views, schema)
	positions := lineage.CalculatePositions(graph)

	e.mu.Lock()
	e.snapshot = &Snapshot{
		Graph:       graph,
		Positions:   positions,
		ErrorViews:  errorViews,
		Tables:      tableIndex,
		RefreshedAt: time.Now(),
	}
	e.mu.Unlock()

	e.logger.Info("lineage refreshed",
		"views", len(views),
		"nodes", graph.NodeCount(),
		"edges", graph.EdgeCount(),
		"duration", time.Since(start))

	if e.onRefresh != nil {
		e.onRefresh()
	}
	return nil
}

// Snapshot returns the last refresh result, or an empty snapshot before
// the first successful refresh.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snapshot == nil {
		return &Snapshot{
			Graph:      lineage.NewGraph(),
			Positions:  map[string]lineage.Position{},
			ErrorViews: map[string]struct{}{},
			Tables:     map[string]clickhouse.TableInfo{},
		}
	}
	return e.snapshot
}

// Run refreshes on a fixed interval until the context is cancelled.
// Refresh failures are logged and retried on the next tick.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				e.logger.Error("scheduled refresh failed", "error", err)
			}
		}
	}
}

// MergePositions overlays externally supplied positions (e.g. nodes the
// user dragged) onto freshly computed ones. A previous position wins for
// any node still in the graph; nodes that disappeared are dropped.
func MergePositions(computed, previous map[string]lineage.Position) map[string]lineage.Position {
	merged := make(map[string]lineage.Position, len(computed))
	for id, p := range computed {
		if prev, ok := previous[id]; ok {
			merged[id] = prev
		} else {
			merged[id] = p
		}
	}
	return merged
}
