package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chview-io/chview/internal/clickhouse"
	"github.com/chview-io/chview/internal/lineage"
)

type fakeSource struct {
	views      []lineage.ViewDefinition
	tables     []clickhouse.TableInfo
	viewErrors []clickhouse.ViewError

	viewsErr      error
	viewErrorsErr error
}

func (f *fakeSource) FetchMaterializedViews(_ context.Context, _ string) ([]lineage.ViewDefinition, error) {
	return f.views, f.viewsErr
}

func (f *fakeSource) FetchSchema(_ context.Context, _ string) ([]clickhouse.TableInfo, error) {
	return f.tables, nil
}

func (f *fakeSource) FetchViewErrors(_ context.Context, _ int, _ string) ([]clickhouse.ViewError, error) {
	return f.viewErrors, f.viewErrorsErr
}

func TestRefresh_BuildsSnapshot(t *testing.T) {
	src := &fakeSource{
		views: []lineage.ViewDefinition{{
			Database:         "db",
			Name:             "mv",
			CreateTableQuery: "CREATE MATERIALIZED VIEW db.mv TO db.agg AS SELECT * FROM db.events",
		}},
		tables: []clickhouse.TableInfo{
			{Database: "db", Name: "events", Engine: "MergeTree", TotalRows: 10},
			{Database: "db", Name: "agg", Engine: "SummingMergeTree"},
		},
		viewErrors: []clickhouse.ViewError{{ViewName: "db.mv"}},
	}

	eng := New(Config{Source: src})
	require.NoError(t, eng.Refresh(context.Background()))

	snap := eng.Snapshot()
	assert.Equal(t, 3, snap.Graph.NodeCount())
	assert.Equal(t, 2, snap.Graph.EdgeCount())
	assert.Len(t, snap.Positions, 3)
	assert.Contains(t, snap.ErrorViews, "db.mv")
	assert.Equal(t, int64(10), snap.Tables["db.events"].TotalRows)
	assert.False(t, snap.RefreshedAt.IsZero())
}

func TestRefresh_CallsOnRefresh(t *testing.T) {
	called := 0
	eng := New(Config{Source: &fakeSource{}, OnRefresh: func() { called++ }})

	require.NoError(t, eng.Refresh(context.Background()))
	assert.Equal(t, 1, called)
}

func TestRefresh_SourceErrorKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeSource{
		views: []lineage.ViewDefinition{{
			Database:         "db",
			Name:             "mv",
			CreateTableQuery: "CREATE MATERIALIZED VIEW db.mv AS SELECT * FROM db.events",
		}},
	}
	eng := New(Config{Source: src})
	require.NoError(t, eng.Refresh(context.Background()))

	src.viewsErr = errors.New("connection refused")
	err := eng.Refresh(context.Background())
	require.Error(t, err)

	// Previous data remains visible.
	assert.Equal(t, 2, eng.Snapshot().Graph.NodeCount())
}

func TestRefresh_ViewErrorsFailureTolerated(t *testing.T) {
	src := &fakeSource{viewErrorsErr: errors.New("query_views_log missing")}
	eng := New(Config{Source: src})

	require.NoError(t, eng.Refresh(context.Background()))
	assert.Empty(t, eng.Snapshot().ErrorViews)
}

func TestSnapshot_EmptyBeforeFirstRefresh(t *testing.T) {
	eng := New(Config{Source: &fakeSource{}})

	snap := eng.Snapshot()
	require.NotNil(t, snap)
	assert.Zero(t, snap.Graph.NodeCount())
	assert.Empty(t, snap.Positions)
	assert.True(t, snap.RefreshedAt.IsZero())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	eng := New(Config{Source: &fakeSource{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx, time.Hour) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMergePositions(t *testing.T) {
	computed := map[string]lineage.Position{
		"db.a": {X: 80, Y: 0},
		"db.b": {X: 460, Y: 0},
	}
	previous := map[string]lineage.Position{
		"db.a":    {X: 120, Y: 55}, // user-dragged
		"db.gone": {X: 1, Y: 1},    // no longer in the graph
	}

	merged := MergePositions(computed, previous)
	assert.Equal(t, lineage.Position{X: 120, Y: 55}, merged["db.a"])
	assert.Equal(t, lineage.Position{X: 460, Y: 0}, merged["db.b"])
	assert.NotContains(t, merged, "db.gone")
}
