// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/chview-io/chview/internal/clickhouse"
	"github.com/chview-io/chview/internal/engine"
	"github.com/chview-io/chview/internal/lineage"
	"github.com/chview-io/chview/internal/testutil"
	"github.com/chview-io/chview/internal/ui/notifier"
)

// TestView is a helper to declare materialized views with minimal boilerplate.
type TestView struct {
	Database string
	Name     string
	Query    string
}

// FakeSource is an in-memory engine.Source for handler tests.
type FakeSource struct {
	Views      []lineage.ViewDefinition
	Tables     []clickhouse.TableInfo
	ViewErrors []clickhouse.ViewError
}

func (f *FakeSource) FetchMaterializedViews(_ context.Context, _ string) ([]lineage.ViewDefinition, error) {
	return f.Views, nil
}

func (f *FakeSource) FetchSchema(_ context.Context, _ string) ([]clickhouse.TableInfo, error) {
	return f.Tables, nil
}

func (f *FakeSource) FetchViewErrors(_ context.Context, _ int, _ string) ([]clickhouse.ViewError, error) {
	return f.ViewErrors, nil
}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Source       *FakeSource
	Engine       *engine.Engine
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates an engine over a fake source populated with the
// given views and performs an initial refresh.
func SetupTestFixture(t *testing.T, views ...TestView) *TestFixture {
	t.Helper()

	source := &FakeSource{}
	for _, v := range views {
		source.Views = append(source.Views, lineage.ViewDefinition{
			Database:         v.Database,
			Name:             v.Name,
			CreateTableQuery: v.Query,
		})
	}

	notify := notifier.New()
	eng := engine.New(engine.Config{
		Source:    source,
		Logger:    testutil.NewTestLogger(t),
		OnRefresh: notify.Broadcast,
	})
	require.NoError(t, eng.Refresh(context.Background()))

	return &TestFixture{
		Source:       source,
		Engine:       eng,
		Notifier:     notify,
		SessionStore: NewTestSessionStore(),
	}
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
