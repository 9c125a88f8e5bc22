package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config file to discover

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.ClickHouse.Host)
	assert.Equal(t, 9000, cfg.ClickHouse.Port)
	assert.Equal(t, "default", cfg.ClickHouse.Username)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60, cfg.Server.RefreshSeconds)
	assert.Equal(t, 24, cfg.ErrorWindowHours)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chview.yaml")
	content := `clickhouse:
  host: ch.internal
  port: 9440
  secure: true
server:
  port: 3000
  refresh_seconds: 15
database: analytics
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ch.internal", cfg.ClickHouse.Host)
	assert.Equal(t, 9440, cfg.ClickHouse.Port)
	assert.True(t, cfg.ClickHouse.Secure)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Server.RefreshSeconds)
	assert.Equal(t, "analytics", cfg.Database)
	// Untouched keys keep their defaults.
	assert.Equal(t, "default", cfg.ClickHouse.Username)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clickhouse:\n  host: from-file\n"), 0o600))

	t.Setenv("CLICKHOUSE_HOST", "from-env")
	t.Setenv("CLICKHOUSE_USER", "reader")
	t.Setenv("CHVIEW_DATABASE", "metrics")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.ClickHouse.Host)
	assert.Equal(t, "reader", cfg.ClickHouse.Username)
	assert.Equal(t, "metrics", cfg.Database)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, FindConfigFile(dir))

	path := filepath.Join(dir, "chview.yml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	assert.Equal(t, path, FindConfigFile(dir))
}

func TestRefreshInterval(t *testing.T) {
	s := ServerConfig{RefreshSeconds: 45}
	assert.Equal(t, "45s", s.RefreshInterval().String())
}

func TestClickHouseAddr(t *testing.T) {
	c := ClickHouseConfig{Host: "ch.internal", Port: 9440}
	assert.Equal(t, "ch.internal:9440", c.Addr())
}
