// Package config provides shared configuration types for chview.
// Configuration is loaded from chview.yaml with environment overrides;
// the CLICKHOUSE_* variables match the conventions of other ClickHouse
// tooling so existing connection environments work unchanged.
package config

import (
	"fmt"
	"time"
)

// ClickHouseConfig holds connection settings for the monitored cluster.
type ClickHouseConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	Secure   bool   `koanf:"secure"`

	// Timeouts in seconds.
	DialTimeout        int `koanf:"dial_timeout"`
	SendReceiveTimeout int `koanf:"send_receive_timeout"`
}

// Addr returns the host:port dial address.
func (c *ClickHouseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds settings for the web UI server.
type ServerConfig struct {
	Port          int    `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`

	// RefreshSeconds is the interval between lineage rebuilds.
	RefreshSeconds int `koanf:"refresh_seconds"`
}

// RefreshInterval returns the refresh cadence as a duration.
func (s *ServerConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshSeconds) * time.Second
}

// Config is the top-level chview configuration.
type Config struct {
	ClickHouse ClickHouseConfig `koanf:"clickhouse"`
	Server     ServerConfig     `koanf:"server"`

	// Database restricts lineage to a single database; empty means all
	// non-system databases.
	Database string `koanf:"database"`

	// ErrorWindowHours bounds the query_views_log window scanned for
	// failing views.
	ErrorWindowHours int `koanf:"error_window_hours"`

	Verbose bool `koanf:"verbose"`
}
