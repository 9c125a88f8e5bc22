package config

// Defaults returns the built-in configuration map, applied below file and
// environment sources.
func Defaults() map[string]any {
	return map[string]any{
		"clickhouse.host":                 "localhost",
		"clickhouse.port":                 9000,
		"clickhouse.username":             "default",
		"clickhouse.password":             "",
		"clickhouse.database":             "default",
		"clickhouse.secure":               false,
		"clickhouse.dial_timeout":         10,
		"clickhouse.send_receive_timeout": 120,
		"server.port":                     8080,
		"server.session_secret":           "chview-dev-secret",
		"server.refresh_seconds":          60,
		"error_window_hours":              24,
	}
}
