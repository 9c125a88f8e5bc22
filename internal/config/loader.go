package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "chview.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "chview.yml"

// chviewEnvKeys maps CHVIEW_* variables to config keys. Variables not
// listed here are ignored.
var chviewEnvKeys = map[string]string{
	"CHVIEW_DATABASE":           "database",
	"CHVIEW_VERBOSE":            "verbose",
	"CHVIEW_SERVER_PORT":        "server.port",
	"CHVIEW_SESSION_SECRET":     "server.session_secret",
	"CHVIEW_REFRESH_SECONDS":    "server.refresh_seconds",
	"CHVIEW_ERROR_WINDOW_HOURS": "error_window_hours",
}

// clickhouseEnvKeys maps the conventional CLICKHOUSE_* connection
// variables to config keys.
var clickhouseEnvKeys = map[string]string{
	"CLICKHOUSE_HOST":     "clickhouse.host",
	"CLICKHOUSE_PORT":     "clickhouse.port",
	"CLICKHOUSE_USER":     "clickhouse.username",
	"CLICKHOUSE_PASSWORD": "clickhouse.password",
	"CLICKHOUSE_DATABASE": "clickhouse.database",
	"CLICKHOUSE_SECURE":   "clickhouse.secure",
}

// Load reads configuration from defaults, an optional YAML file, and the
// environment, in increasing priority. An empty path triggers discovery of
// chview.yaml/chview.yml in the working directory; a missing file is not
// an error, an explicitly named one must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = FindConfigFile(wd)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	for prefix, keys := range map[string]map[string]string{
		"CLICKHOUSE_": clickhouseEnvKeys,
		"CHVIEW_":     chviewEnvKeys,
	} {
		keys := keys
		if err := k.Load(env.Provider(prefix, ".", func(s string) string {
			return keys[s]
		}), nil); err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// FindConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func FindConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}
