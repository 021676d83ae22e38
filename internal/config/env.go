package config

import (
	"os"
	"strings"
)

// envPrefix prefixes every environment override.
const envPrefix = "TAGTREE_"

// loadFromEnv overrides config from TAGTREE_* environment variables and
// records their source when sources is non-nil.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	str := func(name, field string, target *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*target = v
			if sources != nil {
				sources[field] = SourceEnv
			}
		}
	}
	boolean := func(name, field string, target *bool) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*target = boolFromString(v)
			if sources != nil {
				sources[field] = SourceEnv
			}
		}
	}

	str("DATA_DIR", "data_dir", &cfg.DataDir)
	str("TAGS", "tags_file", &cfg.TagsFile)
	str("TASKS", "tasks_file", &cfg.TasksFile)
	str("SCHEMA", "schema_file", &cfg.SchemaFile)
	boolean("BUILTINS", "builtins", &cfg.Builtins)

	// Logging configuration
	str("LOG_LEVEL", "log_level", &cfg.LogLevel)
	str("LOG_FORMAT", "log_format", &cfg.LogFormat)
	boolean("LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	boolean("LOG_CALLER", "log_caller", &cfg.LogCaller)
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
