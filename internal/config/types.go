package config

import "path/filepath"

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultDataDir   = "~/.tagtree"
	DefaultTagsFile  = "tags.xml"
	DefaultTasksFile = "tasks.json"
	DefaultBuiltins  = true
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config holds the full configuration for tagtree.
type Config struct {
	// Paths
	DataDir    string `toml:"data_dir"`
	TagsFile   string `toml:"tags_file"`
	TasksFile  string `toml:"tasks_file"`
	SchemaFile string `toml:"schema_file"` // empty uses the embedded task schema

	// Builtins adds the "all tags" and "no tags" pseudo-tags to the store.
	Builtins bool `toml:"builtins"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// configFields returns the configurable field names for source tracking.
func configFields() []string {
	return []string{
		"data_dir",
		"tags_file",
		"tasks_file",
		"schema_file",
		"builtins",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.DataDir = DefaultDataDir
	cfg.TagsFile = DefaultTagsFile
	cfg.TasksFile = DefaultTasksFile
	cfg.SchemaFile = ""
	cfg.Builtins = DefaultBuiltins
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// Value returns the textual value of a config field by its TOML key.
func (c *Config) Value(field string) string {
	switch field {
	case "data_dir":
		return c.DataDir
	case "tags_file":
		return c.TagsFile
	case "tasks_file":
		return c.TasksFile
	case "schema_file":
		return c.SchemaFile
	case "builtins":
		return formatBool(c.Builtins)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return formatBool(c.LogTimestamps)
	case "log_caller":
		return formatBool(c.LogCaller)
	}
	return ""
}

// Fields returns the configurable field names in display order.
func Fields() []string {
	return configFields()
}

// resolve makes p absolute against base after ~ and env expansion.
func resolve(base, p string) string {
	if p == "" {
		return ""
	}
	p = expandPath(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
