package config

import (
	"flag"
)

// flagFields maps global flag names to config keys.
var flagFields = map[string]string{
	"data-dir":       "data_dir",
	"tags":           "tags_file",
	"tasks":          "tasks_file",
	"schema":         "schema_file",
	"builtins":       "builtins",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines the global flags on fs, parses args, and records the
// source of every flag that was set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tagtree", flag.ContinueOnError)
	}

	// Path flags
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Data directory")
	fs.StringVar(&cfg.TagsFile, "tags", cfg.TagsFile, "Path to tag store file")
	fs.StringVar(&cfg.TasksFile, "tasks", cfg.TasksFile, "Path to task file")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "Path to task schema file (default: embedded)")
	fs.BoolVar(&cfg.Builtins, "builtins", cfg.Builtins, "Add the all-tags and no-tags pseudo-tags")

	// Logging flags
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
