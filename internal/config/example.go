package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tagtree configuration file
# Values can be overridden by TAGTREE_* environment variables or CLI flags

# Data directory (supports ~ expansion and %VAR% on Windows)
data_dir = "~/.tagtree"

# Tag store, relative to data_dir
tags_file = "tags.xml"

# Task file, relative to data_dir
tasks_file = "tasks.json"

# Task JSON Schema override (empty uses the built-in schema)
# schema_file = "tasks.schema.json"

# Add the "all tags" and "no tags" pseudo-tags
builtins = true

# Logging
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
