// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.tagtree/tagtree.toml or OS-specific config directory)
// 3. Project config file (tagtree.toml or .tagtree.toml in the working directory)
// 4. Environment variables (TAGTREE_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - $TAGTREE_CONFIG, when set
// - ~/.tagtree/tagtree.toml (preferred)
// - Windows: %APPDATA%\tagtree\tagtree.toml
// - macOS: ~/Library/Application Support/tagtree/tagtree.toml
// - Linux/BSD: $XDG_CONFIG_HOME/tagtree/tagtree.toml or ~/.config/tagtree/tagtree.toml
//
// Relative tags, tasks, and schema files resolve against the data directory.
package config
