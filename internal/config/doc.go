// Package config loads runtime configuration for the credvault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, optionally loaded from a .env file (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   path to the vault database file
//	-t int      session timeout (minutes)
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "15m" or integer nanoseconds:
//
//	{
//	  "vault_path": "/home/user/.credvault/vault.db",
//	  "session_timeout": "15m",
//	  "clipboard_clear_after": "30s",
//	  "log_level": "info"
//	}
//
// Primary API
//
//   - type Config                     — vault path, session timeout, clipboard clear delay, log level
//   - func LoadConfig() *Config       — builds Config by applying defaults, env, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
package config
