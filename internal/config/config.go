package config

import "time"

// Config holds runtime settings for the credvault CLI.
//
// Fields:
//   - VaultPath: filesystem path of the encrypted vault database.
//   - SessionTimeout: how long an unlocked session stays valid.
//   - ClipboardClearAfter: delay before a copied secret is wiped from the
//     clipboard.
//   - LogLevel: minimum log level (debug, info, warn, error).
//
// Units: SessionTimeout and ClipboardClearAfter are time.Duration values.
type Config struct {
	VaultPath           string
	SessionTimeout      time.Duration
	ClipboardClearAfter time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.VaultPath = "vault.db"
	c.SessionTimeout = 15 * time.Minute
	c.ClipboardClearAfter = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
