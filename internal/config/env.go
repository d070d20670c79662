package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment, after
// loading a .env file from the working directory when one exists.
//
// Recognized variables:
//
//	CREDVAULT_DB               path to the vault database file
//	CREDVAULT_SESSION_TIMEOUT  session timeout, Go duration syntax ("15m")
//	CREDVAULT_CLIPBOARD_CLEAR  clipboard clear delay, Go duration syntax ("30s")
//	CREDVAULT_LOG_LEVEL        log level (debug, info, warn, error)
//
// Unset or unparsable variables leave the current value in place.
func parseEnv(cfg *Config) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	if v := os.Getenv("CREDVAULT_DB"); v != "" {
		cfg.VaultPath = v
	}
	if v := os.Getenv("CREDVAULT_SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTimeout = d
		}
	}
	if v := os.Getenv("CREDVAULT_CLIPBOARD_CLEAR"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ClipboardClearAfter = d
		}
	}
	if v := os.Getenv("CREDVAULT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
