package config

import (
	"flag"
	"os"
	"time"

	"github.com/credvault/credvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path to the vault database file (default from Config)
//	-t int      session timeout in minutes (default from Config)
//	-l string   log level: debug, info, warn, error (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.VaultPath, "d", cfg.VaultPath, "path to the vault database file")
	sessionTimeout := fs.Int("t", int(cfg.SessionTimeout.Minutes()), "session timeout (in minutes)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionTimeout = time.Duration(*sessionTimeout) * time.Minute
}
