package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/veyra/internal/flagx"
)

// parseFlags overlays cfg with the console flags found in args:
//
//	-a string   base URL of the Veyra service
//	-u string   username
//	-t int      request timeout in seconds
//	-d string   path of the local SQLite database
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-u", "-t", "-d", "-l"})

	fs := flag.NewFlagSet("veyra-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the Veyra service")
	fs.StringVar(&cfg.Username, "u", cfg.Username, "username")
	timeout := fs.Int("t", 0, "request timeout (in seconds)")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path of the local database")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.Timeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
