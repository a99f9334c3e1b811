package config

import (
	"fmt"
	"time"
)

// Config holds the settings of the Veyra admin console.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	DBPath   string
	LogLevel string
}

const (
	DefaultBaseURL  = "http://127.0.0.1:3000"
	DefaultTimeout  = 30 * time.Second
	DefaultDBPath   = "veyra.db"
	DefaultLogLevel = "warn"
)

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = DefaultBaseURL
	c.Timeout = DefaultTimeout
	c.DBPath = DefaultDBPath
	c.LogLevel = DefaultLogLevel
}

// LoadConfig builds a Config from defaults, then the environment (with an
// optional .env file in the working directory), then the JSON file named by
// -c/-config, then the remaining flags. Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
