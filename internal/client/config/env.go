package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvBaseURL  = "VEYRA_URL"
	EnvUsername = "VEYRA_USERNAME"
	EnvPassword = "VEYRA_PASSWORD"
	EnvTimeout  = "VEYRA_TIMEOUT"
	EnvDBPath   = "VEYRA_DB"
	EnvLogLevel = "VEYRA_LOG_LEVEL"
)

// parseEnv overlays cfg with VEYRA_* variables. Values from dotenvPath are
// used for variables the process environment does not set. A missing
// dotenv file is not an error.
func parseEnv(cfg *Config, dotenvPath string) error {
	dotenv, err := godotenv.Read(dotenvPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	if v, ok := lookup(EnvBaseURL); ok {
		cfg.BaseURL = v
	}
	if v, ok := lookup(EnvUsername); ok {
		cfg.Username = v
	}
	if v, ok := lookup(EnvPassword); ok {
		cfg.Password = v
	}
	if v, ok := lookup(EnvDBPath); ok {
		cfg.DBPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvTimeout); ok {
		d, err := parseTimeout(v)
		if err != nil {
			return err
		}
		cfg.Timeout = d
	}
	return nil
}

// parseTimeout accepts a duration ("45s") or a whole number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.New("invalid " + EnvTimeout + ": " + strconv.Quote(v))
	}
	return d, nil
}
