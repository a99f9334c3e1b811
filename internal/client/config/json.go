package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/veyra/internal/flagx"
	"github.com/dmitrijs2005/veyra/internal/timex"
)

// jsonConfig is the on-disk form of Config. Absent fields leave the current
// value untouched.
type jsonConfig struct {
	BaseURL  *string         `json:"base_url"`
	Username *string         `json:"username"`
	Password *string         `json:"password"`
	Timeout  *timex.Duration `json:"timeout"`
	DBPath   *string         `json:"db_path"`
	LogLevel *string         `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c or -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path, err := flagx.ConfigFile(args)
	if err != nil || path == "" {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	setIf(&cfg.BaseURL, jc.BaseURL)
	setIf(&cfg.Username, jc.Username)
	setIf(&cfg.Password, jc.Password)
	setIf(&cfg.DBPath, jc.DBPath)
	setIf(&cfg.LogLevel, jc.LogLevel)
	if jc.Timeout != nil {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
