package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseJSON_OverridesPresentFields(t *testing.T) {
	path := writeJSON(t, `{"username":"ops","timeout":2000000000,"log_level":"error"}`)

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseJSON(&cfg, []string{"-config=" + path}))

	assert.Equal(t, "ops", cfg.Username)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL, "absent fields keep their value")
}

func TestParseJSON_NoFlagIsNoop(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseJSON(&cfg, []string{"-a", "http://x"}))
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestParseJSON_Invalid(t *testing.T) {
	path := writeJSON(t, `{"timeout":"forever"}`)

	var cfg Config
	cfg.LoadDefaults()
	require.Error(t, parseJSON(&cfg, []string{"-c", path}))
}
