package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_DotenvFillsGaps(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvUsername, "from-process")

	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(
		"VEYRA_URL=https://veyra.example.org\nVEYRA_USERNAME=from-file\nVEYRA_TIMEOUT=12\nVEYRA_LOG_LEVEL=debug\n"), 0o600))

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(&cfg, dotenv))

	assert.Equal(t, "https://veyra.example.org", cfg.BaseURL)
	assert.Equal(t, "from-process", cfg.Username)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
}

func TestParseEnv_MissingDotenv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBPath, "/tmp/x.db")

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(&cfg, filepath.Join(t.TempDir(), ".env")))
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "5", want: 5 * time.Second},
		{in: "1m30s", want: 90 * time.Second},
		{in: "250ms", want: 250 * time.Millisecond},
		{in: "later", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimeout(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
