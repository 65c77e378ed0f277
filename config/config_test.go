package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL.String())
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, int64(0), cfg.DownloadRate)
	assert.Equal(t, DefaultWatchInterval, cfg.WatchInterval)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "api_url: https://rent.example.com/api/\ntimeout: 5s\ndownload_rate: 2048\nwatch_interval: 30s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "https://rent.example.com/api/", cfg.APIURL.String())
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, int64(2048), cfg.DownloadRate)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("timeout: 5s\n"), 0o600))
	t.Setenv("RENTDESK_API_URL", "http://backend:9000/api/")
	t.Setenv("RENTDESK_TIMEOUT", "12s")

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000/api/", cfg.APIURL.String())
	assert.Equal(t, 12*time.Second, cfg.Timeout)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad scheme", "RENTDESK_API_URL", "ftp://example.com/"},
		{"zero timeout", "RENTDESK_TIMEOUT", "0s"},
		{"negative rate", "RENTDESK_DOWNLOAD_RATE", "-1"},
		{"tiny interval", "RENTDESK_WATCH_INTERVAL", "10ms"},
		{"not a duration", "RENTDESK_TIMEOUT", "soon"},
		{"too many workers", "RENTDESK_WORKERS", "64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load(t.TempDir(), "")
			assert.Error(t, err)
		})
	}
}
