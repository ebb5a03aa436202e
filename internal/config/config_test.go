package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 30, cfg.Server.KeepaliveSeconds)
	require.Equal(t, 20, cfg.Scrape.NumResultsDefault)
	require.Equal(t, float64(30), cfg.Scrape.DelaySecondsMax)
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout())
	require.Empty(t, cfg.DB.DSN)
	require.Empty(t, cfg.Redis.Addr)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
scrape:
  num_results_default: 5
providers:
  serper_key: file-key
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 5, cfg.Scrape.NumResultsDefault)
	require.Equal(t, "file-key", cfg.Providers.SerperKey)
	// Untouched keys keep defaults.
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Server.Port = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.HTTP.TimeoutSeconds = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Scrape.NumResultsDefault = 0
	require.Error(t, bad.Validate())

	require.NoError(t, cfg.Validate())
}
