package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJson_Overlay(t *testing.T) {
	path := writeConfigFile(t, `{
		"database_dsn": "postgres://json/db",
		"pool_max_conns": 4,
		"sync_interval": "2m",
		"throttle_max_age": 60000000000
	}`)

	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"voucherd", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "postgres://json/db", cfg.DatabaseDSN)
	assert.Equal(t, 4, cfg.PoolMaxConns)
	assert.Equal(t, 2*time.Minute, cfg.SyncInterval)
	assert.Equal(t, time.Minute, cfg.ThrottleMaxAge)
	// fields absent from the file keep their defaults
	assert.Equal(t, 30*time.Second, cfg.ActiveInterval)
}

func TestParseJson_NoFileFlag(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"voucherd"}

	cfg := &Config{}
	cfg.LoadDefaults()
	want := *cfg

	parseJson(cfg)

	assert.Equal(t, want, *cfg)
}

func TestParseJson_InvalidFilePanics(t *testing.T) {
	path := writeConfigFile(t, `{not json`)

	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"voucherd", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Panics(t, func() { parseJson(cfg) })
}
