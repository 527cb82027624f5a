package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 443, cfg.Device.Port)
	assert.Equal(t, "admin", cfg.Device.Username)
	assert.True(t, cfg.Device.UseSSL)
	assert.Equal(t, 3, cfg.Device.RetryMaxTries)
	assert.Equal(t, "none", cfg.Snapshot.Source)
	assert.Equal(t, 4, cfg.Reconcile.Concurrency)
	assert.False(t, cfg.Reconcile.DryRun)
	assert.Equal(t, "declarations/", cfg.Storage.ArchivePrefix)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DEVICE_HOST", "10.0.0.5")
	t.Setenv("DEVICE_INSECURE", "true")
	t.Setenv("SNAPSHOT_SOURCE", "file")
	t.Setenv("SNAPSHOT_CACHE_TTL_SECONDS", "30")
	t.Setenv("RECONCILE_PER_DOMAIN_TRANSACTIONS", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Device.Host)
	assert.True(t, cfg.Device.Insecure)
	assert.Equal(t, "file", cfg.Snapshot.Source)
	assert.Equal(t, 30, cfg.Snapshot.CacheTTLSeconds)
	assert.True(t, cfg.Reconcile.PerDomainTransactions)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=9090\nLOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}
