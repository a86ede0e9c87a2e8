package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, 120, cfg.Auth.TokenTTLMins)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, 10000, cfg.Server.MaxLimit)
	assert.Equal(t, 100, cfg.Server.DefaultLimit)
	assert.Equal(t, "name_en", cfg.Geo.NameProperty)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	require.NoError(t, os.WriteFile("config.yaml", []byte(`
store:
  driver: sqlite
  database_url: traffic.db
server:
  port: 8080
  default_limit: 250
auth:
  token_ttl_mins: 30
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "traffic.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 250, cfg.Server.DefaultLimit)
	assert.Equal(t, 30, cfg.Auth.TokenTTLMins)

	// Untouched keys keep their defaults.
	assert.Equal(t, 10000, cfg.Server.MaxLimit)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoadFromEnv(t *testing.T) {
	chTempDir(t)

	t.Setenv("TRAFFIC_STORE_DRIVER", "sqlite")
	t.Setenv("TRAFFIC_AUTH_SECRET", "env-secret")
	t.Setenv("TRAFFIC_SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadMalformedYAML(t *testing.T) {
	chTempDir(t)

	require.NoError(t, os.WriteFile("config.yaml", []byte(`store: [not: a map`), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
