package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "API_BASE", "BEARER_TOKEN", "UPSTREAM_TIMEOUT", "AGGREGATE_WORKERS", "CACHE_TTL", "TEMPORAL_TARGET_HOST", "TEMPORAL_ADDRESS"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "https://resultados.mininterior.gob.ar/api", cfg.APIBase)
	assert.Equal(t, 20*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 6, cfg.AggregateWorkers)
	assert.Equal(t, 1, cfg.AggregateMaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.CacheTTL)
	assert.Empty(t, cfg.TemporalAddress, "Temporal stays off unless configured")
}

func TestTemporalAddress(t *testing.T) {
	t.Setenv("TEMPORAL_TARGET_HOST", "")
	t.Setenv("TEMPORAL_ADDRESS", "temporal:7233")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "temporal:7233", cfg.TemporalAddress)

	t.Setenv("TEMPORAL_TARGET_HOST", "other:7233")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "other:7233", cfg.TemporalAddress)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "5")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("AGGREGATE_WORKERS", "3")
	t.Setenv("UPSTREAM_RPS", "12.5")
	t.Setenv("BEARER_TOKEN", "secret")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.AggregateWorkers)
	assert.Equal(t, 12.5, cfg.UpstreamRPS)
	assert.Equal(t, "secret", cfg.BearerToken)
}

func TestFromEnvInvalid(t *testing.T) {
	t.Setenv("AGGREGATE_WORKERS", "many")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("AGGREGATE_WORKERS", "0")
	_, err = FromEnv()
	assert.Error(t, err)

	t.Setenv("AGGREGATE_WORKERS", "")
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(p, []byte("API_BASE=http://from-file\nPORT=7000\n"), 0o644))
	t.Setenv("PORT", "8000")
	t.Setenv("API_BASE", "")
	require.NoError(t, os.Unsetenv("API_BASE"))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "http://from-file", cfg.APIBase)
	assert.Equal(t, "8000", cfg.Port)
	os.Unsetenv("API_BASE")
}
