package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 1000, cfg.Dataset.Rows)
	assert.Equal(t, int64(42), cfg.Dataset.Seed)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Security.EnableCORS)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATALENS_SERVER_PORT", "9090")
	t.Setenv("DATALENS_DATASET_ROWS", "250")
	t.Setenv("DATALENS_DATASET_SEED", "7")
	t.Setenv("DATALENS_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250, cfg.Dataset.Rows)
	assert.Equal(t, int64(7), cfg.Dataset.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	t.Setenv("DATALENS_SERVER_PORT", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestLoad_RejectsNonPositiveRows(t *testing.T) {
	t.Setenv("DATALENS_DATASET_ROWS", "-5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows")
}

func TestValidate_ForcesJSONLogFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestDefault_MatchesLoadDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.Dataset, loaded.Dataset)
}
