package config

import (
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "BIBLIODASH_DATA_DIR", "BIBLIODASH_ORIGINS", "BIBLIODASH_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Empty(t, cfg.Origins)
	assert.Equal(t, log.INFO, cfg.Level())
}

func TestEnvThenFlags(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BIBLIODASH_DATA_DIR", "/srv/snapshots")
	t.Setenv("BIBLIODASH_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("BIBLIODASH_RATE", "2.5")
	t.Setenv("BIBLIODASH_SEED", "7")

	cfg, err := Load([]string{"-port", "9100", "-log-level", "DEBUG"})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "/srv/snapshots", cfg.DataDir)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Origins)
	assert.Equal(t, 2.5, cfg.Rate)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, log.DEBUG, cfg.Level())
}

func TestInvalidValues(t *testing.T) {
	t.Setenv("BIBLIODASH_SEED", "seven")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "BIBLIODASH_SEED")

	t.Setenv("BIBLIODASH_SEED", "")
	_, err = Load([]string{"-log-level", "loud"})
	assert.Error(t, err)
}
