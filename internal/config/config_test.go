package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 0.65, cfg.MatchThreshold)
	assert.Equal(t, 60, cfg.MatchWindowDays)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("COMPTA_ADDR", ":9090")
	t.Setenv("COMPTA_MATCH_THRESHOLD", "0.8")
	t.Setenv("COMPTA_LOG_FORMAT", "text")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 0.8, cfg.MatchThreshold)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("COMPTA_MATCH_THRESHOLD", "1.5")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("COMPTA_MATCH_THRESHOLD", "0.65")
	t.Setenv("COMPTA_LOG_FORMAT", "xml")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("COMPTA_LOG_FORMAT", "json")
	t.Setenv("COMPTA_MATCH_WINDOW_DAYS", "-1")
	_, err = Load()
	assert.Error(t, err)
}
