package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 300*time.Millisecond, cfg.EnrichInterval)
	assert.Equal(t, 3, cfg.MasteryCount)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENRICH_INTERVAL_MS", "150")
	t.Setenv("MASTERY_COUNT", "5")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load(zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 150*time.Millisecond, cfg.EnrichInterval)
	assert.Equal(t, 5, cfg.MasteryCount)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("ENRICH_INTERVAL_MS", "soon")

	_, err := Load(zerolog.Nop())

	assert.Error(t, err)
}
