package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Fit.UseJump)
	assert.InDelta(t, 5.5, cfg.Fit.ThresholdIntercept, 1e-9)
	assert.InDelta(t, 1.0/3.0, cfg.Fit.ThresholdConstant, 1e-9)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FIT_WORKERS", "8")
	t.Setenv("FIT_USE_JUMP", "false")
	t.Setenv("JUMP_THRESHOLD_INTERCEPT", "6.0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 8, cfg.Fit.Workers)
	assert.False(t, cfg.Fit.UseJump)
	assert.InDelta(t, 6.0, cfg.Fit.ThresholdIntercept, 1e-9)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	t.Setenv("FIT_WORKERS", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
