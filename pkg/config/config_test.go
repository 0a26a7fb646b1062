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

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 150, cfg.SweepMaxRows)
	assert.Equal(t, 200, cfg.SweepTenantLimit)
	assert.Equal(t, 30*time.Minute, cfg.SweepGraceWindow)
	assert.True(t, cfg.OutboxProcessorEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SWEEP_MAX_ROWS", "75")
	t.Setenv("SWEEP_GRACE_WINDOW", "45m")
	t.Setenv("OUTBOX_PROCESSOR_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 75, cfg.SweepMaxRows)
	assert.Equal(t, 45*time.Minute, cfg.SweepGraceWindow)
	assert.False(t, cfg.OutboxProcessorEnabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SWEEP_MAX_ROWS", "not-a-number")
	t.Setenv("SWEEP_GRACE_WINDOW", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 150, cfg.SweepMaxRows)
	assert.Equal(t, 30*time.Minute, cfg.SweepGraceWindow)
}
