package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VIEW_INCLUSION_THRESHOLD", "")
	t.Setenv("VIEW_PRIMARY_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, 0.3, cfg.View.InclusionThreshold)
	assert.Equal(t, 0.5, cfg.View.ConfidenceFloor)
	assert.Equal(t, 3*time.Minute, cfg.View.PrimaryTimeout)
	assert.Equal(t, time.Duration(0), cfg.View.DispatchDelay)
	assert.Equal(t, 75.0, cfg.Confidence.HighThreshold)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VIEW_INCLUSION_THRESHOLD", "0.45")
	t.Setenv("VIEW_PRIMARY_TIMEOUT", "30")
	t.Setenv("VIEW_SECONDARY_TIMEOUT", "2m")
	t.Setenv("VIEW_WORKERS", "9")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GO_ENV", "Production")

	cfg := Load()

	assert.Equal(t, 0.45, cfg.View.InclusionThreshold)
	assert.Equal(t, 30*time.Second, cfg.View.PrimaryTimeout)
	assert.Equal(t, 2*time.Minute, cfg.View.SecondaryTimeout)
	assert.Equal(t, 9, cfg.View.Workers)
	assert.True(t, cfg.App.OtelEnabled)
	assert.True(t, cfg.App.IsProduction())
}

func TestGetEnvAsDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvAsDuration("SOME_TIMEOUT", time.Second))
}
