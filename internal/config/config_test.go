package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hftcore/lobengine/internal/engine"
)

func TestLoadWithoutFileFallsBackToEngineDefaults(t *testing.T) {
	fc, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "latched", fc.BookFlavor)
	assert.Greater(t, fc.Risk.PositionLimit, 0.0)
	assert.Greater(t, fc.DefaultLevels, 0)
}

func TestToEngineConfigRoundTripsBookFlavor(t *testing.T) {
	fc, err := Load(t.TempDir())
	require.NoError(t, err)
	fc.BookFlavor = "lockfree"

	cfg := fc.ToEngineConfig()
	assert.Equal(t, engine.FlavorLockFree, cfg.BookFlavor)
	assert.Equal(t, cfg.Risk.PositionLimit, fc.Risk.PositionLimit)
}

func TestNewLoggerDefaultsToProduction(t *testing.T) {
	fc, err := Load(t.TempDir())
	require.NoError(t, err)
	logger, err := NewLogger(fc)
	require.NoError(t, err)
	require.NotNil(t, logger)
}
