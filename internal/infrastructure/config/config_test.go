package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skycourier-go/internal/infrastructure/config"
)

func TestLoadConfig_AppliesDefaultsWhenNoFile(t *testing.T) {
	// Act
	cfg, err := config.LoadConfig("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "original", cfg.Data.Dataset)
	assert.Equal(t, 30*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, 500.0, cfg.Simulation.TimeMultiplier)
	assert.Equal(t, 5*time.Second, cfg.Simulation.ResponseTimeout)
	assert.Equal(t, 3, cfg.Simulation.SuggestRetries)
	assert.Equal(t, 5, cfg.Matrix.Divisions)
	assert.Equal(t, 3, cfg.Matrix.CapacityMultiplier)
	assert.Equal(t, 5*time.Second, cfg.Matrix.ReservationTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "logs", cfg.Logging.Dir)
	assert.False(t, cfg.Visualization.Enabled)
}

func TestLoadConfig_ReadsYAMLFile(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
data:
  dataset: small
simulation:
  tick_rate: 10ms
  suggest_retries: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "small", cfg.Data.Dataset)
	assert.Equal(t, 10*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, 5, cfg.Simulation.SuggestRetries)
	assert.Equal(t, 500.0, cfg.Simulation.TimeMultiplier)
}

func TestLoadConfig_RejectsUnknownDataset(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  dataset: gigantic\n"), 0o644))

	// Act
	_, err := config.LoadConfig(path)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Dataset")
}

func TestLoadConfig_ReadsProsodyPasswordFromEnvironment(t *testing.T) {
	// Arrange
	t.Setenv("PROSODY_PASSWORD", "hunter2")

	// Act
	cfg, err := config.LoadConfig("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Provisioning.Password)
}

func TestDefault_PassesValidation(t *testing.T) {
	// Act
	cfg := config.Default()

	// Assert
	assert.NoError(t, config.ValidateConfig(cfg))
}
