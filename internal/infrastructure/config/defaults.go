package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Data defaults
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Data.Dataset == "" {
		cfg.Data.Dataset = "original"
	}

	// Simulation defaults
	if cfg.Simulation.TickRate == 0 {
		cfg.Simulation.TickRate = 30 * time.Millisecond
	}
	if cfg.Simulation.TimeMultiplier == 0 {
		cfg.Simulation.TimeMultiplier = 500.0
	}
	if cfg.Simulation.ResponseTimeout == 0 {
		cfg.Simulation.ResponseTimeout = 5 * time.Second
	}
	if cfg.Simulation.SuggestRetries == 0 {
		cfg.Simulation.SuggestRetries = 3
	}
	if cfg.Simulation.WarehouseSettleDelay == 0 {
		cfg.Simulation.WarehouseSettleDelay = 2 * time.Second
	}
	if cfg.Simulation.MailboxSize == 0 {
		cfg.Simulation.MailboxSize = 32
	}

	// Matrix defaults
	if cfg.Matrix.Divisions == 0 {
		cfg.Matrix.Divisions = 5
	}
	if cfg.Matrix.CapacityMultiplier == 0 {
		cfg.Matrix.CapacityMultiplier = 3
	}
	if cfg.Matrix.BoundsBuffer == 0 {
		cfg.Matrix.BoundsBuffer = 0.01
	}
	if cfg.Matrix.ReservationTimeout == 0 {
		cfg.Matrix.ReservationTimeout = 5 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}

	// Visualization defaults
	if cfg.Visualization.Address == "" {
		cfg.Visualization.Address = ":8400"
	}
	if cfg.Visualization.EmitPeriod == 0 {
		cfg.Visualization.EmitPeriod = 1 * time.Second
	}

	// Provisioning defaults
	if cfg.Provisioning.Domain == "" {
		cfg.Provisioning.Domain = "localhost"
	}
}
