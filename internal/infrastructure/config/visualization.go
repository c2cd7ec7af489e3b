package config

import "time"

// VisualizationConfig holds the websocket map-feed configuration
type VisualizationConfig struct {
	// Serve the live map feed
	Enabled bool `mapstructure:"enabled"`

	// HTTP listen address for the websocket endpoint
	Address string `mapstructure:"address" validate:"required"`

	// Interval between drone position broadcasts
	EmitPeriod time.Duration `mapstructure:"emit_period" validate:"required"`
}
