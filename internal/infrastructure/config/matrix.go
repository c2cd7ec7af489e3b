package config

import "time"

// MatrixConfig holds the warehouse order-grid tuning parameters
type MatrixConfig struct {
	// Grid divisions per axis
	Divisions int `mapstructure:"divisions" validate:"min=1"`

	// Order budget per selection = free capacity * multiplier
	CapacityMultiplier int `mapstructure:"capacity_multiplier" validate:"min=1"`

	// Degrees of padding added around the order bounding box
	BoundsBuffer float64 `mapstructure:"bounds_buffer" validate:"min=0"`

	// How long a reservation is held before rolling back
	ReservationTimeout time.Duration `mapstructure:"reservation_timeout" validate:"required"`
}
