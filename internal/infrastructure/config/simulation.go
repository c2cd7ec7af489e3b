package config

import "time"

// SimulationConfig holds the timing parameters of the simulation loop
type SimulationConfig struct {
	// Wall-clock interval between movement ticks
	TickRate time.Duration `mapstructure:"tick_rate" validate:"required"`

	// Simulated seconds that elapse per wall-clock second
	TimeMultiplier float64 `mapstructure:"time_multiplier" validate:"gt=0"`

	// How long an agent waits for a reply before giving up
	ResponseTimeout time.Duration `mapstructure:"response_timeout" validate:"required"`

	// Times a drone re-sends a request before declaring a warehouse unreachable
	SuggestRetries int `mapstructure:"suggest_retries" validate:"min=1"`

	// Grace period after warehouses start before drones launch
	WarehouseSettleDelay time.Duration `mapstructure:"warehouse_settle_delay" validate:"min=0"`

	// Buffered messages per agent mailbox
	MailboxSize int `mapstructure:"mailbox_size" validate:"min=1"`
}
