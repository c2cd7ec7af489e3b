package config

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Directory receiving one log file per agent
	Dir string `mapstructure:"dir" validate:"required"`
}
