package config

// DataConfig locates the CSV dataset the simulation loads
type DataConfig struct {
	// Root directory containing one subdirectory per dataset
	Dir string `mapstructure:"dir" validate:"required"`

	// Dataset subdirectory to load
	Dataset string `mapstructure:"dataset" validate:"required,oneof=original small"`
}
