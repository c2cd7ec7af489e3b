package config

// ProvisioningConfig holds the optional XMPP account provisioning settings.
// When ContainerID is empty the simulation runs with in-process messaging
// only and no accounts are provisioned.
type ProvisioningConfig struct {
	// Docker container running the prosody server
	ContainerID string `mapstructure:"container_id"`

	// XMPP domain the agent accounts live under
	Domain string `mapstructure:"domain"`

	// Password assigned to every provisioned agent account
	Password string `mapstructure:"password"`
}
