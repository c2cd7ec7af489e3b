package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/skycourier-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect SkyCourier configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (SKYCOURIER_* prefix)
2. Config file (config.yaml)
3. Default values

Examples:
  skycourier config show`,
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Display the configuration a simulation would run with, after merging
environment variables, the config file and defaults.

Example:
  skycourier config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			fmt.Println("SkyCourier Configuration")
			fmt.Println("========================")

			fmt.Println("Data:")
			fmt.Printf("  Directory:            %s\n", cfg.Data.Dir)
			fmt.Printf("  Dataset:              %s\n", cfg.Data.Dataset)

			fmt.Println("\nSimulation:")
			fmt.Printf("  Tick Rate:            %s\n", cfg.Simulation.TickRate)
			fmt.Printf("  Time Multiplier:      %.0fx\n", cfg.Simulation.TimeMultiplier)
			fmt.Printf("  Response Timeout:     %s\n", cfg.Simulation.ResponseTimeout)
			fmt.Printf("  Suggest Retries:      %d\n", cfg.Simulation.SuggestRetries)
			fmt.Printf("  Settle Delay:         %s\n", cfg.Simulation.WarehouseSettleDelay)
			fmt.Printf("  Mailbox Size:         %d\n", cfg.Simulation.MailboxSize)

			fmt.Println("\nOrders Matrix:")
			fmt.Printf("  Divisions:            %d\n", cfg.Matrix.Divisions)
			fmt.Printf("  Capacity Multiplier:  %d\n", cfg.Matrix.CapacityMultiplier)
			fmt.Printf("  Bounds Buffer:        %.4f deg\n", cfg.Matrix.BoundsBuffer)
			fmt.Printf("  Reservation Timeout:  %s\n", cfg.Matrix.ReservationTimeout)

			fmt.Println("\nVisualization:")
			fmt.Printf("  Enabled:              %t\n", cfg.Visualization.Enabled)
			fmt.Printf("  Address:              %s\n", cfg.Visualization.Address)
			fmt.Printf("  Emit Period:          %s\n", cfg.Visualization.EmitPeriod)

			fmt.Println("\nProvisioning:")
			if cfg.Provisioning.ContainerID == "" {
				fmt.Printf("  Prosody:              (disabled, in-process messaging)\n")
			} else {
				fmt.Printf("  Container:            %s\n", cfg.Provisioning.ContainerID)
				fmt.Printf("  Domain:               %s\n", cfg.Provisioning.Domain)
				fmt.Printf("  Password:             %s\n", maskSecret(cfg.Provisioning.Password))
			}

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:                %s\n", cfg.Logging.Level)
			fmt.Printf("  Directory:            %s\n", cfg.Logging.Dir)

			return nil
		},
	}

	return cmd
}

// maskSecret hides a credential while still showing whether it is set
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "********"
}
