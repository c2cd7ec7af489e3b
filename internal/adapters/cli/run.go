package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/skycourier-go/internal/adapters/ingest"
	"github.com/andrescamacho/skycourier-go/internal/adapters/metrics"
	"github.com/andrescamacho/skycourier-go/internal/adapters/provisioning"
	"github.com/andrescamacho/skycourier-go/internal/adapters/visualization"
	"github.com/andrescamacho/skycourier-go/internal/application/agents"
	"github.com/andrescamacho/skycourier-go/internal/application/simulation"
	"github.com/andrescamacho/skycourier-go/internal/infrastructure/config"
	"github.com/andrescamacho/skycourier-go/internal/infrastructure/logging"
	"github.com/andrescamacho/skycourier-go/pkg/utils"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		dataset string
		viz     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a delivery simulation",
		Long: `Load a CSV dataset, launch one agent per warehouse and drone, and run
until every drone has delivered what it can and retired. The process
exits once the whole fleet is done.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Flags override the loaded configuration.
			if dataset != "" {
				cfg.Data.Dataset = dataset
			}
			if viz {
				cfg.Visualization.Enabled = true
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if err := config.ValidateConfig(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return runSimulation(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&dataset, "data", "d", "", "Dataset to load: original or small")
	cmd.Flags().BoolVar(&viz, "viz", false, "Serve the live map feed")

	return cmd
}

func runSimulation(ctx context.Context, cfg *config.Config) error {
	logs, err := logging.NewFactory(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logs.Close()

	console := logs.Console().With().Str("run", utils.GenerateRunID()).Logger()

	dataDir := filepath.Join(cfg.Data.Dir, cfg.Data.Dataset)
	loader := ingest.NewLoader(cfg.Matrix, nil)
	warehouses, drones, err := loader.Load(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load dataset %s: %w", dataDir, err)
	}
	console.Info().
		Str("dataset", dataDir).
		Int("warehouses", len(warehouses)).
		Int("drones", len(drones)).
		Msg("dataset loaded")

	observers := agents.MultiObserver{metrics.NewReporter(cfg.Logging.Dir, console)}

	if cfg.Visualization.Enabled {
		hub := visualization.NewHub(cfg.Visualization.Address, console)
		if err := hub.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = hub.Shutdown(shutdownCtx)
		}()
		observers = append(observers, visualization.NewEmitter(hub, cfg.Visualization.EmitPeriod))
	}

	var provisioner simulation.AccountProvisioner = provisioning.NoopProvisioner{}
	if cfg.Provisioning.ContainerID != "" {
		provisioner = provisioning.NewProsodyProvisioner(cfg.Provisioning)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	controller := simulation.NewController(cfg, warehouses, drones, observers, provisioner, logs, nil)
	return controller.Run(runCtx)
}
