// Package simulation owns the lifecycle of a delivery run: provision
// accounts, open warehouses, launch the fleet, wait for every drone to
// reach its terminal state, then close the warehouses.
package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andrescamacho/skycourier-go/internal/application/agents"
	"github.com/andrescamacho/skycourier-go/internal/application/messaging"
	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
	"github.com/andrescamacho/skycourier-go/internal/infrastructure/config"
	"github.com/andrescamacho/skycourier-go/internal/infrastructure/logging"
)

// AccountProvisioner prepares external messaging accounts before agents
// start exchanging messages.
type AccountProvisioner interface {
	EnsureAccounts(ctx context.Context, agentIDs []string) error
}

// Controller runs one complete simulation. Warehouses are started first and
// serve until stopped; drones are launched after a settle delay and run to
// their terminal state.
type Controller struct {
	cfg         *config.Config
	directory   *messaging.Directory
	warehouses  []*agents.WarehouseAgent
	drones      []*agents.DroneAgent
	provisioner AccountProvisioner
	logger      zerolog.Logger
	clock       shared.Clock
}

// NewController wires one agent per warehouse and drone. Each agent logs to
// its own file through the factory. If clock is nil, uses RealClock
// (production behavior); drones tick on the same clock.
func NewController(
	cfg *config.Config,
	warehouses []*warehouse.Warehouse,
	drones []*drone.Drone,
	observer agents.Observer,
	provisioner AccountProvisioner,
	logs *logging.Factory,
	clock shared.Clock,
) *Controller {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if observer == nil {
		observer = agents.NopObserver{}
	}

	directory := messaging.NewDirectory(cfg.Simulation.MailboxSize)
	timing := agents.Timing{
		TickRate:        cfg.Simulation.TickRate,
		TimeMultiplier:  cfg.Simulation.TimeMultiplier,
		ResponseTimeout: cfg.Simulation.ResponseTimeout,
		SuggestRetries:  cfg.Simulation.SuggestRetries,
	}

	c := &Controller{
		cfg:         cfg,
		directory:   directory,
		provisioner: provisioner,
		logger:      logs.Console(),
		clock:       clock,
	}
	for _, w := range warehouses {
		c.warehouses = append(c.warehouses, agents.NewWarehouseAgent(w, directory, timing, observer, logs.ForAgent(w.ID())))
	}
	for _, d := range drones {
		c.drones = append(c.drones, agents.NewDroneAgent(d, directory, timing, observer, logs.ForAgent(d.ID()), clock))
	}
	return c
}

// Run executes the simulation to completion. It returns once every drone
// has reached its terminal state and the warehouses have shut down. Drone
// failures are per-drone and do not interrupt the rest of the fleet.
func (c *Controller) Run(ctx context.Context) error {
	if c.provisioner != nil {
		if err := c.provisioner.EnsureAccounts(logging.WithLogger(ctx, c.logger), c.agentIDs()); err != nil {
			return fmt.Errorf("failed to provision agent accounts: %w", err)
		}
	}

	// 1. Open warehouses; they serve until cancelled.
	warehouseCtx, stopWarehouses := context.WithCancel(ctx)
	defer stopWarehouses()

	var warehouseGroup errgroup.Group
	for _, agent := range c.warehouses {
		agent := agent
		warehouseGroup.Go(func() error {
			if err := agent.Run(warehouseCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	for _, agent := range c.warehouses {
		select {
		case <-agent.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// 2. Give warehouses time to settle before the fleet starts asking.
	c.clock.Sleep(c.cfg.Simulation.WarehouseSettleDelay)
	c.logger.Info().
		Int("warehouses", len(c.warehouses)).
		Int("drones", len(c.drones)).
		Msg("fleet launching")

	// 3. Launch drones; each runs to its terminal state. A plain group
	// collects errors without cancelling siblings.
	var droneGroup errgroup.Group
	for _, agent := range c.drones {
		agent := agent
		droneGroup.Go(func() error {
			return agent.Run(ctx)
		})
	}
	droneErr := droneGroup.Wait()

	// 4. Every drone is done; close the warehouses.
	stopWarehouses()
	warehouseErr := warehouseGroup.Wait()

	c.logSummary()

	if droneErr != nil {
		return droneErr
	}
	return warehouseErr
}

func (c *Controller) agentIDs() []string {
	ids := make([]string, 0, len(c.warehouses)+len(c.drones))
	for _, agent := range c.warehouses {
		ids = append(ids, agent.Warehouse().ID())
	}
	for _, agent := range c.drones {
		ids = append(ids, agent.Drone().ID())
	}
	return ids
}

func (c *Controller) logSummary() {
	succeeded, delivered := 0, 0
	for _, agent := range c.drones {
		d := agent.Drone()
		if d.State().DiedSuccessfully() {
			succeeded++
		}
		delivered += d.Metrics().OrdersDelivered()
	}
	remaining := 0
	for _, agent := range c.warehouses {
		remaining += agent.Warehouse().InventorySize()
	}
	c.logger.Info().
		Int("drones_succeeded", succeeded).
		Int("drones_total", len(c.drones)).
		Int("orders_delivered", delivered).
		Int("orders_remaining", remaining).
		Msg("simulation complete")
}
