package steps

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/skycourier-go/internal/adapters/provisioning"
	"github.com/andrescamacho/skycourier-go/internal/application/simulation"
	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
	"github.com/andrescamacho/skycourier-go/internal/infrastructure/config"
	"github.com/andrescamacho/skycourier-go/internal/infrastructure/logging"
)

const droneVelocity = 20.0

// fleetContext drives a whole simulation end to end. The Given steps only
// record declarations; warehouses and drones are built when the run step
// fires, once every position and inventory is known.
type fleetContext struct {
	clock *shared.MockClock

	warehouseIDs []string
	positions    map[string]shared.Position
	inventories  map[string][]*order.Order
	droneDefs    []droneDef

	warehouses map[string]*warehouse.Warehouse
	drones     map[string]*drone.Drone
	deliveries *deliveryLog
	logDir     string
	logs       *logging.Factory
}

type droneDef struct {
	id       string
	capacity float64
	autonomy float64
	home     string
}

// deliveryLog records the order in which deliveries happen across the fleet
type deliveryLog struct {
	mu  sync.Mutex
	ids []string
}

func (l *deliveryLog) WarehouseOpened(*warehouse.Warehouse) {}

func (l *deliveryLog) DroneMoved(*drone.Drone) {}

func (l *deliveryLog) OrderDelivered(droneID string, o *order.Order) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, o.ID())
}

func (l *deliveryLog) DroneDied(*drone.Drone) {}

func (l *deliveryLog) delivered() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

func (fc *fleetContext) reset() {
	fc.cleanup()
	fc.clock = shared.NewMockClock(time.Time{})
	fc.warehouseIDs = nil
	fc.positions = make(map[string]shared.Position)
	fc.inventories = make(map[string][]*order.Order)
	fc.droneDefs = nil
	fc.warehouses = make(map[string]*warehouse.Warehouse)
	fc.drones = make(map[string]*drone.Drone)
	fc.deliveries = &deliveryLog{}
}

func (fc *fleetContext) cleanup() {
	if fc.logs != nil {
		_ = fc.logs.Close()
		fc.logs = nil
	}
	if fc.logDir != "" {
		_ = os.RemoveAll(fc.logDir)
		fc.logDir = ""
	}
}

// Given steps

func (fc *fleetContext) aWarehouseAtCoordinates(id string, lat, lon float64) error {
	if _, exists := fc.positions[id]; exists {
		return fmt.Errorf("warehouse %s declared twice", id)
	}
	position, err := shared.NewPosition(lat, lon)
	if err != nil {
		return err
	}
	fc.warehouseIDs = append(fc.warehouseIDs, id)
	fc.positions[id] = position
	return nil
}

func (fc *fleetContext) warehouseHoldsOrder(warehouseID, orderID string, weight, destLat, destLon float64) error {
	origin, ok := fc.positions[warehouseID]
	if !ok {
		return fmt.Errorf("warehouse %s is not declared", warehouseID)
	}
	destination, err := shared.NewPosition(destLat, destLon)
	if err != nil {
		return err
	}
	o, err := order.NewOrder(orderID, origin, destination, weight)
	if err != nil {
		return err
	}
	fc.inventories[warehouseID] = append(fc.inventories[warehouseID], o)
	return nil
}

func (fc *fleetContext) aDroneDockedAt(droneID, warehouseID string, capacity, autonomy float64) error {
	if _, ok := fc.positions[warehouseID]; !ok {
		return fmt.Errorf("warehouse %s is not declared", warehouseID)
	}
	fc.droneDefs = append(fc.droneDefs, droneDef{
		id:       droneID,
		capacity: capacity,
		autonomy: autonomy,
		home:     warehouseID,
	})
	return nil
}

// When steps

func (fc *fleetContext) theSimulationRunsToCompletion() error {
	cfg := config.Default()

	warehouses := make([]*warehouse.Warehouse, 0, len(fc.warehouseIDs))
	for _, id := range fc.warehouseIDs {
		w, err := warehouse.NewWarehouse(
			id,
			fc.positions[id],
			fc.inventories[id],
			cfg.Matrix.Divisions,
			float64(cfg.Matrix.CapacityMultiplier),
			cfg.Matrix.BoundsBuffer,
			time.Minute,
			fc.clock,
		)
		if err != nil {
			return fmt.Errorf("failed to build warehouse %s: %w", id, err)
		}
		fc.warehouses[id] = w
		warehouses = append(warehouses, w)
	}

	drones := make([]*drone.Drone, 0, len(fc.droneDefs))
	for _, def := range fc.droneDefs {
		d, err := drone.NewDrone(def.id, def.capacity, def.autonomy, droneVelocity, def.home, fc.positions, fc.clock)
		if err != nil {
			return fmt.Errorf("failed to build drone %s: %w", def.id, err)
		}
		fc.drones[def.id] = d
		drones = append(drones, d)
	}

	logDir, err := os.MkdirTemp("", "skycourier-bdd-")
	if err != nil {
		return err
	}
	fc.logDir = logDir
	logs, err := logging.NewFactory(logDir, "error")
	if err != nil {
		return err
	}
	fc.logs = logs

	controller := simulation.NewController(
		cfg,
		warehouses,
		drones,
		fc.deliveries,
		provisioning.NoopProvisioner{},
		logs,
		fc.clock,
	)
	return controller.Run(context.Background())
}

// Then steps

func (fc *fleetContext) droneRetiresSuccessfully(droneID string) error {
	d, err := fc.droneByID(droneID)
	if err != nil {
		return err
	}
	if d.State().State() != drone.StateDead {
		return fmt.Errorf("expected drone %s to be dead, still %s", droneID, d.State().State())
	}
	if !d.State().DiedSuccessfully() {
		return fmt.Errorf("expected drone %s to retire successfully, but it died in flight", droneID)
	}
	return nil
}

func (fc *fleetContext) droneDiesInFlight(droneID string) error {
	d, err := fc.droneByID(droneID)
	if err != nil {
		return err
	}
	if d.State().State() != drone.StateDead {
		return fmt.Errorf("expected drone %s to be dead, still %s", droneID, d.State().State())
	}
	if d.State().DiedSuccessfully() {
		return fmt.Errorf("expected drone %s to die in flight, but it retired successfully", droneID)
	}
	return nil
}

func (fc *fleetContext) droneHasDelivered(droneID string, count int) error {
	d, err := fc.droneByID(droneID)
	if err != nil {
		return err
	}
	if got := d.Metrics().OrdersDelivered(); got != count {
		return fmt.Errorf("expected drone %s to have delivered %d orders, got %d", droneID, count, got)
	}
	return nil
}

func (fc *fleetContext) droneHasFlownAbout(droneID string, meters float64) error {
	const tolerance = 25.0
	d, err := fc.droneByID(droneID)
	if err != nil {
		return err
	}
	if got := d.Metrics().TotalDistance(); math.Abs(got-meters) > tolerance {
		return fmt.Errorf("expected drone %s to have flown about %.0f meters, got %.1f", droneID, meters, got)
	}
	return nil
}

func (fc *fleetContext) warehouseInventoryIsEmpty(warehouseID string) error {
	w, err := fc.warehouseByID(warehouseID)
	if err != nil {
		return err
	}
	if size := w.InventorySize(); size != 0 {
		return fmt.Errorf("expected warehouse %s inventory to be empty, got %d orders", warehouseID, size)
	}
	return nil
}

func (fc *fleetContext) orderRemainsFreeAtWarehouse(orderID, warehouseID string) error {
	w, err := fc.warehouseByID(warehouseID)
	if err != nil {
		return err
	}
	for _, o := range w.InventoryOrders() {
		if o.ID() != orderID {
			continue
		}
		if o.Status() != order.StatusFree {
			return fmt.Errorf("expected order %s to be free, got %s", orderID, o.Status())
		}
		return nil
	}
	return fmt.Errorf("order %s is not in warehouse %s inventory", orderID, warehouseID)
}

func (fc *fleetContext) ordersDeliveredInOrder(first, second string) error {
	expected := []string{first, second}
	delivered := fc.deliveries.delivered()
	if len(delivered) != len(expected) {
		return fmt.Errorf("expected deliveries %v, got %v", expected, delivered)
	}
	for i := range expected {
		if delivered[i] != expected[i] {
			return fmt.Errorf("expected deliveries %v, got %v", expected, delivered)
		}
	}
	return nil
}

func (fc *fleetContext) droneStillCarriesOrderAsTaken(droneID, orderID string) error {
	d, err := fc.droneByID(droneID)
	if err != nil {
		return err
	}
	for _, o := range d.NextOrders() {
		if o.ID() != orderID {
			continue
		}
		if o.Status() != order.StatusTaken {
			return fmt.Errorf("expected order %s to be taken, got %s", orderID, o.Status())
		}
		return nil
	}
	return fmt.Errorf("order %s is not aboard drone %s", orderID, droneID)
}

func (fc *fleetContext) droneByID(droneID string) (*drone.Drone, error) {
	d, ok := fc.drones[droneID]
	if !ok {
		return nil, fmt.Errorf("drone %s was never built", droneID)
	}
	return d, nil
}

func (fc *fleetContext) warehouseByID(warehouseID string) (*warehouse.Warehouse, error) {
	w, ok := fc.warehouses[warehouseID]
	if !ok {
		return nil, fmt.Errorf("warehouse %s was never built", warehouseID)
	}
	return w, nil
}

func InitializeFleetScenario(ctx *godog.ScenarioContext) {
	fc := &fleetContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		fc.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		fc.cleanup()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a warehouse "([^"]*)" at coordinates (-?[0-9.]+), (-?[0-9.]+)$`, fc.aWarehouseAtCoordinates)
	ctx.Step(`^warehouse "([^"]*)" holds order "([^"]*)" of ([0-9.]+) kg with destination (-?[0-9.]+), (-?[0-9.]+)$`, fc.warehouseHoldsOrder)
	ctx.Step(`^a drone "([^"]*)" docked at "([^"]*)" with capacity ([0-9.]+) kg and autonomy ([0-9.]+) meters$`, fc.aDroneDockedAt)

	// When steps
	ctx.Step(`^the simulation runs to completion$`, fc.theSimulationRunsToCompletion)

	// Then steps
	ctx.Step(`^drone "([^"]*)" retires successfully$`, fc.droneRetiresSuccessfully)
	ctx.Step(`^drone "([^"]*)" dies in flight$`, fc.droneDiesInFlight)
	ctx.Step(`^drone "([^"]*)" has delivered (\d+) orders?$`, fc.droneHasDelivered)
	ctx.Step(`^drone "([^"]*)" has flown about ([0-9.]+) meters$`, fc.droneHasFlownAbout)
	ctx.Step(`^warehouse "([^"]*)" inventory is empty$`, fc.warehouseInventoryIsEmpty)
	ctx.Step(`^order "([^"]*)" remains free at warehouse "([^"]*)"$`, fc.orderRemainsFreeAtWarehouse)
	ctx.Step(`^the orders were delivered in the order "([^"]*)", "([^"]*)"$`, fc.ordersDeliveredInOrder)
	ctx.Step(`^drone "([^"]*)" still carries order "([^"]*)" as taken$`, fc.droneStillCarriesOrderAsTaken)
}
