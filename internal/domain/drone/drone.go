package drone

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// Drone represents a delivery drone negotiating with warehouses for order
// bundles and flying them to their destinations.
//
// A drone is owned by a single goroutine: all mutation happens from its own
// agent loop, so no locking is required. Cross-agent data travels by value
// inside messages.
type Drone struct {
	id       string
	position shared.Position
	capacity *Capacity
	autonomy *Autonomy
	velocity float64

	// Warehouses still worth asking for work; refusals remove entries
	warehousePositions map[string]shared.Position

	nextWarehouse       string
	nextOrders          []*order.Order
	requiredWarehouse   string
	maxDeliverableOrder *order.Order

	// Distance flown since the last recharge, flushed into metrics as a trip
	distanceSinceRecharge float64

	state   *StateMachine
	metrics *Metrics
	clock   shared.Clock
}

// NewDrone creates a drone parked at its initial warehouse with an empty
// cargo hold and a full charge.
// If clock is nil, uses RealClock (production behavior)
func NewDrone(
	id string,
	capacityKg float64,
	autonomyMeters float64,
	velocity float64,
	initialWarehouse string,
	warehousePositions map[string]shared.Position,
	clock shared.Clock,
) (*Drone, error) {
	if id == "" {
		return nil, shared.NewInvalidDroneDataError("drone id cannot be empty")
	}
	if velocity <= 0 {
		return nil, shared.NewInvalidDroneDataError(fmt.Sprintf("velocity must be positive, got %.2f", velocity))
	}
	start, ok := warehousePositions[initialWarehouse]
	if !ok {
		return nil, shared.NewInvalidDroneDataError(fmt.Sprintf("initial warehouse %q is not a known warehouse", initialWarehouse))
	}

	capacity, err := NewCapacity(0, capacityKg)
	if err != nil {
		return nil, err
	}
	autonomy, err := NewAutonomy(autonomyMeters, autonomyMeters)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]shared.Position, len(warehousePositions))
	for whID, pos := range warehousePositions {
		positions[whID] = pos
	}

	return &Drone{
		id:                 id,
		position:           start,
		capacity:           capacity,
		autonomy:           autonomy,
		velocity:           velocity,
		warehousePositions: positions,
		state:              NewStateMachine(clock),
		metrics:            NewMetrics(id, capacityKg, autonomyMeters, velocity),
		clock:              clock,
	}, nil
}

// Getters

func (d *Drone) ID() string                { return d.id }
func (d *Drone) Position() shared.Position { return d.position }
func (d *Drone) Capacity() *Capacity       { return d.capacity }
func (d *Drone) Autonomy() *Autonomy       { return d.autonomy }
func (d *Drone) Velocity() float64         { return d.velocity }
func (d *Drone) State() *StateMachine      { return d.state }
func (d *Drone) Metrics() *Metrics         { return d.metrics }
func (d *Drone) NextWarehouse() string     { return d.nextWarehouse }
func (d *Drone) RequiredWarehouse() string { return d.requiredWarehouse }

// FreeCapacity returns the cargo weight the drone can still take on
func (d *Drone) FreeCapacity() float64 {
	return d.capacity.Free()
}

// HasInventory returns true while undelivered orders remain on board
func (d *Drone) HasInventory() bool {
	return len(d.nextOrders) > 0
}

// NextOrder returns the head of the delivery route, or nil when empty
func (d *Drone) NextOrder() *order.Order {
	if len(d.nextOrders) == 0 {
		return nil
	}
	return d.nextOrders[0]
}

// NextOrders returns a copy of the remaining delivery route
func (d *Drone) NextOrders() []*order.Order {
	route := make([]*order.Order, len(d.nextOrders))
	copy(route, d.nextOrders)
	return route
}

// MaxDeliverableOrder returns the deepest order after which the drone can
// still reach a warehouse, or nil when no forced return is needed
func (d *Drone) MaxDeliverableOrder() *order.Order {
	return d.maxDeliverableOrder
}

// WarehouseIDs returns the ids of warehouses still worth asking, sorted
func (d *Drone) WarehouseIDs() []string {
	ids := make([]string, 0, len(d.warehousePositions))
	for id := range d.warehousePositions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WarehousePosition looks up a warehouse position by id
func (d *Drone) WarehousePosition(id string) (shared.Position, bool) {
	pos, ok := d.warehousePositions[id]
	return pos, ok
}

// HasWarehouses returns true while any warehouse remains a candidate
func (d *Drone) HasWarehouses() bool {
	return len(d.warehousePositions) > 0
}

// Movement methods

// TickStepDistance returns the simulated meters covered in one tick
func (d *Drone) TickStepDistance(timeMultiplier float64, tickRate time.Duration) float64 {
	return d.velocity * timeMultiplier * tickRate.Seconds()
}

// MoveToward advances the drone one step toward the target, consuming
// autonomy for the distance actually covered. Returns that distance.
// Autonomy may go negative; the caller checks IsOutOfAutonomy on its next
// loop iteration.
func (d *Drone) MoveToward(target shared.Position, stepDistance float64) float64 {
	next, covered := d.position.Step(target, stepDistance)
	d.position = next
	d.autonomy = d.autonomy.Consume(covered)
	d.distanceSinceRecharge += covered
	return covered
}

// ArrivedAt reports whether the drone sits exactly at the target
func (d *Drone) ArrivedAt(target shared.Position) bool {
	return d.position.Equals(target)
}

// IsOutOfAutonomy reports whether the last step exhausted the battery
func (d *Drone) IsOutOfAutonomy() bool {
	return d.autonomy.IsExhausted()
}

// Recharge refills autonomy at the named warehouse and closes the current
// trip in the metrics (if any distance was flown since the last one)
func (d *Drone) Recharge(warehouseID string) {
	if d.distanceSinceRecharge > 0 {
		d.metrics.AddTrip(d.distanceSinceRecharge, warehouseID, d.position)
		d.distanceSinceRecharge = 0
	}
	d.autonomy = d.autonomy.Recharge()
}

// FinalizeTrip closes the in-flight trip at death so the final leg is not
// lost from the totals
func (d *Drone) FinalizeTrip() {
	if d.distanceSinceRecharge > 0 {
		d.metrics.AddTrip(d.distanceSinceRecharge, d.id, d.position)
		d.distanceSinceRecharge = 0
	}
}

// Cargo methods

// AddOrder takes ownership of an order: marks it Taken, loads its weight
// and appends it to the delivery route. On error the order is left untouched.
func (d *Drone) AddOrder(o *order.Order) error {
	loaded, err := d.capacity.Load(o.Weight())
	if err != nil {
		return err
	}
	if err := o.Take(); err != nil {
		return err
	}
	d.capacity = loaded
	d.nextOrders = append(d.nextOrders, o)
	d.metrics.AddDestination(o.ID(), o.Destination())
	return nil
}

// DropOrder delivers the head of the route: marks it Delivered, unloads its
// weight and records the delivery. Returns the delivered order.
func (d *Drone) DropOrder() (*order.Order, error) {
	if len(d.nextOrders) == 0 {
		return nil, shared.NewDroneError("no order to drop")
	}
	o := d.nextOrders[0]
	unloaded, err := d.capacity.Unload(o.Weight())
	if err != nil {
		return nil, err
	}
	if err := o.Deliver(); err != nil {
		return nil, err
	}
	d.capacity = unloaded
	d.nextOrders = d.nextOrders[1:]
	d.metrics.RecordDelivery()
	return o, nil
}

// SetRoute replaces the delivery route, normally with a nearest-neighbor
// path over the same orders
func (d *Drone) SetRoute(route []*order.Order) {
	d.nextOrders = route
}

// Negotiation methods

// RemoveWarehouse drops a warehouse that refused to propose
func (d *Drone) RemoveWarehouse(id string) {
	delete(d.warehousePositions, id)
}

// SetNextWarehouse records the warehouse the drone committed to visit
func (d *Drone) SetNextWarehouse(id string) {
	d.nextWarehouse = id
}

// SetRequiredWarehouseToClosest pins the next suggest round to the
// warehouse closest to the drone's current position. Returns its id, or ""
// when no warehouse remains.
func (d *Drone) SetRequiredWarehouseToClosest() string {
	id, _ := ClosestWarehouse(d.position, d.warehousePositions)
	d.requiredWarehouse = id
	return id
}

// ClearRequiredWarehouse releases the pin after the suggest round consumed it
func (d *Drone) ClearRequiredWarehouse() {
	d.requiredWarehouse = ""
}

// ComputeTasksInRange refreshes maxDeliverableOrder from the current route,
// position and charge
func (d *Drone) ComputeTasksInRange() {
	d.maxDeliverableOrder = TasksInRange(d.position, d.nextOrders, d.autonomy.Current, d.warehousePositions)
}

// BestBundle picks the warehouse whose proposed bundle beats both every
// other bundle and the utility of just delivering the current route on the
// remaining charge. Bundles are scored on a full charge (the drone recharges
// at the warehouse) prefixed by the approach leg, which must be reachable on
// the current charge. Returns ("", nil) when keeping the current route wins.
func (d *Drone) BestBundle(bundles map[string][]*order.Order) (string, []*order.Order) {
	bestUtility := Utility(
		len(d.nextOrders),
		TravelDistance(d.position, d.nextOrders),
		d.autonomy.Current,
		CapacityLevel(d.nextOrders, d.capacity.Max),
	)

	ids := make([]string, 0, len(bundles))
	for id := range bundles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	winner := ""
	var winning []*order.Order
	for _, id := range ids {
		bundle := bundles[id]
		if len(bundle) == 0 {
			continue
		}
		warehousePos, ok := d.warehousePositions[id]
		if !ok {
			continue
		}
		approach := d.position.DistanceTo(warehousePos)
		if approach > d.autonomy.Current {
			continue
		}
		route := Path(bundle, ClosestOrder(warehousePos, bundle))
		travel := approach + TravelDistance(warehousePos, route)
		bundleUtility := Utility(len(bundle), travel, d.autonomy.Max, CapacityLevel(bundle, d.capacity.Free()))
		if math.IsInf(bundleUtility, -1) {
			continue
		}
		if bundleUtility >= bestUtility {
			bestUtility = bundleUtility
			winner = id
			winning = bundle
		}
	}
	return winner, winning
}

// String provides human-readable representation
func (d *Drone) String() string {
	return fmt.Sprintf("Drone[%s, pos=%s, %s, %s, orders=%d]",
		d.id, d.position, d.capacity, d.autonomy, len(d.nextOrders))
}
