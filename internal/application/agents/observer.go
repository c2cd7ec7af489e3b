package agents

import (
	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
)

// Observer receives simulation events as they happen. Callbacks run on the
// emitting agent's goroutine and must return quickly; implementations that
// fan out to slow consumers should buffer or drop.
type Observer interface {
	// WarehouseOpened fires once per warehouse when its agent starts.
	WarehouseOpened(w *warehouse.Warehouse)

	// DroneMoved fires after every position update tick.
	DroneMoved(d *drone.Drone)

	// OrderDelivered fires when a drone drops an order at its destination.
	OrderDelivered(droneID string, o *order.Order)

	// DroneDied fires once when a drone reaches its terminal state.
	DroneDied(d *drone.Drone)
}

// NopObserver discards every event
type NopObserver struct{}

func (NopObserver) WarehouseOpened(*warehouse.Warehouse) {}

func (NopObserver) DroneMoved(*drone.Drone) {}

func (NopObserver) OrderDelivered(string, *order.Order) {}

func (NopObserver) DroneDied(*drone.Drone) {}

// MultiObserver fans every event out to each member in order
type MultiObserver []Observer

func (m MultiObserver) WarehouseOpened(w *warehouse.Warehouse) {
	for _, o := range m {
		o.WarehouseOpened(w)
	}
}

func (m MultiObserver) DroneMoved(d *drone.Drone) {
	for _, o := range m {
		o.DroneMoved(d)
	}
}

func (m MultiObserver) OrderDelivered(droneID string, delivered *order.Order) {
	for _, o := range m {
		o.OrderDelivered(droneID, delivered)
	}
}

func (m MultiObserver) DroneDied(d *drone.Drone) {
	for _, o := range m {
		o.DroneDied(d)
	}
}
