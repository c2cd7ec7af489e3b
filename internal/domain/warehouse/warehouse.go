package warehouse

import (
	"fmt"
	"sort"
	"time"

	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// Warehouse holds an inventory of undelivered orders and serves drone
// negotiations: it proposes bundles out of its spatial matrix, commits or
// rolls back reservations on the drone's decision, and hands orders over at
// pickup.
//
// At any moment an order the warehouse knows about is in exactly one of:
// inventory and its matrix cell (free), a drone's reservation in the matrix
// (proposed, still in inventory), ordersToBePicked (accepted, awaiting
// pickup), or gone (picked up).
//
// A warehouse is owned by a single goroutine; no locking.
type Warehouse struct {
	id       string
	position shared.Position

	inventory        map[string]*order.Order
	ordersToBePicked map[string][]*order.Order
	matrix           *OrdersMatrix
}

// NewWarehouse creates a warehouse with the given starting inventory and
// builds its orders matrix.
// If clock is nil, uses RealClock (production behavior)
func NewWarehouse(
	id string,
	position shared.Position,
	orders []*order.Order,
	divisions int,
	capacityMultiplier float64,
	boundsBuffer float64,
	reservationTimeout time.Duration,
	clock shared.Clock,
) (*Warehouse, error) {
	if id == "" {
		return nil, shared.NewWarehouseError("warehouse id cannot be empty")
	}

	matrix, err := NewOrdersMatrix(orders, position, divisions, capacityMultiplier, boundsBuffer, reservationTimeout, clock)
	if err != nil {
		return nil, err
	}

	inventory := make(map[string]*order.Order, len(orders))
	for _, o := range orders {
		inventory[o.ID()] = o
	}

	return &Warehouse{
		id:               id,
		position:         position,
		inventory:        inventory,
		ordersToBePicked: make(map[string][]*order.Order),
		matrix:           matrix,
	}, nil
}

// Getters

func (w *Warehouse) ID() string                { return w.id }
func (w *Warehouse) Position() shared.Position { return w.position }
func (w *Warehouse) Matrix() *OrdersMatrix     { return w.matrix }

// InventorySize returns how many undelivered orders the warehouse still owns
func (w *Warehouse) InventorySize() int {
	return len(w.inventory)
}

// InventoryOrders returns the warehouse's undelivered orders, sorted by id
func (w *Warehouse) InventoryOrders() []*order.Order {
	ids := make([]string, 0, len(w.inventory))
	for id := range w.inventory {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	orders := make([]*order.Order, len(ids))
	for i, id := range ids {
		orders[i] = w.inventory[id]
	}
	return orders
}

// PendingPickup returns the orders accepted by a drone but not yet collected
func (w *Warehouse) PendingPickup(droneID string) []*order.Order {
	pending := w.ordersToBePicked[droneID]
	orders := make([]*order.Order, len(pending))
	copy(orders, pending)
	return orders
}

// IsQuiescent reports whether the warehouse has nothing left to offer:
// empty inventory, no outstanding reservation and no pending pickup
func (w *Warehouse) IsQuiescent() bool {
	return len(w.inventory) == 0 &&
		len(w.ordersToBePicked) == 0 &&
		!w.matrix.HasReservations()
}

// Negotiation methods

// ProposeOrders reserves a bundle near the warehouse for the asking drone
// and returns it. The warehouse uses its own position as the query point:
// drones recharge here before delivering, so proximity to the warehouse is
// what matters.
func (w *Warehouse) ProposeOrders(droneID string, freeCapacity float64) []*order.Order {
	return w.matrix.SelectOrders(w.position.Latitude, w.position.Longitude, freeCapacity, droneID)
}

// AcceptOrders commits the drone's accepted order ids: each one is removed
// from the matrix for good, marked Taken and moved from inventory to the
// drone's pending-pickup list. Whatever the drone did not keep is always
// rolled back afterwards, even on error.
func (w *Warehouse) AcceptOrders(droneID string, orderIDs []string) error {
	defer w.matrix.UndoReservations(droneID)

	for _, id := range orderIDs {
		if err := w.matrix.RemoveOrder(id, droneID); err != nil {
			return err
		}
		o, ok := w.inventory[id]
		if !ok {
			return shared.NewWarehouseError(fmt.Sprintf("accepted order %s is not in inventory", id))
		}
		if err := o.Take(); err != nil {
			return err
		}
		delete(w.inventory, id)
		w.ordersToBePicked[droneID] = append(w.ordersToBePicked[droneID], o)
	}
	return nil
}

// RejectOrders rolls back everything reserved by the drone
func (w *Warehouse) RejectOrders(droneID string) {
	w.matrix.UndoReservations(droneID)
}

// ConfirmPickup hands over the drone's accepted orders and forgets them.
// Returns an error when the drone has no pending pickup here (a protocol
// violation; the caller logs it and sends no reply).
func (w *Warehouse) ConfirmPickup(droneID string) ([]*order.Order, error) {
	orders, ok := w.ordersToBePicked[droneID]
	if !ok {
		return nil, shared.NewWarehouseError(fmt.Sprintf("no pending pickup for drone %s", droneID))
	}
	delete(w.ordersToBePicked, droneID)
	return orders, nil
}

// String provides human-readable representation
func (w *Warehouse) String() string {
	return fmt.Sprintf("Warehouse[%s, pos=%s, inventory=%d]", w.id, w.position, len(w.inventory))
}
