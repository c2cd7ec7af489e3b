package warehouse

import (
	"time"

	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
	"github.com/andrescamacho/skycourier-go/pkg/utils"
)

// reservedOrder remembers the cell an order came from so a rollback can put
// it back exactly where it was.
type reservedOrder struct {
	order *order.Order
	row   int
	col   int
}

// OrdersMatrix is a D×D spatial index over order destinations with
// owner-scoped reservations. Selecting orders moves them out of their cells
// into the owner's reservation list; committing removes them for good;
// undoing moves them back. A reservation older than the timeout is rolled
// back by the sweep at the top of every selection, so a drone that vanishes
// between propose and decide cannot wedge the inventory.
//
// Invariants:
// - Every free order sits in exactly one cell
// - Every reserved order sits in exactly one owner's list and in no cell
//
// The matrix is owned by a single warehouse goroutine; no locking.
type OrdersMatrix struct {
	divisions          int
	capacityMultiplier float64

	minLat, maxLat float64
	minLon, maxLon float64
	latStep        float64
	lonStep        float64

	cells        [][][]*order.Order
	reservations map[string][]reservedOrder
	reservedAt   map[string]time.Time

	reservationTimeout time.Duration
	clock              shared.Clock
}

// NewOrdersMatrix builds the grid over the padded bounding box of the
// warehouse position and every order destination, and places each order in
// the cell covering its destination.
// If clock is nil, uses RealClock (production behavior)
func NewOrdersMatrix(
	orders []*order.Order,
	origin shared.Position,
	divisions int,
	capacityMultiplier float64,
	boundsBuffer float64,
	reservationTimeout time.Duration,
	clock shared.Clock,
) (*OrdersMatrix, error) {
	if divisions < 1 {
		return nil, shared.NewWarehouseError("matrix divisions must be at least 1")
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}

	minLat, maxLat := origin.Latitude, origin.Latitude
	minLon, maxLon := origin.Longitude, origin.Longitude
	for _, o := range orders {
		dest := o.Destination()
		if dest.Latitude < minLat {
			minLat = dest.Latitude
		}
		if dest.Latitude > maxLat {
			maxLat = dest.Latitude
		}
		if dest.Longitude < minLon {
			minLon = dest.Longitude
		}
		if dest.Longitude > maxLon {
			maxLon = dest.Longitude
		}
	}
	minLat -= boundsBuffer
	maxLat += boundsBuffer
	minLon -= boundsBuffer
	maxLon += boundsBuffer

	cells := make([][][]*order.Order, divisions)
	for i := range cells {
		cells[i] = make([][]*order.Order, divisions)
	}

	m := &OrdersMatrix{
		divisions:          divisions,
		capacityMultiplier: capacityMultiplier,
		minLat:             minLat,
		maxLat:             maxLat,
		minLon:             minLon,
		maxLon:             maxLon,
		latStep:            (maxLat - minLat) / float64(divisions),
		lonStep:            (maxLon - minLon) / float64(divisions),
		cells:              cells,
		reservations:       make(map[string][]reservedOrder),
		reservedAt:         make(map[string]time.Time),
		reservationTimeout: reservationTimeout,
		clock:              clock,
	}

	for _, o := range orders {
		row, col := m.cellFor(o.Destination().Latitude, o.Destination().Longitude)
		m.cells[row][col] = append(m.cells[row][col], o)
	}
	return m, nil
}

// cellFor maps a coordinate to grid indices measured from the top-left
// corner (max latitude, min longitude), clamped to the grid.
func (m *OrdersMatrix) cellFor(lat, lon float64) (int, int) {
	row, col := 0, 0
	if m.latStep > 0 {
		row = int((m.maxLat - lat) / m.latStep)
	}
	if m.lonStep > 0 {
		col = int((lon - m.minLon) / m.lonStep)
	}
	return utils.Clamp(row, 0, m.divisions-1), utils.Clamp(col, 0, m.divisions-1)
}

// SelectOrders reserves a bundle of orders near the query point for the
// given owner and returns it. The budget is the owner's free capacity
// inflated by the capacity multiplier: the warehouse deliberately
// over-offers and lets the drone's utility filter pick the real subset.
//
// Traversal is breadth-first over the 4-neighborhood starting at the query
// cell. A cell that fits entirely under the remaining budget is taken whole;
// the first cell that does not contributes only its individually fitting
// orders and ends the traversal.
func (m *OrdersMatrix) SelectOrders(lat, lon, freeCapacity float64, owner string) []*order.Order {
	m.sweepExpired()

	budget := freeCapacity * m.capacityMultiplier
	startRow, startCol := m.cellFor(lat, lon)

	type cell struct{ row, col int }
	queue := []cell{{startRow, startCol}}
	visited := make(map[cell]bool)
	visited[queue[0]] = true

	var selected []reservedOrder
	selectedWeight := 0.0

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		cellOrders := m.cells[c.row][c.col]
		cellWeight := order.TotalWeight(cellOrders)

		if selectedWeight+cellWeight <= budget {
			for _, o := range cellOrders {
				selected = append(selected, reservedOrder{order: o, row: c.row, col: c.col})
			}
			selectedWeight += cellWeight
			m.cells[c.row][c.col] = nil
		} else {
			var kept []*order.Order
			for _, o := range cellOrders {
				if selectedWeight+o.Weight() <= budget {
					selected = append(selected, reservedOrder{order: o, row: c.row, col: c.col})
					selectedWeight += o.Weight()
				} else {
					kept = append(kept, o)
				}
			}
			m.cells[c.row][c.col] = kept
			break
		}

		for _, n := range []cell{
			{c.row - 1, c.col},
			{c.row + 1, c.col},
			{c.row, c.col - 1},
			{c.row, c.col + 1},
		} {
			if n.row < 0 || n.row >= m.divisions || n.col < 0 || n.col >= m.divisions {
				continue
			}
			if visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}

	if len(selected) == 0 {
		return nil
	}

	m.reservations[owner] = append(m.reservations[owner], selected...)
	m.reservedAt[owner] = m.clock.Now()

	bundle := make([]*order.Order, len(selected))
	for i, r := range selected {
		bundle[i] = r.order
	}
	return bundle
}

// RemoveOrder permanently removes a reserved order from the owner's list
// once the drone has committed to it. It never returns to a cell.
func (m *OrdersMatrix) RemoveOrder(orderID, owner string) error {
	reserved := m.reservations[owner]
	for i, r := range reserved {
		if r.order.ID() != orderID {
			continue
		}
		m.reservations[owner] = append(reserved[:i], reserved[i+1:]...)
		if len(m.reservations[owner]) == 0 {
			delete(m.reservations, owner)
			delete(m.reservedAt, owner)
		}
		return nil
	}
	return shared.NewOrderNotReservedError(orderID, owner)
}

// UndoReservations returns every order still reserved by the owner to the
// cell it came from and clears the owner's reservation state.
func (m *OrdersMatrix) UndoReservations(owner string) {
	for _, r := range m.reservations[owner] {
		m.cells[r.row][r.col] = append(m.cells[r.row][r.col], r.order)
	}
	delete(m.reservations, owner)
	delete(m.reservedAt, owner)
}

// HasReservations reports whether any owner currently holds a reservation
func (m *OrdersMatrix) HasReservations() bool {
	return len(m.reservations) > 0
}

// ReservedOrders returns the orders currently reserved by the owner
func (m *OrdersMatrix) ReservedOrders(owner string) []*order.Order {
	reserved := m.reservations[owner]
	orders := make([]*order.Order, len(reserved))
	for i, r := range reserved {
		orders[i] = r.order
	}
	return orders
}

// FreeOrders returns every order currently sitting in a cell
func (m *OrdersMatrix) FreeOrders() []*order.Order {
	var orders []*order.Order
	for _, row := range m.cells {
		for _, cellOrders := range row {
			orders = append(orders, cellOrders...)
		}
	}
	return orders
}

// sweepExpired rolls back every reservation older than the timeout
func (m *OrdersMatrix) sweepExpired() {
	now := m.clock.Now()
	var expired []string
	for owner, ts := range m.reservedAt {
		if now.Sub(ts) > m.reservationTimeout {
			expired = append(expired, owner)
		}
	}
	for _, owner := range expired {
		m.UndoReservations(owner)
	}
}
