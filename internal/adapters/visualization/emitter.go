package visualization

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
)

const (
	typeDrone     = "drone"
	typeWarehouse = "warehouse"
	typeOrder     = "order"
)

// setupRecord announces a warehouse or a drone to the map when it appears.
type setupRecord struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Type      string  `json:"type"`
}

// orderRecord plots an order at its destination.
type orderRecord struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status"`
	Type      string  `json:"type"`
}

// droneRecord carries a drone's position and gauges. Capacity and autonomy
// are percentages of the drone's maximums.
type droneRecord struct {
	ID              string  `json:"id"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Distance        float64 `json:"distance"`
	Capacity        float64 `json:"capacity"`
	Autonomy        float64 `json:"autonomy"`
	OrdersDelivered int     `json:"orders_delivered"`
	Type            string  `json:"type"`
}

// Broadcaster pushes events to connected map clients.
type Broadcaster interface {
	Broadcast(event Event)
}

// droneFeed tracks what the map already knows about one drone.
type droneFeed struct {
	limiter   *rate.Limiter
	announced bool
	delivered []orderRecord
}

func (f *droneFeed) drain() []any {
	batch := make([]any, 0, len(f.delivered)+1)
	for _, rec := range f.delivered {
		batch = append(batch, rec)
	}
	f.delivered = f.delivered[:0]
	return batch
}

// Emitter translates simulation events into map feed batches. Drones report
// their position every movement tick; a per-drone limiter thins those down
// to the configured emit period. Deliveries are buffered and ride along with
// the next position batch so the map never misses one.
type Emitter struct {
	hub    Broadcaster
	period time.Duration

	mu     sync.Mutex
	drones map[string]*droneFeed
}

// NewEmitter creates an emitter that publishes through hub at most once per
// period per drone.
func NewEmitter(hub Broadcaster, period time.Duration) *Emitter {
	if period <= 0 {
		period = time.Second
	}
	return &Emitter{
		hub:    hub,
		period: period,
		drones: make(map[string]*droneFeed),
	}
}

// WarehouseOpened announces the warehouse and its full inventory.
func (e *Emitter) WarehouseOpened(w *warehouse.Warehouse) {
	orders := w.InventoryOrders()
	batch := make([]any, 0, len(orders)+1)
	for _, o := range orders {
		batch = append(batch, newOrderRecord(o))
	}
	batch = append(batch, setupRecord{
		ID:        w.ID(),
		Latitude:  w.Position().Latitude,
		Longitude: w.Position().Longitude,
		Type:      typeWarehouse,
	})
	e.hub.Broadcast(Event{Event: EventUpdateData, Data: batch})
}

// DroneMoved announces the drone on its first tick and publishes a position
// batch on later ticks, at most once per emit period.
func (e *Emitter) DroneMoved(d *drone.Drone) {
	e.mu.Lock()
	feed := e.feed(d.ID())
	if !feed.announced {
		feed.announced = true
		e.mu.Unlock()
		e.hub.Broadcast(Event{Event: EventUpdateData, Data: []any{setupRecord{
			ID:        d.ID(),
			Latitude:  d.Position().Latitude,
			Longitude: d.Position().Longitude,
			Type:      typeDrone,
		}}})
		return
	}
	if !feed.limiter.Allow() {
		e.mu.Unlock()
		return
	}
	batch := feed.drain()
	e.mu.Unlock()

	e.hub.Broadcast(Event{Event: EventUpdateData, Data: append(batch, newDroneRecord(d))})
}

// OrderDelivered buffers the delivery for the drone's next position batch.
func (e *Emitter) OrderDelivered(droneID string, o *order.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	feed := e.feed(droneID)
	feed.delivered = append(feed.delivered, newOrderRecord(o))
}

// DroneDied publishes the drone's final position and any deliveries still
// buffered, bypassing the emit period.
func (e *Emitter) DroneDied(d *drone.Drone) {
	e.mu.Lock()
	feed := e.feed(d.ID())
	batch := feed.drain()
	e.mu.Unlock()

	e.hub.Broadcast(Event{Event: EventUpdateData, Data: append(batch, newDroneRecord(d))})
}

// feed must be called with e.mu held.
func (e *Emitter) feed(droneID string) *droneFeed {
	f, ok := e.drones[droneID]
	if !ok {
		f = &droneFeed{limiter: rate.NewLimiter(rate.Every(e.period), 1)}
		e.drones[droneID] = f
	}
	return f
}

func newOrderRecord(o *order.Order) orderRecord {
	return orderRecord{
		ID:        o.ID(),
		Latitude:  o.Destination().Latitude,
		Longitude: o.Destination().Longitude,
		Status:    string(o.Status()),
		Type:      typeOrder,
	}
}

func newDroneRecord(d *drone.Drone) droneRecord {
	return droneRecord{
		ID:              d.ID(),
		Latitude:        d.Position().Latitude,
		Longitude:       d.Position().Longitude,
		Distance:        d.Metrics().TotalDistance(),
		Capacity:        roundPercent(d.Capacity().Percentage()),
		Autonomy:        roundPercent(d.Autonomy().Percentage()),
		OrdersDelivered: d.Metrics().OrdersDelivered(),
		Type:            typeDrone,
	}
}

func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
