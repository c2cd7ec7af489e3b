package drone

import (
	"math"

	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// PathStop is one visited stop in a drone's delivery history: an order
// destination or a warehouse it recharged at.
type PathStop struct {
	ID       string
	Position shared.Position
}

// Metrics accumulates per-drone trip statistics for the end-of-life report.
// A trip is the distance flown between two consecutive recharges (or between
// the last recharge and death).
type Metrics struct {
	droneID     string
	maxCapacity float64
	maxAutonomy float64
	velocity    float64

	totalTrips      int
	totalDistance   float64
	minTripDistance float64
	maxTripDistance float64
	ordersDelivered int
	path            []PathStop
}

// NewMetrics creates an empty metrics tracker for a drone
func NewMetrics(droneID string, maxCapacity, maxAutonomy, velocity float64) *Metrics {
	return &Metrics{
		droneID:         droneID,
		maxCapacity:     maxCapacity,
		maxAutonomy:     maxAutonomy,
		velocity:        velocity,
		minTripDistance: math.Inf(1),
	}
}

// Getters

// DroneID returns the owning drone's identifier
func (m *Metrics) DroneID() string {
	return m.droneID
}

// MaxCapacity returns the drone's cargo limit in kg
func (m *Metrics) MaxCapacity() float64 {
	return m.maxCapacity
}

// MaxAutonomy returns the drone's full-charge range in meters
func (m *Metrics) MaxAutonomy() float64 {
	return m.maxAutonomy
}

// Velocity returns the drone's speed in m/s
func (m *Metrics) Velocity() float64 {
	return m.velocity
}

// TotalTrips returns how many recharge-to-recharge legs were flown
func (m *Metrics) TotalTrips() int {
	return m.totalTrips
}

// TotalDistance returns the cumulative distance flown in meters
func (m *Metrics) TotalDistance() float64 {
	return m.totalDistance
}

// MinTripDistance returns the shortest recorded trip, or 0 if none
func (m *Metrics) MinTripDistance() float64 {
	if m.totalTrips == 0 {
		return 0
	}
	return m.minTripDistance
}

// MaxTripDistance returns the longest recorded trip, or 0 if none
func (m *Metrics) MaxTripDistance() float64 {
	return m.maxTripDistance
}

// AvgTripDistance returns the mean trip distance, or 0 if none
func (m *Metrics) AvgTripDistance() float64 {
	if m.totalTrips == 0 {
		return 0
	}
	return m.totalDistance / float64(m.totalTrips)
}

// OrdersDelivered returns how many orders reached their destination
func (m *Metrics) OrdersDelivered() int {
	return m.ordersDelivered
}

// OccupancyRate returns delivered orders per trip, or 0 if no trips
func (m *Metrics) OccupancyRate() float64 {
	if m.totalTrips == 0 {
		return 0
	}
	return float64(m.ordersDelivered) / float64(m.totalTrips)
}

// EnergyConsumption returns total distance as a fraction of one full charge
func (m *Metrics) EnergyConsumption() float64 {
	if m.maxAutonomy == 0 {
		return 0
	}
	return m.totalDistance / m.maxAutonomy
}

// Path returns the visited stops in order
func (m *Metrics) Path() []PathStop {
	stops := make([]PathStop, len(m.path))
	copy(stops, m.path)
	return stops
}

// Recording methods

// AddTrip records one completed leg ending at the given stop
func (m *Metrics) AddTrip(distance float64, stopID string, position shared.Position) {
	m.totalTrips++
	m.totalDistance += distance
	if distance < m.minTripDistance {
		m.minTripDistance = distance
	}
	if distance > m.maxTripDistance {
		m.maxTripDistance = distance
	}
	m.path = append(m.path, PathStop{ID: stopID, Position: position})
}

// AddDestination records an order destination on the path
func (m *Metrics) AddDestination(orderID string, position shared.Position) {
	m.path = append(m.path, PathStop{ID: orderID, Position: position})
}

// RecordDelivery increments the delivered-orders counter
func (m *Metrics) RecordDelivery() {
	m.ordersDelivered++
}
