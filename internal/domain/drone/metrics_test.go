package drone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

func TestMetrics_NoTripsReportsZeroes(t *testing.T) {
	// Arrange
	m := drone.NewMetrics("drone1", 5, 10000, 20)

	// Assert - min distance must not leak the +Inf sentinel
	assert.Equal(t, 0, m.TotalTrips())
	assert.Equal(t, 0.0, m.MinTripDistance())
	assert.Equal(t, 0.0, m.MaxTripDistance())
	assert.Equal(t, 0.0, m.AvgTripDistance())
	assert.Equal(t, 0.0, m.OccupancyRate())
}

func TestMetrics_TripAccounting(t *testing.T) {
	// Arrange
	m := drone.NewMetrics("drone1", 5, 10000, 20)

	// Act
	m.AddTrip(1000, "warehouse1", shared.Position{})
	m.AddTrip(3000, "warehouse2", shared.Position{})

	// Assert
	assert.Equal(t, 2, m.TotalTrips())
	assert.Equal(t, 4000.0, m.TotalDistance())
	assert.Equal(t, 1000.0, m.MinTripDistance())
	assert.Equal(t, 3000.0, m.MaxTripDistance())
	assert.Equal(t, 2000.0, m.AvgTripDistance())
}

func TestMetrics_OccupancyAndEnergy(t *testing.T) {
	// Arrange
	m := drone.NewMetrics("drone1", 5, 10000, 20)
	m.AddTrip(2500, "warehouse1", shared.Position{})
	m.AddTrip(2500, "warehouse1", shared.Position{})

	// Act
	m.RecordDelivery()
	m.RecordDelivery()
	m.RecordDelivery()

	// Assert
	assert.Equal(t, 3, m.OrdersDelivered())
	assert.InDelta(t, 1.5, m.OccupancyRate(), 1e-9)
	assert.InDelta(t, 0.5, m.EnergyConsumption(), 1e-9)
}

func TestMetrics_PathKeepsVisitOrder(t *testing.T) {
	// Arrange
	m := drone.NewMetrics("drone1", 5, 10000, 20)

	// Act
	m.AddDestination("order1", shared.Position{Latitude: 0.01})
	m.AddDestination("order2", shared.Position{Latitude: 0.02})
	m.AddTrip(5000, "warehouse1", shared.Position{})

	// Assert
	path := m.Path()
	assert.Len(t, path, 3)
	assert.Equal(t, "order1", path[0].ID)
	assert.Equal(t, "order2", path[1].ID)
	assert.Equal(t, "warehouse1", path[2].ID)
	assert.Equal(t, 0.02, path[1].Position.Latitude)
}
