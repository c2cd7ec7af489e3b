package drone_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// One hundredth of a degree of latitude is roughly 1112 meters.
const hundredthDegreeMeters = 1112.0

func newTestOrder(t *testing.T, id string, lat, lon, weight float64) *order.Order {
	t.Helper()
	o, err := order.NewOrder(id, shared.Position{}, shared.Position{Latitude: lat, Longitude: lon}, weight)
	require.NoError(t, err)
	return o
}

func TestClosestOrder(t *testing.T) {
	// Arrange
	far := newTestOrder(t, "far", 0.03, 0, 1)
	near := newTestOrder(t, "near", 0.01, 0, 1)

	// Act
	closest := drone.ClosestOrder(shared.Position{}, []*order.Order{far, near})

	// Assert
	require.NotNil(t, closest)
	assert.Equal(t, "near", closest.ID())

	assert.Nil(t, drone.ClosestOrder(shared.Position{}, nil))
}

func TestClosestWarehouse_SortedTieBreak(t *testing.T) {
	// Arrange - both warehouses equidistant from the origin
	warehouses := map[string]shared.Position{
		"warehouse2": {Latitude: 0.01},
		"warehouse1": {Latitude: -0.01},
	}

	// Act
	id, dist := drone.ClosestWarehouse(shared.Position{}, warehouses)

	// Assert
	assert.Equal(t, "warehouse1", id)
	assert.InDelta(t, hundredthDegreeMeters, dist, 1.0)

	id, dist = drone.ClosestWarehouse(shared.Position{}, nil)
	assert.Equal(t, "", id)
	assert.True(t, math.IsInf(dist, 1))
}

func TestPath_NearestNeighborTour(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.01, 0, 1)
	b := newTestOrder(t, "b", 0.02, 0, 1)
	c := newTestOrder(t, "c", 0.03, 0, 1)
	orders := []*order.Order{c, a, b}

	// Act
	path := drone.Path(orders, a)

	// Assert - starts at first, visits every order exactly once
	require.Len(t, path, 3)
	assert.Equal(t, "a", path[0].ID())
	assert.Equal(t, "b", path[1].ID())
	assert.Equal(t, "c", path[2].ID())
}

func TestPath_FirstNotInSet(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.01, 0, 1)
	other := newTestOrder(t, "other", 0.05, 0, 1)

	// Act
	path := drone.Path([]*order.Order{a}, other)

	// Assert
	assert.Empty(t, path)
	assert.Empty(t, drone.Path(nil, a))
}

func TestTravelDistance(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.01, 0, 1)
	b := newTestOrder(t, "b", 0.02, 0, 1)

	// Act
	total := drone.TravelDistance(shared.Position{}, []*order.Order{a, b})

	// Assert - leading leg plus one consecutive leg
	assert.InDelta(t, 2*hundredthDegreeMeters, total, 2.0)
	assert.Equal(t, 0.0, drone.TravelDistance(shared.Position{}, nil))
}

func TestCapacityLevel(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.01, 0, 2)
	b := newTestOrder(t, "b", 0.02, 0, 6)

	// Assert - capped at 1, zero capacity guarded
	assert.InDelta(t, 0.4, drone.CapacityLevel([]*order.Order{a}, 5), 1e-9)
	assert.Equal(t, 1.0, drone.CapacityLevel([]*order.Order{a, b}, 5))
	assert.Equal(t, 0.0, drone.CapacityLevel([]*order.Order{a}, 0))
}

func TestUtility(t *testing.T) {
	// Assert - infeasible cases score -Inf
	assert.True(t, math.IsInf(drone.Utility(0, 0, 10000, 0), -1))
	assert.True(t, math.IsInf(drone.Utility(1, 10001, 10000, 0.5), -1))

	// Feasible: capacity level plus remaining-range fraction
	assert.InDelta(t, 1.3, drone.Utility(2, 1000, 10000, 0.4), 1e-9)
}

func TestBestAvailableOrders_PrefersFullerBundle(t *testing.T) {
	// Arrange - two orders on the same bearing; taking both fills more
	// capacity for barely more travel
	a := newTestOrder(t, "a", 0.01, 0, 2)
	b := newTestOrder(t, "b", 0.02, 0, 2)

	// Act
	best := drone.BestAvailableOrders([]*order.Order{a, b}, shared.Position{}, 5, 10000)

	// Assert
	require.Len(t, best, 2)
	ids := []string{best[0].ID(), best[1].ID()}
	assert.Contains(t, ids, "a")
	assert.Contains(t, ids, "b")
}

func TestBestAvailableOrders_NothingFitsCapacity(t *testing.T) {
	// Arrange - single order heavier than the whole capacity
	heavy := newTestOrder(t, "heavy", 0.01, 0, 5)

	// Act
	best := drone.BestAvailableOrders([]*order.Order{heavy}, shared.Position{}, 1, 10000)

	// Assert
	assert.Empty(t, best)
}

func TestBestAvailableOrders_NothingInRange(t *testing.T) {
	// Arrange - order ~5km out, autonomy 1km
	far := newTestOrder(t, "far", 0.045, 0, 1)

	// Act
	best := drone.BestAvailableOrders([]*order.Order{far}, shared.Position{}, 10, 1000)

	// Assert - an infeasible set must never win on the >= tie-break
	assert.Empty(t, best)
}

func TestBestAvailableOrders_LastEqualWins(t *testing.T) {
	// Arrange - two symmetric single-order sets with identical utility;
	// the >= comparison keeps the later one
	a := newTestOrder(t, "a", 0.01, 0, 1)
	b := newTestOrder(t, "b", -0.01, 0, 1)

	// Act
	best := drone.BestAvailableOrders([]*order.Order{a, b}, shared.Position{}, 1, 10000)

	// Assert
	require.Len(t, best, 1)
	assert.Equal(t, "b", best[0].ID())
}

func TestTasksInRange_MidRouteReturnPoint(t *testing.T) {
	// Arrange - three stops strung north of the only warehouse; autonomy
	// covers a return after the second but not the third
	a := newTestOrder(t, "a", 0.01, 0, 1)
	b := newTestOrder(t, "b", 0.02, 0, 1)
	c := newTestOrder(t, "c", 0.03, 0, 1)
	route := []*order.Order{a, b, c}
	warehouses := map[string]shared.Position{"warehouse1": {}}

	// Act
	deepest := drone.TasksInRange(shared.Position{}, route, 5000, warehouses)

	// Assert
	require.NotNil(t, deepest)
	assert.Equal(t, "b", deepest.ID())
}

func TestTasksInRange_FinalOrderClearsReturn(t *testing.T) {
	// Arrange - everything reachable, so no forced warehouse stop
	a := newTestOrder(t, "a", 0.01, 0, 1)
	b := newTestOrder(t, "b", 0.02, 0, 1)
	route := []*order.Order{a, b}
	warehouses := map[string]shared.Position{"warehouse1": {}}

	// Act
	deepest := drone.TasksInRange(shared.Position{}, route, 10000, warehouses)

	// Assert
	assert.Nil(t, deepest)
}

func TestTasksInRange_NothingReachable(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.01, 0, 1)
	warehouses := map[string]shared.Position{"warehouse1": {}}

	// Act
	deepest := drone.TasksInRange(shared.Position{}, []*order.Order{a}, 1000, warehouses)

	// Assert
	assert.Nil(t, deepest)
}
