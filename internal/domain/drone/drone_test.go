package drone_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

func newTestDrone(t *testing.T, warehouses map[string]shared.Position) *drone.Drone {
	t.Helper()
	if warehouses == nil {
		warehouses = map[string]shared.Position{"warehouse1": {}}
	}
	d, err := drone.NewDrone("drone1", 5, 10000, 20, "warehouse1", warehouses, shared.NewMockClock(time.Time{}))
	require.NoError(t, err)
	return d
}

func TestNewDrone_Validation(t *testing.T) {
	// Arrange
	warehouses := map[string]shared.Position{"warehouse1": {Latitude: 0.01}}

	// Act
	d, err := drone.NewDrone("drone1", 5, 10000, 20, "warehouse1", warehouses, shared.NewMockClock(time.Time{}))

	// Assert - drone parks at its initial warehouse, empty and fully charged
	require.NoError(t, err)
	assert.Equal(t, warehouses["warehouse1"], d.Position())
	assert.True(t, d.Capacity().IsEmpty())
	assert.Equal(t, 10000.0, d.Autonomy().Current)
	assert.Equal(t, drone.StateAvailable, d.State().State())

	// Invalid inputs
	_, err = drone.NewDrone("", 5, 10000, 20, "warehouse1", warehouses, nil)
	assert.Error(t, err)
	_, err = drone.NewDrone("drone1", 5, 10000, 20, "unknown", warehouses, nil)
	assert.Error(t, err)
	_, err = drone.NewDrone("drone1", 5, 10000, 0, "warehouse1", warehouses, nil)
	assert.Error(t, err)
}

func TestDrone_MoveTowardReachesTargetExactly(t *testing.T) {
	// Arrange
	d := newTestDrone(t, nil)
	target := shared.Position{Latitude: 0.01}

	// Act - step distance exceeds the remaining gap
	covered := d.MoveToward(target, 2000)

	// Assert - terminal tick lands exactly on the target
	assert.True(t, d.ArrivedAt(target))
	assert.InDelta(t, 1112, covered, 1.0)
	assert.InDelta(t, 10000-covered, d.Autonomy().Current, 1e-9)
}

func TestDrone_MoveTowardPartialStep(t *testing.T) {
	// Arrange
	d := newTestDrone(t, nil)
	target := shared.Position{Latitude: 0.01}

	// Act
	covered := d.MoveToward(target, 500)

	// Assert
	assert.False(t, d.ArrivedAt(target))
	assert.Equal(t, 500.0, covered)
	assert.InDelta(t, 9500.0, d.Autonomy().Current, 1e-9)
}

func TestDrone_AutonomyGoesNegativeBeforeDeath(t *testing.T) {
	// Arrange - target beyond the 10km charge
	d := newTestDrone(t, nil)
	target := shared.Position{Latitude: 0.1}

	// Act - a single oversized step overdraws the battery
	d.MoveToward(target, 20000)

	// Assert - the tick completes; exhaustion is noticed afterwards
	assert.True(t, d.ArrivedAt(target))
	assert.True(t, d.IsOutOfAutonomy())
	assert.Less(t, d.Autonomy().Current, 0.0)
}

func TestDrone_RechargeClosesTrip(t *testing.T) {
	// Arrange
	d := newTestDrone(t, nil)
	d.MoveToward(shared.Position{Latitude: 0.01}, 2000)

	// Act
	d.Recharge("warehouse1")

	// Assert
	assert.Equal(t, 10000.0, d.Autonomy().Current)
	assert.Equal(t, 1, d.Metrics().TotalTrips())
	assert.InDelta(t, 1112, d.Metrics().TotalDistance(), 1.0)

	// A second recharge without movement records nothing
	d.Recharge("warehouse1")
	assert.Equal(t, 1, d.Metrics().TotalTrips())
}

func TestDrone_FinalizeTripAtDeath(t *testing.T) {
	// Arrange
	d := newTestDrone(t, nil)
	d.MoveToward(shared.Position{Latitude: 0.01}, 2000)

	// Act
	d.FinalizeTrip()

	// Assert - the open leg is flushed, labeled by the drone itself
	require.Equal(t, 1, d.Metrics().TotalTrips())
	path := d.Metrics().Path()
	require.Len(t, path, 1)
	assert.Equal(t, "drone1", path[0].ID)
}

func TestDrone_AddAndDropOrder(t *testing.T) {
	// Arrange
	d := newTestDrone(t, nil)
	o, err := order.NewOrder("order1", shared.Position{}, shared.Position{Latitude: 0.01}, 2)
	require.NoError(t, err)

	// Act - Add
	require.NoError(t, d.AddOrder(o))

	// Assert
	assert.Equal(t, order.StatusTaken, o.Status())
	assert.Equal(t, 2.0, d.Capacity().Current)
	assert.True(t, d.HasInventory())
	assert.Equal(t, "order1", d.NextOrder().ID())

	// Act - Drop
	dropped, err := d.DropOrder()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "order1", dropped.ID())
	assert.True(t, dropped.IsDelivered())
	assert.True(t, d.Capacity().IsEmpty())
	assert.False(t, d.HasInventory())
	assert.Equal(t, 1, d.Metrics().OrdersDelivered())

	// Nothing left to drop
	_, err = d.DropOrder()
	assert.Error(t, err)
}

func TestDrone_AddOrderOverCapacityLeavesOrderFree(t *testing.T) {
	// Arrange
	d := newTestDrone(t, nil)
	heavy, err := order.NewOrder("heavy", shared.Position{}, shared.Position{Latitude: 0.01}, 6)
	require.NoError(t, err)

	// Act
	err = d.AddOrder(heavy)

	// Assert
	assert.Error(t, err)
	assert.True(t, heavy.IsFree())
	assert.True(t, d.Capacity().IsEmpty())
	assert.False(t, d.HasInventory())
}

func TestDrone_RemoveWarehouse(t *testing.T) {
	// Arrange
	d := newTestDrone(t, map[string]shared.Position{
		"warehouse1": {},
		"warehouse2": {Latitude: 0.05},
	})

	// Act
	d.RemoveWarehouse("warehouse2")

	// Assert
	assert.Equal(t, []string{"warehouse1"}, d.WarehouseIDs())
	assert.True(t, d.HasWarehouses())
}

func TestDrone_RequiredWarehousePinning(t *testing.T) {
	// Arrange
	d := newTestDrone(t, map[string]shared.Position{
		"warehouse1": {},
		"warehouse2": {Latitude: 0.05},
	})

	// Act
	pinned := d.SetRequiredWarehouseToClosest()

	// Assert - drone sits on warehouse1
	assert.Equal(t, "warehouse1", pinned)
	assert.Equal(t, "warehouse1", d.RequiredWarehouse())

	d.ClearRequiredWarehouse()
	assert.Equal(t, "", d.RequiredWarehouse())
}

func TestDrone_ComputeTasksInRange(t *testing.T) {
	// Arrange - route whose tail is beyond a safe warehouse return
	d := newTestDrone(t, nil)
	for _, row := range []struct {
		id  string
		lat float64
	}{{"a", 0.01}, {"b", 0.02}, {"c", 0.05}} {
		o, err := order.NewOrder(row.id, shared.Position{}, shared.Position{Latitude: row.lat}, 1)
		require.NoError(t, err)
		require.NoError(t, d.AddOrder(o))
	}

	// Act
	d.ComputeTasksInRange()

	// Assert - after b the drone must head back to recharge
	require.NotNil(t, d.MaxDeliverableOrder())
	assert.Equal(t, "b", d.MaxDeliverableOrder().ID())
}

func TestDrone_BestBundleBeatsEmptyRoute(t *testing.T) {
	// Arrange
	d := newTestDrone(t, nil)
	o := newTestOrder(t, "order1", 0.01, 0, 2)

	// Act
	winner, bundle := d.BestBundle(map[string][]*order.Order{
		"warehouse1": {o},
	})

	// Assert - any feasible bundle beats an empty route
	assert.Equal(t, "warehouse1", winner)
	require.Len(t, bundle, 1)
	assert.Equal(t, "order1", bundle[0].ID())
}

func TestDrone_BestBundlePicksHigherUtility(t *testing.T) {
	// Arrange - same payload, warehouse2's order is three times farther out
	d := newTestDrone(t, map[string]shared.Position{
		"warehouse1": {},
		"warehouse2": {Longitude: 0.01},
	})
	near := newTestOrder(t, "near", 0.01, 0, 1)
	far := newTestOrder(t, "far", 0.03, 0.01, 1)

	// Act
	winner, _ := d.BestBundle(map[string][]*order.Order{
		"warehouse1": {near},
		"warehouse2": {far},
	})

	// Assert
	assert.Equal(t, "warehouse1", winner)
}

func TestDrone_BestBundleSkipsUnreachableWarehouse(t *testing.T) {
	// Arrange - warehouse2 sits ~111km out, far beyond the 10km charge
	d := newTestDrone(t, map[string]shared.Position{
		"warehouse1": {},
		"warehouse2": {Latitude: 1.0},
	})
	o := newTestOrder(t, "order1", 1.01, 0, 1)

	// Act
	winner, bundle := d.BestBundle(map[string][]*order.Order{
		"warehouse2": {o},
	})

	// Assert
	assert.Equal(t, "", winner)
	assert.Nil(t, bundle)
}

func TestDrone_BestBundleKeepsRouteWhenNothingBetter(t *testing.T) {
	// Arrange - drone already carries an order right next door; the only
	// offer costs most of a full charge for the same payload
	d := newTestDrone(t, map[string]shared.Position{
		"warehouse1": {},
		"warehouse2": {Latitude: 0.06},
	})
	carried := newTestOrder(t, "carried", 0.002, 0, 4)
	require.NoError(t, d.AddOrder(carried))

	offered := newTestOrder(t, "offered", 0.14, 0, 1)

	// Act
	winner, bundle := d.BestBundle(map[string][]*order.Order{
		"warehouse2": {offered},
	})

	// Assert
	assert.Equal(t, "", winner)
	assert.Nil(t, bundle)
}
