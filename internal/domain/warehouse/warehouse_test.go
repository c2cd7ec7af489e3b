package warehouse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
)

func newTestWarehouse(t *testing.T, orders ...*order.Order) *warehouse.Warehouse {
	t.Helper()
	w, err := warehouse.NewWarehouse(
		"warehouse1",
		shared.Position{},
		orders,
		5,
		3,
		0.01,
		5*time.Second,
		shared.NewMockClock(time.Time{}),
	)
	require.NoError(t, err)
	return w
}

func TestNewWarehouse_Validation(t *testing.T) {
	// Act
	w := newTestWarehouse(t, newTestOrder(t, "a", 0.01, 0, 2))

	// Assert
	assert.Equal(t, "warehouse1", w.ID())
	assert.Equal(t, 1, w.InventorySize())
	assert.False(t, w.IsQuiescent())

	_, err := warehouse.NewWarehouse("", shared.Position{}, nil, 5, 3, 0.01, 5*time.Second, nil)
	assert.Error(t, err)
}

func TestWarehouse_ProposeReservesButKeepsInventory(t *testing.T) {
	// Arrange
	w := newTestWarehouse(t,
		newTestOrder(t, "a", 0.005, 0.005, 2),
		newTestOrder(t, "b", 0.02, 0.01, 2),
	)

	// Act
	bundle := w.ProposeOrders("drone1", 5)

	// Assert - reserved in the matrix, still owned by the warehouse
	assert.ElementsMatch(t, []string{"a", "b"}, orderIDs(bundle))
	assert.Equal(t, 2, w.InventorySize())
	assert.True(t, w.Matrix().HasReservations())
}

func TestWarehouse_AcceptMovesOrdersAndRollsBackTheRest(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.005, 0.005, 2)
	b := newTestOrder(t, "b", 0.02, 0.01, 2)
	w := newTestWarehouse(t, a, b)
	require.Len(t, w.ProposeOrders("drone1", 5), 2)

	// Act - the drone keeps only "a"
	err := w.AcceptOrders("drone1", []string{"a"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, order.StatusTaken, a.Status())
	assert.Equal(t, []string{"a"}, orderIDs(w.PendingPickup("drone1")))
	assert.Equal(t, 1, w.InventorySize())

	// "b" went back to its cell and is offerable again
	assert.False(t, w.Matrix().HasReservations())
	assert.Equal(t, []string{"b"}, orderIDs(w.Matrix().FreeOrders()))
	assert.Equal(t, order.StatusFree, b.Status())
}

func TestWarehouse_AcceptUnknownOrderStillRollsBack(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.005, 0.005, 2)
	w := newTestWarehouse(t, a)
	require.Len(t, w.ProposeOrders("drone1", 5), 1)

	// Act
	err := w.AcceptOrders("drone1", []string{"ghost"})

	// Assert - the error surfaces and nothing stays reserved
	require.Error(t, err)
	assert.False(t, w.Matrix().HasReservations())
	assert.Equal(t, []string{"a"}, orderIDs(w.Matrix().FreeOrders()))
}

func TestWarehouse_RejectRollsBackEverything(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.005, 0.005, 2)
	w := newTestWarehouse(t, a)
	require.Len(t, w.ProposeOrders("drone1", 5), 1)

	// Act
	w.RejectOrders("drone1")

	// Assert
	assert.False(t, w.Matrix().HasReservations())
	assert.Equal(t, order.StatusFree, a.Status())
	assert.Equal(t, 1, w.InventorySize())
}

func TestWarehouse_ConfirmPickupHandsOverOnce(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.005, 0.005, 2)
	w := newTestWarehouse(t, a)
	require.Len(t, w.ProposeOrders("drone1", 5), 1)
	require.NoError(t, w.AcceptOrders("drone1", []string{"a"}))

	// Act
	picked, err := w.ConfirmPickup("drone1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, orderIDs(picked))

	// A second pickup from the same drone is a protocol violation
	_, err = w.ConfirmPickup("drone1")
	assert.Error(t, err)
}

func TestWarehouse_QuiescentAfterFullHandoff(t *testing.T) {
	// Arrange
	a := newTestOrder(t, "a", 0.005, 0.005, 2)
	w := newTestWarehouse(t, a)

	// Act - full negotiation cycle for the only order
	require.Len(t, w.ProposeOrders("drone1", 5), 1)
	require.NoError(t, w.AcceptOrders("drone1", []string{"a"}))
	_, err := w.ConfirmPickup("drone1")
	require.NoError(t, err)

	// Assert
	assert.True(t, w.IsQuiescent())
}

func TestWarehouse_EmptyWarehouseIsQuiescent(t *testing.T) {
	// Act
	w := newTestWarehouse(t)

	// Assert - boots straight into refusing suggests
	assert.True(t, w.IsQuiescent())
	assert.Empty(t, w.ProposeOrders("drone1", 5))
}
