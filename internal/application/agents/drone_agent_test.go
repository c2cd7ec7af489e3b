package agents_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skycourier-go/internal/application/agents"
	"github.com/andrescamacho/skycourier-go/internal/application/messaging"
	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
)

// deliveryRecorder collects observer events the drone emits while running.
type deliveryRecorder struct {
	mu        sync.Mutex
	delivered []string
	died      []string
}

func (r *deliveryRecorder) WarehouseOpened(*warehouse.Warehouse) {}

func (r *deliveryRecorder) DroneMoved(*drone.Drone) {}

func (r *deliveryRecorder) OrderDelivered(droneID string, o *order.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, o.ID())
}

func (r *deliveryRecorder) DroneDied(d *drone.Drone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.died = append(r.died, d.ID())
}

func makeDrone(t *testing.T, capacity float64, warehouses map[string]shared.Position, clock shared.Clock) *drone.Drone {
	t.Helper()
	d, err := drone.NewDrone("drone1", capacity, 100_000, 20, "warehouse1", warehouses, clock)
	require.NoError(t, err)
	return d
}

// startDroneAgent runs the agent in the background. Warehouse mailboxes
// must be registered on the directory before calling.
func startDroneAgent(t *testing.T, d *drone.Drone, directory *messaging.Directory, timing agents.Timing, observer agents.Observer, clock shared.Clock) chan error {
	t.Helper()
	agent := agents.NewDroneAgent(d, directory, timing, observer, zerolog.Nop(), clock)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	errCh := make(chan error, 1)
	go func() { errCh <- agent.Run(ctx) }()
	return errCh
}

func receiveRequest(t *testing.T, box *messaging.Mailbox) messaging.Message {
	t.Helper()
	request, err := box.Receive(context.Background(), 2*time.Second)
	require.NoError(t, err)
	return request
}

func replyTo(t *testing.T, directory *messaging.Directory, request messaging.Message, sender string, performative messaging.Performative, body any) {
	t.Helper()
	require.NoError(t, directory.Send(messaging.NewReply(request, sender, performative, body)))
}

func waitForExit(t *testing.T, errCh chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("drone did not reach a terminal state")
	}
}

func TestDroneAgent_Run_DeliversConfirmedOrders(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	warehousePos := position(t, 0, 0)
	directory := messaging.NewDirectory(8)
	warehouseBox, err := directory.Register("warehouse1")
	require.NoError(t, err)

	d := makeDrone(t, 5, map[string]shared.Position{"warehouse1": warehousePos}, clock)
	observer := &deliveryRecorder{}
	errCh := startDroneAgent(t, d, directory, testTiming(), observer, clock)

	offered := messaging.DescribeOrders([]*order.Order{
		makeOrder(t, "order1", warehousePos, position(t, 0.004, 0), 2),
	})

	// Act: play the warehouse side of one full negotiation.
	suggest := receiveRequest(t, warehouseBox)
	body, ok := suggest.Body.(messaging.SuggestRequestBody)
	require.True(t, ok)
	assert.Equal(t, messaging.BehaviourSuggest, suggest.Behaviour)
	assert.Equal(t, "drone1", body.ID)
	assert.Equal(t, 5.0, body.Capacity)
	assert.Equal(t, 100_000.0, body.Autonomy)
	replyTo(t, directory, suggest, "warehouse1", messaging.PerformativePropose, messaging.ProposeBody{Orders: offered})

	accept := receiveRequest(t, warehouseBox)
	require.Equal(t, messaging.PerformativeAcceptProposal, accept.Performative)
	assert.Equal(t, messaging.BehaviourDecide, accept.Behaviour)
	accepted, ok := accept.Body.(messaging.AcceptProposalBody)
	require.True(t, ok)
	require.Len(t, accepted.Orders, 1)
	assert.Equal(t, "order1", accepted.Orders[0].ID)

	pickup := receiveRequest(t, warehouseBox)
	require.Equal(t, messaging.BehaviourPickup, pickup.Behaviour)
	assert.Equal(t, []string{"order1"}, pickup.Body.(messaging.PickupBody).OrderIDs)
	replyTo(t, directory, pickup, "warehouse1", messaging.PerformativeConfirm, messaging.ConfirmBody{Orders: offered})

	nextRound := receiveRequest(t, warehouseBox)
	require.Equal(t, messaging.BehaviourSuggest, nextRound.Behaviour)
	replyTo(t, directory, nextRound, "warehouse1", messaging.PerformativeRefuse, nil)

	// Assert
	waitForExit(t, errCh)
	assert.Equal(t, drone.StateDead, d.State().State())
	assert.True(t, d.State().DiedSuccessfully())
	assert.Equal(t, 1, d.Metrics().OrdersDelivered())
	assert.Equal(t, []string{"order1"}, observer.delivered)
	assert.Equal(t, []string{"drone1"}, observer.died)
}

func TestDroneAgent_Run_DiesAfterRetriesExhausted(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	warehousePos := position(t, 0, 0)
	directory := messaging.NewDirectory(8)
	warehouseBox, err := directory.Register("warehouse1")
	require.NoError(t, err)

	timing := testTiming()
	timing.ResponseTimeout = 50 * time.Millisecond
	timing.SuggestRetries = 2

	d := makeDrone(t, 5, map[string]shared.Position{"warehouse1": warehousePos}, clock)
	errCh := startDroneAgent(t, d, directory, timing, nil, clock)

	// Act: swallow the requests, never answer.
	first := receiveRequest(t, warehouseBox)
	second := receiveRequest(t, warehouseBox)

	// Assert
	waitForExit(t, errCh)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, drone.StateDead, d.State().State())
	assert.False(t, d.State().DiedSuccessfully())
	assert.Equal(t, 0, d.Metrics().OrdersDelivered())
}

func TestDroneAgent_Run_TerminatesWhenEveryWarehouseRefuses(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	warehousePos := position(t, 0, 0)
	directory := messaging.NewDirectory(8)
	warehouseBox, err := directory.Register("warehouse1")
	require.NoError(t, err)

	d := makeDrone(t, 5, map[string]shared.Position{"warehouse1": warehousePos}, clock)
	observer := &deliveryRecorder{}
	errCh := startDroneAgent(t, d, directory, testTiming(), observer, clock)

	// Act
	suggest := receiveRequest(t, warehouseBox)
	replyTo(t, directory, suggest, "warehouse1", messaging.PerformativeRefuse, nil)

	// Assert
	waitForExit(t, errCh)
	assert.True(t, d.State().DiedSuccessfully())
	assert.Equal(t, 0, d.Metrics().OrdersDelivered())
	assert.False(t, d.HasWarehouses())
	assert.Equal(t, []string{"drone1"}, observer.died)
}

func TestDroneAgent_Run_AcceptsRicherProposalRejectsOther(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	w1Pos := position(t, 0, 0)
	w2Pos := position(t, 0.001, 0)
	directory := messaging.NewDirectory(8)
	w1Box, err := directory.Register("warehouse1")
	require.NoError(t, err)
	w2Box, err := directory.Register("warehouse2")
	require.NoError(t, err)

	warehouses := map[string]shared.Position{"warehouse1": w1Pos, "warehouse2": w2Pos}
	d := makeDrone(t, 5, warehouses, clock)
	errCh := startDroneAgent(t, d, directory, testTiming(), nil, clock)

	offered := messaging.DescribeOrders([]*order.Order{
		makeOrder(t, "order1", w2Pos, position(t, 0.004, 0), 2),
	})

	// Act: warehouse1 has nothing, warehouse2 offers one order.
	suggest1 := receiveRequest(t, w1Box)
	replyTo(t, directory, suggest1, "warehouse1", messaging.PerformativePropose, messaging.ProposeBody{})
	suggest2 := receiveRequest(t, w2Box)
	replyTo(t, directory, suggest2, "warehouse2", messaging.PerformativePropose, messaging.ProposeBody{Orders: offered})

	accept := receiveRequest(t, w2Box)
	reject := receiveRequest(t, w1Box)

	pickup := receiveRequest(t, w2Box)
	replyTo(t, directory, pickup, "warehouse2", messaging.PerformativeConfirm, messaging.ConfirmBody{Orders: offered})

	finalRound1 := receiveRequest(t, w1Box)
	replyTo(t, directory, finalRound1, "warehouse1", messaging.PerformativeRefuse, nil)
	finalRound2 := receiveRequest(t, w2Box)
	replyTo(t, directory, finalRound2, "warehouse2", messaging.PerformativeRefuse, nil)

	// Assert
	waitForExit(t, errCh)
	assert.Equal(t, messaging.PerformativeAcceptProposal, accept.Performative)
	assert.Equal(t, messaging.PerformativeRejectProposal, reject.Performative)
	assert.Equal(t, messaging.BehaviourPickup, pickup.Behaviour)
	assert.True(t, d.State().DiedSuccessfully())
	assert.Equal(t, 1, d.Metrics().OrdersDelivered())
}
