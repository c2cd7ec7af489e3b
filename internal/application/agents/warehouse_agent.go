package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/skycourier-go/internal/application/messaging"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
)

// Timing holds the negotiation and movement cadence shared by all agents
type Timing struct {
	// Wall-clock interval between drone position updates
	TickRate time.Duration

	// Simulated seconds that elapse per wall-clock second
	TimeMultiplier float64

	// How long an agent waits for a reply before giving up
	ResponseTimeout time.Duration

	// Times a drone re-sends a request before declaring a warehouse unreachable
	SuggestRetries int
}

// WarehouseAgent serves drone negotiation requests for one warehouse. It
// dispatches incoming messages by their behaviour hint and replies through
// the directory. A quiescent warehouse (nothing left to hand out) refuses
// every request so idle drones can finish.
type WarehouseAgent struct {
	warehouse *warehouse.Warehouse
	directory *messaging.Directory
	mailbox   *messaging.Mailbox
	timing    Timing
	observer  Observer
	logger    zerolog.Logger
	ready     chan struct{}
}

// NewWarehouseAgent creates a warehouse agent. If observer is nil, events
// are discarded.
func NewWarehouseAgent(
	w *warehouse.Warehouse,
	directory *messaging.Directory,
	timing Timing,
	observer Observer,
	logger zerolog.Logger,
) *WarehouseAgent {
	if observer == nil {
		observer = NopObserver{}
	}
	return &WarehouseAgent{
		warehouse: w,
		directory: directory,
		timing:    timing,
		observer:  observer,
		logger:    logger,
		ready:     make(chan struct{}),
	}
}

// Warehouse returns the aggregate this agent serves.
func (a *WarehouseAgent) Warehouse() *warehouse.Warehouse {
	return a.warehouse
}

// Ready is closed once the agent is registered and accepting requests.
func (a *WarehouseAgent) Ready() <-chan struct{} {
	return a.ready
}

// Run registers the warehouse with the directory and serves requests until
// the context is cancelled. Warehouses never terminate on their own; the
// simulation controller stops them once every drone is done.
func (a *WarehouseAgent) Run(ctx context.Context) error {
	mailbox, err := a.directory.Register(a.warehouse.ID())
	if err != nil {
		close(a.ready)
		return fmt.Errorf("failed to register warehouse %s: %w", a.warehouse.ID(), err)
	}
	a.mailbox = mailbox
	defer a.directory.Deregister(a.warehouse.ID())

	a.observer.WarehouseOpened(a.warehouse)
	a.logger.Info().Int("inventory", a.warehouse.InventorySize()).Msg("warehouse open")
	close(a.ready)

	for {
		message, err := a.mailbox.Receive(ctx, a.timing.ResponseTimeout)
		if err != nil {
			if ctx.Err() != nil {
				a.logger.Info().Int("inventory", a.warehouse.InventorySize()).Msg("warehouse closing")
				return ctx.Err()
			}
			a.logger.Debug().Msg("waiting for available drones")
			continue
		}
		a.dispatch(message)
	}
}

// dispatch routes one message to its handler by behaviour hint.
func (a *WarehouseAgent) dispatch(message messaging.Message) {
	switch message.Behaviour {
	case messaging.BehaviourSuggest:
		a.handleSuggest(message)
	case messaging.BehaviourDecide:
		a.handleDecide(message)
	case messaging.BehaviourPickup:
		a.handlePickup(message)
	default:
		a.logger.Warn().
			Str("sender", message.Sender).
			Str("behaviour", string(message.Behaviour)).
			Msg("message with unknown behaviour dropped")
	}
}

// handleSuggest reserves a bundle near the warehouse for the asking drone
// and proposes it. A quiescent warehouse (nothing in inventory, no
// reservations, no pending pickups) refuses instead so idle drones can
// finish. The proposal may be empty when other drones hold every remaining
// order.
func (a *WarehouseAgent) handleSuggest(message messaging.Message) {
	body, ok := message.Body.(messaging.SuggestRequestBody)
	if !ok {
		a.logger.Warn().Str("sender", message.Sender).Msg("malformed suggest body dropped")
		return
	}

	if a.warehouse.IsQuiescent() {
		a.refuse(message)
		return
	}

	orders := a.warehouse.ProposeOrders(message.Sender, body.Capacity)
	reply := messaging.NewReply(message, a.warehouse.ID(), messaging.PerformativePropose, messaging.ProposeBody{
		Orders: messaging.DescribeOrders(orders),
	})
	a.send(reply)

	a.logger.Info().
		Str("drone", message.Sender).
		Float64("capacity", body.Capacity).
		Int("orders", len(orders)).
		Msg("orders proposed")
}

// handleDecide commits or rolls back the drone's reservation. Decide
// messages get no reply; the drone is already on its way or moving on.
func (a *WarehouseAgent) handleDecide(message messaging.Message) {
	switch message.Performative {
	case messaging.PerformativeAcceptProposal:
		body, ok := message.Body.(messaging.AcceptProposalBody)
		if !ok {
			a.logger.Warn().Str("sender", message.Sender).Msg("malformed accept-proposal body dropped")
			return
		}
		ids := make([]string, len(body.Orders))
		for i, descriptor := range body.Orders {
			ids[i] = descriptor.ID
		}
		if err := a.warehouse.AcceptOrders(message.Sender, ids); err != nil {
			a.logger.Error().Err(err).Str("drone", message.Sender).Msg("accept-proposal failed")
			return
		}
		a.logger.Info().
			Str("drone", message.Sender).
			Int("orders", len(ids)).
			Int("inventory", a.warehouse.InventorySize()).
			Msg("proposal accepted")

	case messaging.PerformativeRejectProposal:
		a.warehouse.RejectOrders(message.Sender)
		a.logger.Info().Str("drone", message.Sender).Msg("proposal rejected")

	default:
		a.logger.Warn().
			Str("sender", message.Sender).
			Str("performative", string(message.Performative)).
			Msg("unexpected decide performative dropped")
	}
}

// handlePickup hands the drone's pending orders over and confirms. Pickups
// are keyed by sender; a drone without a pending handoff gets no reply and
// will time out.
func (a *WarehouseAgent) handlePickup(message messaging.Message) {
	body, ok := message.Body.(messaging.PickupBody)
	if !ok {
		a.logger.Warn().Str("sender", message.Sender).Msg("malformed pickup body dropped")
		return
	}

	orders, err := a.warehouse.ConfirmPickup(message.Sender)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("drone", message.Sender).
			Strs("order_ids", body.OrderIDs).
			Msg("pickup without pending handoff dropped")
		return
	}

	reply := messaging.NewReply(message, a.warehouse.ID(), messaging.PerformativeConfirm, messaging.ConfirmBody{
		Orders: messaging.DescribeOrders(orders),
	})
	a.send(reply)

	a.logger.Info().
		Str("drone", message.Sender).
		Int("orders", len(orders)).
		Msg("orders picked up")
}

func (a *WarehouseAgent) refuse(message messaging.Message) {
	a.send(messaging.NewReply(message, a.warehouse.ID(), messaging.PerformativeRefuse, nil))
	a.logger.Info().Str("drone", message.Sender).Msg("nothing left to hand out, refused")
}

func (a *WarehouseAgent) send(message messaging.Message) {
	if err := a.directory.Send(message); err != nil {
		a.logger.Warn().Err(err).Str("recipient", message.Recipient).Msg("reply not delivered")
	}
}
