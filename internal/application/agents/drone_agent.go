package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/skycourier-go/internal/application/messaging"
	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// DroneAgent drives one drone through its negotiation and delivery
// lifecycle. Each pass of the run loop executes the handler for the current
// state; handlers do the state's work and transition the drone before
// returning. The loop exits when the drone reaches its terminal state.
type DroneAgent struct {
	drone     *drone.Drone
	directory *messaging.Directory
	mailbox   *messaging.Mailbox
	timing    Timing
	observer  Observer
	logger    zerolog.Logger
	clock     shared.Clock

	// replies collected by the available round, consumed by suggest
	responses []messaging.Message

	// orders awaiting confirm at the next warehouse
	pending []*order.Order
}

// NewDroneAgent creates a drone agent. If clock is nil, uses RealClock
// (production behavior). If observer is nil, events are discarded.
func NewDroneAgent(
	d *drone.Drone,
	directory *messaging.Directory,
	timing Timing,
	observer Observer,
	logger zerolog.Logger,
	clock shared.Clock,
) *DroneAgent {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &DroneAgent{
		drone:     d,
		directory: directory,
		timing:    timing,
		observer:  observer,
		logger:    logger,
		clock:     clock,
	}
}

// Drone exposes the underlying aggregate for inspection after the run.
func (a *DroneAgent) Drone() *drone.Drone {
	return a.drone
}

// Run registers the drone with the directory and executes its state machine
// until it dies or the context is cancelled. A terminal state returns nil,
// so one drone's death never interrupts the rest of the fleet.
func (a *DroneAgent) Run(ctx context.Context) error {
	mailbox, err := a.directory.Register(a.drone.ID())
	if err != nil {
		return fmt.Errorf("failed to register drone %s: %w", a.drone.ID(), err)
	}
	a.mailbox = mailbox
	defer a.directory.Deregister(a.drone.ID())

	a.logger.Info().
		Float64("capacity", a.drone.Capacity().Max).
		Float64("autonomy", a.drone.Autonomy().Max).
		Float64("velocity", a.drone.Velocity()).
		Msg("drone launched")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch state := a.drone.State().State(); state {
		case drone.StateAvailable:
			a.runAvailable(ctx)
		case drone.StateSuggest:
			a.runSuggest()
		case drone.StatePickup:
			a.runPickup(ctx)
		case drone.StateDeliver:
			a.runDeliver(ctx)
		case drone.StateDead:
			a.finish()
			return nil
		default:
			return fmt.Errorf("drone %s in unknown state %s", a.drone.ID(), state)
		}
	}
}

// runAvailable introduces the drone to its warehouses and collects one
// reply per warehouse. A required warehouse narrows the round to itself.
// Every targeted warehouse must answer within the retry budget or the
// drone gives up and dies.
func (a *DroneAgent) runAvailable(ctx context.Context) {
	a.responses = nil

	targets := a.drone.WarehouseIDs()
	if required := a.drone.RequiredWarehouse(); required != "" {
		targets = []string{required}
	}

	for _, warehouseID := range targets {
		request := messaging.NewRequest(
			a.drone.ID(),
			warehouseID,
			messaging.PerformativeRequest,
			messaging.BehaviourSuggest,
			messaging.SuggestRequestBody{
				ID:       a.drone.ID(),
				Capacity: a.drone.FreeCapacity(),
				Autonomy: a.drone.Autonomy().Max,
				Velocity: a.drone.Velocity(),
			},
		)

		response, ok := a.requestWithRetries(ctx, request)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			a.logger.Error().Str("warehouse", warehouseID).Msg("warehouse unreachable after retries")
			a.die(false)
			return
		}
		a.responses = append(a.responses, response)
	}

	a.setState(a.drone.State().ToSuggest)
}

// requestWithRetries delivers the request and waits for a reply, re-sending
// the same message on each timeout.
func (a *DroneAgent) requestWithRetries(ctx context.Context, request messaging.Message) (messaging.Message, bool) {
	for try := 1; try <= a.timing.SuggestRetries; try++ {
		if err := a.directory.Send(request); err != nil {
			a.logger.Warn().Err(err).Str("warehouse", request.Recipient).Msg("request not delivered")
		}

		response, err := a.mailbox.Receive(ctx, a.timing.ResponseTimeout)
		if err == nil {
			return response, true
		}
		if ctx.Err() != nil {
			return messaging.Message{}, false
		}
		a.logger.Warn().
			Str("warehouse", request.Recipient).
			Int("try", try).
			Msg("no response from warehouse, trying again")
	}
	return messaging.Message{}, false
}

// runSuggest evaluates the collected replies, picks a winning bundle, and
// informs every proposer of the outcome.
func (a *DroneAgent) runSuggest() {
	responses := a.responses
	a.responses = nil

	required := a.drone.RequiredWarehouse()
	a.drone.ClearRequiredWarehouse()

	if len(responses) == 0 {
		if a.drone.HasInventory() {
			a.logger.Warn().Msg("no warehouses answered, delivering remaining orders")
			a.setState(a.drone.State().ToDeliver)
			return
		}
		a.logger.Error().Msg("no warehouses answered")
		a.die(false)
		return
	}

	bundles := make(map[string][]*order.Order)
	for _, response := range responses {
		switch response.Performative {
		case messaging.PerformativePropose:
			a.handleProposal(response, bundles)
		case messaging.PerformativeRefuse:
			a.logger.Info().Str("warehouse", response.Sender).Msg("warehouse refused")
			a.drone.RemoveWarehouse(response.Sender)
		default:
			a.logger.Warn().
				Str("sender", response.Sender).
				Str("performative", string(response.Performative)).
				Msg("unexpected reply dropped")
		}
	}

	if len(bundles) == 0 {
		if a.drone.HasInventory() {
			a.logger.Info().Msg("no orders available, delivering remaining orders")
			a.setState(a.drone.State().ToDeliver)
			return
		}
		a.logger.Info().Msg("no orders left anywhere, mission complete")
		a.die(true)
		return
	}

	a.decide(bundles, required)
}

// handleProposal reduces one warehouse's offer to the best subset the drone
// could actually carry and deliver on a full charge.
func (a *DroneAgent) handleProposal(response messaging.Message, bundles map[string][]*order.Order) {
	body, ok := response.Body.(messaging.ProposeBody)
	if !ok {
		a.logger.Warn().Str("sender", response.Sender).Msg("malformed propose body dropped")
		return
	}
	position, ok := a.drone.WarehousePosition(response.Sender)
	if !ok {
		a.logger.Warn().Str("sender", response.Sender).Msg("propose from unknown warehouse dropped")
		return
	}

	proposed := make([]*order.Order, 0, len(body.Orders))
	for _, descriptor := range body.Orders {
		o, err := descriptor.ToOrder()
		if err != nil {
			a.logger.Warn().Err(err).Str("order", descriptor.ID).Msg("invalid order descriptor dropped")
			continue
		}
		proposed = append(proposed, o)
	}

	best := drone.BestAvailableOrders(proposed, position, a.drone.FreeCapacity(), a.drone.Autonomy().Max)
	bundles[response.Sender] = best

	a.logger.Info().
		Str("warehouse", response.Sender).
		Int("proposed", len(proposed)).
		Int("feasible", len(best)).
		Msg("proposal received")
}

// decide selects the winner among the surviving bundles. A required
// warehouse wins its round outright, even with an empty bundle: the drone
// must fly there to recharge before it can finish its route.
func (a *DroneAgent) decide(bundles map[string][]*order.Order, required string) {
	var winner string
	var chosen []*order.Order
	if required != "" {
		if bundle, ok := bundles[required]; ok {
			winner, chosen = required, bundle
		}
	} else {
		winner, chosen = a.drone.BestBundle(bundles)
	}

	if winner == "" {
		a.rejectProposals(bundles, "")
		if a.drone.HasInventory() {
			a.logger.Info().Msg("no bundle beats the current route, delivering")
			a.setState(a.drone.State().ToDeliver)
			return
		}
		a.logger.Info().Msg("no bundle worth taking, mission complete")
		a.die(true)
		return
	}

	accept := messaging.NewRequest(
		a.drone.ID(),
		winner,
		messaging.PerformativeAcceptProposal,
		messaging.BehaviourDecide,
		messaging.AcceptProposalBody{Orders: messaging.DescribeOrders(chosen)},
	)
	if err := a.directory.Send(accept); err != nil {
		a.logger.Warn().Err(err).Str("warehouse", winner).Msg("accept-proposal not delivered")
	}
	a.rejectProposals(bundles, winner)

	a.drone.SetNextWarehouse(winner)
	a.pending = chosen

	a.logger.Info().Str("warehouse", winner).Int("orders", len(chosen)).Msg("bundle accepted")
	a.setState(a.drone.State().ToPickup)
}

// rejectProposals sends reject-proposal to every proposer except the winner
// so their reservations roll back immediately instead of timing out.
func (a *DroneAgent) rejectProposals(bundles map[string][]*order.Order, winner string) {
	for warehouseID := range bundles {
		if warehouseID == winner {
			continue
		}
		reject := messaging.NewRequest(
			a.drone.ID(),
			warehouseID,
			messaging.PerformativeRejectProposal,
			messaging.BehaviourDecide,
			nil,
		)
		if err := a.directory.Send(reject); err != nil {
			a.logger.Warn().Err(err).Str("warehouse", warehouseID).Msg("reject-proposal not delivered")
		}
	}
}

// runPickup flies to the chosen warehouse, recharges, and collects the
// pending orders. An empty pending list still flies the leg: the round
// existed to recharge, so the drone rebuilds its route and carries on.
func (a *DroneAgent) runPickup(ctx context.Context) {
	warehouseID := a.drone.NextWarehouse()
	target, ok := a.drone.WarehousePosition(warehouseID)
	if !ok {
		a.logger.Error().Str("warehouse", warehouseID).Msg("next warehouse is unknown")
		a.die(false)
		return
	}

	if !a.travelTo(ctx, target) {
		return
	}
	a.drone.Recharge(warehouseID)
	a.logger.Info().Str("warehouse", warehouseID).Msg("recharged")

	pending := a.pending
	a.pending = nil

	if len(pending) == 0 {
		a.resumeRoute(target)
		return
	}

	ids := make([]string, len(pending))
	for i, o := range pending {
		ids[i] = o.ID()
	}
	request := messaging.NewRequest(
		a.drone.ID(),
		warehouseID,
		messaging.PerformativeRequest,
		messaging.BehaviourPickup,
		messaging.PickupBody{OrderIDs: ids},
	)
	if err := a.directory.Send(request); err != nil {
		a.logger.Warn().Err(err).Str("warehouse", warehouseID).Msg("pickup request not delivered")
	}

	response, err := a.mailbox.Receive(ctx, a.timing.ResponseTimeout)
	if err != nil || response.Performative != messaging.PerformativeConfirm {
		a.logger.Error().Strs("order_ids", ids).Str("warehouse", warehouseID).Msg("orders not confirmed at pickup")
		a.die(false)
		return
	}

	for _, o := range pending {
		if err := a.drone.AddOrder(o); err != nil {
			a.logger.Error().Err(err).Str("order", o.ID()).Msg("confirmed order does not fit, dropped")
		}
	}
	a.logger.Info().Int("orders", len(pending)).Str("warehouse", warehouseID).Msg("orders picked up")

	a.resumeRoute(target)
}

// resumeRoute rebuilds the delivery route starting from the order closest
// to the warehouse the drone just left, then recomputes how deep into the
// route the current charge reaches.
func (a *DroneAgent) resumeRoute(from shared.Position) {
	if !a.drone.HasInventory() {
		a.setState(a.drone.State().ToAvailable)
		return
	}
	first := drone.ClosestOrder(from, a.drone.NextOrders())
	a.drone.SetRoute(drone.Path(a.drone.NextOrders(), first))
	a.drone.ComputeTasksInRange()
	a.setState(a.drone.State().ToDeliver)
}

// runDeliver flies one leg of the route and drops the order at its
// destination. Delivering the last order reachable on the current charge
// pins the closest warehouse for a recharge before the next round.
func (a *DroneAgent) runDeliver(ctx context.Context) {
	if !a.drone.HasInventory() {
		a.setState(a.drone.State().ToAvailable)
		return
	}

	next := a.drone.NextOrder()
	if !a.travelTo(ctx, next.Destination()) {
		return
	}

	lastReachable := a.drone.MaxDeliverableOrder() != nil && next.ID() == a.drone.MaxDeliverableOrder().ID()

	delivered, err := a.drone.DropOrder()
	if err != nil {
		a.logger.Error().Err(err).Str("order", next.ID()).Msg("drop failed")
		a.die(false)
		return
	}
	a.observer.OrderDelivered(a.drone.ID(), delivered)
	a.logger.Info().Str("order", delivered.ID()).Int("remaining", len(a.drone.NextOrders())).Msg("order delivered")

	if lastReachable {
		if pinned := a.drone.SetRequiredWarehouseToClosest(); pinned != "" {
			a.logger.Info().Str("warehouse", pinned).Msg("recharge required before continuing")
		}
	}

	if !a.drone.HasWarehouses() {
		a.logger.Warn().Msg("no warehouses left, continuing to deliver")
	}
	a.setState(a.drone.State().ToAvailable)
}

// travelTo tick-steps the drone toward target, emitting positions, until it
// arrives. Returns false when the drone exhausts its autonomy (it dies) or
// the context is cancelled.
func (a *DroneAgent) travelTo(ctx context.Context, target shared.Position) bool {
	step := a.drone.TickStepDistance(a.timing.TimeMultiplier, a.timing.TickRate)
	for !a.drone.ArrivedAt(target) {
		if ctx.Err() != nil {
			return false
		}

		a.drone.MoveToward(target, step)
		a.observer.DroneMoved(a.drone)

		if a.drone.IsOutOfAutonomy() {
			a.logger.Error().Msg("drone out of battery")
			a.die(false)
			return false
		}

		a.clock.Sleep(a.timing.TickRate)
	}
	return true
}

// finish flushes the open trip and emits the terminal event carrying final
// metrics.
func (a *DroneAgent) finish() {
	a.drone.FinalizeTrip()
	if a.drone.State().DiedSuccessfully() {
		a.logger.Info().
			Int("delivered", a.drone.Metrics().OrdersDelivered()).
			Msg("drone completed its mission")
	} else {
		a.logger.Error().
			Int("delivered", a.drone.Metrics().OrdersDelivered()).
			Msg("drone died before completing its mission")
	}
	a.observer.DroneDied(a.drone)
}

func (a *DroneAgent) die(successfully bool) {
	if err := a.drone.State().ToDead(successfully); err != nil {
		a.logger.Error().Err(err).Msg("illegal state transition")
	}
}

func (a *DroneAgent) setState(transition func() error) {
	if err := transition(); err != nil {
		a.logger.Error().Err(err).Msg("illegal state transition")
	}
}
