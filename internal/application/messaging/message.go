package messaging

import (
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
	"github.com/andrescamacho/skycourier-go/pkg/utils"
)

// Performative classifies a message's communicative act, FIPA-style
type Performative string

const (
	PerformativeRequest        Performative = "request"
	PerformativePropose        Performative = "propose"
	PerformativeRefuse         Performative = "refuse"
	PerformativeAcceptProposal Performative = "accept-proposal"
	PerformativeRejectProposal Performative = "reject-proposal"
	PerformativeConfirm        Performative = "confirm"
)

// Behaviour is the request-side routing hint selecting which warehouse
// handler a message dispatches to
type Behaviour string

const (
	BehaviourSuggest Behaviour = "suggest"
	BehaviourDecide  Behaviour = "decide"
	BehaviourPickup  Behaviour = "pickup"
)

// Message is the envelope exchanged between agents. Requests are stamped
// with a fresh id; replies echo it in InReplyTo for logs and tests. Bodies
// are concrete per-performative types; agents drop messages whose body does
// not match the expected type.
type Message struct {
	ID           string
	Sender       string
	Recipient    string
	Performative Performative
	Behaviour    Behaviour
	Body         any
	InReplyTo    string
}

// NewRequest creates a drone-to-warehouse request carrying a behaviour hint
func NewRequest(sender, recipient string, performative Performative, behaviour Behaviour, body any) Message {
	return Message{
		ID:           utils.GenerateMessageID(string(performative)),
		Sender:       sender,
		Recipient:    recipient,
		Performative: performative,
		Behaviour:    behaviour,
		Body:         body,
	}
}

// NewReply creates a response to a request, echoing its correlation id
func NewReply(request Message, sender string, performative Performative, body any) Message {
	return Message{
		ID:           utils.GenerateMessageID(string(performative)),
		Sender:       sender,
		Recipient:    request.Sender,
		Performative: performative,
		Body:         body,
		InReplyTo:    request.ID,
	}
}

// SuggestRequestBody introduces a drone asking for work. Capacity is the
// drone's free capacity; autonomy is its full-charge range (it recharges at
// the warehouse before delivering).
type SuggestRequestBody struct {
	ID       string  `json:"id"`
	Capacity float64 `json:"capacity"`
	Autonomy float64 `json:"autonomy"`
	Velocity float64 `json:"velocity"`
}

// OrderDescriptor is the by-value representation of an order crossing an
// agent boundary. Each side owns its own Order built from the descriptor.
type OrderDescriptor struct {
	ID        string  `json:"id"`
	OriginLat float64 `json:"origin_lat"`
	OriginLon float64 `json:"origin_long"`
	DestLat   float64 `json:"dest_lat"`
	DestLon   float64 `json:"dest_long"`
	Weight    float64 `json:"weight"`
}

// DescribeOrder converts an order to its wire descriptor
func DescribeOrder(o *order.Order) OrderDescriptor {
	return OrderDescriptor{
		ID:        o.ID(),
		OriginLat: o.Origin().Latitude,
		OriginLon: o.Origin().Longitude,
		DestLat:   o.Destination().Latitude,
		DestLon:   o.Destination().Longitude,
		Weight:    o.Weight(),
	}
}

// DescribeOrders converts a bundle of orders to wire descriptors
func DescribeOrders(orders []*order.Order) []OrderDescriptor {
	descriptors := make([]OrderDescriptor, len(orders))
	for i, o := range orders {
		descriptors[i] = DescribeOrder(o)
	}
	return descriptors
}

// ToOrder rebuilds a fresh Order (status FREE) from the descriptor
func (d OrderDescriptor) ToOrder() (*order.Order, error) {
	origin := shared.Position{Latitude: d.OriginLat, Longitude: d.OriginLon}
	destination := shared.Position{Latitude: d.DestLat, Longitude: d.DestLon}
	return order.NewOrder(d.ID, origin, destination, d.Weight)
}

// ProposeBody carries the warehouse's offered bundle
type ProposeBody struct {
	Orders []OrderDescriptor `json:"orders"`
}

// AcceptProposalBody carries the subset of offered orders the drone keeps
type AcceptProposalBody struct {
	Orders []OrderDescriptor `json:"orders"`
}

// PickupBody carries the ids a drone collects at the warehouse
type PickupBody struct {
	OrderIDs []string `json:"order_ids"`
}

// ConfirmBody echoes the orders handed over at pickup. The drone already
// holds its own copies, so this is informational.
type ConfirmBody struct {
	Orders []OrderDescriptor `json:"orders"`
}
