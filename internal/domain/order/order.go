package order

import (
	"fmt"

	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// Status represents the delivery state of an order
type Status string

const (
	// StatusFree indicates the order sits in a warehouse inventory, unclaimed
	StatusFree Status = "FREE"

	// StatusTaken indicates a drone has committed to delivering the order
	StatusTaken Status = "TAKEN"

	// StatusDelivered indicates the order reached its destination
	StatusDelivered Status = "DELIVERED"
)

// Order represents a weight-bounded parcel to deliver from a warehouse to a
// destination. Status only ever moves forward: FREE → TAKEN → DELIVERED.
// Orders cross agent boundaries by value (descriptors); each agent owns its
// own copy.
type Order struct {
	id          string
	origin      shared.Position
	destination shared.Position
	weight      float64
	status      Status
}

// NewOrder creates a new order in FREE status with validation
func NewOrder(id string, origin, destination shared.Position, weight float64) (*Order, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "cannot be empty")
	}
	if weight <= 0 {
		return nil, shared.NewValidationError("weight", fmt.Sprintf("must be positive, got %v", weight))
	}

	return &Order{
		id:          id,
		origin:      origin,
		destination: destination,
		weight:      weight,
		status:      StatusFree,
	}, nil
}

// Getters

// ID returns the order identifier
func (o *Order) ID() string {
	return o.id
}

// Origin returns the warehouse position the order ships from
func (o *Order) Origin() shared.Position {
	return o.origin
}

// Destination returns the delivery position
func (o *Order) Destination() shared.Position {
	return o.destination
}

// Weight returns the order weight in kilograms
func (o *Order) Weight() float64 {
	return o.weight
}

// Status returns the current delivery status
func (o *Order) Status() Status {
	return o.status
}

// State transition methods

// Take transitions from FREE to TAKEN
func (o *Order) Take() error {
	if o.status != StatusFree {
		return shared.NewInvalidStatusTransitionError(string(o.status), string(StatusTaken))
	}
	o.status = StatusTaken
	return nil
}

// Deliver transitions from TAKEN to DELIVERED
func (o *Order) Deliver() error {
	if o.status != StatusTaken {
		return shared.NewInvalidStatusTransitionError(string(o.status), string(StatusDelivered))
	}
	o.status = StatusDelivered
	return nil
}

// State query methods

// IsFree returns true while the order is still up for negotiation
func (o *Order) IsFree() bool {
	return o.status == StatusFree
}

// IsDelivered returns true once the order reached its destination
func (o *Order) IsDelivered() bool {
	return o.status == StatusDelivered
}

func (o *Order) String() string {
	return fmt.Sprintf("Order(%s, %.1fkg, %s)", o.id, o.weight, o.status)
}

// TotalWeight sums the weights of the given orders
func TotalWeight(orders []*Order) float64 {
	total := 0.0
	for _, o := range orders {
		total += o.Weight()
	}
	return total
}
