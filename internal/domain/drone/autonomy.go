package drone

import (
	"fmt"

	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// Autonomy represents an immutable energy state expressed as meters the
// drone can still travel. Current may go negative: a tick that overruns the
// remaining energy still completes, and the state machine notices the
// exhaustion on its next iteration.
type Autonomy struct {
	Current float64
	Max     float64
}

// NewAutonomy creates a new autonomy value object with validation
func NewAutonomy(current, max float64) (*Autonomy, error) {
	if max <= 0 {
		return nil, shared.NewInvalidDroneDataError("max autonomy must be positive")
	}
	if current > max {
		return nil, shared.NewInvalidDroneDataError("current autonomy cannot exceed max")
	}

	return &Autonomy{
		Current: current,
		Max:     max,
	}, nil
}

// Percentage returns remaining autonomy as percentage of max
func (a *Autonomy) Percentage() float64 {
	return a.Current / a.Max * 100.0
}

// Consume returns new Autonomy with meters subtracted. The result is not
// clamped at zero.
func (a *Autonomy) Consume(meters float64) *Autonomy {
	return &Autonomy{
		Current: a.Current - meters,
		Max:     a.Max,
	}
}

// Recharge returns new Autonomy restored to max
func (a *Autonomy) Recharge() *Autonomy {
	return &Autonomy{
		Current: a.Max,
		Max:     a.Max,
	}
}

// IsExhausted reports whether the drone ran out of energy
func (a *Autonomy) IsExhausted() bool {
	return a.Current < 0
}

// CanTravel checks if the remaining autonomy covers the required distance
func (a *Autonomy) CanTravel(required float64) bool {
	return a.Current >= required
}

func (a *Autonomy) String() string {
	return fmt.Sprintf("Autonomy(%.2f/%.2f)", a.Current, a.Max)
}
