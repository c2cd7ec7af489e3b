package drone

import (
	"fmt"

	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// Capacity represents an immutable cargo load state in kilograms
type Capacity struct {
	Current float64
	Max     float64
}

// NewCapacity creates a new capacity value object with validation
func NewCapacity(current, max float64) (*Capacity, error) {
	if max <= 0 {
		return nil, shared.NewInvalidDroneDataError("max capacity must be positive")
	}
	if current < 0 {
		return nil, shared.NewInvalidDroneDataError("current load cannot be negative")
	}
	if current > max {
		return nil, shared.NewInvalidDroneDataError("current load cannot exceed max capacity")
	}

	return &Capacity{
		Current: current,
		Max:     max,
	}, nil
}

// Free returns the remaining load the drone can still take
func (c *Capacity) Free() float64 {
	return c.Max - c.Current
}

// Percentage returns the load as percentage of max
func (c *Capacity) Percentage() float64 {
	return c.Current / c.Max * 100.0
}

// Load returns new Capacity with kilograms added
func (c *Capacity) Load(kilograms float64) (*Capacity, error) {
	if kilograms < 0 {
		return nil, shared.NewInvalidDroneDataError("load amount cannot be negative")
	}
	newCurrent := c.Current + kilograms
	if newCurrent > c.Max {
		return nil, shared.NewInvalidDroneDataError(
			fmt.Sprintf("load %.2fkg exceeds capacity %.2f/%.2f", kilograms, c.Current, c.Max))
	}
	return &Capacity{
		Current: newCurrent,
		Max:     c.Max,
	}, nil
}

// Unload returns new Capacity with kilograms removed
func (c *Capacity) Unload(kilograms float64) (*Capacity, error) {
	if kilograms < 0 {
		return nil, shared.NewInvalidDroneDataError("unload amount cannot be negative")
	}
	newCurrent := c.Current - kilograms
	if newCurrent < 0 {
		return nil, shared.NewInvalidDroneDataError(
			fmt.Sprintf("unload %.2fkg exceeds current load %.2f", kilograms, c.Current))
	}
	return &Capacity{
		Current: newCurrent,
		Max:     c.Max,
	}, nil
}

// IsEmpty checks if the drone carries nothing
func (c *Capacity) IsEmpty() bool {
	return c.Current == 0
}

func (c *Capacity) String() string {
	return fmt.Sprintf("Capacity(%.1f/%.1f)", c.Current, c.Max)
}
