package drone

import (
	"fmt"
	"time"

	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// State represents the drone's position in its delivery cycle
type State string

const (
	// StateAvailable indicates the drone is asking warehouses for work
	StateAvailable State = "AVAILABLE"

	// StateSuggest indicates the drone is evaluating warehouse proposals
	StateSuggest State = "SUGGEST"

	// StatePickup indicates the drone is flying to a warehouse to collect orders
	StatePickup State = "PICKUP"

	// StateDeliver indicates the drone is flying to the next order destination
	StateDeliver State = "DELIVER"

	// StateDead is terminal: the drone finished, successfully or not
	StateDead State = "DEAD"
)

// StateMachine manages the drone's state transitions through the
// AVAILABLE → SUGGEST → PICKUP → DELIVER → AVAILABLE delivery cycle,
// with DEAD as the single terminal state reachable from anywhere.
//
// Invariants:
// - State transitions must follow valid paths
// - Timestamps are automatically managed
// - Clock is injected for testability
type StateMachine struct {
	state            State
	createdAt        time.Time
	updatedAt        time.Time
	diedAt           *time.Time
	diedSuccessfully bool
	clock            shared.Clock
}

// NewStateMachine creates a new state machine in AVAILABLE state
func NewStateMachine(clock shared.Clock) *StateMachine {
	if clock == nil {
		clock = shared.NewRealClock()
	}

	now := clock.Now()
	return &StateMachine{
		state:     StateAvailable,
		createdAt: now,
		updatedAt: now,
		clock:     clock,
	}
}

// Getters

// State returns the current state
func (sm *StateMachine) State() State {
	return sm.state
}

// CreatedAt returns when the machine was created
func (sm *StateMachine) CreatedAt() time.Time {
	return sm.createdAt
}

// UpdatedAt returns when the machine last transitioned
func (sm *StateMachine) UpdatedAt() time.Time {
	return sm.updatedAt
}

// DiedAt returns when the drone reached DEAD (nil while alive)
func (sm *StateMachine) DiedAt() *time.Time {
	return sm.diedAt
}

// DiedSuccessfully reports whether the drone completed its mission before
// dying. Only meaningful once IsDead returns true.
func (sm *StateMachine) DiedSuccessfully() bool {
	return sm.diedSuccessfully
}

// State transition methods

// ToSuggest transitions from AVAILABLE to SUGGEST
func (sm *StateMachine) ToSuggest() error {
	if sm.state != StateAvailable {
		return fmt.Errorf("cannot move to SUGGEST from %s state", sm.state)
	}
	sm.transition(StateSuggest)
	return nil
}

// ToPickup transitions from SUGGEST to PICKUP
func (sm *StateMachine) ToPickup() error {
	if sm.state != StateSuggest {
		return fmt.Errorf("cannot move to PICKUP from %s state", sm.state)
	}
	sm.transition(StatePickup)
	return nil
}

// ToDeliver transitions from SUGGEST or PICKUP to DELIVER
func (sm *StateMachine) ToDeliver() error {
	if sm.state != StateSuggest && sm.state != StatePickup {
		return fmt.Errorf("cannot move to DELIVER from %s state", sm.state)
	}
	sm.transition(StateDeliver)
	return nil
}

// ToAvailable transitions from PICKUP or DELIVER back to AVAILABLE
func (sm *StateMachine) ToAvailable() error {
	if sm.state != StatePickup && sm.state != StateDeliver {
		return fmt.Errorf("cannot move to AVAILABLE from %s state", sm.state)
	}
	sm.transition(StateAvailable)
	return nil
}

// ToDead transitions to the terminal DEAD state from any live state,
// recording whether the mission completed successfully
func (sm *StateMachine) ToDead(successfully bool) error {
	if sm.state == StateDead {
		return fmt.Errorf("cannot die twice")
	}
	now := sm.clock.Now()
	sm.state = StateDead
	sm.diedSuccessfully = successfully
	sm.diedAt = &now
	sm.updatedAt = now
	return nil
}

// State query methods

// IsDead returns true once the drone reached its terminal state
func (sm *StateMachine) IsDead() bool {
	return sm.state == StateDead
}

// Lifetime calculates how long the drone has been/was alive
func (sm *StateMachine) Lifetime() time.Duration {
	endTime := sm.clock.Now()
	if sm.diedAt != nil {
		endTime = *sm.diedAt
	}
	return endTime.Sub(sm.createdAt)
}

func (sm *StateMachine) transition(next State) {
	sm.state = next
	sm.updatedAt = sm.clock.Now()
}
