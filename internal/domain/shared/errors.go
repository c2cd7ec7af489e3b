package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Drone-related errors

type DroneError struct {
	*DomainError
}

func NewDroneError(message string) *DroneError {
	return &DroneError{DomainError: &DomainError{Message: message}}
}

type InvalidDroneDataError struct {
	*DroneError
}

func NewInvalidDroneDataError(message string) *InvalidDroneDataError {
	return &InvalidDroneDataError{DroneError: NewDroneError(message)}
}

type InsufficientAutonomyError struct {
	*DroneError
	Required  float64
	Available float64
}

func NewInsufficientAutonomyError(required, available float64) *InsufficientAutonomyError {
	return &InsufficientAutonomyError{
		DroneError: NewDroneError(fmt.Sprintf("insufficient autonomy: need %.2fm, have %.2fm", required, available)),
		Required:   required,
		Available:  available,
	}
}

// Warehouse-related errors

type WarehouseError struct {
	*DomainError
}

func NewWarehouseError(message string) *WarehouseError {
	return &WarehouseError{DomainError: &DomainError{Message: message}}
}

type OrderNotReservedError struct {
	*WarehouseError
	OrderID string
	Owner   string
}

func NewOrderNotReservedError(orderID, owner string) *OrderNotReservedError {
	return &OrderNotReservedError{
		WarehouseError: NewWarehouseError(fmt.Sprintf("order %s is not reserved by %s", orderID, owner)),
		OrderID:        orderID,
		Owner:          owner,
	}
}

type UnknownBehaviourError struct {
	*WarehouseError
	Behaviour string
}

func NewUnknownBehaviourError(behaviour string) *UnknownBehaviourError {
	return &UnknownBehaviourError{
		WarehouseError: NewWarehouseError(fmt.Sprintf("unknown behaviour hint %q", behaviour)),
		Behaviour:      behaviour,
	}
}

// Order-related errors

type OrderError struct {
	*DomainError
}

func NewOrderError(message string) *OrderError {
	return &OrderError{DomainError: &DomainError{Message: message}}
}

type InvalidStatusTransitionError struct {
	*OrderError
	From string
	To   string
}

func NewInvalidStatusTransitionError(from, to string) *InvalidStatusTransitionError {
	return &InvalidStatusTransitionError{
		OrderError: NewOrderError(fmt.Sprintf("cannot transition order from %s to %s", from, to)),
		From:       from,
		To:         to,
	}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
