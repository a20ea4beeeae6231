package models

import "fmt"

// ValidationError reports a request field that failed a consistency check
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NoAvailabilityError means no vehicle on the route could satisfy the
// requested seats at selection time
type NoAvailabilityError struct {
	Leg     string // "departure" or "return"
	Message string
}

func (e *NoAvailabilityError) Error() string {
	return e.Message
}

// NewNoAvailabilityError creates a NoAvailabilityError for a trip leg
func NewNoAvailabilityError(leg, message string) *NoAvailabilityError {
	return &NoAvailabilityError{Leg: leg, Message: message}
}

// ConcurrentExhaustionError means the selected vehicle ran out of seats
// between selection and the locked re-check inside the reservation
// transaction. The caller may retry the whole booking.
type ConcurrentExhaustionError struct {
	VehicleID string
}

func (e *ConcurrentExhaustionError) Error() string {
	return fmt.Sprintf("vehicle %s ran out of seats during reservation, retry the booking", e.VehicleID)
}

// NotFoundError reports a missing record
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// PermissionError reports an authenticated caller that lacks the capability
// for the attempted operation
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// NewPermissionError creates a PermissionError
func NewPermissionError(message string) *PermissionError {
	return &PermissionError{Message: message}
}

// GatewayError reports a failure talking to the payment gateway. Transient
// failures (network, 5xx) may be retried without side effects; definitive
// failures mean the gateway rejected the charge.
type GatewayError struct {
	Transient bool
	Message   string
}

func (e *GatewayError) Error() string {
	return e.Message
}
