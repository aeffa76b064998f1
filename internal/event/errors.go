package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrInvalidEvent is returned when an event does not carry a topic.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidTopic is returned when a topic is empty or malformed.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrHandlerPanic is matched by PanicError.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrBusClosed is returned when publishing to a closed bus.
	ErrBusClosed = errors.New("event bus is closed")
)

// HandlerError wraps an error returned by a handler.
type HandlerError struct {
	SubscriptionID string
	Topic          string
	Err            error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler error for subscription %s on topic %s: %v", e.SubscriptionID, e.Topic, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a recovered handler panic.
type PanicError struct {
	SubscriptionID string
	Topic          string
	Value          any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for subscription %s on topic %s: %v", e.SubscriptionID, e.Topic, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
