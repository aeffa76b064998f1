package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/composer/internal/event/topic"
)

// Event is a typed event. Events are immutable once created.
type Event[T any] struct {
	Type     topic.Topic
	Payload  T
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	ID        string
	Timestamp time.Time
	// Source identifies the component that published the event.
	Source string
}

// NewEvent creates an event with a fresh id.
func NewEvent[T any](eventType topic.Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    eventType,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// EventTopic returns the event's topic for type-erased handling.
func (e Event[T]) EventTopic() topic.Topic {
	return e.Type
}

// TopicProvider is implemented by every Event.
type TopicProvider interface {
	EventTopic() topic.Topic
}

// Priority determines handler execution order. Lower values run first.
type Priority int

const (
	// PriorityCritical is for core engine handlers.
	PriorityCritical Priority = 0

	// PriorityHigh is for hosts that must see a change before panels.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for logging handlers that run last.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Handler processes a type-erased event.
type Handler interface {
	Handle(ctx context.Context, event any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// TypedHandlerFunc handles events with a known payload type.
type TypedHandlerFunc[T any] func(ctx context.Context, event Event[T]) error

// AsHandler converts a TypedHandlerFunc to a Handler. Events with another
// payload type are skipped.
func AsHandler[T any](fn TypedHandlerFunc[T]) Handler {
	return HandlerFunc(func(ctx context.Context, event any) error {
		if e, ok := event.(Event[T]); ok {
			return fn(ctx, e)
		}
		return nil
	})
}
