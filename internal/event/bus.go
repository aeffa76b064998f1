package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/composer/internal/event/topic"
	"github.com/dshills/composer/internal/logging"
)

// Subscription is a registered handler.
type Subscription struct {
	id       string
	pattern  topic.Topic
	handler  Handler
	priority Priority
	once     bool
	seq      uint64
	bus      *Bus
	active   atomic.Bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed pattern.
func (s *Subscription) Topic() topic.Topic { return s.pattern }

// IsActive returns true until the subscription is cancelled.
func (s *Subscription) IsActive() bool { return s.active.Load() }

// Cancel removes the subscription from its bus.
func (s *Subscription) Cancel() {
	if s.active.Swap(false) {
		s.bus.remove(s)
	}
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*Subscription)

// WithPriority sets the handler priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *Subscription) {
		s.priority = p
	}
}

// Once cancels the subscription after its first delivery.
func Once() SubscriptionOption {
	return func(s *Subscription) {
		s.once = true
	}
}

// Stats contains bus counters.
type Stats struct {
	EventsPublished   uint64
	HandlersExecuted  uint64
	HandlerErrors     uint64
	HandlerPanics     uint64
	ActiveSubscribers int
}

// Bus is a synchronous event bus. It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	seq    uint64
	closed bool
	log    *logging.Logger

	eventsPublished  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler failures.
func WithLogger(l *logging.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBus creates a bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{log: logging.Null()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for topics matching pattern.
func (b *Bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	sub := &Subscription{
		id:       uuid.NewString(),
		pattern:  pattern,
		handler:  handler,
		priority: PriorityNormal,
		bus:      b,
	}
	for _, opt := range opts {
		opt(sub)
	}
	sub.active.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub.seq = b.seq
	b.subs = append(b.subs, sub)
	sort.SliceStable(b.subs, func(i, j int) bool {
		if b.subs[i].priority != b.subs[j].priority {
			return b.subs[i].priority < b.subs[j].priority
		}
		return b.subs[i].seq < b.subs[j].seq
	})
	return sub, nil
}

// SubscribeFunc registers a function handler.
func (b *Bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Subscribe registers a typed handler on b.
func Subscribe[T any](b *Bus, pattern topic.Topic, fn TypedHandlerFunc[T], opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, AsHandler(fn), opts...)
}

// Publish delivers event to every matching subscription before returning.
// Handler errors and panics do not stop delivery; they are joined into the
// returned error.
func (b *Bus) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok {
		return ErrInvalidEvent
	}
	t := tp.EventTopic()
	if !t.IsValid() || t.IsWildcard() {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, t)
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	var targets []*Subscription
	for _, sub := range b.subs {
		if t.Matches(sub.pattern) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	b.eventsPublished.Add(1)

	var errs []error
	for _, sub := range targets {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if !sub.IsActive() {
			continue
		}
		if sub.once {
			sub.Cancel()
		}
		if err := b.deliver(ctx, sub, t, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, t topic.Topic, event any) (err error) {
	b.handlersExecuted.Add(1)
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			b.log.Error("handler %s panicked on %s: %v", sub.id, t, r)
			err = &PanicError{SubscriptionID: sub.id, Topic: string(t), Value: r}
		}
	}()

	if herr := sub.handler.Handle(ctx, event); herr != nil {
		b.handlerErrors.Add(1)
		b.log.Warn("handler %s failed on %s: %v", sub.id, t, herr)
		return &HandlerError{SubscriptionID: sub.id, Topic: string(t), Err: herr}
	}
	return nil
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Close cancels every subscription. Later publishes fail with
// ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.closed = true
	b.mu.Unlock()

	for _, s := range subs {
		s.active.Store(false)
	}
}

// Stats returns the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	active := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: active,
	}
}
