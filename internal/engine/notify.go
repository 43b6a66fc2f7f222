package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/ombu/internal/model"
)

// ErrSubscriptionClosed is returned by Next after Close once the backlog is drained.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Subscription receives committed events in seq order.
//
// The backlog is unbounded so a slow reader never blocks a forum call. The
// signal channel (buffer 1) coalesces notifications and lets Next wait on a
// context.
type Subscription struct {
	bus    *bus
	mu     sync.Mutex
	events []model.Event
	closed bool
	signal chan struct{}
}

func newSubscription(b *bus) *Subscription {
	return &Subscription{
		bus:    b,
		events: make([]model.Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

func (s *Subscription) enqueue(evs []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.events = append(s.events, evs...)

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// TryNext returns the next event without blocking.
func (s *Subscription) TryNext() (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) == 0 {
		return model.Event{}, false
	}
	ev := s.events[0]
	s.events[0] = model.Event{}
	if len(s.events) == 1 {
		s.events = s.events[:0]
	} else {
		s.events = s.events[1:]
	}
	return ev, true
}

// Next blocks until an event is available, ctx is done, or the subscription
// is closed and drained.
func (s *Subscription) Next(ctx context.Context) (model.Event, error) {
	for {
		if ev, ok := s.TryNext(); ok {
			return ev, nil
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return model.Event{}, ErrSubscriptionClosed
		}

		select {
		case <-ctx.Done():
			return model.Event{}, ctx.Err()
		case <-s.signal:
		}
	}
}

// Len returns the number of undelivered events.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Close detaches the subscription. Events already queued remain readable.
func (s *Subscription) Close() {
	s.bus.remove(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.signal)
}

// bus fans committed events out to subscriptions.
type bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newBus() *bus {
	return &bus{subs: make(map[*Subscription]struct{})}
}

func (b *bus) subscribe() *Subscription {
	s := newSubscription(b)
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *bus) remove(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

func (b *bus) publish(evs []model.Event) {
	if len(evs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		s.enqueue(evs)
	}
}
