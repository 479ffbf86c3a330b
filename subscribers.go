package mediator

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Subscription identifies an observer registered with Subscribe. Pass it to
// Unsubscribe to remove the observer.
type Subscription uint64

type subscriber[T any] struct {
	id Subscription
	fn T
}

// subscribers is an order-preserving observer set. Notification loops work
// on a snapshot, so observers may subscribe or unsubscribe while being
// notified.
type subscribers[T any] struct {
	mu   sync.Mutex
	last Subscription
	list []subscriber[T]
}

func (s *subscribers[T]) add(fn T) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	s.list = append(s.list, subscriber[T]{id: s.last, fn: fn})
	return s.last
}

func (s *subscribers[T]) remove(id Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, i, ok := lo.FindIndexOf(s.list, func(sub subscriber[T]) bool {
		return sub.id == id
	})
	if !ok {
		return ErrNotSubscribed
	}
	s.list = slices.Delete(s.list, i, i+1)
	return nil
}

func (s *subscribers[T]) snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.list, func(sub subscriber[T], _ int) T {
		return sub.fn
	})
}

func (s *subscribers[T]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = nil
}

func (s *subscribers[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}
