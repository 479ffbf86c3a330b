package mediator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MessageObserver is notified each time a message is added to a Store.
type MessageObserver func(ctx context.Context, env Envelope)

// Store records messages and notifies subscribers when one is added. Buses
// never call each other's handlers directly; every message round-trips
// through the store so all consumers observe it the same way.
type Store interface {
	// AddMessage records env and then notifies every subscribed observer,
	// in subscription order, on the calling goroutine. It returns only after
	// all observers have run.
	AddMessage(ctx context.Context, env Envelope) error

	// Subscribe registers an observer.
	Subscribe(o MessageObserver) Subscription

	// Unsubscribe removes an observer. It returns ErrNotSubscribed if the
	// subscription is unknown.
	Unsubscribe(s Subscription) error

	// Find returns the stored records matched by d, oldest first.
	Find(ctx context.Context, d Discriminator) ([]Record, error)

	// Close drops all observers and closes the backend.
	Close() error
}

// Backend is the storage strategy behind a MessageStore.
//
// Implementations may buffer writes, but Append must not return before the
// record is accepted: the store notifies observers right after Append.
type Backend interface {
	Append(ctx context.Context, r Record) error
	Scan(ctx context.Context, fn func(Record) error) error
	Close() error
}

// StoreOption configures a MessageStore.
type StoreOption func(*MessageStore)

// WithBackend sets the storage strategy. The default stores nothing.
func WithBackend(b Backend) StoreOption {
	return func(s *MessageStore) {
		s.backend = b
	}
}

// WithInspector sets the Inspector used by Find. The default is
// JSONInspector.
func WithInspector(i Inspector) StoreOption {
	return func(s *MessageStore) {
		s.inspector = i
	}
}

// MessageStore is the default Store: a pluggable Backend plus a synchronous
// fan-out to observers.
type MessageStore struct {
	backend   Backend
	inspector Inspector
	observers subscribers[MessageObserver]
	closed    atomic.Bool
}

var _ Store = (*MessageStore)(nil)

// NewStore creates a MessageStore. Without WithBackend the store keeps no
// history and only notifies.
func NewStore(opts ...StoreOption) *MessageStore {
	s := &MessageStore{
		backend:   NopBackend(),
		inspector: JSONInspector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMessage implements Store.
func (s *MessageStore) AddMessage(ctx context.Context, env Envelope) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if _, discard := s.backend.(nopBackend); !discard {
		rec, err := NewRecord(env)
		if err != nil {
			return err
		}
		if err := s.backend.Append(ctx, rec); err != nil {
			return fmt.Errorf("append %s: %w", rec.Name, err)
		}
	}
	for _, o := range s.observers.snapshot() {
		o(ctx, env)
	}
	return nil
}

// Subscribe implements Store.
func (s *MessageStore) Subscribe(o MessageObserver) Subscription {
	return s.observers.add(o)
}

// Unsubscribe implements Store.
func (s *MessageStore) Unsubscribe(sub Subscription) error {
	return s.observers.remove(sub)
}

// Find implements Store.
func (s *MessageStore) Find(ctx context.Context, d Discriminator) ([]Record, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	var out []Record
	err := s.backend.Scan(ctx, func(r Record) error {
		view, err := s.inspector.Inspect(r)
		if err != nil {
			return err
		}
		if d.Match(view) {
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close implements Store. Calling Close more than once is a no-op.
func (s *MessageStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.observers.clear()
	return s.backend.Close()
}

// NopBackend returns a Backend that stores nothing.
func NopBackend() Backend {
	return nopBackend{}
}

type nopBackend struct{}

func (nopBackend) Append(context.Context, Record) error           { return nil }
func (nopBackend) Scan(context.Context, func(Record) error) error { return nil }
func (nopBackend) Close() error                                   { return nil }

// MemoryBackend keeps records in memory. With a positive capacity only the
// most recent capacity records are kept.
type MemoryBackend struct {
	mu       sync.RWMutex
	capacity int
	records  []Record
}

// NewMemoryBackend creates a MemoryBackend. A capacity of zero or less keeps
// every record.
func NewMemoryBackend(capacity int) *MemoryBackend {
	return &MemoryBackend{capacity: capacity}
}

// Append implements Backend.
func (b *MemoryBackend) Append(_ context.Context, r Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, r)
	if b.capacity > 0 && len(b.records) > b.capacity {
		b.records = append(b.records[:0:0], b.records[len(b.records)-b.capacity:]...)
	}
	return nil
}

// Scan implements Backend. Records are visited oldest first.
func (b *MemoryBackend) Scan(ctx context.Context, fn func(Record) error) error {
	b.mu.RLock()
	records := append([]Record(nil), b.records...)
	b.mu.RUnlock()

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of records held.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Close implements Backend.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = nil
	return nil
}
