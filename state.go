package mediator

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"
)

// StateChange is delivered to state observers each time a new state is
// committed.
type StateChange[S any] struct {
	State S
	Event Event
}

// StateObserver is notified of committed state changes.
type StateObserver[S any] func(ctx context.Context, change StateChange[S])

// StateManager owns the current state snapshot and is the only component
// allowed to replace it.
//
// S must have a well-defined structural equality: an Equal(S) bool method,
// a function passed with WithEquality, or values reflect.DeepEqual can
// compare meaningfully. The manager cannot check this for you.
//
// Commits are serialized: at most one transition is in progress at a time.
// Observers are notified in commit order, one change at a time, so they never
// see an older state after a newer one. An observer may itself dispatch
// commands; the changes that causes are delivered after it returns.
type StateManager[S any] struct {
	mu      sync.Mutex
	current atomic.Pointer[S]
	equal   func(a, b S) bool

	observers subscribers[StateObserver[S]]

	qmu      sync.Mutex
	queue    []pendingChange[S]
	draining bool
}

type pendingChange[S any] struct {
	ctx    context.Context
	change StateChange[S]
}

// NewStateManager creates a StateManager holding initial.
func NewStateManager[S any](initial S, opts ...Option[S]) *StateManager[S] {
	c := newConfig(opts)
	m := &StateManager[S]{equal: c.equal}
	if m.equal == nil {
		m.equal = defaultEqual[S]()
	}
	m.current.Store(&initial)
	return m
}

// Current returns the current snapshot. It is not a copy; states are
// expected to be immutable.
func (m *StateManager[S]) Current() S {
	return *m.current.Load()
}

// HandleNewState commits s as the current state, caused by e. If s equals
// the current state nothing happens and no observer is called. Otherwise
// every observer is notified with (s, e).
func (m *StateManager[S]) HandleNewState(ctx context.Context, s S, e Event) error {
	if isNil(s) || isNil(e) {
		return ErrNilArgument
	}
	_, err := m.transition(ctx, e, func(S) (S, error) {
		return s, nil
	})
	return err
}

// SetState commits s with UnspecifiedEvent as the cause. It is meant for
// callers that have no domain event.
func (m *StateManager[S]) SetState(ctx context.Context, s S) error {
	return m.HandleNewState(ctx, s, UnspecifiedEvent{})
}

// SetStateWithReason commits s with a ReasonEvent carrying reason.
func (m *StateManager[S]) SetStateWithReason(ctx context.Context, s S, reason string) error {
	return m.HandleNewState(ctx, s, ReasonEvent{Reason: reason})
}

// Subscribe registers an observer of committed changes.
func (m *StateManager[S]) Subscribe(o StateObserver[S]) Subscription {
	return m.observers.add(o)
}

// Unsubscribe removes an observer. It returns ErrNotSubscribed if the
// subscription is unknown.
func (m *StateManager[S]) Unsubscribe(sub Subscription) error {
	return m.observers.remove(sub)
}

// Dispose removes all observers.
func (m *StateManager[S]) Dispose() {
	m.observers.clear()
}

// transition computes the next state from the current one under the
// transition lock and commits it. fn must not call back into the manager.
// It reports whether the state changed.
func (m *StateManager[S]) transition(ctx context.Context, e Event, fn func(current S) (S, error)) (bool, error) {
	changed, err := m.commit(ctx, e, fn)
	if changed {
		m.drain()
	}
	return changed, err
}

// commit runs the read, compute, compare and swap under mu and enqueues the
// change. Enqueueing while holding mu keeps queue order equal to commit
// order.
func (m *StateManager[S]) commit(ctx context.Context, e Event, fn func(current S) (S, error)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Current()
	next, err := fn(cur)
	if err != nil {
		return false, err
	}
	same, err := m.same(cur, next)
	if err != nil || same {
		return false, err
	}
	m.current.Store(&next)
	m.enqueue(pendingChange[S]{ctx: ctx, change: StateChange[S]{State: next, Event: e}})
	return true, nil
}

// same compares two states, turning a panicking equality into an error.
func (m *StateManager[S]) same(a, b S) (same bool, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		same = m.equal(a, b)
	})
	if rec := pc.Recovered(); rec != nil {
		return false, fmt.Errorf("compare states: %w", panicError(rec.Value))
	}
	return same, nil
}

func (m *StateManager[S]) enqueue(p pendingChange[S]) {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	m.queue = append(m.queue, p)
}

// drain delivers queued changes. Only one goroutine drains at a time; any
// other caller returns immediately and leaves its change to the active
// drainer.
func (m *StateManager[S]) drain() {
	m.qmu.Lock()
	if m.draining {
		m.qmu.Unlock()
		return
	}
	m.draining = true
	m.qmu.Unlock()

	finished := false
	defer func() {
		// An observer panicked; let the next commit resume delivery.
		if !finished {
			m.qmu.Lock()
			m.draining = false
			m.qmu.Unlock()
		}
	}()

	for {
		p, ok := m.next()
		if !ok {
			finished = true
			return
		}
		for _, o := range m.observers.snapshot() {
			o(p.ctx, p.change)
		}
	}
}

// next pops the oldest pending change. When the queue is empty it ends the
// drain in the same critical section, so no change is left behind.
func (m *StateManager[S]) next() (pendingChange[S], bool) {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	if len(m.queue) == 0 {
		m.draining = false
		return pendingChange[S]{}, false
	}
	p := m.queue[0]
	m.queue[0] = pendingChange[S]{}
	m.queue = m.queue[1:]
	return p, true
}

type equaler[S any] interface {
	Equal(S) bool
}

func defaultEqual[S any]() func(a, b S) bool {
	var zero S
	if _, ok := any(zero).(equaler[S]); ok {
		return func(a, b S) bool {
			if isNil(a) || isNil(b) {
				return isNil(a) && isNil(b)
			}
			return any(a).(equaler[S]).Equal(b)
		}
	}
	return func(a, b S) bool {
		return reflect.DeepEqual(a, b)
	}
}
