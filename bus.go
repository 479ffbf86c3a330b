package mediator

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// RoutingPolicy decides which handlers receive a message whose exact type
// has no handlers of its own.
type RoutingPolicy uint8

const (
	// FirstRegistered routes to the first registered type, in registration
	// order, that the message type is assignable to. Register broad types
	// before narrow ones when relying on it.
	FirstRegistered RoutingPolicy = iota

	// MostSpecific routes to the assignable registered interface with the
	// largest method set. Ties go to the earliest registration.
	MostSpecific

	// ExactOnly disables fallback: only handlers registered for the exact
	// message type are used.
	ExactOnly
)

// String returns the policy name accepted by ParseRoutingPolicy.
func (p RoutingPolicy) String() string {
	switch p {
	case FirstRegistered:
		return "first"
	case MostSpecific:
		return "most-specific"
	case ExactOnly:
		return "exact"
	default:
		return "unknown"
	}
}

type route[H any] struct {
	typ      reflect.Type
	handlers []H
}

// registry maps message types to handlers, keeping registration order.
type registry[H any] struct {
	mu     sync.RWMutex
	policy RoutingPolicy
	index  map[reflect.Type]int
	routes []route[H]
}

func (r *registry[H]) add(t reflect.Type, h H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == nil {
		r.index = make(map[reflect.Type]int)
	}
	if i, ok := r.index[t]; ok {
		r.routes[i].handlers = append(r.routes[i].handlers, h)
		return
	}
	r.index[t] = len(r.routes)
	r.routes = append(r.routes, route[H]{typ: t, handlers: []H{h}})
}

// resolve returns a copy of the handlers for t, or nil if none apply.
func (r *registry[H]) resolve(t reflect.Type) []H {
	if t == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.index[t]; ok {
		return append([]H(nil), r.routes[i].handlers...)
	}

	var match *route[H]
	switch r.policy {
	case FirstRegistered:
		for i := range r.routes {
			if t.AssignableTo(r.routes[i].typ) {
				match = &r.routes[i]
				break
			}
		}
	case MostSpecific:
		best := -1
		for i := range r.routes {
			rt := r.routes[i].typ
			if !t.AssignableTo(rt) {
				continue
			}
			if score := specificity(rt); score > best {
				best = score
				match = &r.routes[i]
			}
		}
	case ExactOnly:
	}
	if match == nil {
		return nil
	}
	return append([]H(nil), match.handlers...)
}

// specificity ranks a registered ancestor. An interface with more methods
// describes fewer types; a concrete type is as specific as it gets.
func specificity(t reflect.Type) int {
	if t.Kind() != reflect.Interface {
		return int(^uint(0) >> 1)
	}
	return t.NumMethod()
}

func (r *registry[H]) types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.typ
	}
	return out
}

func (r *registry[H]) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = nil
	r.routes = nil
}

// outcome carries the result of running handlers for one envelope back to
// the handleMessage call that stored it. Handlers run inside the store's
// notification, which has no return path of its own.
type outcome struct {
	id  uuid.UUID
	err error
}

type outcomeKey struct{}

func withOutcome(ctx context.Context, o *outcome) context.Context {
	return context.WithValue(ctx, outcomeKey{}, o)
}

func reportOutcome(ctx context.Context, id uuid.UUID, err error) {
	if o, ok := ctx.Value(outcomeKey{}).(*outcome); ok && o.id == id {
		o.err = err
	}
}

// messageBus is the part shared by the command and event buses: a typed
// handler registry and a subscription to the store. handleMessage only
// stores the message; handlers run when the store notifies the bus.
type messageBus[H any] struct {
	kind     Kind
	store    Store
	registry registry[H]
	sub      Subscription
	disposed atomic.Bool
	run      func(ctx context.Context, env Envelope, handlers []H) error
}

func (b *messageBus[H]) init(kind Kind, store Store, policy RoutingPolicy, run func(context.Context, Envelope, []H) error) {
	b.kind = kind
	b.store = store
	b.registry.policy = policy
	b.run = run
	b.sub = store.Subscribe(b.onMessage)
}

func (b *messageBus[H]) mapHandler(t reflect.Type, h H) error {
	if t == nil || isNil(h) {
		return ErrNilArgument
	}
	b.registry.add(t, h)
	return nil
}

func (b *messageBus[H]) handleMessage(ctx context.Context, msg any) error {
	t := reflect.TypeOf(msg)
	if len(b.registry.resolve(t)) == 0 {
		return &NoHandlersRegisteredError{Type: t}
	}
	env := newEnvelope(b.kind, msg)
	o := &outcome{id: env.ID}
	if err := b.store.AddMessage(withOutcome(ctx, o), env); err != nil {
		return err
	}
	return o.err
}

// isMessageKindAccepted reports whether this bus handles env. Command and
// event buses share one store and each ignores the other's messages.
func (b *messageBus[H]) isMessageKindAccepted(env Envelope) bool {
	return env.Kind == b.kind
}

func (b *messageBus[H]) onMessage(ctx context.Context, env Envelope) {
	if !b.isMessageKindAccepted(env) {
		return
	}
	t := reflect.TypeOf(env.Payload)
	handlers := b.registry.resolve(t)
	if len(handlers) == 0 {
		reportOutcome(ctx, env.ID, &NoHandlersRegisteredError{Type: t})
		return
	}
	reportOutcome(ctx, env.ID, b.run(ctx, env, handlers))
}

func (b *messageBus[H]) dispose() {
	if !b.disposed.CompareAndSwap(false, true) {
		return
	}
	b.registry.clear()
	// The store may already have dropped us on Close.
	_ = b.store.Unsubscribe(b.sub)
}
