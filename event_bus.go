package mediator

import (
	"context"
	"fmt"
	"reflect"

	"github.com/sourcegraph/conc/panics"
)

// EventFunc applies an event to the current state and returns the next
// state. Return the state it was given to signal "no change"; a nil state is
// always an error.
//
// An EventFunc runs under the state manager's transition lock and must not
// dispatch commands or events itself.
type EventFunc[S any] func(ctx context.Context, state S, evt Event) (S, error)

// EventBus applies events to the current state and commits the result
// through the StateManager.
type EventBus[S any] struct {
	bus     messageBus[EventFunc[S]]
	state   *StateManager[S]
	loggers loggers[S]
}

// NewEventBus creates an EventBus subscribed to store that commits to state.
func NewEventBus[S any](store Store, state *StateManager[S], opts ...Option[S]) *EventBus[S] {
	c := newConfig(opts)
	b := &EventBus[S]{
		state:   state,
		loggers: c.loggers,
	}
	b.bus.init(KindEvent, store, c.policy, b.run)
	return b
}

// MapHandler registers handler for events of type t. Several handlers may be
// mapped to one type; they run in registration order, each on the state the
// previous one committed.
func (b *EventBus[S]) MapHandler(t reflect.Type, handler EventFunc[S]) error {
	return b.bus.mapHandler(t, handler)
}

// HandleEvent stores evt and applies its handlers.
//
// Routing failures are returned. Handler failures, including a nil result,
// go to the loggers and stop processing of evt without a commit; with no
// logger they are returned as *NoRegisteredErrorHandlerError.
func (b *EventBus[S]) HandleEvent(ctx context.Context, evt Event) error {
	if isNil(evt) {
		return ErrNilArgument
	}
	return b.bus.handleMessage(ctx, evt)
}

// RegisteredTypes returns the event types with handlers, in registration
// order.
func (b *EventBus[S]) RegisteredTypes() []reflect.Type {
	return b.bus.registry.types()
}

// Dispose removes all handlers and detaches the bus from the store. It is
// safe to call more than once.
func (b *EventBus[S]) Dispose() {
	b.bus.dispose()
}

func (b *EventBus[S]) run(ctx context.Context, env Envelope, handlers []EventFunc[S]) error {
	evt, ok := env.Payload.(Event)
	if !ok {
		return &NoHandlersRegisteredError{Type: reflect.TypeOf(env.Payload)}
	}
	for _, h := range handlers {
		failed, err := b.apply(ctx, evt, h)
		if err != nil || failed {
			return err
		}
	}
	return nil
}

// apply runs one handler inside a state transition. failed is true when the
// handler errored, in which case the rest of the handlers are skipped.
func (b *EventBus[S]) apply(ctx context.Context, evt Event, h EventFunc[S]) (failed bool, err error) {
	var handlerErr error
	_, err = b.state.transition(ctx, evt, func(cur S) (S, error) {
		next, err := invokeEvent(ctx, h, cur, evt)
		if err == nil && isNil(next) {
			err = ErrEventHandlerReturnedNil
		}
		if err == nil {
			err = b.reportResult(ctx, evt, next)
		}
		if err != nil {
			handlerErr = err
			return cur, err
		}
		return next, nil
	})
	if handlerErr == nil {
		return false, err
	}
	if len(b.loggers) == 0 {
		return true, &NoRegisteredErrorHandlerError{Message: evt, Err: handlerErr}
	}
	b.loggers.eventError(ctx, handlerErr, evt)
	return true, nil
}

// reportResult runs the result loggers, turning a panicking logger into a
// failure of the event.
func (b *EventBus[S]) reportResult(ctx context.Context, evt Event, next S) error {
	var pc panics.Catcher
	pc.Try(func() {
		b.loggers.eventResult(ctx, evt, next)
	})
	if rec := pc.Recovered(); rec != nil {
		return fmt.Errorf("report %s: %w", evt.EventName(), panicError(rec.Value))
	}
	return nil
}

func invokeEvent[S any](ctx context.Context, h EventFunc[S], state S, evt Event) (next S, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		next, err = h(ctx, state, evt)
	})
	if rec := pc.Recovered(); rec != nil {
		var zero S
		return zero, panicError(rec.Value)
	}
	return next, err
}

// OnEvent registers fn for events of type E.
//
// Example:
//
//	mediator.OnEvent(m.Events(), func(ctx context.Context, s Counter, evt Incremented) (Counter, error) {
//	    return Counter{Value: s.Value + evt.By}, nil
//	})
func OnEvent[S any, E Event](b *EventBus[S], fn func(ctx context.Context, state S, evt E) (S, error)) error {
	if fn == nil {
		return ErrNilArgument
	}
	return b.MapHandler(reflect.TypeFor[E](), func(ctx context.Context, s S, e Event) (S, error) {
		return fn(ctx, s, e.(E))
	})
}
