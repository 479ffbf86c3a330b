package mediator

import (
	"context"
)

// Mediator wires a Store, a StateManager, an EventBus and a CommandBus that
// share the same loggers, executor and routing policy.
//
// Usage:
//  1. Create a mediator with New
//  2. Register handlers with OnCommand / OnEvent (or MapHandler)
//  3. Subscribe to state changes
//  4. Dispatch commands
type Mediator[S any] struct {
	store    Store
	state    *StateManager[S]
	events   *EventBus[S]
	commands *CommandBus[S]
}

// New creates a Mediator holding initial as its state.
//
// Example:
//
//	m := mediator.New(Counter{},
//	    mediator.WithLogger[Counter](mediator.NewSlogLogger[Counter](nil)),
//	    mediator.WithExecutor[Counter](mediator.NewPoolExecutor(4, nil)),
//	)
//	defer m.Close()
func New[S any](initial S, opts ...Option[S]) *Mediator[S] {
	c := newConfig(opts)
	store := c.store
	if store == nil {
		store = NewStore()
	}
	state := NewStateManager(initial, opts...)
	events := NewEventBus(store, state, opts...)
	commands := NewCommandBus(store, state, events, opts...)
	return &Mediator[S]{
		store:    store,
		state:    state,
		events:   events,
		commands: commands,
	}
}

// Dispatch hands cmd to the command bus.
func (m *Mediator[S]) Dispatch(ctx context.Context, cmd Command) error {
	return m.commands.HandleCommand(ctx, cmd)
}

// Publish hands evt straight to the event bus, bypassing command handlers.
func (m *Mediator[S]) Publish(ctx context.Context, evt Event) error {
	return m.events.HandleEvent(ctx, evt)
}

// State returns the current state.
func (m *Mediator[S]) State() S {
	return m.state.Current()
}

// Subscribe registers an observer of state changes.
func (m *Mediator[S]) Subscribe(o StateObserver[S]) Subscription {
	return m.state.Subscribe(o)
}

// Unsubscribe removes a state observer.
func (m *Mediator[S]) Unsubscribe(sub Subscription) error {
	return m.state.Unsubscribe(sub)
}

// Commands returns the command bus, for registering handlers.
func (m *Mediator[S]) Commands() *CommandBus[S] { return m.commands }

// Events returns the event bus, for registering handlers.
func (m *Mediator[S]) Events() *EventBus[S] { return m.events }

// StateManager returns the state manager.
func (m *Mediator[S]) StateManager() *StateManager[S] { return m.state }

// Store returns the message store.
func (m *Mediator[S]) Store() Store { return m.store }

// Close disposes both buses and the state manager and closes the store.
// Async work completing after Close fails to route its events; the failure
// goes to the async error handler.
func (m *Mediator[S]) Close() error {
	m.commands.Dispose()
	m.events.Dispose()
	m.state.Dispose()
	return m.store.Close()
}
