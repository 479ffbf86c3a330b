// Package mediator is an in-process CQRS mediator: commands are dispatched to
// handlers that may produce events, events are applied to an immutable state
// snapshot by handlers that compute the next snapshot, and state changes are
// broadcast to observers.
//
// # Quick Start
//
// Define the state, a command and an event:
//
//	type Counter struct{ Value int }
//
//	type Add struct{ Amount int }
//
//	func (Add) CommandName() string { return "counter/add" }
//
//	type Added struct{ Amount int }
//
//	func (Added) EventName() string { return "counter/added" }
//
// Create a mediator and register handlers:
//
//	m := mediator.New(Counter{})
//	defer m.Close()
//
//	mediator.OnCommand(m.Commands(), func(ctx context.Context, s Counter, cmd Add) (mediator.Event, error) {
//	    return Added{Amount: cmd.Amount}, nil
//	})
//	mediator.OnEvent(m.Events(), func(ctx context.Context, s Counter, evt Added) (Counter, error) {
//	    return Counter{Value: s.Value + evt.Amount}, nil
//	})
//
//	m.Subscribe(func(ctx context.Context, c mediator.StateChange[Counter]) {
//	    fmt.Println(c.State.Value)
//	})
//
//	err := m.Dispatch(ctx, Add{Amount: 2})
//
// # Components
//
// The package separates the flow into five parts:
//
//   - Store: records each message (the storage Backend is pluggable and
//     stores nothing by default) and notifies subscribers synchronously.
//   - CommandBus: resolves the handlers for a command, runs them against
//     the current state and forwards the events they produce.
//   - EventBus: resolves the handlers for an event and computes the next
//     state from the current one.
//   - StateManager: owns the current state, ignores states equal to it and
//     notifies observers of real changes.
//   - Mediator: wires the four together with shared options.
//
// Buses never call each other's handlers directly. A command or event is
// first added to the Store, and the bus acts on it when the store notifies
// it. Each bus ignores messages of the other kind.
//
// # Routing
//
// Handlers are keyed by the concrete Go type of the message. A message whose
// exact type has no handlers falls back to a registered type it is
// assignable to, usually an interface:
//
//	type Audited interface {
//	    mediator.Command
//	    Actor() string
//	}
//
//	mediator.OnCommandVoid(m.Commands(), func(ctx context.Context, s State, cmd Audited) error {
//	    return audit.Record(ctx, cmd.Actor(), cmd.CommandName())
//	})
//
// RoutingPolicy decides which fallback wins when several registered types
// match. The default, FirstRegistered, takes the earliest registration;
// MostSpecific takes the interface with the largest method set; ExactOnly
// disables fallback. A message with no handler fails with
// *NoHandlersRegisteredError and nothing is stored.
//
// # Handler Shapes
//
// Command handlers come in five shapes: single event (OnCommand), many
// events (OnCommands), their async variants run on an Executor
// (OnCommandAsync, OnCommandsAsync) and no event (OnCommandVoid). MapHandler
// accepts the matching func types directly and rejects anything else with
// *UnsupportedHandlerShapeError.
//
// Event handlers return the next state. Returning the state they were given
// means "no change"; returning a nil state is always an error.
//
// # Errors
//
// Routing, handler shape and argument errors are returned to the caller.
// Handler failures are reported to the registered Loggers (SlogLogger,
// Hooks, metrics.Logger or your own) and do not reach the caller. With no
// Logger registered they are returned wrapped in
// *NoRegisteredErrorHandlerError.
//
// # Concurrency
//
// Dispatch, Publish and HandleNewState run their whole chain on the calling
// goroutine. The only concurrency comes from async command handlers, whose
// completions re-enter the buses from the executor's goroutines. The
// StateManager serializes transitions and delivers notifications in commit
// order, so observers never see an older state after a newer one.
//
// # Stored Messages
//
// With a recording Backend (NewMemoryBackend, badgerstore) stored messages
// can be queried with discriminators evaluated over their JSON form:
//
//	records, err := m.Store().Find(ctx, mediator.And(
//	    mediator.KindIs(mediator.KindEvent),
//	    mediator.FieldEquals("payload.account", "acct-1"),
//	))
package mediator
