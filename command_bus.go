package mediator

import (
	"context"
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// validatable is implemented by commands that check themselves.
type validatable interface {
	Validate() error
}

// CommandBus runs the handlers mapped to a command and forwards the events
// they produce to the EventBus.
//
// Handlers see the current state at the moment they are invoked. Handler
// failures go to the registered loggers; with no logger they are returned
// to the caller as *NoRegisteredErrorHandlerError.
type CommandBus[S any] struct {
	bus       messageBus[commandHandler[S]]
	state     *StateManager[S]
	events    *EventBus[S]
	loggers   loggers[S]
	executor  Executor
	validator *validator.Validate
	asyncErr  func(ctx context.Context, err error, cmd Command)
}

// NewCommandBus creates a CommandBus subscribed to store. Events produced by
// handlers are forwarded to events.
func NewCommandBus[S any](store Store, state *StateManager[S], events *EventBus[S], opts ...Option[S]) *CommandBus[S] {
	c := newConfig(opts)
	b := &CommandBus[S]{
		state:     state,
		events:    events,
		loggers:   c.loggers,
		executor:  c.executor,
		validator: c.validator,
		asyncErr:  c.asyncErr,
	}
	b.bus.init(KindCommand, store, c.policy, b.run)
	return b
}

// MapHandler registers handler for commands of type t. The handler must be
// one of CommandFunc, CommandsFunc, AsyncCommandFunc, AsyncCommandsFunc or
// VoidCommandFunc for this bus's state type; anything else fails with
// *UnsupportedHandlerShapeError. Several handlers may be mapped to one type;
// they run in registration order.
//
// A plain func literal is rejected even when its signature matches; convert
// it to the named type first:
//
//	b.MapHandler(reflect.TypeFor[Increment](), mediator.CommandFunc[Counter](fn))
//
// Prefer the typed helpers OnCommand, OnCommands, OnCommandAsync,
// OnCommandsAsync and OnCommandVoid.
func (b *CommandBus[S]) MapHandler(t reflect.Type, handler any) error {
	if t == nil {
		return ErrNilArgument
	}
	h, err := asCommandHandler[S](handler)
	if err != nil {
		return err
	}
	return b.bus.mapHandler(t, h)
}

// HandleCommand validates cmd, stores it, and runs its handlers.
//
// It returns *ValidationError if the command is invalid and
// *NoHandlersRegisteredError if nothing handles its type; in both cases no
// handler runs. Async handlers are submitted to the executor and
// HandleCommand does not wait for them.
func (b *CommandBus[S]) HandleCommand(ctx context.Context, cmd Command) error {
	if isNil(cmd) {
		return ErrNilArgument
	}
	if err := b.validate(cmd); err != nil {
		return err
	}
	return b.bus.handleMessage(ctx, cmd)
}

// RegisteredTypes returns the command types with handlers, in registration
// order.
func (b *CommandBus[S]) RegisteredTypes() []reflect.Type {
	return b.bus.registry.types()
}

// Dispose removes all handlers and detaches the bus from the store. It is
// safe to call more than once.
func (b *CommandBus[S]) Dispose() {
	b.bus.dispose()
}

func (b *CommandBus[S]) validate(cmd Command) error {
	if v, ok := cmd.(validatable); ok {
		if err := v.Validate(); err != nil {
			return &ValidationError{Command: cmd, Err: err}
		}
	}
	if b.validator == nil {
		return nil
	}
	err := b.validator.Struct(cmd)
	var invalid *validator.InvalidValidationError
	if err == nil || errors.As(err, &invalid) {
		// Not a struct: nothing to check.
		return nil
	}
	return &ValidationError{Command: cmd, Err: err}
}

func (b *CommandBus[S]) run(ctx context.Context, env Envelope, handlers []commandHandler[S]) error {
	cmd, ok := env.Payload.(Command)
	if !ok {
		return &NoHandlersRegisteredError{Type: reflect.TypeOf(env.Payload)}
	}
	for _, h := range handlers {
		if err := b.execute(ctx, cmd, h); err != nil {
			return err
		}
	}
	return nil
}

func (b *CommandBus[S]) execute(ctx context.Context, cmd Command, h commandHandler[S]) error {
	state := b.state.Current()

	if h.async && b.executor != nil {
		// The caller may be gone by the time the work completes.
		ctx = context.WithoutCancel(ctx)
		work := func(ctx context.Context) ([]Event, error) {
			return h.call(ctx, state, cmd)
		}
		b.executor.Execute(ctx, work, func(events []Event, err error) {
			if err := b.complete(ctx, cmd, events, err); err != nil {
				b.asyncErr(ctx, err, cmd)
			}
		})
		return nil
	}

	events, err := h.invoke(ctx, state, cmd)
	return b.complete(ctx, cmd, events, err)
}

// complete forwards the produced events and reports the outcome. It is the
// shared tail of the sync path and of async completions.
func (b *CommandBus[S]) complete(ctx context.Context, cmd Command, events []Event, err error) error {
	if err != nil {
		return b.fail(ctx, err, cmd, nil)
	}
	forwarded := make([]Event, 0, len(events))
	for _, evt := range events {
		if isNil(evt) {
			continue
		}
		// Event handler failures are already reported by the event bus;
		// what comes back here is structural or unreportable.
		if err := b.events.HandleEvent(ctx, evt); err != nil {
			return err
		}
		forwarded = append(forwarded, evt)
	}
	b.loggers.commandResult(ctx, cmd, forwarded)
	return nil
}

func (b *CommandBus[S]) fail(ctx context.Context, err error, cmd Command, events []Event) error {
	if len(b.loggers) == 0 {
		return &NoRegisteredErrorHandlerError{Message: cmd, Err: err}
	}
	b.loggers.commandError(ctx, err, cmd, events)
	return nil
}
