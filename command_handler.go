package mediator

import (
	"context"
	"reflect"

	"github.com/sourcegraph/conc/panics"
)

// CommandFunc handles a command synchronously and produces at most one
// event. A nil event means nothing happened.
type CommandFunc[S any] func(ctx context.Context, state S, cmd Command) (Event, error)

// CommandsFunc handles a command synchronously and produces any number of
// events, possibly none.
type CommandsFunc[S any] func(ctx context.Context, state S, cmd Command) ([]Event, error)

// AsyncCommandFunc is a CommandFunc run on the bus Executor.
type AsyncCommandFunc[S any] func(ctx context.Context, state S, cmd Command) (Event, error)

// AsyncCommandsFunc is a CommandsFunc run on the bus Executor.
type AsyncCommandsFunc[S any] func(ctx context.Context, state S, cmd Command) ([]Event, error)

// VoidCommandFunc handles a command without producing events.
type VoidCommandFunc[S any] func(ctx context.Context, state S, cmd Command) error

// commandHandler is a registered handler normalized to the multi-event form.
type commandHandler[S any] struct {
	async bool
	call  func(ctx context.Context, state S, cmd Command) ([]Event, error)
}

func single(e Event, err error) ([]Event, error) {
	if err != nil || isNil(e) {
		return nil, err
	}
	return []Event{e}, nil
}

// asCommandHandler checks h against the supported handler shapes.
func asCommandHandler[S any](h any) (commandHandler[S], error) {
	if isNil(h) {
		return commandHandler[S]{}, ErrNilArgument
	}
	switch fn := h.(type) {
	case CommandFunc[S]:
		return commandHandler[S]{call: func(ctx context.Context, s S, c Command) ([]Event, error) {
			return single(fn(ctx, s, c))
		}}, nil
	case CommandsFunc[S]:
		return commandHandler[S]{call: fn}, nil
	case AsyncCommandFunc[S]:
		return commandHandler[S]{async: true, call: func(ctx context.Context, s S, c Command) ([]Event, error) {
			return single(fn(ctx, s, c))
		}}, nil
	case AsyncCommandsFunc[S]:
		return commandHandler[S]{async: true, call: fn}, nil
	case VoidCommandFunc[S]:
		return commandHandler[S]{call: func(ctx context.Context, s S, c Command) ([]Event, error) {
			return nil, fn(ctx, s, c)
		}}, nil
	default:
		return commandHandler[S]{}, &UnsupportedHandlerShapeError{Handler: h}
	}
}

// invoke runs the handler on the calling goroutine, turning a panic into an
// error.
func (h commandHandler[S]) invoke(ctx context.Context, state S, cmd Command) (events []Event, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		events, err = h.call(ctx, state, cmd)
	})
	if rec := pc.Recovered(); rec != nil {
		return nil, panicError(rec.Value)
	}
	return events, err
}

// OnCommand registers fn for commands of type C. It produces at most one
// event.
//
// This is a package-level function (not a method) because methods cannot
// have type parameters independent of the receiver.
//
// Example:
//
//	mediator.OnCommand(m.Commands(), func(ctx context.Context, s Counter, cmd Increment) (mediator.Event, error) {
//	    return Incremented{By: cmd.By}, nil
//	})
func OnCommand[S any, C Command](b *CommandBus[S], fn func(ctx context.Context, state S, cmd C) (Event, error)) error {
	if fn == nil {
		return ErrNilArgument
	}
	return b.MapHandler(reflect.TypeFor[C](), CommandFunc[S](func(ctx context.Context, s S, c Command) (Event, error) {
		return fn(ctx, s, c.(C))
	}))
}

// OnCommands registers fn for commands of type C. It may produce any number
// of events.
func OnCommands[S any, C Command](b *CommandBus[S], fn func(ctx context.Context, state S, cmd C) ([]Event, error)) error {
	if fn == nil {
		return ErrNilArgument
	}
	return b.MapHandler(reflect.TypeFor[C](), CommandsFunc[S](func(ctx context.Context, s S, c Command) ([]Event, error) {
		return fn(ctx, s, c.(C))
	}))
}

// OnCommandAsync registers fn for commands of type C, run on the bus
// Executor.
func OnCommandAsync[S any, C Command](b *CommandBus[S], fn func(ctx context.Context, state S, cmd C) (Event, error)) error {
	if fn == nil {
		return ErrNilArgument
	}
	return b.MapHandler(reflect.TypeFor[C](), AsyncCommandFunc[S](func(ctx context.Context, s S, c Command) (Event, error) {
		return fn(ctx, s, c.(C))
	}))
}

// OnCommandsAsync registers fn for commands of type C, run on the bus
// Executor.
func OnCommandsAsync[S any, C Command](b *CommandBus[S], fn func(ctx context.Context, state S, cmd C) ([]Event, error)) error {
	if fn == nil {
		return ErrNilArgument
	}
	return b.MapHandler(reflect.TypeFor[C](), AsyncCommandsFunc[S](func(ctx context.Context, s S, c Command) ([]Event, error) {
		return fn(ctx, s, c.(C))
	}))
}

// OnCommandVoid registers fn for commands of type C. It produces no events.
func OnCommandVoid[S any, C Command](b *CommandBus[S], fn func(ctx context.Context, state S, cmd C) error) error {
	if fn == nil {
		return ErrNilArgument
	}
	return b.MapHandler(reflect.TypeFor[C](), VoidCommandFunc[S](func(ctx context.Context, s S, c Command) error {
		return fn(ctx, s, c.(C))
	}))
}
