//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mock_logger_test.go -package=mediator
package mediator

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
)

// Logger receives the outcome of every command and event the mediator
// handles. Registering at least one Logger makes the buses the error
// boundary for handler failures: errors are reported here instead of being
// returned to the caller.
//
// Loggers are called synchronously, in registration order. A Logger must
// not dispatch commands or events itself.
type Logger[S any] interface {
	// OnCommandResult is called after a command handler succeeded and its
	// events were forwarded. events may be empty.
	OnCommandResult(ctx context.Context, cmd Command, events []Event)

	// OnCommandError is called when a command handler failed. events holds
	// the events forwarded before the failure.
	OnCommandError(ctx context.Context, err error, cmd Command, events []Event)

	// OnEventResult is called with the state an event handler computed,
	// before it is committed. A panic here fails the event: nothing is
	// committed and OnEventError is called.
	OnEventResult(ctx context.Context, evt Event, newState S)

	// OnEventError is called when an event handler failed or returned a nil
	// state. newState is the zero value of S.
	OnEventError(ctx context.Context, err error, evt Event, newState S)
}

// Hooks is a Logger built from optional functions. Nil fields are skipped.
//
// Example:
//
//	m := mediator.New(initial, mediator.WithLogger[State](mediator.Hooks[State]{
//	    CommandError: func(ctx context.Context, err error, cmd mediator.Command, _ []mediator.Event) {
//	        alert(ctx, cmd.CommandName(), err)
//	    },
//	}))
type Hooks[S any] struct {
	CommandResult func(ctx context.Context, cmd Command, events []Event)
	CommandError  func(ctx context.Context, err error, cmd Command, events []Event)
	EventResult   func(ctx context.Context, evt Event, newState S)
	EventError    func(ctx context.Context, err error, evt Event, newState S)
}

// OnCommandResult implements Logger.
func (h Hooks[S]) OnCommandResult(ctx context.Context, cmd Command, events []Event) {
	if h.CommandResult != nil {
		h.CommandResult(ctx, cmd, events)
	}
}

// OnCommandError implements Logger.
func (h Hooks[S]) OnCommandError(ctx context.Context, err error, cmd Command, events []Event) {
	if h.CommandError != nil {
		h.CommandError(ctx, err, cmd, events)
	}
}

// OnEventResult implements Logger.
func (h Hooks[S]) OnEventResult(ctx context.Context, evt Event, newState S) {
	if h.EventResult != nil {
		h.EventResult(ctx, evt, newState)
	}
}

// OnEventError implements Logger.
func (h Hooks[S]) OnEventError(ctx context.Context, err error, evt Event, newState S) {
	if h.EventError != nil {
		h.EventError(ctx, err, evt, newState)
	}
}

// SlogLogger writes command and event outcomes to a slog.Logger. Results
// are logged at debug level and failures at error level.
type SlogLogger[S any] struct {
	log *slog.Logger
}

// NewSlogLogger creates a SlogLogger. A nil logger uses slog.Default.
func NewSlogLogger[S any](log *slog.Logger) *SlogLogger[S] {
	if log == nil {
		log = slog.Default()
	}
	return &SlogLogger[S]{log: log}
}

// OnCommandResult implements Logger.
func (l *SlogLogger[S]) OnCommandResult(ctx context.Context, cmd Command, events []Event) {
	l.log.DebugContext(ctx, "command handled",
		slog.String("command", cmd.CommandName()),
		slog.Any("events", eventNames(events)),
	)
}

// OnCommandError implements Logger.
func (l *SlogLogger[S]) OnCommandError(ctx context.Context, err error, cmd Command, events []Event) {
	l.log.ErrorContext(ctx, "command failed",
		slog.String("command", cmd.CommandName()),
		slog.Any("events", eventNames(events)),
		slog.Any("error", err),
	)
}

// OnEventResult implements Logger.
func (l *SlogLogger[S]) OnEventResult(ctx context.Context, evt Event, _ S) {
	l.log.DebugContext(ctx, "event applied", slog.String("event", evt.EventName()))
}

// OnEventError implements Logger.
func (l *SlogLogger[S]) OnEventError(ctx context.Context, err error, evt Event, _ S) {
	l.log.ErrorContext(ctx, "event failed",
		slog.String("event", evt.EventName()),
		slog.Any("error", err),
	)
}

func eventNames(events []Event) []string {
	return lo.Map(events, func(e Event, _ int) string {
		return e.EventName()
	})
}

// loggers fans a report out to every registered Logger.
type loggers[S any] []Logger[S]

func (ls loggers[S]) commandResult(ctx context.Context, cmd Command, events []Event) {
	for _, l := range ls {
		l.OnCommandResult(ctx, cmd, events)
	}
}

func (ls loggers[S]) commandError(ctx context.Context, err error, cmd Command, events []Event) {
	for _, l := range ls {
		l.OnCommandError(ctx, err, cmd, events)
	}
}

func (ls loggers[S]) eventResult(ctx context.Context, evt Event, newState S) {
	for _, l := range ls {
		l.OnEventResult(ctx, evt, newState)
	}
}

func (ls loggers[S]) eventError(ctx context.Context, err error, evt Event) {
	var zero S
	for _, l := range ls {
		l.OnEventError(ctx, err, evt, zero)
	}
}
