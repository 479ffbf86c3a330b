package mediator

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNilArgument is returned when a required argument (message type,
	// handler, command, event or state) is nil.
	ErrNilArgument = errors.New("nil argument")

	// ErrNoHandlersRegistered is matched by NoHandlersRegisteredError.
	ErrNoHandlersRegistered = errors.New("no handlers registered")

	// ErrUnsupportedHandlerShape is matched by UnsupportedHandlerShapeError.
	ErrUnsupportedHandlerShape = errors.New("unsupported handler shape")

	// ErrNoRegisteredErrorHandler is matched by NoRegisteredErrorHandlerError.
	ErrNoRegisteredErrorHandler = errors.New("no registered error handler")

	// ErrEventHandlerReturnedNil is reported when an event handler returns a
	// nil state. Returning the current state is how a handler says "no
	// change".
	ErrEventHandlerReturnedNil = errors.New("event handler returned nil state")

	// ErrNotSubscribed is returned when unsubscribing a subscription that is
	// unknown or was already removed.
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrInvalidCommand is matched by ValidationError.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrHandlerPanic wraps a panic recovered from a handler, a logger or a
	// state equality function.
	ErrHandlerPanic = errors.New("handler panic")

	// ErrStoreClosed is returned by a Store after Close.
	ErrStoreClosed = errors.New("store closed")
)

// NoHandlersRegisteredError is returned when neither the exact type of a
// message nor any registered ancestor has handlers.
type NoHandlersRegisteredError struct {
	Type reflect.Type
}

func (e *NoHandlersRegisteredError) Error() string {
	return fmt.Sprintf("no handlers registered for %s", typeName(e.Type))
}

// Is reports whether target is ErrNoHandlersRegistered.
func (e *NoHandlersRegisteredError) Is(target error) bool {
	return target == ErrNoHandlersRegistered
}

// UnsupportedHandlerShapeError is returned by MapHandler when the handler
// matches none of the execution contracts the bus understands.
type UnsupportedHandlerShapeError struct {
	Handler any
}

func (e *UnsupportedHandlerShapeError) Error() string {
	return fmt.Sprintf("unsupported handler shape: %s", typeName(reflect.TypeOf(e.Handler)))
}

// Is reports whether target is ErrUnsupportedHandlerShape.
func (e *UnsupportedHandlerShapeError) Is(target error) bool {
	return target == ErrUnsupportedHandlerShape
}

// NoRegisteredErrorHandlerError wraps a handler error that could not be
// reported because no logger is registered. It is returned to the caller.
type NoRegisteredErrorHandlerError struct {
	// Message is the command or event being handled.
	Message any
	Err     error
}

func (e *NoRegisteredErrorHandlerError) Error() string {
	return fmt.Sprintf("handle %s: %v", typeName(reflect.TypeOf(e.Message)), e.Err)
}

func (e *NoRegisteredErrorHandlerError) Unwrap() error { return e.Err }

// Is reports whether target is ErrNoRegisteredErrorHandler.
func (e *NoRegisteredErrorHandlerError) Is(target error) bool {
	return target == ErrNoRegisteredErrorHandler
}

// ValidationError is returned by HandleCommand when a command fails
// validation. Nothing is stored or dispatched.
type ValidationError struct {
	Command Command
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Command.CommandName(), e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInvalidCommand.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidCommand
}

// panicError converts a recovered value into an error wrapping
// ErrHandlerPanic.
func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("%w: %w", ErrHandlerPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
}
