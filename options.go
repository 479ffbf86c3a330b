package mediator

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// config holds the settings shared by the buses and the state manager.
type config[S any] struct {
	store     Store
	loggers   loggers[S]
	executor  Executor
	policy    RoutingPolicy
	validator *validator.Validate
	asyncErr  func(ctx context.Context, err error, cmd Command)
	equal     func(a, b S) bool
	log       *slog.Logger
}

func newConfig[S any](opts []Option[S]) *config[S] {
	c := &config[S]{log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.asyncErr == nil {
		log := c.log
		c.asyncErr = func(ctx context.Context, err error, cmd Command) {
			log.ErrorContext(ctx, "async command failed",
				slog.String("command", cmd.CommandName()),
				slog.Any("error", err),
			)
		}
	}
	return c
}

// Option configures a Mediator or one of its components.
type Option[S any] func(*config[S])

// WithStore sets the message store. The default is NewStore().
func WithStore[S any](s Store) Option[S] {
	return func(c *config[S]) {
		c.store = s
	}
}

// WithLogger adds a Logger. Loggers are called in the order added. Nil
// loggers are ignored.
func WithLogger[S any](l Logger[S]) Option[S] {
	return func(c *config[S]) {
		if l != nil {
			c.loggers = append(c.loggers, l)
		}
	}
}

// WithExecutor sets the executor for async command handlers. Without one,
// async handlers run on the calling goroutine.
func WithExecutor[S any](e Executor) Option[S] {
	return func(c *config[S]) {
		c.executor = e
	}
}

// WithRoutingPolicy sets how handlers are found for messages whose exact
// type has none. The default is FirstRegistered.
func WithRoutingPolicy[S any](p RoutingPolicy) Option[S] {
	return func(c *config[S]) {
		c.policy = p
	}
}

// WithValidator validates every command's struct tags before it is routed.
//
// Example:
//
//	mediator.WithValidator[State](validator.New(validator.WithRequiredStructEnabled()))
func WithValidator[S any](v *validator.Validate) Option[S] {
	return func(c *config[S]) {
		c.validator = v
	}
}

// WithAsyncErrorHandler sets the function called when an async command
// fails and no Logger is registered, since there is no caller left to
// return the error to. The default logs it at error level.
func WithAsyncErrorHandler[S any](fn func(ctx context.Context, err error, cmd Command)) Option[S] {
	return func(c *config[S]) {
		c.asyncErr = fn
	}
}

// WithEquality sets how the state manager compares states. The default uses
// an Equal(S) bool method when S has one and reflect.DeepEqual otherwise.
func WithEquality[S any](fn func(a, b S) bool) Option[S] {
	return func(c *config[S]) {
		c.equal = fn
	}
}

// WithSlog sets the logger used for the mediator's own diagnostics.
func WithSlog[S any](log *slog.Logger) Option[S] {
	return func(c *config[S]) {
		if log != nil {
			c.log = log
		}
	}
}
