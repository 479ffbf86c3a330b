package mediator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the environment-driven settings of a mediator. Load it with
// LoadConfig; turn it into options with Options.
type Config struct {
	// Routing is the fallback routing policy: first, most-specific or exact.
	Routing string `envconfig:"ROUTING_POLICY" default:"first"`

	// ExecutorWorkers sizes the async executor pool: below zero runs async
	// handlers inline, zero means no limit.
	ExecutorWorkers int `envconfig:"EXECUTOR_WORKERS" default:"0"`

	// StoreHistory keeps the last N messages in memory. Zero keeps none.
	StoreHistory int `envconfig:"STORE_HISTORY" default:"0"`

	// BadgerPath, when set, stores messages in a Badger database at this
	// path instead. See package badgerstore.
	BadgerPath string `envconfig:"BADGER_PATH"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads Config from environment variables named
// PREFIX_ROUTING_POLICY, PREFIX_EXECUTOR_WORKERS and so on.
func LoadConfig(prefix string) (Config, error) {
	var c Config
	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if _, err := ParseRoutingPolicy(c.Routing); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ParseRoutingPolicy parses the names returned by RoutingPolicy.String.
func ParseRoutingPolicy(s string) (RoutingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return FirstRegistered, nil
	case "most-specific":
		return MostSpecific, nil
	case "exact":
		return ExactOnly, nil
	default:
		return 0, fmt.Errorf("unknown routing policy %q", s)
	}
}

// Level returns LogLevel as a slog.Level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Executor builds the executor described by ExecutorWorkers. It returns nil
// when async handlers should run inline.
func (c Config) Executor(log *slog.Logger) Executor {
	if c.ExecutorWorkers < 0 {
		return nil
	}
	return NewPoolExecutor(c.ExecutorWorkers, log)
}

// Backend builds the in-memory backend described by StoreHistory.
// BadgerPath is not handled here.
func (c Config) Backend() Backend {
	if c.StoreHistory > 0 {
		return NewMemoryBackend(c.StoreHistory)
	}
	return NopBackend()
}

// Options converts the config into mediator options. exec is used as the
// executor; pass c.Executor(log) or an executor you keep a handle on.
func Options[S any](c Config, backend Backend, exec Executor, log *slog.Logger) ([]Option[S], error) {
	policy, err := ParseRoutingPolicy(c.Routing)
	if err != nil {
		return nil, err
	}
	if backend == nil {
		backend = c.Backend()
	}
	return []Option[S]{
		WithRoutingPolicy[S](policy),
		WithExecutor[S](exec),
		WithStore[S](NewStore(WithBackend(backend))),
		WithSlog[S](log),
	}, nil
}
