// Command counter drives a small counter domain through the mediator. It is
// a runnable example of wiring the store backends, loggers and executors
// from environment configuration:
//
//	MEDIATOR_EXECUTOR_WORKERS=4 MEDIATOR_BADGER_PATH=/tmp/counter go run ./cmd/counter
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bjaus/mediator"
	"github.com/bjaus/mediator/badgerstore"
	"github.com/bjaus/mediator/metrics"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Counter is the state.
type Counter struct {
	Value int `json:"value"`
}

// Add asks to add Amount to the counter.
type Add struct {
	Amount int `json:"amount" validate:"ne=0"`
}

func (Add) CommandName() string { return "counter/add" }

// Reset asks to bring the counter back to zero.
type Reset struct{}

func (Reset) CommandName() string { return "counter/reset" }

// Added records that the counter moved by Amount.
type Added struct {
	Amount int `json:"amount"`
}

func (Added) EventName() string { return "counter/added" }

// Cleared records that the counter was reset.
type Cleared struct{}

func (Cleared) EventName() string { return "counter/cleared" }

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "counter: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return exitConfig, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := mediator.LoadConfig("MEDIATOR")
	if err != nil {
		return exitConfig, err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	var backend mediator.Backend
	if cfg.BadgerPath != "" {
		b, err := badgerstore.Open(cfg.BadgerPath, log)
		if err != nil {
			return exitRuntime, err
		}
		backend = b
	}

	exec := cfg.Executor(log)
	opts, err := mediator.Options[Counter](cfg, backend, exec, log)
	if err != nil {
		return exitConfig, err
	}

	reg := prometheus.NewRegistry()
	counts, err := metrics.NewLogger[Counter](reg, "counter")
	if err != nil {
		return exitRuntime, err
	}
	opts = append(opts,
		mediator.WithLogger[Counter](mediator.NewSlogLogger[Counter](log)),
		mediator.WithLogger[Counter](counts),
	)

	m := mediator.New(Counter{}, opts...)
	defer func() {
		if err := m.Close(); err != nil {
			log.Error("close mediator", slog.Any("error", err))
		}
	}()

	if err := register(m); err != nil {
		return exitRuntime, err
	}

	m.Subscribe(func(ctx context.Context, c mediator.StateChange[Counter]) {
		log.InfoContext(ctx, "counter changed",
			slog.Int("value", c.State.Value),
			slog.String("cause", c.Event.EventName()),
		)
	})

	// Add runs on the executor while Reset reads the state synchronously,
	// so pending adds are settled before each Reset.
	settle := func() {
		if p, ok := exec.(*mediator.PoolExecutor); ok {
			p.Wait()
		}
	}
	ctx := context.Background()
	for _, cmd := range []mediator.Command{Add{Amount: 3}, Add{Amount: 4}, Reset{}, Add{Amount: 2}} {
		if _, ok := cmd.(Reset); ok {
			settle()
		}
		if err := m.Dispatch(ctx, cmd); err != nil {
			return exitRuntime, err
		}
	}
	settle()

	records, err := m.Store().Find(ctx, mediator.KindIs(mediator.KindEvent))
	if err != nil {
		return exitRuntime, err
	}
	fmt.Printf("value=%d stored_events=%d\n", m.State().Value, len(records))
	return exitOK, nil
}

func register(m *mediator.Mediator[Counter]) error {
	if err := mediator.OnCommandAsync(m.Commands(), func(_ context.Context, _ Counter, cmd Add) (mediator.Event, error) {
		return Added(cmd), nil
	}); err != nil {
		return err
	}
	if err := mediator.OnCommand(m.Commands(), func(_ context.Context, c Counter, _ Reset) (mediator.Event, error) {
		if c.Value == 0 {
			return nil, nil
		}
		return Cleared{}, nil
	}); err != nil {
		return err
	}
	if err := mediator.OnEvent(m.Events(), func(_ context.Context, c Counter, evt Added) (Counter, error) {
		return Counter{Value: c.Value + evt.Amount}, nil
	}); err != nil {
		return err
	}
	return mediator.OnEvent(m.Events(), func(_ context.Context, _ Counter, _ Cleared) (Counter, error) {
		return Counter{}, nil
	})
}
