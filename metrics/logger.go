// Package metrics provides a mediator.Logger that records command and event
// outcomes as Prometheus metrics.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bjaus/mediator"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Logger counts handled commands and events. It implements
// mediator.Logger[S].
//
// Metrics, under the configured namespace:
//
//	mediator_commands_total{command, outcome}
//	mediator_command_events{command}        histogram of events per command
//	mediator_events_total{event, outcome}
type Logger[S any] struct {
	Commands      *prometheus.CounterVec
	CommandEvents *prometheus.HistogramVec
	Events        *prometheus.CounterVec
}

var _ mediator.Logger[struct{}] = (*Logger[struct{}])(nil)

// NewLogger creates a Logger and registers its metrics with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewLogger[S any](reg prometheus.Registerer, namespace string) (*Logger[S], error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	l := &Logger[S]{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mediator_commands_total",
			Help:      "Commands handled, by outcome.",
		}, []string{"command", "outcome"}),
		CommandEvents: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mediator_command_events",
			Help:      "Events produced per successfully handled command.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25},
		}, []string{"command"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mediator_events_total",
			Help:      "Events applied to state, by outcome.",
		}, []string{"event", "outcome"}),
	}
	var err error
	if l.Commands, err = register(reg, l.Commands); err != nil {
		return nil, err
	}
	if l.CommandEvents, err = register(reg, l.CommandEvents); err != nil {
		return nil, err
	}
	if l.Events, err = register(reg, l.Events); err != nil {
		return nil, err
	}
	return l, nil
}

// register registers c, or returns the collector already registered under
// the same name so several mediators can share one registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

// OnCommandResult implements mediator.Logger.
func (l *Logger[S]) OnCommandResult(_ context.Context, cmd mediator.Command, events []mediator.Event) {
	l.Commands.WithLabelValues(cmd.CommandName(), outcomeOK).Inc()
	l.CommandEvents.WithLabelValues(cmd.CommandName()).Observe(float64(len(events)))
}

// OnCommandError implements mediator.Logger.
func (l *Logger[S]) OnCommandError(_ context.Context, _ error, cmd mediator.Command, _ []mediator.Event) {
	l.Commands.WithLabelValues(cmd.CommandName(), outcomeError).Inc()
}

// OnEventResult implements mediator.Logger.
func (l *Logger[S]) OnEventResult(_ context.Context, evt mediator.Event, _ S) {
	l.Events.WithLabelValues(evt.EventName(), outcomeOK).Inc()
}

// OnEventError implements mediator.Logger.
func (l *Logger[S]) OnEventError(_ context.Context, _ error, evt mediator.Event, _ S) {
	l.Events.WithLabelValues(evt.EventName(), outcomeError).Inc()
}
