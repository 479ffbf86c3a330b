package mediator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type counter struct {
	Value int `json:"value"`
}

type add struct {
	Amount int `json:"amount" validate:"ne=0"`
}

func (add) CommandName() string { return "counter/add" }

type reset struct{}

func (reset) CommandName() string { return "counter/reset" }

type selfChecked struct {
	OK bool
}

func (selfChecked) CommandName() string { return "self-checked" }

func (c selfChecked) Validate() error {
	if !c.OK {
		return errors.New("not ok")
	}
	return nil
}

// audited is implemented by commands carrying an actor.
type audited interface {
	Command
	Actor() string
}

type auditedCmd struct {
	By string
}

func (auditedCmd) CommandName() string { return "audited" }

func (c auditedCmd) Actor() string { return c.By }

type added struct {
	Amount int `json:"amount"`
}

func (added) EventName() string { return "counter/added" }

type cleared struct{}

func (cleared) EventName() string { return "counter/cleared" }

type noted struct {
	Note string `json:"note"`
}

func (noted) EventName() string { return "noted" }

// doc is a pointer state with its own equality.
type doc struct {
	Title string
	Rev   int
}

func (d *doc) Equal(o *doc) bool {
	return d.Title == o.Title
}

func addCounter(_ context.Context, s counter, evt added) (counter, error) {
	return counter{Value: s.Value + evt.Amount}, nil
}

func clearCounter(context.Context, counter, cleared) (counter, error) {
	return counter{}, nil
}

// newCounter returns a mediator with the add and reset flow registered.
func newCounter(opts ...Option[counter]) *Mediator[counter] {
	m := New(counter{}, opts...)
	must(OnCommand(m.Commands(), func(_ context.Context, _ counter, cmd add) (Event, error) {
		return added(cmd), nil
	}))
	must(OnCommand(m.Commands(), func(_ context.Context, s counter, _ reset) (Event, error) {
		if s.Value == 0 {
			return nil, nil
		}
		return cleared{}, nil
	}))
	must(OnEvent(m.Events(), addCounter))
	must(OnEvent(m.Events(), clearCounter))
	return m
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// changes records state notifications.
type changes[S any] struct {
	mu   sync.Mutex
	list []StateChange[S]
}

func (c *changes[S]) observe(_ context.Context, change StateChange[S]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, change)
}

func (c *changes[S]) all() []StateChange[S] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]StateChange[S](nil), c.list...)
}

func (c *changes[S]) states() []S {
	out := []S{}
	for _, ch := range c.all() {
		out = append(out, ch.State)
	}
	return out
}

// brittle is a state whose equality panics when compared against a value
// with Panic set.
type brittle struct {
	Value int
	Panic bool
}

func (b brittle) Equal(o brittle) bool {
	if o.Panic {
		panic("bad equal")
	}
	return b.Value == o.Value
}

// finishes runs fn on another goroutine and fails the test if it does not
// return within two seconds.
func finishes(t *testing.T, fn func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("call blocked")
		return nil
	}
}
