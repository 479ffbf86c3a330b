package mediator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SlogLoggerSuite struct {
	suite.Suite
	ctx context.Context
	buf *bytes.Buffer
	log *SlogLogger[counter]
}

func (s *SlogLoggerSuite) SetupTest() {
	s.ctx = context.Background()
	s.buf = &bytes.Buffer{}
	s.log = NewSlogLogger[counter](slog.New(slog.NewJSONHandler(s.buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func TestSlogLoggerSuite(t *testing.T) {
	suite.Run(t, new(SlogLoggerSuite))
}

func (s *SlogLoggerSuite) entry() map[string]any {
	var m map[string]any
	s.Require().NoError(json.Unmarshal(s.buf.Bytes(), &m))
	return m
}

func (s *SlogLoggerSuite) TestCommandResult() {
	s.log.OnCommandResult(s.ctx, add{Amount: 1}, []Event{added{Amount: 1}, cleared{}})

	e := s.entry()
	s.Assert().Equal("DEBUG", e["level"])
	s.Assert().Equal("command handled", e["msg"])
	s.Assert().Equal("counter/add", e["command"])
	s.Assert().Equal([]any{"counter/added", "counter/cleared"}, e["events"])
}

func (s *SlogLoggerSuite) TestCommandError() {
	s.log.OnCommandError(s.ctx, errors.New("boom"), reset{}, nil)

	e := s.entry()
	s.Assert().Equal("ERROR", e["level"])
	s.Assert().Equal("counter/reset", e["command"])
	s.Assert().Equal("boom", e["error"])
}

func (s *SlogLoggerSuite) TestEventResult() {
	s.log.OnEventResult(s.ctx, added{Amount: 1}, counter{Value: 1})

	e := s.entry()
	s.Assert().Equal("event applied", e["msg"])
	s.Assert().Equal("counter/added", e["event"])
}

func (s *SlogLoggerSuite) TestEventError() {
	s.log.OnEventError(s.ctx, ErrEventHandlerReturnedNil, cleared{}, counter{})

	e := s.entry()
	s.Assert().Equal("ERROR", e["level"])
	s.Assert().Equal("event failed", e["msg"])
	s.Assert().Equal(ErrEventHandlerReturnedNil.Error(), e["error"])
}

func TestHooks(t *testing.T) {
	ctx := context.Background()

	t.Run("nil hooks are skipped", func(t *testing.T) {
		var h Hooks[counter]
		assert.NotPanics(t, func() {
			h.OnCommandResult(ctx, reset{}, nil)
			h.OnCommandError(ctx, errors.New("x"), reset{}, nil)
			h.OnEventResult(ctx, cleared{}, counter{})
			h.OnEventError(ctx, errors.New("x"), cleared{}, counter{})
		})
	})

	t.Run("loggers run in registration order", func(t *testing.T) {
		var order []string
		hook := func(name string) Logger[counter] {
			return Hooks[counter]{
				CommandResult: func(context.Context, Command, []Event) { order = append(order, name+":command") },
				EventResult:   func(context.Context, Event, counter) { order = append(order, name+":event") },
			}
		}
		m := newCounter(WithLogger(hook("a")), WithLogger(hook("b")), WithLogger[counter](nil))
		defer m.Close()

		require.NoError(t, m.Dispatch(ctx, add{Amount: 1}))

		assert.Equal(t, []string{"a:event", "b:event", "a:command", "b:command"}, order)
	})
}
