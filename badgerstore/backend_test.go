package badgerstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/bjaus/mediator"
)

type BackendSuite struct {
	suite.Suite
	ctx     context.Context
	backend *Backend
}

func (s *BackendSuite) SetupTest() {
	s.ctx = context.Background()
	var err error
	s.backend, err = Open("", nil)
	s.Require().NoError(err)
}

func (s *BackendSuite) TearDownTest() {
	s.Require().NoError(s.backend.Close())
}

func TestBackendSuite(t *testing.T) {
	suite.Run(t, new(BackendSuite))
}

func record(name string, at time.Time) mediator.Record {
	return mediator.Record{
		ID:      uuid.New(),
		Kind:    "event",
		Name:    name,
		Type:    "test.Event",
		At:      at,
		Payload: []byte(`{"name":"` + name + `"}`),
	}
}

func (s *BackendSuite) TestScanIsChronological() {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	// Appended out of order on purpose.
	for _, r := range []mediator.Record{
		record("second", base.Add(time.Second)),
		record("first", base),
		record("third", base.Add(2*time.Second)),
	} {
		s.Require().NoError(s.backend.Append(s.ctx, r))
	}

	var names []string
	s.Require().NoError(s.backend.Scan(s.ctx, func(r mediator.Record) error {
		names = append(names, r.Name)
		return nil
	}))

	s.Assert().Equal([]string{"first", "second", "third"}, names)
}

func (s *BackendSuite) TestRecordRoundTrips() {
	want := record("kept", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.backend.Append(s.ctx, want))

	var got []mediator.Record
	s.Require().NoError(s.backend.Scan(s.ctx, func(r mediator.Record) error {
		got = append(got, r)
		return nil
	}))

	s.Require().Len(got, 1)
	s.Assert().Equal(want.ID, got[0].ID)
	s.Assert().Equal(want.Name, got[0].Name)
	s.Assert().True(want.At.Equal(got[0].At))
	s.Assert().JSONEq(string(want.Payload), string(got[0].Payload))
}

func (s *BackendSuite) TestSameInstantKeepsBoth() {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.backend.Append(s.ctx, record("a", at)))
	s.Require().NoError(s.backend.Append(s.ctx, record("b", at)))

	n, err := s.backend.Len(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal(2, n)
}

func (s *BackendSuite) TestScanStopsOnError() {
	now := time.Now()
	s.Require().NoError(s.backend.Append(s.ctx, record("a", now)))
	s.Require().NoError(s.backend.Append(s.ctx, record("b", now.Add(time.Millisecond))))

	stop := errors.New("stop")
	visited := 0
	err := s.backend.Scan(s.ctx, func(mediator.Record) error {
		visited++
		return stop
	})

	s.Assert().ErrorIs(err, stop)
	s.Assert().Equal(1, visited)
}

func (s *BackendSuite) TestScanHonorsCancellation() {
	s.Require().NoError(s.backend.Append(s.ctx, record("a", time.Now())))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	err := s.backend.Scan(ctx, func(mediator.Record) error { return nil })

	s.Assert().ErrorIs(err, context.Canceled)
}

func (s *BackendSuite) TestBacksMessageStore() {
	ctx := s.ctx
	store := mediator.NewStore(mediator.WithBackend(New(s.backend.db)))
	m := mediator.New(0, mediator.WithStore[int](store))
	defer m.Close()

	s.Require().NoError(mediator.OnEvent(m.Events(), func(_ context.Context, n int, evt bumped) (int, error) {
		return n + evt.By, nil
	}))
	s.Require().NoError(m.Publish(ctx, bumped{By: 2}))
	s.Require().NoError(m.Publish(ctx, bumped{By: 5}))

	records, err := m.Store().Find(ctx, mediator.FieldEquals("name", "bumped"))
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Assert().JSONEq(`{"by":5}`, string(records[1].Payload))
	s.Assert().Equal(7, m.State())

	// The store does not own the database passed to New.
	n, err := s.backend.Len(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(2, n)
}

type bumped struct {
	By int `json:"by"`
}

func (bumped) EventName() string { return "bumped" }
