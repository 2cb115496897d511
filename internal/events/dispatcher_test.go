package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"

	"github.com/mr1hm/go-food-rescue/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Handle(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

func (s *recordingSink) names() []Name {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Name, len(s.events))
	for i, e := range s.events {
		out[i] = e.Name
	}
	return out
}

func TestDispatcher_FansOutToSinks(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	d := NewDispatcher(1, 10, nil, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Publish(Event{Name: FoodMatched, At: time.Now()})
	d.Publish(Event{Name: DeliveryCancelled, At: time.Now()})
	d.Stop()

	for _, s := range []*recordingSink{a, b} {
		got := s.names()
		if len(got) != 2 || got[0] != FoodMatched || got[1] != DeliveryCancelled {
			t.Errorf("expected [food-matched delivery-cancelled], got %v", got)
		}
	}
}

func TestDispatcher_SinkErrorDoesNotStopOthers(t *testing.T) {
	failing := SinkFunc(func(ctx context.Context, e *Event) error {
		return errors.New("sink down")
	})
	ok := &recordingSink{}
	d := NewDispatcher(1, 10, nil, failing, ok)
	d.Start(context.Background())

	d.Publish(Event{Name: AlertDeleted})
	d.Stop()

	if len(ok.names()) != 1 {
		t.Errorf("expected healthy sink to receive event, got %v", ok.names())
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	var once sync.Once
	blocking := SinkFunc(func(ctx context.Context, e *Event) error {
		once.Do(started.Done)
		<-release
		return nil
	})

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}
	d := NewDispatcher(1, 1, m, blocking)
	d.Start(context.Background())

	d.Publish(Event{Name: FoodMatched})
	started.Wait()
	d.Publish(Event{Name: FoodMatched}) // fills the queue

	done := make(chan struct{})
	go func() {
		d.Publish(Event{Name: NewFoodListing}) // dropped
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}

	close(release)
	d.Stop()
}

func TestDispatcher_PublishAfterStop(t *testing.T) {
	s := &recordingSink{}
	d := NewDispatcher(1, 1, nil, s)
	d.Start(context.Background())
	d.Stop()

	d.Publish(Event{Name: FoodExpired})
	if len(s.names()) != 0 {
		t.Errorf("expected no delivery after stop, got %v", s.names())
	}
}
