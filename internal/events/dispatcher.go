package events

import (
	"context"
	"log/slog"

	"github.com/mr1hm/go-food-rescue/internal/metrics"
	"github.com/mr1hm/go-food-rescue/internal/worker"
)

// Sink receives dispatched events. Sinks run on dispatcher workers and must
// not block for long.
type Sink interface {
	Handle(ctx context.Context, e *Event) error
}

type SinkFunc func(ctx context.Context, e *Event) error

func (f SinkFunc) Handle(ctx context.Context, e *Event) error {
	return f(ctx, e)
}

// Dispatcher queues published events and fans them out to sinks on a worker
// pool. Events published while the queue is full are dropped.
type Dispatcher struct {
	pool    *worker.Pool[*Event]
	sinks   []Sink
	metrics *metrics.Metrics
}

func NewDispatcher(workers, bufferSize int, m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{
		sinks:   sinks,
		metrics: m,
	}
	d.pool = worker.NewPool("events", workers, bufferSize, d.dispatch)
	return d
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.pool.Start(ctx)
}

// Stop waits for queued events to be delivered.
func (d *Dispatcher) Stop() {
	d.pool.Stop()
}

func (d *Dispatcher) Publish(e Event) {
	if !d.pool.TrySubmit(&e) {
		slog.Warn("event dropped", "event", e.Name)
		d.metrics.EventDropped(string(e.Name))
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, e *Event) error {
	for _, s := range d.sinks {
		if err := s.Handle(ctx, e); err != nil {
			slog.Error("event sink failed", "event", e.Name, "error", err)
		}
	}
	d.metrics.EventPublished(string(e.Name))
	return nil
}

// LogSink writes each event to the default logger.
func LogSink() Sink {
	return SinkFunc(func(ctx context.Context, e *Event) error {
		slog.Info("event", "name", e.Name, "at", e.At)
		return nil
	})
}
