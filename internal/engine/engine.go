package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/go-food-rescue/internal/availability"
	"github.com/mr1hm/go-food-rescue/internal/clock"
	"github.com/mr1hm/go-food-rescue/internal/events"
	"github.com/mr1hm/go-food-rescue/internal/metrics"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

const maxTxAttempts = 3

// Engine runs matching, delivery, alert and rating operations against a store.
// Each operation commits in a single transaction and publishes its event
// after the commit.
type Engine struct {
	store     repository.Store
	matcher   availability.Matcher
	publisher events.Publisher
	clock     clock.Clock
	metrics   *metrics.Metrics
	newID     func() string
}

type Option func(*Engine)

func WithMatcher(m availability.Matcher) Option {
	return func(e *Engine) { e.matcher = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		matcher:   availability.NewFirstFit(time.UTC),
		publisher: events.Discard{},
		clock:     clock.Real{},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// now drops the monotonic reading so stamped values equal what a later read
// returns.
func (e *Engine) now() time.Time {
	return e.clock.Now().UTC().Round(0)
}

// update runs fn in a transaction, rerunning it from a fresh read when a
// conditional write loses to a concurrent change.
func (e *Engine) update(ctx context.Context, op string, fn func(tx repository.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = e.store.InTx(ctx, fn)
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
		e.metrics.TxConflict()
		slog.Debug("retrying after version conflict", "op", op, "attempt", attempt, "error", err)
	}
	return err
}

func (e *Engine) view(ctx context.Context, fn func(tx repository.Tx) error) error {
	return e.store.InTx(ctx, fn)
}

func (e *Engine) publish(name events.Name, payload any) {
	e.publisher.Publish(events.Event{Name: name, At: e.now(), Payload: payload})
}
