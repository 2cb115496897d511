package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Expirer marks stale listings expired and returns their ids.
type Expirer interface {
	ExpireFood(ctx context.Context) ([]string, error)
}

// Sweeper periodically expires listings whose expiry has passed.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	wg       sync.WaitGroup
}

func New(expirer Expirer, interval time.Duration) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()
	slog.Info("starting expiry sweeper", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial sweep
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry sweeper shutting down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	ids, err := s.expirer.ExpireFood(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("expiry sweep failed", "error", err)
		}
		return
	}
	slog.Debug("expiry sweep complete", "expired", len(ids))
}

// Stop waits for the sweep loop to exit after its context is cancelled.
func (s *Sweeper) Stop() {
	s.wg.Wait()
	slog.Info("expiry sweeper stopped")
}
