package engine

import (
	"context"
	"log/slog"

	"github.com/mr1hm/go-food-rescue/internal/events"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

// ExpireFood marks every available listing past its expiry as expired and
// returns their ids.
func (e *Engine) ExpireFood(ctx context.Context) ([]string, error) {
	var ids []string
	err := e.update(ctx, "expire_food", func(tx repository.Tx) error {
		var err error
		ids, err = tx.ExpireFood(ctx, e.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	e.metrics.FoodExpired(len(ids))
	slog.Info("food listings expired", "count", len(ids))
	e.publish(events.FoodExpired, events.FoodExpiredPayload{IDs: ids})
	return ids, nil
}
