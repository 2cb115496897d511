package engine

import (
	"context"

	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

// RecomputeAverage stores the mean over every rated delivery of the volunteer.
func (e *Engine) RecomputeAverage(ctx context.Context, volunteerID string) (*models.User, error) {
	var u *models.User
	err := e.update(ctx, "recompute_average", func(tx repository.Tx) error {
		var err error
		u, err = e.recomputeAverage(ctx, tx, volunteerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (e *Engine) recomputeAverage(ctx context.Context, tx repository.Tx, volunteerID string) (*models.User, error) {
	u, err := tx.GetUser(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("volunteer %s", volunteerID)
	}

	ratings, err := tx.VolunteerRatings(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	u.Rating = average(ratings)

	if err := tx.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// average is nil for an empty set.
func average(ratings []int) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg
}
