package engine

import (
	"context"
	"log/slog"

	"github.com/mr1hm/go-food-rescue/internal/events"
	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

// CreateFood stores a new available listing for the donor and returns it with
// the active alerts that need its category and whose deadline falls after its
// expiry. new-food-listing is published only when some alert matches.
func (e *Engine) CreateFood(ctx context.Context, in models.Food) (*models.Food, []models.EmergencyAlert, error) {
	in.NormalizeTimes()
	if err := in.Validate(); err != nil {
		return nil, nil, validation(err)
	}

	var food *models.Food
	var alerts []models.EmergencyAlert

	err := e.update(ctx, "create_food", func(tx repository.Tx) error {
		donor, err := tx.GetUser(ctx, in.DonorID)
		if err != nil {
			return err
		}
		if donor == nil || donor.Role != models.RoleDonor {
			return notFound("donor %s", in.DonorID)
		}

		now := e.now()
		f := in
		f.ID = e.newID()
		f.Release()
		f.Version = 0
		f.CreatedAt = now
		f.UpdatedAt = now
		if err := tx.AddFood(ctx, &f); err != nil {
			return err
		}

		active := models.AlertStatusActive
		matching, err := tx.ListAlerts(ctx, repository.AlertFilter{
			Status:        &active,
			Category:      &f.Category,
			DeadlineAfter: &f.ExpiryDate,
		})
		if err != nil {
			return err
		}

		food, alerts = &f, matching
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("food listing created",
		"food_id", food.ID,
		"donor_id", food.DonorID,
		"category", food.Category,
		"matching_alerts", len(alerts),
	)
	if len(alerts) > 0 {
		e.publish(events.NewFoodListing, events.NewFoodListingPayload{Food: *food, MatchingAlerts: alerts})
	}
	return food, alerts, nil
}

func (e *Engine) GetFood(ctx context.Context, id string) (*models.Food, error) {
	var f *models.Food
	err := e.view(ctx, func(tx repository.Tx) error {
		var err error
		f, err = tx.GetFood(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, notFound("food %s", id)
	}
	return f, nil
}

// ListFood returns listings newest first.
func (e *Engine) ListFood(ctx context.Context, filter repository.FoodFilter) ([]models.Food, error) {
	var out []models.Food
	err := e.view(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListFood(ctx, filter)
		return err
	})
	return out, err
}

// UpdateFood edits the donor fields of a listing that is still available.
// The edited listing must pass the same checks as a new one.
func (e *Engine) UpdateFood(ctx context.Context, id string, upd models.FoodUpdate) (*models.Food, error) {
	var food *models.Food
	err := e.update(ctx, "update_food", func(tx repository.Tx) error {
		f, err := tx.GetFood(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return notFound("food %s", id)
		}
		if f.Status != models.FoodStatusAvailable {
			return invalidState("only available listings can be edited")
		}

		f.Apply(upd)
		f.NormalizeTimes()
		if err := f.Validate(); err != nil {
			return validation(err)
		}
		f.UpdatedAt = e.now()
		if err := tx.UpdateFood(ctx, f); err != nil {
			return err
		}
		food = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("food listing updated", "food_id", food.ID, "version", food.Version)
	return food, nil
}

// DeleteFood removes a listing. Reserved listings belong to a live delivery
// and cannot be removed.
func (e *Engine) DeleteFood(ctx context.Context, id string) error {
	err := e.update(ctx, "delete_food", func(tx repository.Tx) error {
		f, err := tx.GetFood(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return notFound("food %s", id)
		}
		if f.Status == models.FoodStatusReserved {
			return invalidState("reserved food cannot be deleted")
		}
		_, err = tx.DeleteFood(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	slog.Info("food listing deleted", "food_id", id)
	return nil
}
