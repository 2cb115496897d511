package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mr1hm/go-food-rescue/internal/events"
	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

// MatchFood pairs an available listing with a shelter and the first volunteer
// whose availability covers the pickup window. The delivery is created and the
// listing reserved in one transaction.
func (e *Engine) MatchFood(ctx context.Context, foodID, shelterID string) (*models.Food, *models.Delivery, error) {
	var food *models.Food
	var delivery *models.Delivery

	err := e.update(ctx, "match_food", func(tx repository.Tx) error {
		f, err := tx.GetFood(ctx, foodID)
		if err != nil {
			return err
		}
		if f == nil {
			return notFound("food %s", foodID)
		}
		if f.Status != models.FoodStatusAvailable {
			return invalidState("food is no longer available")
		}

		shelter, err := tx.GetUser(ctx, shelterID)
		if err != nil {
			return err
		}
		if shelter == nil || shelter.Role != models.RoleShelter {
			return notFound("shelter %s", shelterID)
		}

		role := models.RoleVolunteer
		volunteers, err := tx.ListUsers(ctx, repository.UserFilter{Role: &role})
		if err != nil {
			return err
		}
		volunteer, ok := e.matcher.FindAvailableVolunteer(f.PickupTime, volunteers)
		if !ok {
			return notFound("no available volunteers")
		}

		now := e.now()
		d := &models.Delivery{
			ID:                    e.newID(),
			FoodID:                f.ID,
			VolunteerID:           volunteer.ID,
			ShelterID:             shelter.ID,
			Status:                models.DeliveryStatusScheduled,
			PickupTime:            f.PickupTime.Start,
			EstimatedDeliveryTime: f.PickupTime.Start.Add(models.EstimatedDeliveryOffset),
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := tx.AddDelivery(ctx, d); err != nil {
			return err
		}

		f.Reserve(shelter.ID, volunteer.ID)
		f.UpdatedAt = now
		if err := tx.UpdateFood(ctx, f); err != nil {
			return err
		}

		food, delivery = f, d
		return nil
	})
	if err != nil {
		e.metrics.MatchAttempt(matchResult(err))
		return nil, nil, err
	}
	e.metrics.MatchAttempt("matched")

	slog.Info("food matched",
		"food_id", food.ID,
		"delivery_id", delivery.ID,
		"shelter_id", delivery.ShelterID,
		"volunteer_id", delivery.VolunteerID,
	)
	e.publish(events.FoodMatched, events.FoodMatchedPayload{Food: *food, Delivery: *delivery})
	return food, delivery, nil
}

func matchResult(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "unavailable"
	default:
		return "error"
	}
}
