package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mr1hm/go-food-rescue/internal/events"
	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

// UpdateDeliveryStatus moves a live delivery to status. Completing it stamps
// the delivery time, marks the food picked up and credits the volunteer; any
// other live status keeps the food reserved. Completed and cancelled
// deliveries accept no further updates, and a move to cancelled is handled
// as CancelDelivery.
func (e *Engine) UpdateDeliveryStatus(ctx context.Context, id string, status models.DeliveryStatus) (*models.Delivery, error) {
	if !status.Valid() {
		return nil, validation(fmt.Errorf("invalid delivery status %q", status))
	}
	if status == models.DeliveryStatusCancelled {
		return e.CancelDelivery(ctx, id)
	}

	var delivery *models.Delivery
	var food *models.Food

	err := e.update(ctx, "update_delivery_status", func(tx repository.Tx) error {
		d, f, err := e.liveDelivery(ctx, tx, id)
		if err != nil {
			return err
		}

		now := e.now()
		d.Status = status
		d.UpdatedAt = now
		f.UpdatedAt = now

		if status == models.DeliveryStatusCompleted {
			d.ActualDeliveryTime = &now
			f.Status = models.FoodStatusPickedUp

			v, err := tx.GetUser(ctx, d.VolunteerID)
			if err != nil {
				return err
			}
			if v == nil {
				return notFound("volunteer %s", d.VolunteerID)
			}
			v.CompletedDeliveries++
			if err := tx.UpdateUser(ctx, v); err != nil {
				return err
			}
		} else {
			f.Status = models.FoodStatusReserved
		}

		if err := tx.UpdateDelivery(ctx, d); err != nil {
			return err
		}
		if err := tx.UpdateFood(ctx, f); err != nil {
			return err
		}

		delivery, food = d, f
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.DeliveryTransition(string(status))
	slog.Info("delivery status updated", "delivery_id", delivery.ID, "status", delivery.Status)
	e.publish(events.DeliveryStatusUpdate, events.DeliveryPayload{Delivery: *delivery, Food: food})
	return delivery, nil
}

// CancelDelivery cancels a scheduled or in-progress delivery and returns its
// food to the matchable pool.
func (e *Engine) CancelDelivery(ctx context.Context, id string) (*models.Delivery, error) {
	var delivery *models.Delivery
	var food *models.Food

	err := e.update(ctx, "cancel_delivery", func(tx repository.Tx) error {
		d, f, err := e.liveDelivery(ctx, tx, id)
		if err != nil {
			return err
		}

		now := e.now()
		d.Status = models.DeliveryStatusCancelled
		d.UpdatedAt = now
		f.Release()
		f.UpdatedAt = now

		if err := tx.UpdateDelivery(ctx, d); err != nil {
			return err
		}
		if err := tx.UpdateFood(ctx, f); err != nil {
			return err
		}

		delivery, food = d, f
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.DeliveryTransition(string(models.DeliveryStatusCancelled))
	slog.Info("delivery cancelled", "delivery_id", delivery.ID, "food_id", food.ID)
	e.publish(events.DeliveryCancelled, events.DeliveryPayload{Delivery: *delivery, Food: food})
	return delivery, nil
}

// liveDelivery loads a delivery that still accepts transitions, with its food.
func (e *Engine) liveDelivery(ctx context.Context, tx repository.Tx, id string) (*models.Delivery, *models.Food, error) {
	d, err := tx.GetDelivery(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, notFound("delivery %s", id)
	}
	if d.Status.Terminal() {
		return nil, nil, invalidState("delivery is already %s", d.Status)
	}

	f, err := tx.GetFood(ctx, d.FoodID)
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, notFound("food %s", d.FoodID)
	}
	return d, f, nil
}

// RateDelivery records a rating on a completed delivery and recomputes the
// volunteer's average in the same transaction.
func (e *Engine) RateDelivery(ctx context.Context, id string, rating int, feedback string) (*models.Delivery, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, validation(fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating))
	}

	var delivery *models.Delivery
	var volunteer *models.User

	err := e.update(ctx, "rate_delivery", func(tx repository.Tx) error {
		d, err := tx.GetDelivery(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return notFound("delivery %s", id)
		}
		if d.Status != models.DeliveryStatusCompleted {
			return invalidState("can only rate completed deliveries")
		}

		d.Rating = &rating
		d.Feedback = feedback
		d.UpdatedAt = e.now()
		if err := tx.UpdateDelivery(ctx, d); err != nil {
			return err
		}

		v, err := e.recomputeAverage(ctx, tx, d.VolunteerID)
		if err != nil {
			return err
		}

		delivery, volunteer = d, v
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("delivery rated", "delivery_id", delivery.ID, "rating", rating, "volunteer_id", volunteer.ID)
	e.publish(events.DeliveryRated, events.DeliveryRatedPayload{Delivery: *delivery, Volunteer: *volunteer})
	return delivery, nil
}

func (e *Engine) GetDelivery(ctx context.Context, id string) (*models.Delivery, error) {
	var d *models.Delivery
	err := e.view(ctx, func(tx repository.Tx) error {
		var err error
		d, err = tx.GetDelivery(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound("delivery %s", id)
	}
	return d, nil
}

func (e *Engine) ListDeliveries(ctx context.Context, filter repository.DeliveryFilter) ([]models.Delivery, error) {
	var out []models.Delivery
	err := e.view(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListDeliveries(ctx, filter)
		return err
	})
	return out, err
}
