package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mr1hm/go-food-rescue/internal/events"
	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

// CreateEmergencyAlert stores a new active alert for the shelter and returns
// it with the available listings that could serve it: those in one of the
// needed categories that expire strictly after the deadline.
func (e *Engine) CreateEmergencyAlert(ctx context.Context, in models.EmergencyAlert) (*models.EmergencyAlert, []models.Food, error) {
	in.NormalizeTimes()
	if err := in.Validate(); err != nil {
		return nil, nil, validation(err)
	}

	var alert *models.EmergencyAlert
	var matching []models.Food

	err := e.update(ctx, "create_alert", func(tx repository.Tx) error {
		shelter, err := tx.GetUser(ctx, in.ShelterID)
		if err != nil {
			return err
		}
		if shelter == nil || shelter.Role != models.RoleShelter {
			return notFound("shelter %s", in.ShelterID)
		}

		now := e.now()
		a := in
		a.ID = e.newID()
		a.Status = models.AlertStatusActive
		a.Responses = nil
		a.Version = 0
		a.CreatedAt = now
		a.UpdatedAt = now
		if err := tx.AddAlert(ctx, &a); err != nil {
			return err
		}

		available := models.FoodStatusAvailable
		foods, err := tx.ListFood(ctx, repository.FoodFilter{
			Status:       &available,
			Categories:   a.Categories(),
			ExpiresAfter: &a.Deadline,
		})
		if err != nil {
			return err
		}

		alert, matching = &a, foods
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("emergency alert created",
		"alert_id", alert.ID,
		"shelter_id", alert.ShelterID,
		"priority", alert.Priority,
		"matching_food", len(matching),
	)
	e.publish(events.NewEmergencyAlert, events.NewEmergencyAlertPayload{Alert: *alert, MatchingFood: matching})
	return alert, matching, nil
}

// RespondToAlert records a donor's offer of a listing against an active alert.
// Neither the alert nor the food changes status.
func (e *Engine) RespondToAlert(ctx context.Context, alertID, donorID, foodID string) (*models.EmergencyAlert, error) {
	if donorID == "" {
		return nil, validation(fmt.Errorf("donor is required"))
	}

	var alert *models.EmergencyAlert
	var food *models.Food

	err := e.update(ctx, "respond_to_alert", func(tx repository.Tx) error {
		a, err := tx.GetAlert(ctx, alertID)
		if err != nil {
			return err
		}
		if a == nil {
			return notFound("alert %s", alertID)
		}
		if a.Status != models.AlertStatusActive {
			return invalidState("alert is no longer active")
		}

		f, err := tx.GetFood(ctx, foodID)
		if err != nil {
			return err
		}
		if f == nil || f.Status != models.FoodStatusAvailable {
			return notFound("food %s is not available", foodID)
		}

		now := e.now()
		r := models.AlertResponse{
			DonorID:      donorID,
			FoodID:       f.ID,
			Status:       models.ResponseStatusPending,
			ResponseTime: now,
		}
		// The version bump orders this append against concurrent status changes.
		a.UpdatedAt = now
		if err := tx.UpdateAlert(ctx, a); err != nil {
			return err
		}
		if err := tx.AppendResponse(ctx, a.ID, r); err != nil {
			return err
		}
		a.Responses = append(a.Responses, r)

		alert, food = a, f
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("alert response recorded", "alert_id", alert.ID, "donor_id", donorID, "food_id", food.ID)
	e.publish(events.AlertResponse, events.AlertResponsePayload{Alert: *alert, Food: *food})
	return alert, nil
}

// UpdateAlertStatus sets the alert's status. Any of the four statuses is
// accepted from any current status.
func (e *Engine) UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus) (*models.EmergencyAlert, error) {
	if !status.Valid() {
		return nil, validation(fmt.Errorf("invalid alert status %q", status))
	}

	var alert *models.EmergencyAlert
	err := e.update(ctx, "update_alert_status", func(tx repository.Tx) error {
		a, err := tx.GetAlert(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return notFound("alert %s", id)
		}

		a.Status = status
		a.UpdatedAt = e.now()
		if err := tx.UpdateAlert(ctx, a); err != nil {
			return err
		}
		alert = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("alert status updated", "alert_id", alert.ID, "status", alert.Status)
	e.publish(events.AlertStatusUpdate, events.AlertPayload{Alert: *alert})
	return alert, nil
}

func (e *Engine) DeleteAlert(ctx context.Context, id string) error {
	err := e.update(ctx, "delete_alert", func(tx repository.Tx) error {
		deleted, err := tx.DeleteAlert(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("alert %s", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("alert deleted", "alert_id", id)
	e.publish(events.AlertDeleted, events.AlertDeletedPayload{ID: id})
	return nil
}

func (e *Engine) GetAlert(ctx context.Context, id string) (*models.EmergencyAlert, error) {
	var a *models.EmergencyAlert
	err := e.view(ctx, func(tx repository.Tx) error {
		var err error
		a, err = tx.GetAlert(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("alert %s", id)
	}
	return a, nil
}

// ListAlerts returns alerts ordered by priority, high first, then by deadline.
func (e *Engine) ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]models.EmergencyAlert, error) {
	var out []models.EmergencyAlert
	err := e.view(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListAlerts(ctx, filter)
		return err
	})
	return out, err
}
