package engine

import (
	"context"
	"log/slog"

	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

func (e *Engine) CreateUser(ctx context.Context, in models.User) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, validation(err)
	}

	u := in
	u.ID = e.newID()
	u.CompletedDeliveries = 0
	u.Rating = nil
	u.Version = 0
	u.CreatedAt = e.now()

	err := e.update(ctx, "create_user", func(tx repository.Tx) error {
		return tx.AddUser(ctx, &u)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("user created", "user_id", u.ID, "role", u.Role)
	return &u, nil
}

func (e *Engine) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u *models.User
	err := e.view(ctx, func(tx repository.Tx) error {
		var err error
		u, err = tx.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("user %s", id)
	}
	return u, nil
}

// ListUsers returns users in registration order, optionally limited to one role.
func (e *Engine) ListUsers(ctx context.Context, role *models.Role) ([]models.User, error) {
	var out []models.User
	err := e.view(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListUsers(ctx, repository.UserFilter{Role: role})
		return err
	})
	return out, err
}

// SetAvailability replaces a volunteer's weekly availability.
func (e *Engine) SetAvailability(ctx context.Context, volunteerID string, slots []models.Availability) (*models.User, error) {
	for _, s := range slots {
		if err := s.Validate(); err != nil {
			return nil, validation(err)
		}
	}

	var user *models.User
	err := e.update(ctx, "set_availability", func(tx repository.Tx) error {
		u, err := tx.GetUser(ctx, volunteerID)
		if err != nil {
			return err
		}
		if u == nil {
			return notFound("user %s", volunteerID)
		}
		if u.Role != models.RoleVolunteer {
			return invalidState("user %s is not a volunteer", volunteerID)
		}

		u.Availability = slots
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("availability updated", "user_id", user.ID, "slots", len(slots))
	return user, nil
}
