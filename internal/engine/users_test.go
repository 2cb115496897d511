package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

func TestCreateUser(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	rating := 5.0
	u, err := env.engine.CreateUser(ctx, models.User{
		Name:                "Sam",
		Role:                models.RoleVolunteer,
		Availability:        []models.Availability{mondayMorning()},
		CompletedDeliveries: 40, // ignored
		Rating:              &rating,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" || u.CompletedDeliveries != 0 || u.Rating != nil {
		t.Errorf("expected fresh stats, got %+v", u)
	}

	got, err := env.engine.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(got.Availability) != 1 || got.Availability[0] != mondayMorning() {
		t.Errorf("unexpected availability: %+v", got.Availability)
	}

	if _, err := env.engine.CreateUser(ctx, models.User{Name: "Shelter", Role: models.RoleShelter, Availability: []models.Availability{mondayMorning()}}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for shelter availability, got %v", err)
	}
	if _, err := env.engine.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers_ByRole(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v1 := env.user(t, models.RoleVolunteer)
	env.user(t, models.RoleShelter)
	v2 := env.user(t, models.RoleVolunteer)

	role := models.RoleVolunteer
	got, err := env.engine.ListUsers(ctx, &role)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != v1.ID || got[1].ID != v2.ID {
		t.Errorf("expected [%s %s], got %+v", v1.ID, v2.ID, got)
	}

	all, _ := env.engine.ListUsers(ctx, nil)
	if len(all) != 3 {
		t.Errorf("expected 3 users, got %d", len(all))
	}
}

func TestSetAvailability(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := env.user(t, models.RoleVolunteer)
	slots := []models.Availability{
		{Day: time.Saturday, StartTime: "08:00", EndTime: "17:30"},
		mondayMorning(),
	}
	got, err := env.engine.SetAvailability(ctx, v.ID, slots)
	if err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if len(got.Availability) != 2 {
		t.Errorf("expected 2 slots, got %+v", got.Availability)
	}

	stored, _ := env.engine.GetUser(ctx, v.ID)
	if len(stored.Availability) != 2 || stored.Availability[0].Day != time.Saturday {
		t.Errorf("unexpected stored availability: %+v", stored.Availability)
	}

	if _, err := env.engine.SetAvailability(ctx, v.ID, []models.Availability{{Day: time.Monday, StartTime: "14:00", EndTime: "09:00"}}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	shelter := env.user(t, models.RoleShelter)
	if _, err := env.engine.SetAvailability(ctx, shelter.ID, slots); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if _, err := env.engine.SetAvailability(ctx, "missing", slots); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
