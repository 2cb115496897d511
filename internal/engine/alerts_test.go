package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mr1hm/go-food-rescue/internal/events"
	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

func alertInput(shelterID string, deadline time.Time, categories ...models.Category) models.EmergencyAlert {
	needs := make([]models.FoodNeed, len(categories))
	for i, c := range categories {
		needs[i] = models.FoodNeed{Category: c, Quantity: 10, Unit: models.UnitServings, Urgency: models.UrgencyToday}
	}
	return models.EmergencyAlert{
		ShelterID:   shelterID,
		Title:       "Winter storm intake",
		Description: "Extra residents tonight",
		Priority:    models.AlertPriorityHigh,
		FoodNeeds:   needs,
		Location:    models.Location{Latitude: 40.73, Longitude: -73.99},
		Deadline:    deadline,
	}
}

func TestCreateEmergencyAlert_MatchesFood(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	donor := env.user(t, models.RoleDonor)
	shelter := env.user(t, models.RoleShelter)
	deadline := base.Add(24 * time.Hour)

	later := env.food(t, donor.ID, models.CategoryProduce, deadline.Add(time.Hour))
	// Expiring at or before the deadline, or in another category, never matches.
	env.food(t, donor.ID, models.CategoryProduce, deadline)
	env.food(t, donor.ID, models.CategoryProduce, deadline.Add(-time.Hour))
	env.food(t, donor.ID, models.CategoryDairy, deadline.Add(time.Hour))
	reserved := env.food(t, donor.ID, models.CategoryProduce, deadline.Add(2*time.Hour))
	env.user(t, models.RoleVolunteer, mondayMorning())
	if _, _, err := env.engine.MatchFood(ctx, reserved.ID, shelter.ID); err != nil {
		t.Fatalf("reserve food: %v", err)
	}
	env.events.reset()

	alert, matching, err := env.engine.CreateEmergencyAlert(ctx, alertInput(shelter.ID, deadline, models.CategoryProduce, models.CategoryProduce))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	if alert.Status != models.AlertStatusActive || len(alert.Responses) != 0 || alert.ID == "" {
		t.Errorf("unexpected alert: %+v", alert)
	}
	if len(matching) != 1 || matching[0].ID != later.ID {
		t.Errorf("expected only %s to match, got %+v", later.ID, matching)
	}

	e := env.events.last()
	payload, ok := e.Payload.(events.NewEmergencyAlertPayload)
	if e.Name != events.NewEmergencyAlert || !ok || len(payload.MatchingFood) != 1 {
		t.Errorf("unexpected event: %+v", e)
	}

	stored, err := env.engine.GetAlert(ctx, alert.ID)
	if err != nil {
		t.Fatalf("get alert: %v", err)
	}
	if len(stored.FoodNeeds) != 2 || stored.Title != "Winter storm intake" {
		t.Errorf("unexpected stored alert: %+v", stored)
	}
}

func TestCreateEmergencyAlert_Validation(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	donor := env.user(t, models.RoleDonor)
	shelter := env.user(t, models.RoleShelter)

	if _, _, err := env.engine.CreateEmergencyAlert(ctx, alertInput(donor.ID, base, models.CategoryMeat)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-shelter, got %v", err)
	}
	if _, _, err := env.engine.CreateEmergencyAlert(ctx, alertInput(shelter.ID, base)); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation without needs, got %v", err)
	}
	bad := alertInput(shelter.ID, base, models.CategoryMeat)
	bad.Priority = "urgent"
	if _, _, err := env.engine.CreateEmergencyAlert(ctx, bad); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for priority, got %v", err)
	}
}

func TestRespondToAlert(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	donor := env.user(t, models.RoleDonor)
	shelter := env.user(t, models.RoleShelter)
	f := env.food(t, donor.ID, models.CategoryPrepared, base.Add(48*time.Hour))
	alert, _, err := env.engine.CreateEmergencyAlert(ctx, alertInput(shelter.ID, base.Add(24*time.Hour), models.CategoryPrepared))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	env.clock.Advance(10 * time.Minute)
	env.events.reset()

	got, err := env.engine.RespondToAlert(ctx, alert.ID, donor.ID, f.ID)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(got.Responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(got.Responses))
	}
	r := got.Responses[0]
	if r.DonorID != donor.ID || r.FoodID != f.ID || r.Status != models.ResponseStatusPending || !r.ResponseTime.Equal(base.Add(10*time.Minute)) {
		t.Errorf("unexpected response: %+v", r)
	}
	if got.Status != models.AlertStatusActive {
		t.Errorf("expected alert to stay active, got %s", got.Status)
	}
	food, _ := env.engine.GetFood(ctx, f.ID)
	if food.Status != models.FoodStatusAvailable {
		t.Errorf("expected food to stay available, got %s", food.Status)
	}
	if names := env.events.names(); len(names) != 1 || names[0] != events.AlertResponse {
		t.Errorf("expected [alert-response], got %v", names)
	}

	if _, err := env.engine.RespondToAlert(ctx, alert.ID, donor.ID, f.ID); err != nil {
		t.Fatalf("second respond: %v", err)
	}
	stored, _ := env.engine.GetAlert(ctx, alert.ID)
	if len(stored.Responses) != 2 {
		t.Errorf("expected responses appended in order, got %+v", stored.Responses)
	}
}

func TestRespondToAlert_Errors(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	donor := env.user(t, models.RoleDonor)
	shelter := env.user(t, models.RoleShelter)
	alert, _, err := env.engine.CreateEmergencyAlert(ctx, alertInput(shelter.ID, base.Add(24*time.Hour), models.CategoryPrepared))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}

	if _, err := env.engine.RespondToAlert(ctx, "missing", donor.ID, "food"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing alert, got %v", err)
	}
	if _, err := env.engine.RespondToAlert(ctx, alert.ID, donor.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing food, got %v", err)
	}

	for _, status := range []models.AlertStatus{models.AlertStatusPartiallyFulfilled, models.AlertStatusFulfilled, models.AlertStatusCancelled} {
		if _, err := env.engine.UpdateAlertStatus(ctx, alert.ID, status); err != nil {
			t.Fatalf("set %s: %v", status, err)
		}
		// Checked before the food, so a bogus food id still yields InvalidState.
		if _, err := env.engine.RespondToAlert(ctx, alert.ID, donor.ID, "missing"); !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s: expected ErrInvalidState, got %v", status, err)
		}
	}
}

func TestUpdateAlertStatus(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	shelter := env.user(t, models.RoleShelter)
	alert, _, err := env.engine.CreateEmergencyAlert(ctx, alertInput(shelter.ID, base.Add(24*time.Hour), models.CategoryMeat))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}

	// Any status may follow any other.
	for _, status := range []models.AlertStatus{models.AlertStatusFulfilled, models.AlertStatusActive, models.AlertStatusCancelled} {
		got, err := env.engine.UpdateAlertStatus(ctx, alert.ID, status)
		if err != nil {
			t.Fatalf("set %s: %v", status, err)
		}
		if got.Status != status {
			t.Errorf("expected %s, got %s", status, got.Status)
		}
	}
	if env.events.last().Name != events.AlertStatusUpdate {
		t.Errorf("expected alert-status-update, got %s", env.events.last().Name)
	}

	if _, err := env.engine.UpdateAlertStatus(ctx, "missing", models.AlertStatusActive); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.engine.UpdateAlertStatus(ctx, alert.ID, "done"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteAlert(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	shelter := env.user(t, models.RoleShelter)
	alert, _, err := env.engine.CreateEmergencyAlert(ctx, alertInput(shelter.ID, base.Add(24*time.Hour), models.CategoryMeat))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}

	if err := env.engine.DeleteAlert(ctx, alert.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if env.events.last().Name != events.AlertDeleted {
		t.Errorf("expected alert-deleted, got %s", env.events.last().Name)
	}
	if _, err := env.engine.GetAlert(ctx, alert.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := env.engine.DeleteAlert(ctx, alert.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListAlerts_PriorityThenDeadline(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	shelter := env.user(t, models.RoleShelter)
	create := func(p models.AlertPriority, deadline time.Time) string {
		in := alertInput(shelter.ID, deadline, models.CategoryPantry)
		in.Priority = p
		a, _, err := env.engine.CreateEmergencyAlert(ctx, in)
		if err != nil {
			t.Fatalf("create alert: %v", err)
		}
		return a.ID
	}
	low := create(models.AlertPriorityLow, base.Add(time.Hour))
	highLate := create(models.AlertPriorityHigh, base.Add(3*time.Hour))
	medium := create(models.AlertPriorityMedium, base.Add(time.Hour))
	highEarly := create(models.AlertPriorityHigh, base.Add(2*time.Hour))

	got, err := env.engine.ListAlerts(ctx, repository.AlertFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{highEarly, highLate, medium, low}
	if len(got) != len(want) {
		t.Fatalf("expected %d alerts, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestCreateEmergencyAlert_SubMillisecondExpiry(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	donor := env.user(t, models.RoleDonor)
	shelter := env.user(t, models.RoleShelter)
	deadline := base.Add(24 * time.Hour)

	later := env.food(t, donor.ID, models.CategoryPrepared, deadline.Add(500*time.Microsecond))
	env.food(t, donor.ID, models.CategoryPrepared, deadline)

	_, matching, err := env.engine.CreateEmergencyAlert(ctx, alertInput(shelter.ID, deadline, models.CategoryPrepared))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	if len(matching) != 1 || matching[0].ID != later.ID {
		t.Errorf("expected only %s to expire after the deadline, got %d listings", later.ID, len(matching))
	}
}

func TestCreateFood_SubMillisecondDeadline(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	donor := env.user(t, models.RoleDonor)
	shelter := env.user(t, models.RoleShelter)
	expiry := base.Add(24 * time.Hour)

	alert, _, err := env.engine.CreateEmergencyAlert(ctx, alertInput(shelter.ID, expiry.Add(500*time.Microsecond), models.CategoryProduce))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}

	loc := time.FixedZone("UTC-5", -5*3600)
	f, matching, err := env.engine.CreateFood(ctx, models.Food{
		DonorID:    donor.ID,
		Title:      "Pears",
		Quantity:   2,
		Unit:       models.UnitBags,
		Category:   models.CategoryProduce,
		ExpiryDate: expiry.In(loc),
		PickupTime: models.TimeWindow{Start: base.In(loc), End: base.Add(time.Hour).In(loc)},
		Location:   models.Location{Latitude: 40.7, Longitude: -74},
	})
	if err != nil {
		t.Fatalf("create food: %v", err)
	}
	if len(matching) != 1 || matching[0].ID != alert.ID {
		t.Errorf("expected alert %s to match, got %d alerts", alert.ID, len(matching))
	}

	stored, err := env.engine.GetFood(ctx, f.ID)
	if err != nil {
		t.Fatalf("get food: %v", err)
	}
	if !stored.ExpiryDate.Equal(f.ExpiryDate) || !stored.PickupTime.End.Equal(f.PickupTime.End) {
		t.Errorf("expected times to read back unchanged, created %v got %v", f.ExpiryDate, stored.ExpiryDate)
	}
	if f.ExpiryDate.String() != stored.ExpiryDate.String() {
		t.Errorf("expected created and stored expiry to print alike, got %s and %s", f.ExpiryDate, stored.ExpiryDate)
	}
}
