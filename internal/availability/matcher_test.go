package availability

import (
	"testing"
	"time"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

// 2026-03-02 is a Monday.
func window(startHour, startMin, endHour, endMin int) models.TimeWindow {
	return models.TimeWindow{
		Start: time.Date(2026, 3, 2, startHour, startMin, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, endHour, endMin, 0, 0, time.UTC),
	}
}

func volunteer(id string, slots ...models.Availability) models.User {
	return models.User{ID: id, Name: id, Role: models.RoleVolunteer, Availability: slots}
}

func TestFirstFit_FindAvailableVolunteer(t *testing.T) {
	monMorning := models.Availability{Day: time.Monday, StartTime: "09:00", EndTime: "13:00"}
	tueMorning := models.Availability{Day: time.Tuesday, StartTime: "09:00", EndTime: "13:00"}
	monLate := models.Availability{Day: time.Monday, StartTime: "10:30", EndTime: "18:00"}

	tests := []struct {
		name       string
		window     models.TimeWindow
		candidates []models.User
		wantID     string
		wantFound  bool
	}{
		{
			name:       "covering interval",
			window:     window(10, 0, 12, 0),
			candidates: []models.User{volunteer("v1", monMorning)},
			wantID:     "v1",
			wantFound:  true,
		},
		{
			name:       "exact bounds",
			window:     window(9, 0, 13, 0),
			candidates: []models.User{volunteer("v1", monMorning)},
			wantID:     "v1",
			wantFound:  true,
		},
		{
			name:       "wrong weekday",
			window:     window(10, 0, 12, 0),
			candidates: []models.User{volunteer("v1", tueMorning)},
		},
		{
			name:       "starts too late",
			window:     window(10, 0, 12, 0),
			candidates: []models.User{volunteer("v1", monLate)},
		},
		{
			name:       "ends too early",
			window:     window(12, 0, 14, 0),
			candidates: []models.User{volunteer("v1", monMorning)},
		},
		{
			name:   "first fit in candidate order",
			window: window(11, 0, 12, 0),
			candidates: []models.User{
				volunteer("v1", tueMorning),
				volunteer("v2", monLate),
				volunteer("v3", monMorning),
			},
			wantID:    "v2",
			wantFound: true,
		},
		{
			name:       "second interval matches",
			window:     window(15, 0, 16, 0),
			candidates: []models.User{volunteer("v1", monMorning, monLate)},
			wantID:     "v1",
			wantFound:  true,
		},
		{
			name:       "no candidates",
			window:     window(10, 0, 12, 0),
			candidates: nil,
		},
		{
			name:   "seconds precision",
			window: window(9, 0, 13, 0),
			candidates: []models.User{
				volunteer("v1", models.Availability{Day: time.Monday, StartTime: "09:00:01", EndTime: "13:00:00"}),
			},
		},
	}

	m := NewFirstFit(time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := m.FindAvailableVolunteer(tt.window, tt.candidates)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if !found {
				if got != nil {
					t.Errorf("expected nil volunteer, got %+v", got)
				}
				return
			}
			if got.ID != tt.wantID {
				t.Errorf("got volunteer %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestFirstFit_CrossMidnightWindow(t *testing.T) {
	w := models.TimeWindow{
		Start: time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC),
	}
	// Clock comparison only: 23:00 >= 00:00 and 01:00 <= 23:59.
	candidates := []models.User{
		volunteer("v1", models.Availability{Day: time.Monday, StartTime: "00:00", EndTime: "23:59"}),
	}

	got, found := NewFirstFit(time.UTC).FindAvailableVolunteer(w, candidates)
	if !found || got.ID != "v1" {
		t.Errorf("expected literal clock comparison to match v1, got %+v %v", got, found)
	}
}

func TestFirstFit_UsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 15:00 UTC Monday is 10:00 local.
	w := window(15, 0, 16, 0)
	candidates := []models.User{
		volunteer("v1", models.Availability{Day: time.Monday, StartTime: "09:00", EndTime: "12:00"}),
	}

	if _, found := NewFirstFit(time.UTC).FindAvailableVolunteer(w, candidates); found {
		t.Error("expected no match in UTC")
	}
	if _, found := NewFirstFit(loc).FindAvailableVolunteer(w, candidates); !found {
		t.Error("expected match in UTC-5")
	}
}

func TestFirstFit_ReturnsCandidateFromSlice(t *testing.T) {
	candidates := []models.User{
		volunteer("v1", models.Availability{Day: time.Monday, StartTime: "00:00", EndTime: "23:59"}),
	}
	got, _ := NewFirstFit(nil).FindAvailableVolunteer(window(10, 0, 11, 0), candidates)
	if got != &candidates[0] {
		t.Error("expected pointer into candidate slice")
	}
}
