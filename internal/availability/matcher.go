package availability

import (
	"time"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

// Matcher picks a volunteer able to cover a pickup window.
type Matcher interface {
	FindAvailableVolunteer(window models.TimeWindow, candidates []models.User) (*models.User, bool)
}

// FirstFit returns the first candidate, in the order given, with an
// availability interval on the weekday of the window start that covers the
// window's wall-clock span. Windows crossing midnight are compared by clock
// time only.
type FirstFit struct {
	Location *time.Location
}

func NewFirstFit(loc *time.Location) *FirstFit {
	if loc == nil {
		loc = time.UTC
	}
	return &FirstFit{Location: loc}
}

func (m *FirstFit) FindAvailableVolunteer(window models.TimeWindow, candidates []models.User) (*models.User, bool) {
	loc := m.Location
	if loc == nil {
		loc = time.UTC
	}
	start := window.Start.In(loc)
	end := window.End.In(loc)
	day := start.Weekday()
	from := models.ClockOf(start)
	to := models.ClockOf(end)

	for i := range candidates {
		if covers(candidates[i].Availability, day, from, to) {
			return &candidates[i], true
		}
	}
	return nil, false
}

func covers(intervals []models.Availability, day time.Weekday, from, to models.ClockTime) bool {
	for _, a := range intervals {
		if a.Day != day {
			continue
		}
		start, err := models.ParseClock(a.StartTime)
		if err != nil {
			continue
		}
		end, err := models.ParseClock(a.EndTime)
		if err != nil {
			continue
		}
		if start <= from && end >= to {
			return true
		}
	}
	return false
}
