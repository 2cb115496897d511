package models

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleDonor     Role = "donor"
	RoleShelter   Role = "shelter"
	RoleVolunteer Role = "volunteer"
)

func (r Role) Valid() bool {
	return r == RoleDonor || r == RoleShelter || r == RoleVolunteer
}

// Availability is a recurring weekly interval. Start and End are wall-clock
// times formatted HH:MM or HH:MM:SS.
type Availability struct {
	Day       time.Weekday `json:"day"`
	StartTime string       `json:"start_time"`
	EndTime   string       `json:"end_time"`
}

func (a Availability) Validate() error {
	if a.Day < time.Sunday || a.Day > time.Saturday {
		return fmt.Errorf("invalid day: %d", a.Day)
	}
	start, err := ParseClock(a.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(a.EndTime)
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("availability start %s is after end %s", a.StartTime, a.EndTime)
	}
	return nil
}

type User struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Role                Role           `json:"role"`
	Availability        []Availability `json:"availability,omitempty"`
	CompletedDeliveries int            `json:"completed_deliveries"`
	Rating              *float64       `json:"rating,omitempty"`
	Version             int64          `json:"version"`
	CreatedAt           time.Time      `json:"created_at"`
}

func (u *User) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role: %q", u.Role)
	}
	if u.Role != RoleVolunteer && len(u.Availability) > 0 {
		return fmt.Errorf("only volunteers have availability")
	}
	for _, a := range u.Availability {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}
