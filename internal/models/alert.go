package models

import (
	"fmt"
	"time"
)

type AlertPriority string

const (
	AlertPriorityHigh   AlertPriority = "high"
	AlertPriorityMedium AlertPriority = "medium"
	AlertPriorityLow    AlertPriority = "low"
)

func (p AlertPriority) Valid() bool {
	switch p {
	case AlertPriorityHigh, AlertPriorityMedium, AlertPriorityLow:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertStatusActive             AlertStatus = "active"
	AlertStatusPartiallyFulfilled AlertStatus = "partially-fulfilled"
	AlertStatusFulfilled          AlertStatus = "fulfilled"
	AlertStatusCancelled          AlertStatus = "cancelled"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusPartiallyFulfilled, AlertStatusFulfilled, AlertStatusCancelled:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyToday     Urgency = "today"
	UrgencyThisWeek  Urgency = "this-week"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyImmediate, UrgencyToday, UrgencyThisWeek:
		return true
	}
	return false
}

type ResponseStatus string

const (
	ResponseStatusPending   ResponseStatus = "pending"
	ResponseStatusAccepted  ResponseStatus = "accepted"
	ResponseStatusDelivered ResponseStatus = "delivered"
	ResponseStatusCancelled ResponseStatus = "cancelled"
)

type FoodNeed struct {
	Category Category `json:"category"`
	Quantity int      `json:"quantity"`
	Unit     Unit     `json:"unit"`
	Urgency  Urgency  `json:"urgency"`
}

type AlertResponse struct {
	DonorID      string         `json:"donor_id"`
	FoodID       string         `json:"food_id"`
	Status       ResponseStatus `json:"status"`
	ResponseTime time.Time      `json:"response_time"`
}

type EmergencyAlert struct {
	ID          string          `json:"id"`
	ShelterID   string          `json:"shelter_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    AlertPriority   `json:"priority"`
	FoodNeeds   []FoodNeed      `json:"food_needs"`
	Location    Location        `json:"location"`
	Deadline    time.Time       `json:"deadline"`
	Status      AlertStatus     `json:"status"`
	Responses   []AlertResponse `json:"responses"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NormalizeTimes puts the deadline in the form it is read back in.
func (a *EmergencyAlert) NormalizeTimes() {
	a.Deadline = utc(a.Deadline)
}

func (a *EmergencyAlert) Validate() error {
	if a.ShelterID == "" {
		return fmt.Errorf("shelter is required")
	}
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if a.Description == "" {
		return fmt.Errorf("description is required")
	}
	if !a.Priority.Valid() {
		return fmt.Errorf("invalid priority: %q", a.Priority)
	}
	if len(a.FoodNeeds) == 0 {
		return fmt.Errorf("at least one food need is required")
	}
	for i, n := range a.FoodNeeds {
		if !n.Category.Valid() {
			return fmt.Errorf("food need %d: invalid category: %q", i, n.Category)
		}
		if n.Quantity < 1 {
			return fmt.Errorf("food need %d: quantity must be at least 1", i)
		}
		if !n.Unit.Valid() {
			return fmt.Errorf("food need %d: invalid unit: %q", i, n.Unit)
		}
		if !n.Urgency.Valid() {
			return fmt.Errorf("food need %d: invalid urgency: %q", i, n.Urgency)
		}
	}
	if a.Deadline.IsZero() {
		return fmt.Errorf("deadline is required")
	}
	return a.Location.Validate()
}

// Categories returns the distinct categories named by the alert's needs, in need order.
func (a *EmergencyAlert) Categories() []Category {
	seen := make(map[Category]bool, len(a.FoodNeeds))
	out := make([]Category, 0, len(a.FoodNeeds))
	for _, n := range a.FoodNeeds {
		if !seen[n.Category] {
			seen[n.Category] = true
			out = append(out, n.Category)
		}
	}
	return out
}
