package models

import "time"

type DeliveryStatus string

const (
	DeliveryStatusScheduled  DeliveryStatus = "scheduled"
	DeliveryStatusInProgress DeliveryStatus = "in-progress"
	DeliveryStatusCompleted  DeliveryStatus = "completed"
	DeliveryStatusCancelled  DeliveryStatus = "cancelled"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusScheduled, DeliveryStatusInProgress, DeliveryStatusCompleted, DeliveryStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryStatusCompleted || s == DeliveryStatusCancelled
}

// EstimatedDeliveryOffset is the fixed placeholder added to the pickup time.
const EstimatedDeliveryOffset = 30 * time.Minute

type Delivery struct {
	ID                    string         `json:"id"`
	FoodID                string         `json:"food_id"`
	VolunteerID           string         `json:"volunteer_id"`
	ShelterID             string         `json:"shelter_id"`
	Status                DeliveryStatus `json:"status"`
	PickupTime            time.Time      `json:"pickup_time"`
	EstimatedDeliveryTime time.Time      `json:"estimated_delivery_time"`
	ActualDeliveryTime    *time.Time     `json:"actual_delivery_time,omitempty"`
	Notes                 string         `json:"notes,omitempty"`
	Rating                *int           `json:"rating,omitempty"`
	Feedback              string         `json:"feedback,omitempty"`
	Version               int64          `json:"version"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)
