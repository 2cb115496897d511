package events

import (
	"time"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

type Name string

const (
	FoodMatched          Name = "food-matched"
	NewFoodListing       Name = "new-food-listing"
	FoodExpired          Name = "food-expired"
	DeliveryStatusUpdate Name = "delivery-status-update"
	DeliveryCancelled    Name = "delivery-cancelled"
	DeliveryRated        Name = "delivery-rated"
	NewEmergencyAlert    Name = "new-emergency-alert"
	AlertResponse        Name = "alert-response"
	AlertStatusUpdate    Name = "alert-status-update"
	AlertDeleted         Name = "alert-deleted"
)

type Event struct {
	Name    Name      `json:"name"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// Publisher accepts events after the change they describe is committed.
// Publish never blocks and never fails the caller.
type Publisher interface {
	Publish(e Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}

type FoodMatchedPayload struct {
	Food     models.Food     `json:"food"`
	Delivery models.Delivery `json:"delivery"`
}

type NewFoodListingPayload struct {
	Food           models.Food             `json:"food"`
	MatchingAlerts []models.EmergencyAlert `json:"matching_alerts"`
}

type FoodExpiredPayload struct {
	IDs []string `json:"ids"`
}

type DeliveryPayload struct {
	Delivery models.Delivery `json:"delivery"`
	Food     *models.Food    `json:"food,omitempty"`
}

type DeliveryRatedPayload struct {
	Delivery  models.Delivery `json:"delivery"`
	Volunteer models.User     `json:"volunteer"`
}

type NewEmergencyAlertPayload struct {
	Alert        models.EmergencyAlert `json:"alert"`
	MatchingFood []models.Food         `json:"matching_food"`
}

type AlertResponsePayload struct {
	Alert models.EmergencyAlert `json:"alert"`
	Food  models.Food           `json:"food"`
}

type AlertPayload struct {
	Alert models.EmergencyAlert `json:"alert"`
}

type AlertDeletedPayload struct {
	ID string `json:"id"`
}
