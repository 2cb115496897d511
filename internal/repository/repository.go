package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/go-food-rescue/internal/geo"
	"github.com/mr1hm/go-food-rescue/internal/models"
)

// ErrConflict is returned when a record changed between read and update.
var ErrConflict = errors.New("version conflict")

type FoodFilter struct {
	Limit        int
	Status       *models.FoodStatus
	Categories   []models.Category
	ExpiresAfter *time.Time // strictly after
	MinExpiry    *time.Time
	MaxExpiry    *time.Time
	Near         *geo.Circle
}

type DeliveryFilter struct {
	Limit         int
	Status        *models.DeliveryStatus
	FoodID        string
	VolunteerID   string
	ShelterID     string
	MinPickupTime *time.Time
	MaxPickupTime *time.Time
}

type AlertFilter struct {
	Limit         int
	Status        *models.AlertStatus
	Priority      *models.AlertPriority
	Category      *models.Category // any food need of this category
	DeadlineAfter *time.Time       // strictly after
	MinDeadline   *time.Time
	MaxDeadline   *time.Time
	Near          *geo.Circle
}

type UserFilter struct {
	Role *models.Role
}

type FoodRepository interface {
	AddFood(ctx context.Context, f *models.Food) error
	GetFood(ctx context.Context, id string) (*models.Food, error)
	ListFood(ctx context.Context, opts FoodFilter) ([]models.Food, error)
	UpdateFood(ctx context.Context, f *models.Food) error
	DeleteFood(ctx context.Context, id string) (bool, error)
	ExpireFood(ctx context.Context, now time.Time) ([]string, error)
}

type DeliveryRepository interface {
	AddDelivery(ctx context.Context, d *models.Delivery) error
	GetDelivery(ctx context.Context, id string) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, opts DeliveryFilter) ([]models.Delivery, error)
	UpdateDelivery(ctx context.Context, d *models.Delivery) error
	VolunteerRatings(ctx context.Context, volunteerID string) ([]int, error)
}

type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.EmergencyAlert) error
	GetAlert(ctx context.Context, id string) (*models.EmergencyAlert, error)
	ListAlerts(ctx context.Context, opts AlertFilter) ([]models.EmergencyAlert, error)
	UpdateAlert(ctx context.Context, a *models.EmergencyAlert) error
	AppendResponse(ctx context.Context, alertID string, r models.AlertResponse) error
	DeleteAlert(ctx context.Context, id string) (bool, error)
}

type UserRepository interface {
	AddUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, opts UserFilter) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

// Tx is the set of repositories bound to one transaction. Get methods return
// (nil, nil) when the record does not exist.
type Tx interface {
	FoodRepository
	DeliveryRepository
	AlertRepository
	UserRepository
}

// Store runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
