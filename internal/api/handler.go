package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-food-rescue/internal/engine"
	"github.com/mr1hm/go-food-rescue/internal/geo"
	"github.com/mr1hm/go-food-rescue/internal/metrics"
	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

// Service is the set of core operations exposed over HTTP.
type Service interface {
	CreateFood(ctx context.Context, in models.Food) (*models.Food, []models.EmergencyAlert, error)
	GetFood(ctx context.Context, id string) (*models.Food, error)
	ListFood(ctx context.Context, filter repository.FoodFilter) ([]models.Food, error)
	UpdateFood(ctx context.Context, id string, upd models.FoodUpdate) (*models.Food, error)
	DeleteFood(ctx context.Context, id string) error
	MatchFood(ctx context.Context, foodID, shelterID string) (*models.Food, *models.Delivery, error)

	GetDelivery(ctx context.Context, id string) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, filter repository.DeliveryFilter) ([]models.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status models.DeliveryStatus) (*models.Delivery, error)
	CancelDelivery(ctx context.Context, id string) (*models.Delivery, error)
	RateDelivery(ctx context.Context, id string, rating int, feedback string) (*models.Delivery, error)

	CreateEmergencyAlert(ctx context.Context, in models.EmergencyAlert) (*models.EmergencyAlert, []models.Food, error)
	GetAlert(ctx context.Context, id string) (*models.EmergencyAlert, error)
	ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]models.EmergencyAlert, error)
	RespondToAlert(ctx context.Context, alertID, donorID, foodID string) (*models.EmergencyAlert, error)
	UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus) (*models.EmergencyAlert, error)
	DeleteAlert(ctx context.Context, id string) error

	CreateUser(ctx context.Context, in models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, role *models.Role) ([]models.User, error)
	SetAvailability(ctx context.Context, volunteerID string, slots []models.Availability) (*models.User, error)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Handler struct {
	svc     Service
	metrics *metrics.Metrics
}

func NewHandler(svc Service, m *metrics.Metrics) *Handler {
	return &Handler{
		svc:     svc,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := r.Group("/api")

	food := api.Group("/food")
	food.POST("", h.createFood)
	food.GET("", h.listFood)
	food.GET("/:id", h.getFood)
	food.PUT("/:id", h.updateFood)
	food.DELETE("/:id", h.deleteFood)
	food.POST("/:id/match", h.matchFood)

	deliveries := api.Group("/deliveries")
	deliveries.GET("", h.listDeliveries)
	deliveries.GET("/:id", h.getDelivery)
	deliveries.PUT("/:id/status", h.updateDeliveryStatus)
	deliveries.PUT("/:id/rate", h.rateDelivery)
	deliveries.PUT("/:id/cancel", h.cancelDelivery)

	emergency := api.Group("/emergency")
	emergency.POST("", h.createAlert)
	emergency.GET("", h.listAlerts)
	emergency.GET("/:id", h.getAlert)
	emergency.POST("/:id/respond", h.respondToAlert)
	emergency.PUT("/:id/status", h.updateAlertStatus)
	emergency.DELETE("/:id", h.deleteAlert)

	users := api.Group("/users")
	users.POST("", h.createUser)
	users.GET("", h.listUsers)
	users.GET("/:id", h.getUser)
	users.PUT("/:id/availability", h.setAvailability)

	api.GET("/map", h.getMap)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps core errors onto HTTP statuses. Unclassified errors are
// logged and reported without detail.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidState), errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func parseLimit(c *gin.Context) (int, error) {
	l := c.Query("limit")
	if l == "" {
		return defaultLimit, nil
	}
	lim, err := strconv.Atoi(l)
	if err != nil || lim < 1 || lim > maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return lim, nil
}

// parseTime reads an RFC 3339 query parameter; absent parameters yield nil.
func parseTime(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected RFC 3339 timestamp", key)
	}
	return &t, nil
}

// parseNear reads lat, lng and radius (kilometres) into a search circle.
func parseNear(c *gin.Context) (*geo.Circle, error) {
	lat, lng, radius := c.Query("lat"), c.Query("lng"), c.Query("radius")
	if lat == "" && lng == "" && radius == "" {
		return nil, nil
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	r, err3 := strconv.ParseFloat(radius, 64)
	if err1 != nil || err2 != nil || err3 != nil || r <= 0 {
		return nil, fmt.Errorf("lat, lng and a positive radius in km are required together")
	}
	center := models.Location{Latitude: la, Longitude: ln}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	return &geo.Circle{Center: center, RadiusMeters: r * 1000}, nil
}
