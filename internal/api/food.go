package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

type timeWindowRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

type locationRequest struct {
	Latitude  float64 `json:"lat" binding:"min=-90,max=90"`
	Longitude float64 `json:"lng" binding:"min=-180,max=180"`
	Address   string  `json:"address"`
}

func (l locationRequest) toModel() models.Location {
	return models.Location{Latitude: l.Latitude, Longitude: l.Longitude, Address: l.Address}
}

type createFoodRequest struct {
	DonorID             string            `json:"donor_id" binding:"required"`
	Title               string            `json:"title" binding:"required"`
	Description         string            `json:"description"`
	Quantity            int               `json:"quantity" binding:"required,min=1"`
	Unit                models.Unit       `json:"unit" binding:"required"`
	Category            models.Category   `json:"category" binding:"required"`
	ExpiryDate          time.Time         `json:"expiry_date" binding:"required"`
	PickupTime          timeWindowRequest `json:"pickup_time"`
	Location            locationRequest   `json:"location"`
	Allergens           []string          `json:"allergens"`
	DietaryRestrictions []string          `json:"dietary_restrictions"`
}

func (h *Handler) createFood(c *gin.Context) {
	var req createFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	food, alerts, err := h.svc.CreateFood(c.Request.Context(), models.Food{
		DonorID:             req.DonorID,
		Title:               req.Title,
		Description:         req.Description,
		Quantity:            req.Quantity,
		Unit:                req.Unit,
		Category:            req.Category,
		ExpiryDate:          req.ExpiryDate,
		PickupTime:          models.TimeWindow{Start: req.PickupTime.Start, End: req.PickupTime.End},
		Location:            req.Location.toModel(),
		Allergens:           req.Allergens,
		DietaryRestrictions: req.DietaryRestrictions,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": food, "matching_alerts": alerts})
}

func (h *Handler) listFood(c *gin.Context) {
	filter, err := foodFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	foods, err := h.svc.ListFood(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": foods, "count": len(foods)})
}

func foodFilter(c *gin.Context) (repository.FoodFilter, error) {
	var filter repository.FoodFilter
	var err error

	if filter.Limit, err = parseLimit(c); err != nil {
		return filter, err
	}
	if s := c.Query("status"); s != "" {
		status := models.FoodStatus(s)
		if !status.Valid() {
			return filter, errInvalidParam("status", s)
		}
		filter.Status = &status
	}
	if s := c.Query("category"); s != "" {
		category := models.Category(s)
		if !category.Valid() {
			return filter, errInvalidParam("category", s)
		}
		filter.Categories = []models.Category{category}
	}
	if filter.MinExpiry, err = parseTime(c, "min_expiry"); err != nil {
		return filter, err
	}
	if filter.MaxExpiry, err = parseTime(c, "max_expiry"); err != nil {
		return filter, err
	}
	if filter.Near, err = parseNear(c); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) getFood(c *gin.Context) {
	food, err := h.svc.GetFood(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": food})
}

// updateFoodRequest fields are optional; absent fields keep their value.
type updateFoodRequest struct {
	Title               *string            `json:"title" binding:"omitempty,min=1"`
	Description         *string            `json:"description"`
	Quantity            *int               `json:"quantity" binding:"omitempty,min=1"`
	Unit                *models.Unit       `json:"unit"`
	Category            *models.Category   `json:"category"`
	ExpiryDate          *time.Time         `json:"expiry_date"`
	PickupTime          *timeWindowRequest `json:"pickup_time"`
	Location            *locationRequest   `json:"location"`
	Allergens           []string           `json:"allergens"`
	DietaryRestrictions []string           `json:"dietary_restrictions"`
}

func (r updateFoodRequest) toModel() models.FoodUpdate {
	upd := models.FoodUpdate{
		Title:               r.Title,
		Description:         r.Description,
		Quantity:            r.Quantity,
		Unit:                r.Unit,
		Category:            r.Category,
		ExpiryDate:          r.ExpiryDate,
		Allergens:           r.Allergens,
		DietaryRestrictions: r.DietaryRestrictions,
	}
	if r.PickupTime != nil {
		upd.PickupTime = &models.TimeWindow{Start: r.PickupTime.Start, End: r.PickupTime.End}
	}
	if r.Location != nil {
		loc := r.Location.toModel()
		upd.Location = &loc
	}
	return upd
}

func (h *Handler) updateFood(c *gin.Context) {
	var req updateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	food, err := h.svc.UpdateFood(c.Request.Context(), c.Param("id"), req.toModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": food})
}

func (h *Handler) deleteFood(c *gin.Context) {
	if err := h.svc.DeleteFood(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type matchFoodRequest struct {
	ShelterID string `json:"shelter_id" binding:"required"`
}

func (h *Handler) matchFood(c *gin.Context) {
	var req matchFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	food, delivery, err := h.svc.MatchFood(c.Request.Context(), c.Param("id"), req.ShelterID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"food": food, "delivery": delivery}})
}
