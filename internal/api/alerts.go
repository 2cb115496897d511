package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

type foodNeedRequest struct {
	Category models.Category `json:"category" binding:"required"`
	Quantity int             `json:"quantity" binding:"required,min=1"`
	Unit     models.Unit     `json:"unit" binding:"required"`
	Urgency  models.Urgency  `json:"urgency" binding:"required"`
}

type createAlertRequest struct {
	ShelterID   string               `json:"shelter_id" binding:"required"`
	Title       string               `json:"title" binding:"required"`
	Description string               `json:"description" binding:"required"`
	Priority    models.AlertPriority `json:"priority" binding:"required,oneof=high medium low"`
	FoodNeeds   []foodNeedRequest    `json:"food_needs" binding:"required,min=1,dive"`
	Location    locationRequest      `json:"location"`
	Deadline    time.Time            `json:"deadline" binding:"required"`
}

func (h *Handler) createAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	needs := make([]models.FoodNeed, len(req.FoodNeeds))
	for i, n := range req.FoodNeeds {
		needs[i] = models.FoodNeed{Category: n.Category, Quantity: n.Quantity, Unit: n.Unit, Urgency: n.Urgency}
	}

	alert, matching, err := h.svc.CreateEmergencyAlert(c.Request.Context(), models.EmergencyAlert{
		ShelterID:   req.ShelterID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		FoodNeeds:   needs,
		Location:    req.Location.toModel(),
		Deadline:    req.Deadline,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": alert, "matching_food": matching})
}

func (h *Handler) listAlerts(c *gin.Context) {
	var filter repository.AlertFilter
	var err error

	if filter.Limit, err = parseLimit(c); err != nil {
		badRequest(c, err)
		return
	}
	if s := c.Query("status"); s != "" {
		status := models.AlertStatus(s)
		if !status.Valid() {
			badRequest(c, errInvalidParam("status", s))
			return
		}
		filter.Status = &status
	}
	if p := c.Query("priority"); p != "" {
		priority := models.AlertPriority(p)
		if !priority.Valid() {
			badRequest(c, errInvalidParam("priority", p))
			return
		}
		filter.Priority = &priority
	}
	if s := c.Query("category"); s != "" {
		category := models.Category(s)
		if !category.Valid() {
			badRequest(c, errInvalidParam("category", s))
			return
		}
		filter.Category = &category
	}
	if filter.MinDeadline, err = parseTime(c, "min_deadline"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.MaxDeadline, err = parseTime(c, "max_deadline"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.Near, err = parseNear(c); err != nil {
		badRequest(c, err)
		return
	}

	alerts, err := h.svc.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts, "count": len(alerts)})
}

func (h *Handler) getAlert(c *gin.Context) {
	alert, err := h.svc.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alert})
}

type respondRequest struct {
	DonorID string `json:"donor_id" binding:"required"`
	FoodID  string `json:"food_id" binding:"required"`
}

func (h *Handler) respondToAlert(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	alert, err := h.svc.RespondToAlert(c.Request.Context(), c.Param("id"), req.DonorID, req.FoodID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alert})
}

type alertStatusRequest struct {
	Status models.AlertStatus `json:"status" binding:"required"`
}

func (h *Handler) updateAlertStatus(c *gin.Context) {
	var req alertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	alert, err := h.svc.UpdateAlertStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alert})
}

func (h *Handler) deleteAlert(c *gin.Context) {
	if err := h.svc.DeleteAlert(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func errInvalidParam(name, value string) error {
	return fmt.Errorf("invalid %s: %q", name, value)
}
