package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

type availabilityRequest struct {
	Day       *int   `json:"day" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

func toAvailability(reqs []availabilityRequest) []models.Availability {
	out := make([]models.Availability, len(reqs))
	for i, r := range reqs {
		out[i] = models.Availability{Day: time.Weekday(*r.Day), StartTime: r.StartTime, EndTime: r.EndTime}
	}
	return out
}

type createUserRequest struct {
	Name         string                `json:"name" binding:"required"`
	Role         models.Role           `json:"role" binding:"required,oneof=donor shelter volunteer"`
	Availability []availabilityRequest `json:"availability" binding:"dive"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.svc.CreateUser(c.Request.Context(), models.User{
		Name:         req.Name,
		Role:         req.Role,
		Availability: toAvailability(req.Availability),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": u})
}

func (h *Handler) listUsers(c *gin.Context) {
	var role *models.Role
	if r := c.Query("role"); r != "" {
		parsed := models.Role(r)
		if !parsed.Valid() {
			badRequest(c, errInvalidParam("role", r))
			return
		}
		role = &parsed
	}

	users, err := h.svc.ListUsers(c.Request.Context(), role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "count": len(users)})
}

func (h *Handler) getUser(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u})
}

type setAvailabilityRequest struct {
	Availability []availabilityRequest `json:"availability" binding:"dive"`
}

func (h *Handler) setAvailability(c *gin.Context) {
	var req setAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.svc.SetAvailability(c.Request.Context(), c.Param("id"), toAvailability(req.Availability))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u})
}
