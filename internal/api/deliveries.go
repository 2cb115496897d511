package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

func (h *Handler) listDeliveries(c *gin.Context) {
	filter := repository.DeliveryFilter{
		FoodID:      c.Query("food_id"),
		VolunteerID: c.Query("volunteer_id"),
		ShelterID:   c.Query("shelter_id"),
	}
	var err error

	if filter.Limit, err = parseLimit(c); err != nil {
		badRequest(c, err)
		return
	}
	if s := c.Query("status"); s != "" {
		status := models.DeliveryStatus(s)
		if !status.Valid() {
			badRequest(c, errInvalidParam("status", s))
			return
		}
		filter.Status = &status
	}
	if filter.MinPickupTime, err = parseTime(c, "min_pickup"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.MaxPickupTime, err = parseTime(c, "max_pickup"); err != nil {
		badRequest(c, err)
		return
	}

	deliveries, err := h.svc.ListDeliveries(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": deliveries, "count": len(deliveries)})
}

func (h *Handler) getDelivery(c *gin.Context) {
	d, err := h.svc.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": d})
}

type deliveryStatusRequest struct {
	Status models.DeliveryStatus `json:"status" binding:"required"`
}

func (h *Handler) updateDeliveryStatus(c *gin.Context) {
	var req deliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.svc.UpdateDeliveryStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": d})
}

type rateDeliveryRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback"`
}

func (h *Handler) rateDelivery(c *gin.Context) {
	var req rateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.svc.RateDelivery(c.Request.Context(), c.Param("id"), req.Rating, req.Feedback)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": d})
}

func (h *Handler) cancelDelivery(c *gin.Context) {
	d, err := h.svc.CancelDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": d})
}
