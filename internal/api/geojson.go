package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-food-rescue/internal/models"
	"github.com/mr1hm/go-food-rescue/internal/repository"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func point(l models.Location) Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{l.Longitude, l.Latitude}}
}

func toGeoJSON(foods []models.Food, alerts []models.EmergencyAlert) FeatureCollection {
	features := make([]Feature, 0, len(foods)+len(alerts))

	for _, f := range foods {
		features = append(features, Feature{
			Type:     "Feature",
			Geometry: point(f.Location),
			Properties: map[string]any{
				"kind":        "food",
				"id":          f.ID,
				"title":       f.Title,
				"category":    f.Category,
				"quantity":    f.Quantity,
				"unit":        f.Unit,
				"expiry_date": f.ExpiryDate,
				"status":      f.Status,
			},
		})
	}

	for _, a := range alerts {
		features = append(features, Feature{
			Type:     "Feature",
			Geometry: point(a.Location),
			Properties: map[string]any{
				"kind":       "alert",
				"id":         a.ID,
				"title":      a.Title,
				"priority":   a.Priority,
				"categories": a.Categories(),
				"deadline":   a.Deadline,
				"status":     a.Status,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// getMap renders available listings and active alerts as GeoJSON points.
func (h *Handler) getMap(c *gin.Context) {
	near, err := parseNear(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := parseLimit(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	available := models.FoodStatusAvailable
	foods, err := h.svc.ListFood(c.Request.Context(), repository.FoodFilter{
		Status: &available,
		Near:   near,
		Limit:  limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	active := models.AlertStatusActive
	alerts, err := h.svc.ListAlerts(c.Request.Context(), repository.AlertFilter{
		Status: &active,
		Near:   near,
		Limit:  limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(foods, alerts))
}
