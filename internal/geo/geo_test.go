package geo

import (
	"math"
	"testing"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

func TestDistance(t *testing.T) {
	nyc := models.Location{Latitude: 40.7128, Longitude: -74.0060}
	la := models.Location{Latitude: 34.0522, Longitude: -118.2437}

	d := Distance(nyc, la)
	// ~3936 km
	if math.Abs(d-3936e3) > 20e3 {
		t.Errorf("expected ~3936km, got %.0fm", d)
	}

	if Distance(nyc, nyc) != 0 {
		t.Error("expected zero distance to self")
	}
}

func TestCircle_Contains(t *testing.T) {
	center := models.Location{Latitude: 40.7128, Longitude: -74.0060}
	c := Circle{Center: center, RadiusMeters: 5000}

	tests := []struct {
		name string
		loc  models.Location
		want bool
	}{
		{"center", center, true},
		{"near", models.Location{Latitude: 40.7200, Longitude: -74.0000}, true},
		{"far", models.Location{Latitude: 41.5, Longitude: -74.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Contains(tt.loc); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.loc, got, tt.want)
			}
		})
	}
}

func TestCircle_BoundsNearPole(t *testing.T) {
	c := Circle{Center: models.Location{Latitude: 89.99, Longitude: 10}, RadiusMeters: 5000}
	_, maxLat, minLng, maxLng := c.Bounds()
	if maxLat != 90 || minLng != -180 || maxLng != 180 {
		t.Errorf("expected full longitude range near the pole, got maxLat=%f lng=[%f,%f]", maxLat, minLng, maxLng)
	}
}

func TestCircle_BoundsContainCircle(t *testing.T) {
	c := Circle{Center: models.Location{Latitude: 51.5, Longitude: -0.12}, RadiusMeters: 10000}
	minLat, maxLat, minLng, maxLng := c.Bounds()

	p := models.Location{Latitude: 51.5, Longitude: -0.12 + 0.14}
	if !c.Contains(p) {
		t.Fatalf("expected point within 10km")
	}
	if p.Latitude < minLat || p.Latitude > maxLat || p.Longitude < minLng || p.Longitude > maxLng {
		t.Errorf("bounds [%f,%f]x[%f,%f] exclude contained point %+v", minLat, maxLat, minLng, maxLng, p)
	}
}
