package geo

import (
	"math"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

const earthRadiusMeters = 6371000.0

// Circle is a search area around a point.
type Circle struct {
	Center       models.Location
	RadiusMeters float64
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b models.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func (c Circle) Contains(p models.Location) bool {
	return Distance(c.Center, p) <= c.RadiusMeters
}

// Bounds returns a lat/lng box enclosing the circle, used to prefilter rows
// before the exact distance check.
func (c Circle) Bounds() (minLat, maxLat, minLng, maxLng float64) {
	dLat := c.RadiusMeters / earthRadiusMeters * 180 / math.Pi
	minLat = math.Max(-90, c.Center.Latitude-dLat)
	maxLat = math.Min(90, c.Center.Latitude+dLat)

	cos := math.Cos(c.Center.Latitude * math.Pi / 180)
	if cos < 1e-9 || maxLat == 90 || minLat == -90 {
		return minLat, maxLat, -180, 180
	}
	dLng := dLat / cos
	if dLng >= 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, c.Center.Longitude - dLng, c.Center.Longitude + dLng
}
