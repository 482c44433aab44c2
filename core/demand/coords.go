package demand

import (
	"math"

	"github.com/transitlab/busopt/core/model"
)

const earthRadiusKm = 6371.0

// Coordinates maps stop ids to positions.
type Coordinates map[string]model.LatLon

// NewCoordinates indexes stop positions by id.
func NewCoordinates(stops []model.Stop) Coordinates {
	c := make(Coordinates, len(stops))
	for _, s := range stops {
		c[s.ID] = model.LatLon{Lat: s.Lat, Lon: s.Lon}
	}
	return c
}

// Distance returns the great-circle distance in km between two stops, or 0
// when either endpoint has no known position.
func (c Coordinates) Distance(fromID, toID string) float64 {
	a, ok := c[fromID]
	if !ok {
		return 0
	}
	b, ok := c[toID]
	if !ok {
		return 0
	}
	return Haversine(a, b)
}

// Haversine computes the great-circle distance in km between two points.
func Haversine(a, b model.LatLon) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lon - a.Lon) * math.Pi / 180

	s := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}
