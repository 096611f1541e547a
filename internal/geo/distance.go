// Package geo holds the great-circle math used to order collection stops.
package geo

import (
	"math"

	"waste-route-service/internal/domain"
)

const earthRadiusKM = 6371.0

func degreeToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// Distance returns the haversine distance in km between two points.
// Any zero coordinate means "unknown position" and yields 0.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == 0 || lng1 == 0 || lat2 == 0 || lng2 == 0 {
		return 0
	}

	latOne := degreeToRadians(lat1)
	latTwo := degreeToRadians(lat2)
	dLat := latTwo - latOne
	dLng := degreeToRadians(lng2) - degreeToRadians(lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latOne)*math.Cos(latTwo)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// Between is Distance over domain coordinates.
func Between(a, b domain.Coordinates) float64 {
	return Distance(a.Lat, a.Lng, b.Lat, b.Lng)
}
