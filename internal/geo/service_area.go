package geo

import (
	"github.com/golang/geo/s2"

	"waste-route-service/internal/domain"
)

// ServiceArea is the closed lat/lng box outside of which loaded points are
// treated as bad data.
type ServiceArea struct {
	rect s2.Rect
}

func NewServiceArea(minLat, minLng, maxLat, maxLng float64) ServiceArea {
	rect := s2.EmptyRect().
		AddPoint(s2.LatLngFromDegrees(minLat, minLng)).
		AddPoint(s2.LatLngFromDegrees(maxLat, maxLng))
	return ServiceArea{rect: rect}
}

// DefaultServiceArea covers the Bursa/Nilufer collection district.
func DefaultServiceArea() ServiceArea {
	return NewServiceArea(39.5, 28.5, 40.5, 29.5)
}

func (a ServiceArea) Contains(c domain.Coordinates) bool {
	return a.rect.ContainsLatLng(s2.LatLngFromDegrees(c.Lat, c.Lng))
}
