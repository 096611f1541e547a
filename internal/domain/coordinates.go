package domain

// Immutable geographic coordinates (latitude, longitude) in degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

func NewCoordinates(lat, lng float64) Coordinates {
	return Coordinates{Lat: lat, Lng: lng}
}

// Return coordinates as [lat, lng] for polyline encoding and JSON arrays.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lat, c.Lng} }

// IsZero reports whether either component is unset.
func (c Coordinates) IsZero() bool { return c.Lat == 0 || c.Lng == 0 }

// DefaultDepot is the vehicle depot every route starts and ends at.
var DefaultDepot = Coordinates{Lat: 40.1826, Lng: 29.0665}
