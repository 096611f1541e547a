package dto

import (
	"time"

	"github.com/twpayne/go-polyline"

	"waste-route-service/internal/domain"
)

type RouteStopResponse struct {
	Sequence     int     `json:"sequence"`
	LocationID   int     `json:"location_id"`
	LocationName string  `json:"location_name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	WasteKg      int     `json:"waste_kg"`
	DistanceKm   float64 `json:"distance_km"`
}

type RouteResponse struct {
	ID             int64               `json:"id"`
	DriverID       int                 `json:"driver_id"`
	GenerationDate string              `json:"generation_date"`
	VehicleName    string              `json:"vehicle_name"`
	VehicleClass   string              `json:"vehicle_class"`
	Summary        domain.RouteSummary `json:"summary"`
	Stops          []RouteStopResponse `json:"stops"`
	Waypoints      []domain.Waypoint   `json:"waypoints"`
	// Google encoded polyline of the waypoints.
	Polyline    string    `json:"polyline"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListRoutesResponse struct {
	Date   string          `json:"date,omitempty"`
	Count  int             `json:"count"`
	Routes []RouteResponse `json:"routes"`
}

func NewRouteResponse(r domain.StoredRoute) RouteResponse {
	stops := make([]RouteStopResponse, 0, len(r.Payload.Stops))
	for _, s := range r.Payload.Stops {
		stops = append(stops, RouteStopResponse(s))
	}

	waypoints := r.Waypoints
	if waypoints == nil {
		waypoints = []domain.Waypoint{}
	}

	return RouteResponse{
		ID:             r.ID,
		DriverID:       r.DriverID,
		GenerationDate: r.GenerationDate,
		VehicleName:    r.Payload.VehicleName,
		VehicleClass:   r.Payload.VehicleClass,
		Summary:        r.Payload.Summary,
		Stops:          stops,
		Waypoints:      waypoints,
		Polyline:       EncodePolyline(waypoints),
		Status:         r.Status,
		ScheduledAt:    r.ScheduledAt,
		CreatedAt:      r.CreatedAt,
	}
}

func NewRouteResponses(routes []domain.StoredRoute) []RouteResponse {
	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, NewRouteResponse(r))
	}
	return out
}

// EncodePolyline encodes waypoints with precision 5, lat before lng.
func EncodePolyline(waypoints []domain.Waypoint) string {
	if len(waypoints) == 0 {
		return ""
	}
	coords := make([][]float64, 0, len(waypoints))
	for _, w := range waypoints {
		coords = append(coords, domain.NewCoordinates(w.Lat, w.Lng).CoordsToList())
	}
	return string(polyline.EncodeCoords(coords))
}
