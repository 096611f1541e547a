package domain

import (
	"math"
	"time"
)

// Represents a single collection stop in a vehicle route.
// DistanceKm is the leg length from the previous stop (or the depot),
// rounded to two decimals.
type RouteStop struct {
	Sequence     int
	LocationID   int
	LocationName string
	Coordinates  Coordinates
	WasteKg      int
	DistanceKm   float64
}

// Represents the route being built for one vehicle during a generation run.
// Stops are append-only; WasteKg, DistanceKm and Position follow the last stop.
type Route struct {
	Vehicle    Vehicle
	Stops      []RouteStop
	WasteKg    int
	DistanceKm float64
	CapacityKg int
	Position   Coordinates
}

func NewRoute(v Vehicle, depot Coordinates) *Route {
	return &Route{
		Vehicle:    v,
		Stops:      []RouteStop{},
		CapacityKg: v.CapacityKg,
		Position:   depot,
	}
}

// Visit appends a stop for loc reached after distanceKm and moves the vehicle there.
func (r *Route) Visit(loc Location, distanceKm float64) {
	r.Stops = append(r.Stops, RouteStop{
		Sequence:     len(r.Stops) + 1,
		LocationID:   loc.ID,
		LocationName: loc.Name,
		Coordinates:  loc.Coordinates,
		WasteKg:      loc.WasteKg,
		DistanceKm:   Round(distanceKm, 2),
	})
	r.WasteKg += loc.WasteKg
	r.DistanceKm += distanceKm
	r.Position = loc.Coordinates
}

func (r *Route) Empty() bool { return len(r.Stops) == 0 }

// Utilization returns the load as a percentage of rated capacity.
func (r *Route) Utilization() float64 {
	if r.CapacityKg <= 0 {
		return 0
	}
	return float64(r.WasteKg) / float64(r.CapacityKg) * 100
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

const (
	RouteStatusPending = "pending"
)

// RouteSummary is the aggregate block of a persisted route payload.
type RouteSummary struct {
	WasteKg                int     `json:"waste_kg"`
	StopCount              int     `json:"stop_count"`
	DistanceKm             float64 `json:"distance_km"`
	CapacityUtilizationPct float64 `json:"capacity_utilization_pct"`
}

// RoutePayloadStop is the persisted form of a RouteStop.
type RoutePayloadStop struct {
	Sequence     int     `json:"sequence"`
	LocationID   int     `json:"location_id"`
	LocationName string  `json:"location_name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	WasteKg      int     `json:"waste_kg"`
	DistanceKm   float64 `json:"distance_km"`
}

// RoutePayload is the structured route document stored with each route row.
type RoutePayload struct {
	VehicleName  string             `json:"vehicle_name"`
	VehicleClass string             `json:"vehicle_class"`
	Summary      RouteSummary       `json:"summary"`
	Stops        []RoutePayloadStop `json:"stops"`
}

type Waypoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StoredRoute is a route row as written to and read from the route store.
type StoredRoute struct {
	ID             int64
	DriverID       int
	GenerationDate string
	Payload        RoutePayload
	Waypoints      []Waypoint
	Status         string
	ScheduledAt    time.Time
	CreatedAt      time.Time
}

// Payload builds the persisted document for a finished route.
func (r *Route) Payload() RoutePayload {
	stops := make([]RoutePayloadStop, 0, len(r.Stops))
	for _, s := range r.Stops {
		stops = append(stops, RoutePayloadStop{
			Sequence:     s.Sequence,
			LocationID:   s.LocationID,
			LocationName: s.LocationName,
			Lat:          s.Coordinates.Lat,
			Lng:          s.Coordinates.Lng,
			WasteKg:      s.WasteKg,
			DistanceKm:   s.DistanceKm,
		})
	}

	return RoutePayload{
		VehicleName:  r.Vehicle.Name,
		VehicleClass: r.Vehicle.Class.Label(),
		Summary: RouteSummary{
			WasteKg:                r.WasteKg,
			StopCount:              len(r.Stops),
			DistanceKm:             Round(r.DistanceKm, 1),
			CapacityUtilizationPct: Round(r.Utilization(), 1),
		},
		Stops: stops,
	}
}

// Waypoints returns the stop coordinates in visiting order.
func (r *Route) Waypoints() []Waypoint {
	out := make([]Waypoint, 0, len(r.Stops))
	for _, s := range r.Stops {
		out = append(out, Waypoint{Lat: s.Coordinates.Lat, Lng: s.Coordinates.Lng})
	}
	return out
}
