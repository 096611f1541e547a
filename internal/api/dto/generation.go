package dto

import (
	"time"

	"waste-route-service/internal/domain"
	"waste-route-service/internal/ports"
	"waste-route-service/internal/services"
)

type UnassignedJobResponse struct {
	LocationID   int    `json:"location_id"`
	LocationName string `json:"location_name"`
	WasteKg      int    `json:"waste_kg"`
	VehicleClass string `json:"vehicle_class"`
	Reason       string `json:"reason"`
}

type GenerationResponse struct {
	Date            string                  `json:"date"`
	GeneratedAt     time.Time               `json:"generated_at"`
	RouteCount      int                     `json:"route_count"`
	TotalWasteKg    int                     `json:"total_waste_kg"`
	TotalDistanceKm float64                 `json:"total_distance_km"`
	DriverCount     int                     `json:"driver_count"`
	FleetSize       int                     `json:"fleet_size"`
	CraneVehicles   int                     `json:"crane_vehicles"`
	LocationCount   int                     `json:"location_count"`
	DueCount        int                     `json:"due_count"`
	AssignedCount   int                     `json:"assigned_count"`
	UnassignedCount int                     `json:"unassigned_count"`
	SkippedNotDue   int                     `json:"skipped_not_due"`
	Turns           int                     `json:"turns"`
	Load            ports.LoadReport        `json:"load"`
	Unassigned      []UnassignedJobResponse `json:"unassigned"`
	Routes          []RouteResponse         `json:"routes"`
}

func NewGenerationResponse(res *services.GenerationResult) GenerationResponse {
	unassigned := make([]UnassignedJobResponse, 0, len(res.Unassigned))
	for _, u := range res.Unassigned {
		unassigned = append(unassigned, UnassignedJobResponse{
			LocationID:   u.Location.ID,
			LocationName: u.Location.Name,
			WasteKg:      u.Location.WasteKg,
			VehicleClass: u.Location.Class.Label(),
			Reason:       string(u.Reason),
		})
	}

	return GenerationResponse{
		Date:            res.Date,
		GeneratedAt:     res.GeneratedAt,
		RouteCount:      res.RouteCount,
		TotalWasteKg:    res.TotalWasteKg,
		TotalDistanceKm: res.TotalDistanceKm,
		DriverCount:     res.DriverCount,
		FleetSize:       res.FleetSize,
		CraneVehicles:   res.CraneVehicles,
		LocationCount:   res.LocationCount,
		DueCount:        res.DueCount,
		AssignedCount:   res.AssignedCount,
		UnassignedCount: res.UnassignedCount,
		SkippedNotDue:   res.SkippedNotDue,
		Turns:           res.Turns,
		Load:            res.Load,
		Unassigned:      unassigned,
		Routes:          NewRouteResponses(res.Routes),
	}
}

type GenerationLogResponse struct {
	ID             int64     `json:"id"`
	GenerationDate string    `json:"generation_date"`
	GeneratedAt    time.Time `json:"generated_at"`
	DriverCount    int       `json:"driver_count"`
	LocationCount  int       `json:"location_count"`
	Status         string    `json:"status"`
}

type ListGenerationLogsResponse struct {
	Logs []GenerationLogResponse `json:"logs"`
}

func NewGenerationLogResponses(logs []domain.GenerationLog) ListGenerationLogsResponse {
	res := ListGenerationLogsResponse{Logs: make([]GenerationLogResponse, 0, len(logs))}
	for _, l := range logs {
		res.Logs = append(res.Logs, GenerationLogResponse(l))
	}
	return res
}

// Envelope wraps successful payloads.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}
