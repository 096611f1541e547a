package domain

import "strings"

// VehicleClass is the equipment category a collection point requires.
type VehicleClass string

const (
	ClassStandard VehicleClass = "STANDARD"
	ClassCrane    VehicleClass = "CRANE"
)

// Label returns the display form used in route payloads ("Standard", "Crane").
func (c VehicleClass) Label() string {
	if c == ClassCrane {
		return "Crane"
	}
	return "Standard"
}

// ParseVehicleClass maps a free-text vehicle type to a class.
// Anything mentioning a crane ("crane", Turkish "vinç"/"vincli") is crane-class.
func ParseVehicleClass(s string) VehicleClass {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "crane") || strings.Contains(lower, "vinc") || strings.Contains(lower, "vinç") {
		return ClassCrane
	}
	return ClassStandard
}

// Represents a collection point as loaded for a single generation run.
// Locations are immutable once loaded; the assignment engine tracks
// assignment state separately.
type Location struct {
	ID              int
	Name            string
	Coordinates     Coordinates
	WasteKg         int
	Class           VehicleClass
	WeeklyFrequency float64
}
