package ports

import (
	"context"

	"waste-route-service/internal/domain"
)

// LoadReport counts what happened to the source rows during a load.
type LoadReport struct {
	Rows              int `json:"rows"`
	Loaded            int `json:"loaded"`
	SkippedMalformed  int `json:"skipped_malformed"`
	SkippedOutOfArea  int `json:"skipped_out_of_area"`
	SkippedIncomplete int `json:"skipped_incomplete"`
	SyntheticWaste    int `json:"synthetic_waste"`
	SyntheticClass    int `json:"synthetic_class"`
}

// Port: a boundary for loading the collection points of a generation run.
// A missing source is not an error; it yields zero locations.
type LocationSource interface {
	LoadLocations(ctx context.Context) ([]domain.Location, LoadReport, error)
}
