package ports

import (
	"context"

	"waste-route-service/internal/domain"
)

// Port: a boundary for retrieving the drivers available for routing.
type DriverRoster interface {
	// Return drivers in stable roster order (ascending id).
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
}
