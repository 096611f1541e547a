package ports

import (
	"context"

	"waste-route-service/internal/domain"
)

// Port: persistence for generated routes and the per-day generation log.
type RouteStore interface {
	// Atomically delete every route of date, insert routes and upsert the
	// success log. Returns the routes with their assigned ids.
	ReplaceRoutes(ctx context.Context, date string, routes []domain.StoredRoute, log domain.GenerationLog) ([]domain.StoredRoute, error)

	// Upsert a failed log outside of any generation transaction.
	RecordGenerationFailure(ctx context.Context, log domain.GenerationLog) error

	ListRoutes(ctx context.Context, date string) ([]domain.StoredRoute, error)
	ListGenerationLogs(ctx context.Context) ([]domain.GenerationLog, error)
}
