package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
)

// InitSchema creates the drivers, routes and route_generation_logs tables.
func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "init schema: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	createDriversQuery := `
	CREATE TABLE IF NOT EXISTS drivers (
		id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		vehicle_number TEXT NOT NULL DEFAULT ''
	);
	`

	createRoutesQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS routes (
		id %s,
		driver_id INTEGER NOT NULL REFERENCES drivers(id),
		generation_date TEXT NOT NULL,
		route_data TEXT NOT NULL,
		waypoints TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		scheduled_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`, dialect.autoID())

	createRoutesIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_routes_generation_date
	ON routes(generation_date);
	`

	// One row per calendar day; the unique date is the duplicate-run guard.
	createLogsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS route_generation_logs (
		id %s,
		generation_date TEXT NOT NULL UNIQUE,
		generated_at TEXT NOT NULL,
		driver_count INTEGER NOT NULL,
		location_count INTEGER NOT NULL,
		status TEXT NOT NULL
	);
	`, dialect.autoID())

	statements := []string{
		createDriversQuery,
		createRoutesQuery,
		createRoutesIndexQuery,
		createLogsQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "init schema: exec statement #%d", i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "init schema: commit tx")
	}

	return nil
}
