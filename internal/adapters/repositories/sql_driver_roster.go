package repositories

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"waste-route-service/internal/domain"
)

// SQL-backed implementation of the DriverRoster port.
type SQLDriverRoster struct{ DB *sql.DB }

func NewSQLDriverRoster(db *sql.DB) *SQLDriverRoster {
	return &SQLDriverRoster{DB: db}
}

// Return every driver in ascending id order.
func (s *SQLDriverRoster) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	if s.DB == nil {
		return nil, errors.New("sql driver roster: DB is nil")
	}

	query := `
	SELECT
		id,
		first_name,
		last_name,
		email,
		vehicle_number
	FROM drivers
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list drivers: query drivers table")
	}
	defer rows.Close()

	drivers := make([]domain.Driver, 0, 16)
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.VehicleNumber); err != nil {
			return nil, errors.Wrap(err, "list drivers: scan row")
		}
		drivers = append(drivers, d)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list drivers: row iteration")
	}

	return drivers, nil
}
