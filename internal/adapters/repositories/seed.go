package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

type DriverSeed struct {
	ID            int    `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	VehicleNumber string `json:"vehicle_number"`
}

// SeedDriversFromJSON upserts the driver roster from a JSON array file.
// Returns the number of drivers written.
func SeedDriversFromJSON(ctx context.Context, db *sql.DB, dialect Dialect, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, errors.Wrapf(err, "seed drivers: read %q", jsonPath)
	}

	var data []DriverSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, errors.Wrap(err, "seed drivers: parse json")
	}

	rows := make([]DriverSeed, 0, len(data))
	for i, item := range data {
		if item.ID <= 0 {
			return 0, errors.Newf("seed drivers: invalid id at index %d: %d", i+1, item.ID)
		}
		rows = append(rows, DriverSeed{
			ID:            item.ID,
			FirstName:     strings.TrimSpace(item.FirstName),
			LastName:      strings.TrimSpace(item.LastName),
			Email:         strings.TrimSpace(item.Email),
			VehicleNumber: strings.TrimSpace(item.VehicleNumber),
		})
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "seed drivers: begin tx")
	}
	defer tx.Rollback()

	query := dialect.Rebind(`
	INSERT INTO drivers (
		id,
		first_name,
		last_name,
		email,
		vehicle_number
	)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		email = EXCLUDED.email,
		vehicle_number = EXCLUDED.vehicle_number;
	`)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, errors.Wrap(err, "seed drivers: prepare insert")
	}
	defer stmt.Close()

	for _, d := range rows {
		if _, err := stmt.ExecContext(ctx, d.ID, d.FirstName, d.LastName, d.Email, d.VehicleNumber); err != nil {
			return 0, errors.Wrapf(err, "seed drivers: insert id=%d", d.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "seed drivers: commit tx")
	}

	return len(rows), nil
}
