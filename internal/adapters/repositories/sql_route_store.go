package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"waste-route-service/internal/domain"
	"waste-route-service/internal/platform/obs"
)

// SQL-backed implementation of the RouteStore port.
type SQLRouteStore struct {
	DB      *sql.DB
	Dialect Dialect
	Log     *zap.Logger
}

func NewSQLRouteStore(db *sql.DB, dialect Dialect, log *zap.Logger) *SQLRouteStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLRouteStore{DB: db, Dialect: dialect, Log: log}
}

// ReplaceRoutes swaps the routes of date for routes and upserts the success
// log in a single transaction. Nothing is written if any step fails.
func (s *SQLRouteStore) ReplaceRoutes(
	ctx context.Context,
	date string,
	routes []domain.StoredRoute,
	log domain.GenerationLog,
) (_ []domain.StoredRoute, err error) {
	defer obs.Time(ctx, s.Log, "routes.store.ReplaceRoutes")(&err)

	if s.DB == nil {
		return nil, errors.New("sql route store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "replace routes: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM routes WHERE generation_date = ?;`), date)
	if err != nil {
		return nil, errors.Wrapf(err, "replace routes: delete routes of %s", date)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.Log.Info("replacing routes", zap.String("date", date), zap.Int64("previous", n))
	}

	insert := s.Dialect.Rebind(`
	INSERT INTO routes (
		driver_id,
		generation_date,
		route_data,
		waypoints,
		status,
		scheduled_at,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`)

	saved := make([]domain.StoredRoute, 0, len(routes))
	for _, r := range routes {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, errors.Wrapf(err, "replace routes: encode route of driver_id=%d", r.DriverID)
		}
		waypoints, err := json.Marshal(r.Waypoints)
		if err != nil {
			return nil, errors.Wrapf(err, "replace routes: encode waypoints of driver_id=%d", r.DriverID)
		}

		err = tx.QueryRowContext(ctx, insert,
			r.DriverID,
			date,
			string(payload),
			string(waypoints),
			r.Status,
			formatTime(r.ScheduledAt),
			formatTime(r.CreatedAt),
		).Scan(&r.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "replace routes: insert route of driver_id=%d", r.DriverID)
		}
		r.GenerationDate = date
		saved = append(saved, r)
	}

	upsert := s.Dialect.Rebind(`
	INSERT INTO route_generation_logs (
		generation_date,
		generated_at,
		driver_count,
		location_count,
		status
	)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (generation_date) DO UPDATE
	SET generated_at = EXCLUDED.generated_at,
		driver_count = EXCLUDED.driver_count,
		location_count = EXCLUDED.location_count,
		status = EXCLUDED.status;
	`)
	if _, err := tx.ExecContext(ctx, upsert,
		date, formatTime(log.GeneratedAt), log.DriverCount, log.LocationCount, log.Status,
	); err != nil {
		return nil, errors.Wrapf(err, "replace routes: upsert generation log of %s", date)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "replace routes: commit tx")
	}

	return saved, nil
}

// RecordGenerationFailure writes a failed log for the day. An existing
// success row is kept: the routes it describes are still current.
func (s *SQLRouteStore) RecordGenerationFailure(ctx context.Context, log domain.GenerationLog) error {
	if s.DB == nil {
		return errors.New("sql route store: DB is nil")
	}

	query := s.Dialect.Rebind(`
	INSERT INTO route_generation_logs (
		generation_date,
		generated_at,
		driver_count,
		location_count,
		status
	)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (generation_date) DO UPDATE
	SET generated_at = EXCLUDED.generated_at,
		driver_count = EXCLUDED.driver_count,
		location_count = EXCLUDED.location_count,
		status = EXCLUDED.status
	WHERE route_generation_logs.status <> 'success';
	`)
	if _, err := s.DB.ExecContext(ctx, query,
		log.GenerationDate, formatTime(log.GeneratedAt), log.DriverCount, log.LocationCount, domain.GenerationFailed,
	); err != nil {
		return errors.Wrapf(err, "record generation failure: upsert log of %s", log.GenerationDate)
	}

	return nil
}

// ListRoutes returns the routes of date in insertion order, or every stored
// route (newest day first) when date is empty.
func (s *SQLRouteStore) ListRoutes(ctx context.Context, date string) ([]domain.StoredRoute, error) {
	if s.DB == nil {
		return nil, errors.New("sql route store: DB is nil")
	}

	query := `
	SELECT
		id,
		driver_id,
		generation_date,
		route_data,
		waypoints,
		status,
		scheduled_at,
		created_at
	FROM routes
	`
	args := []any{}
	if date != "" {
		query += ` WHERE generation_date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY generation_date DESC, id;`

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "list routes: query routes table")
	}
	defer rows.Close()

	routes := make([]domain.StoredRoute, 0, 16)
	for rows.Next() {
		var (
			r                      domain.StoredRoute
			payload, waypoints     string
			scheduledAt, createdAt string
		)
		if err := rows.Scan(&r.ID, &r.DriverID, &r.GenerationDate, &payload, &waypoints, &r.Status, &scheduledAt, &createdAt); err != nil {
			return nil, errors.Wrap(err, "list routes: scan row")
		}
		if err := json.Unmarshal([]byte(payload), &r.Payload); err != nil {
			return nil, errors.Wrapf(err, "list routes: decode route_data of id=%d", r.ID)
		}
		if err := json.Unmarshal([]byte(waypoints), &r.Waypoints); err != nil {
			return nil, errors.Wrapf(err, "list routes: decode waypoints of id=%d", r.ID)
		}
		if r.ScheduledAt, err = parseTime(scheduledAt); err != nil {
			return nil, errors.Wrapf(err, "list routes: scheduled_at of id=%d", r.ID)
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, errors.Wrapf(err, "list routes: created_at of id=%d", r.ID)
		}
		routes = append(routes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list routes: row iteration")
	}

	return routes, nil
}

// ListGenerationLogs returns every generation log, newest day first.
func (s *SQLRouteStore) ListGenerationLogs(ctx context.Context) ([]domain.GenerationLog, error) {
	if s.DB == nil {
		return nil, errors.New("sql route store: DB is nil")
	}

	query := `
	SELECT
		id,
		generation_date,
		generated_at,
		driver_count,
		location_count,
		status
	FROM route_generation_logs
	ORDER BY generation_date DESC;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list generation logs: query route_generation_logs table")
	}
	defer rows.Close()

	logs := make([]domain.GenerationLog, 0, 16)
	for rows.Next() {
		var (
			l           domain.GenerationLog
			generatedAt string
		)
		if err := rows.Scan(&l.ID, &l.GenerationDate, &generatedAt, &l.DriverCount, &l.LocationCount, &l.Status); err != nil {
			return nil, errors.Wrap(err, "list generation logs: scan row")
		}
		if l.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, errors.Wrapf(err, "list generation logs: generated_at of id=%d", l.ID)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list generation logs: row iteration")
	}

	return logs, nil
}

// Timestamps are stored as RFC 3339 text, offset included.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
