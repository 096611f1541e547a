// Package app assembles the concrete adapters behind the ports. It is shared
// by the HTTP server and the dbtool CLI.
package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"waste-route-service/internal/adapters/lock"
	"waste-route-service/internal/adapters/locations"
	"waste-route-service/internal/adapters/repositories"
	"waste-route-service/internal/config"
	"waste-route-service/internal/domain"
	"waste-route-service/internal/geo"
	"waste-route-service/internal/platform/db"
	"waste-route-service/internal/ports"
	"waste-route-service/internal/services"
)

type App struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *sql.DB
	Dialect   repositories.Dialect
	Store     *repositories.SQLRouteStore
	Roster    *repositories.SQLDriverRoster
	Locations *locations.CSVLoader
	Lock      ports.GenerationLock
	Generator *services.RouteGenerator
	TimeZone  *time.Location

	closers []func() error
}

// New opens the database, migrates the schema and wires the generator.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	dialect, err := repositories.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DBPath
	if dialect == repositories.Postgres {
		dsn = cfg.DatabaseURL
	}

	conn, err := db.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, DB: conn, Dialect: dialect}
	a.closers = append(a.closers, conn.Close)

	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		a.Close()
		return nil, err
	}

	a.TimeZone, err = cfg.Location()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Lock, err = newLock(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	if rl, ok := a.Lock.(*lock.RedisLock); ok {
		a.closers = append(a.closers, rl.Close)
	}

	a.Store = repositories.NewSQLRouteStore(conn, dialect, log.Named("store"))
	a.Roster = repositories.NewSQLDriverRoster(conn)
	a.Locations = locations.NewCSVLoader(locations.CSVLoaderOptions{
		Path:           cfg.LocationsPath,
		Area:           geo.DefaultServiceArea(),
		AllowSynthetic: cfg.SyntheticFallback,
		Seed:           cfg.FallbackSeed,
	}, log.Named("locations"))

	opts, err := cfg.GeneratorOptions()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Generator = services.NewRouteGenerator(a.Roster, a.Locations, a.Store, a.Lock, log.Named("generator"), opts)

	return a, nil
}

func newLock(ctx context.Context, cfg *config.Config, log *zap.Logger) (ports.GenerationLock, error) {
	if cfg.RedisURL == "" {
		log.Info("using in-process generation lock")
		return lock.NewLocalLock(), nil
	}

	rl, err := lock.NewRedisLockFromURL(ctx, cfg.RedisURL, cfg.LockTTL)
	if err != nil {
		return nil, errors.WithHint(err, "check REDIS_URL or unset it to use the in-process lock")
	}
	log.Info("using redis generation lock")
	return rl, nil
}

// Today returns the current generation date in the service time zone.
func (a *App) Today() string {
	return time.Now().In(a.TimeZone).Format(domain.DateLayout)
}

// SeedDrivers loads the driver roster from the configured seed file.
func (a *App) SeedDrivers(ctx context.Context) (int, error) {
	return repositories.SeedDriversFromJSON(ctx, a.DB, a.Dialect, a.Config.SeedPath)
}

func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	return err
}
