package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"waste-route-service/internal/domain"
	"waste-route-service/internal/platform/obs"
	"waste-route-service/internal/ports"
)

type GeneratorOptions struct {
	Depot    domain.Coordinates
	TimeZone *time.Location
	Fleet    FleetPolicy
	Assign   AssignPolicy
	// Hour of the generation day the routes are scheduled for.
	ScheduleHour int
}

func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		Depot:        domain.DefaultDepot,
		TimeZone:     time.UTC,
		Fleet:        DefaultFleetPolicy(),
		Assign:       DefaultAssignPolicy(),
		ScheduleHour: 8,
	}
}

// GenerationResult describes a completed run.
type GenerationResult struct {
	Date            string
	GeneratedAt     time.Time
	Routes          []domain.StoredRoute
	RouteCount      int
	TotalWasteKg    int
	TotalDistanceKm float64
	DriverCount     int
	FleetSize       int
	CraneVehicles   int
	LocationCount   int
	DueCount        int
	AssignedCount   int
	UnassignedCount int
	SkippedNotDue   int
	Turns           int
	Unassigned      []UnassignedJob
	Load            ports.LoadReport
}

// RouteGenerator runs the daily route generation pipeline.
type RouteGenerator struct {
	roster    ports.DriverRoster
	locations ports.LocationSource
	store     ports.RouteStore
	lock      ports.GenerationLock
	log       *zap.Logger
	opts      GeneratorOptions
	now       func() time.Time
}

func NewRouteGenerator(
	roster ports.DriverRoster,
	locations ports.LocationSource,
	store ports.RouteStore,
	lock ports.GenerationLock,
	log *zap.Logger,
	opts GeneratorOptions,
) *RouteGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TimeZone == nil {
		opts.TimeZone = time.UTC
	}
	return &RouteGenerator{
		roster:    roster,
		locations: locations,
		store:     store,
		lock:      lock,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock. Used by tests and the dbtool to pin the day.
func (g *RouteGenerator) WithClock(now func() time.Time) *RouteGenerator {
	g.now = now
	return g
}

// Generate builds and persists today's routes, replacing any routes already
// stored for today.
//
// Business-rule failures (no drivers, no locations, nothing due) are returned
// without touching the store. Any other failure is recorded as a failed
// generation log before the error is returned.
func (g *RouteGenerator) Generate(ctx context.Context) (res *GenerationResult, err error) {
	defer obs.Time(ctx, g.log, "routes.Generate")(&err)

	today := g.now().In(g.opts.TimeZone)
	date := today.Format(domain.DateLayout)

	release, err := g.lock.Acquire(ctx, "route-generation:"+date)
	if err != nil {
		if errors.Is(err, ports.ErrLockHeld) {
			return nil, errors.WithStack(ErrGenerationInProgress)
		}
		return nil, errors.Wrap(err, "generate routes: acquire lock")
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			g.log.Warn("release generation lock", zap.String("date", date), zap.Error(rerr))
		}
	}()

	driverCount, locationCount := 0, 0
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("generate routes: panic: %v", r)
			res = nil
		}
		if err != nil && !IsBusinessError(err) {
			g.recordFailure(ctx, date, driverCount, locationCount)
		}
	}()

	drivers, locations, report, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	driverCount, locationCount = len(drivers), len(locations)

	if len(drivers) == 0 {
		return nil, errors.WithStack(ErrNoDrivers)
	}
	if len(locations) == 0 {
		return nil, errors.WithStack(ErrNoLocations)
	}

	due, notDue := FilterDueToday(locations, today.Weekday())
	if len(due) == 0 {
		return nil, errors.WithStack(ErrNoDueLocations)
	}
	locationCount = len(due)

	craneJobs := 0
	for _, loc := range due {
		if loc.Class == domain.ClassCrane {
			craneJobs++
		}
	}

	fleet := ComposeFleet(drivers, craneJobs, g.opts.Fleet, g.log)
	assignment := AssignRoutes(due, fleet, g.opts.Depot, g.opts.Assign)

	scheduledAt := time.Date(today.Year(), today.Month(), today.Day(), g.opts.ScheduleHour, 0, 0, 0, g.opts.TimeZone)
	generatedAt := g.now().UTC()

	routes := make([]domain.StoredRoute, 0, len(fleet))
	for _, r := range assignment.NonEmpty() {
		routes = append(routes, domain.StoredRoute{
			DriverID:       r.Vehicle.ID,
			GenerationDate: date,
			Payload:        r.Payload(),
			Waypoints:      r.Waypoints(),
			Status:         domain.RouteStatusPending,
			ScheduledAt:    scheduledAt,
			CreatedAt:      generatedAt,
		})
	}

	saved, err := g.store.ReplaceRoutes(ctx, date, routes, domain.GenerationLog{
		GenerationDate: date,
		GeneratedAt:    generatedAt,
		DriverCount:    len(drivers),
		LocationCount:  len(due),
		Status:         domain.GenerationSuccess,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "generate routes: save routes for %s", date)
	}

	res = &GenerationResult{
		Date:            date,
		GeneratedAt:     generatedAt,
		Routes:          saved,
		RouteCount:      len(saved),
		DriverCount:     len(drivers),
		FleetSize:       len(fleet),
		LocationCount:   len(locations),
		DueCount:        len(due),
		AssignedCount:   assignment.Assigned,
		UnassignedCount: len(assignment.Unassigned),
		SkippedNotDue:   len(notDue),
		Turns:           assignment.Turns,
		Unassigned:      assignment.Unassigned,
		Load:            report,
	}
	for _, v := range fleet {
		if v.Class == domain.ClassCrane {
			res.CraneVehicles++
		}
	}
	distance := 0.0
	for _, r := range saved {
		res.TotalWasteKg += r.Payload.Summary.WasteKg
		distance += r.Payload.Summary.DistanceKm
	}
	res.TotalDistanceKm = domain.Round(distance, 1)

	g.log.Info("routes generated",
		zap.String("date", date),
		zap.Int("routes", res.RouteCount),
		zap.Int("due", res.DueCount),
		zap.Int("assigned", res.AssignedCount),
		zap.Int("unassigned", res.UnassignedCount),
		zap.Int("turns", res.Turns),
		zap.Int("total_waste_kg", res.TotalWasteKg),
		zap.Float64("total_distance_km", res.TotalDistanceKm),
	)

	return res, nil
}

// load fetches the roster and the collection points concurrently.
func (g *RouteGenerator) load(ctx context.Context) ([]domain.Driver, []domain.Location, ports.LoadReport, error) {
	var (
		drivers   []domain.Driver
		locations []domain.Location
		report    ports.LoadReport
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		drivers, err = g.roster.ListDrivers(egCtx)
		if err != nil {
			return errors.Wrap(err, "generate routes: list drivers")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		locations, report, err = g.locations.LoadLocations(egCtx)
		if err != nil {
			return errors.Wrap(err, "generate routes: load locations")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, ports.LoadReport{}, err
	}

	return drivers, locations, report, nil
}

// recordFailure writes the failed log for date. It runs detached from the
// request context so a cancelled caller still leaves a trace; its own error
// is only logged.
func (g *RouteGenerator) recordFailure(ctx context.Context, date string, driverCount, locationCount int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := g.store.RecordGenerationFailure(ctx, domain.GenerationLog{
		GenerationDate: date,
		GeneratedAt:    g.now().UTC(),
		DriverCount:    driverCount,
		LocationCount:  locationCount,
		Status:         domain.GenerationFailed,
	})
	if err != nil {
		g.log.Error("record generation failure",
			zap.String("date", date),
			zap.Error(fmt.Errorf("record failure log: %w", err)),
		)
	}
}
