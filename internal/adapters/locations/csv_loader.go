// Package locations loads the collection points of a generation run from the
// municipal CSV export.
package locations

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"waste-route-service/internal/domain"
	"waste-route-service/internal/geo"
	"waste-route-service/internal/platform/obs"
	"waste-route-service/internal/ports"
)

// Source columns. Lookups are case-sensitive, matching the export.
const (
	colLocationID       = "LocationID"
	colLatitude         = "Latitude"
	colLongitude        = "Longitude"
	colCoordinates      = "Coordinates"
	colDailyWasteTon    = "DailyWaste_Ton"
	colContainerCount   = "ContainerCount"
	colUndergroundCount = "underground_count"
	colVehicleType      = "RequiredVehicleType"
	colName             = "Mahalle_Adi"
	colNameKey          = "Mahalle_Key"
	colWeeklyFrequency  = "WeeklyFrequency"
)

const (
	kgPerTon       = 1000
	kgPerContainer = 180

	syntheticMinKg     = 200
	syntheticMaxKg     = 800
	syntheticCraneRate = 0.15
)

type CSVLoaderOptions struct {
	// Path to a .csv file or a .zip archive holding one.
	Path string
	Area geo.ServiceArea
	// When false, rows lacking waste or vehicle data are skipped instead of
	// being filled with synthetic values.
	AllowSynthetic bool
	// Seed for synthetic values; 0 seeds from the clock.
	Seed int64
}

// CSVLoader implements ports.LocationSource over a CSV export.
type CSVLoader struct {
	opts CSVLoaderOptions
	log  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewCSVLoader(opts CSVLoaderOptions, log *zap.Logger) *CSVLoader {
	if log == nil {
		log = zap.NewNop()
	}
	seed := uint64(opts.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &CSVLoader{
		opts: opts,
		log:  log,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// LoadLocations reads every usable row of the source. A missing or unreadable
// source yields no locations and no error; a corrupt archive is an error.
func (l *CSVLoader) LoadLocations(ctx context.Context) (_ []domain.Location, _ ports.LoadReport, err error) {
	defer obs.Time(ctx, l.log, "locations.LoadLocations")(&err)

	r, name, closeFn, err := l.open()
	if err != nil {
		if errors.IsAny(err, os.ErrNotExist, os.ErrPermission) {
			l.log.Warn("location source unavailable", zap.String("path", l.opts.Path), zap.Error(err))
			return []domain.Location{}, ports.LoadReport{}, nil
		}
		return nil, ports.LoadReport{}, err
	}
	defer closeFn()

	l.mu.Lock()
	defer l.mu.Unlock()

	locs, report, err := l.parse(ctx, r)
	if err != nil {
		return nil, report, errors.Wrapf(err, "load locations: parse %s", name)
	}

	l.log.Info("locations loaded",
		zap.String("source", name),
		zap.Int("rows", report.Rows),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped_malformed", report.SkippedMalformed),
		zap.Int("skipped_out_of_area", report.SkippedOutOfArea),
		zap.Int("skipped_incomplete", report.SkippedIncomplete),
		zap.Int("synthetic_waste", report.SyntheticWaste),
		zap.Int("synthetic_class", report.SyntheticClass),
	)

	return locs, report, nil
}

// open returns a reader over the CSV content, unpacking a .zip when needed.
func (l *CSVLoader) open() (io.Reader, string, func(), error) {
	path := l.opts.Path
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return openArchive(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, errors.Wrapf(err, "load locations: open %q", path)
	}
	return f, filepath.Base(path), func() { f.Close() }, nil
}

// openArchive picks the first CSV whose name mentions "master", else the
// first CSV in the archive.
func openArchive(path string) (io.Reader, string, func(), error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", nil, errors.Wrapf(err, "load locations: open archive %q", path)
	}

	var target *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}
		if strings.Contains(strings.ToLower(filepath.Base(f.Name)), "master") {
			target = f
			break
		}
		if target == nil {
			target = f
		}
	}
	if target == nil {
		zr.Close()
		return nil, "", nil, errors.Newf("load locations: no csv file in archive %q", path)
	}

	rc, err := target.Open()
	if err != nil {
		zr.Close()
		return nil, "", nil, errors.Wrapf(err, "load locations: open %s in archive", target.Name)
	}

	return rc, target.Name, func() {
		rc.Close()
		zr.Close()
	}, nil
}

type header map[string]int

func (h header) get(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (l *CSVLoader) parse(ctx context.Context, r io.Reader) ([]domain.Location, ports.LoadReport, error) {
	var report ports.LoadReport

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	names, err := cr.Read()
	if err == io.EOF {
		return []domain.Location{}, report, nil
	}
	if err != nil {
		return nil, report, errors.Wrap(err, "read header")
	}

	cols := make(header, len(names))
	for i, n := range names {
		if i == 0 {
			n = strings.TrimPrefix(n, "\ufeff")
		}
		cols[strings.TrimSpace(n)] = i
	}

	locs := make([]domain.Location, 0, 256)
	for row := 1; ; row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, err
			}
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		report.Rows++

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			report.SkippedMalformed++
			continue
		}
		if err != nil {
			return nil, report, errors.Wrapf(err, "read row %d", row)
		}
		if len(rec) != len(names) {
			report.SkippedMalformed++
			continue
		}

		loc, ok := l.parseRow(cols, rec, row, &report)
		if !ok {
			continue
		}
		locs = append(locs, loc)
	}

	report.Loaded = len(locs)
	return locs, report, nil
}

// parseRow builds one location, updating report for skipped rows and
// synthesized values.
func (l *CSVLoader) parseRow(cols header, rec []string, row int, report *ports.LoadReport) (domain.Location, bool) {
	coords, ok := parseCoordinates(cols, rec)
	if !ok {
		report.SkippedIncomplete++
		return domain.Location{}, false
	}
	if !l.opts.Area.Contains(coords) {
		report.SkippedOutOfArea++
		return domain.Location{}, false
	}

	id, ok := parseID(cols.get(rec, colLocationID))
	if !ok {
		id = row
	}

	waste, ok := parseWaste(cols, rec)
	if !ok {
		if !l.opts.AllowSynthetic {
			report.SkippedIncomplete++
			return domain.Location{}, false
		}
		waste = syntheticMinKg + l.rng.IntN(syntheticMaxKg-syntheticMinKg+1)
		report.SyntheticWaste++
	}

	class, ok := parseClass(cols, rec)
	if !ok {
		if !l.opts.AllowSynthetic {
			report.SkippedIncomplete++
			return domain.Location{}, false
		}
		class = domain.ClassStandard
		if l.rng.Float64() < syntheticCraneRate {
			class = domain.ClassCrane
		}
		report.SyntheticClass++
	}

	freq, err := strconv.ParseFloat(cols.get(rec, colWeeklyFrequency), 64)
	if err != nil {
		freq = 0
	}

	return domain.Location{
		ID:              id,
		Name:            locationName(cols, rec, cols.get(rec, colLocationID)),
		Coordinates:     coords,
		WasteKg:         waste,
		Class:           class,
		WeeklyFrequency: freq,
	}, true
}

func parseCoordinates(cols header, rec []string) (domain.Coordinates, bool) {
	lat, latErr := strconv.ParseFloat(cols.get(rec, colLatitude), 64)
	lng, lngErr := strconv.ParseFloat(cols.get(rec, colLongitude), 64)
	if latErr == nil && lngErr == nil {
		return domain.NewCoordinates(lat, lng), true
	}

	raw := cols.get(rec, colCoordinates)
	if raw == "" {
		return domain.Coordinates{}, false
	}
	raw = strings.NewReplacer("(", "[", ")", "]").Replace(raw)

	var pair []float64
	if err := json.Unmarshal([]byte(raw), &pair); err != nil || len(pair) < 2 {
		return domain.Coordinates{}, false
	}
	return domain.NewCoordinates(pair[0], pair[1]), true
}

// parseID accepts integer or float text ("17", "17.0").
func parseID(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

func parseWaste(cols header, rec []string) (int, bool) {
	if t, err := strconv.ParseFloat(cols.get(rec, colDailyWasteTon), 64); err == nil && t >= 0 {
		return int(t * kgPerTon), true
	}
	if c, err := strconv.ParseFloat(cols.get(rec, colContainerCount), 64); err == nil && c >= 0 {
		return int(c * kgPerContainer), true
	}
	return 0, false
}

func parseClass(cols header, rec []string) (domain.VehicleClass, bool) {
	if n, err := strconv.ParseFloat(cols.get(rec, colUndergroundCount), 64); err == nil {
		if n > 0 {
			return domain.ClassCrane, true
		}
		return domain.ClassStandard, true
	}
	if v := cols.get(rec, colVehicleType); v != "" {
		return domain.ParseVehicleClass(v), true
	}
	return "", false
}

func locationName(cols header, rec []string, rawID string) string {
	if n := cols.get(rec, colName); n != "" {
		return n
	}
	if n := cols.get(rec, colNameKey); n != "" {
		return n
	}
	if rawID != "" {
		return fmt.Sprintf("Location-%s", rawID)
	}
	return "Unknown location"
}
