package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"waste-route-service/internal/domain"
	"waste-route-service/internal/services"
)

type stubGenerator struct {
	res   *services.GenerationResult
	err   error
	panic bool
	calls int
}

func (s *stubGenerator) Generate(context.Context) (*services.GenerationResult, error) {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return s.res, s.err
}

type stubStore struct {
	routes    []domain.StoredRoute
	logs      []domain.GenerationLog
	err       error
	listedFor string
}

func (s *stubStore) ReplaceRoutes(context.Context, string, []domain.StoredRoute, domain.GenerationLog) ([]domain.StoredRoute, error) {
	return nil, errors.New("not used")
}

func (s *stubStore) RecordGenerationFailure(context.Context, domain.GenerationLog) error {
	return nil
}

func (s *stubStore) ListRoutes(_ context.Context, date string) ([]domain.StoredRoute, error) {
	s.listedFor = date
	return s.routes, s.err
}

func (s *stubStore) ListGenerationLogs(context.Context) ([]domain.GenerationLog, error) {
	return s.logs, s.err
}

func sampleRoute() domain.StoredRoute {
	return domain.StoredRoute{
		ID:             1,
		DriverID:       1,
		GenerationDate: "2026-10-21",
		Payload: domain.RoutePayload{
			VehicleName:  "Mehmet Kaya",
			VehicleClass: "Standard",
			Summary:      domain.RouteSummary{WasteKg: 5000, StopCount: 1, DistanceKm: 3.0, CapacityUtilizationPct: 62.5},
			Stops: []domain.RoutePayloadStop{
				{Sequence: 1, LocationID: 1, LocationName: "Ataevler", Lat: 40.195, Lng: 29.06, WasteKg: 5000, DistanceKm: 1.49},
			},
		},
		Waypoints:   []domain.Waypoint{{Lat: 40.195, Lng: 29.06}},
		Status:      domain.RouteStatusPending,
		ScheduledAt: time.Date(2026, 10, 21, 8, 0, 0, 0, time.UTC),
	}
}

func newTestRouter(t *testing.T, gen *stubGenerator, store *stubStore, rateLimit int) http.Handler {
	return NewRouter(RouterConfig{
		Generator:         gen,
		Store:             store,
		Today:             func() string { return "2026-10-21" },
		Log:               zaptest.NewLogger(t),
		GenerateRateLimit: rateLimit,
	})
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, &stubGenerator{}, &stubStore{}, 0)

	rec, body := do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGenerateEndpoint(t *testing.T) {
	result := &services.GenerationResult{
		Date:          "2026-10-21",
		Routes:        []domain.StoredRoute{sampleRoute()},
		RouteCount:    1,
		TotalWasteKg:  5000,
		DriverCount:   2,
		DueCount:      3,
		AssignedCount: 2,
		Unassigned: []services.UnassignedJob{
			{Location: domain.Location{ID: 3, Name: "C", WasteKg: 9000, Class: domain.ClassStandard}, Reason: services.ReasonExceedsCapacity},
		},
		UnassignedCount: 1,
	}

	tests := []struct {
		name       string
		method     string
		gen        *stubGenerator
		wantStatus int
		wantError  string
	}{
		{"get success", http.MethodGet, &stubGenerator{res: result}, http.StatusOK, ""},
		{"post success", http.MethodPost, &stubGenerator{res: result}, http.StatusOK, ""},
		{"no drivers", http.MethodGet, &stubGenerator{err: errors.Wrap(services.ErrNoDrivers, "generate")}, http.StatusBadRequest, "no drivers available"},
		{"no locations", http.MethodGet, &stubGenerator{err: services.ErrNoLocations}, http.StatusBadRequest, "no locations loaded from source"},
		{"nothing due", http.MethodGet, &stubGenerator{err: services.ErrNoDueLocations}, http.StatusBadRequest, "no locations due for collection today"},
		{"in progress", http.MethodGet, &stubGenerator{err: services.ErrGenerationInProgress}, http.StatusConflict, "route generation already running for today"},
		{"internal", http.MethodGet, &stubGenerator{err: errors.New("db down")}, http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, tt.gen, &stubStore{}, 0)

			rec, body := do(t, h, tt.method, "/routes/generate")
			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}

			assert.Equal(t, "routes generated", body["message"])
			data := body["data"].(map[string]any)
			assert.Equal(t, float64(1), data["route_count"])
			assert.Equal(t, float64(5000), data["total_waste_kg"])

			unassigned := data["unassigned"].([]any)
			require.Len(t, unassigned, 1)
			assert.Equal(t, "exceeds_capacity", unassigned[0].(map[string]any)["reason"])

			routes := data["routes"].([]any)
			require.Len(t, routes, 1)
			route := routes[0].(map[string]any)
			assert.Equal(t, "Mehmet Kaya", route["vehicle_name"])
			assert.NotEmpty(t, route["polyline"])
		})
	}
}

func TestGenerateRateLimit(t *testing.T) {
	gen := &stubGenerator{res: &services.GenerationResult{}}
	h := newTestRouter(t, gen, &stubStore{}, 1)

	rec, _ := do(t, h, http.MethodPost, "/routes/generate")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/routes/generate")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too many generation requests", body["error"])
	assert.Equal(t, 1, gen.calls)
}

func TestGeneratePanicIsRecovered(t *testing.T) {
	h := newTestRouter(t, &stubGenerator{panic: true}, &stubStore{}, 0)

	rec, body := do(t, h, http.MethodGet, "/routes/generate")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body["error"])
}

func TestListRoutes(t *testing.T) {
	store := &stubStore{routes: []domain.StoredRoute{sampleRoute()}}
	h := newTestRouter(t, &stubGenerator{}, store, 0)

	t.Run("defaults to today", func(t *testing.T) {
		rec, body := do(t, h, http.MethodGet, "/routes")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2026-10-21", store.listedFor)

		data := body["data"].(map[string]any)
		assert.Equal(t, float64(1), data["count"])
	})

	t.Run("explicit date", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, "/routes?date=2026-10-20")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2026-10-20", store.listedFor)
	})

	t.Run("bad date", func(t *testing.T) {
		rec, body := do(t, h, http.MethodGet, "/routes?date=21.10.2026")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "YYYY-MM-DD")
	})

	t.Run("store failure", func(t *testing.T) {
		failing := newTestRouter(t, &stubGenerator{}, &stubStore{err: errors.New("db down")}, 0)
		rec, _ := do(t, failing, http.MethodGet, "/routes")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestListGenerationLogs(t *testing.T) {
	store := &stubStore{logs: []domain.GenerationLog{
		{ID: 2, GenerationDate: "2026-10-21", DriverCount: 2, LocationCount: 3, Status: domain.GenerationSuccess},
		{ID: 1, GenerationDate: "2026-10-20", Status: domain.GenerationFailed},
	}}
	h := newTestRouter(t, &stubGenerator{}, store, 0)

	rec, body := do(t, h, http.MethodGet, "/routes/logs")
	require.Equal(t, http.StatusOK, rec.Code)

	logs := body["data"].(map[string]any)["logs"].([]any)
	require.Len(t, logs, 2)
	assert.Equal(t, "success", logs[0].(map[string]any)["status"])
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, &stubGenerator{}, &stubStore{}, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/routes/generate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestRouter(t, &stubGenerator{}, &stubStore{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
