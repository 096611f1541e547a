package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"waste-route-service/internal/api/dto"
	"waste-route-service/internal/domain"
	"waste-route-service/internal/platform/obs"
	"waste-route-service/internal/ports"
	"waste-route-service/internal/services"
)

// RouteGenerator runs a generation for today.
type RouteGenerator interface {
	Generate(ctx context.Context) (*services.GenerationResult, error)
}

// RouteHandler exposes route generation and the stored routes and logs.
type RouteHandler struct {
	Generator RouteGenerator
	Store     ports.RouteStore
	// Today returns the current generation date.
	Today func() string
	Log   *zap.Logger
}

// Generate triggers a run for today. The run is not tied to the request
// context: a client disconnect does not abort a half-written day.
func (h *RouteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	res, err := h.Generator.Generate(ctx)
	if err != nil {
		h.writeGenerateError(w, r, err)
		return
	}

	writeData(h.Log, w, r, http.StatusOK, "routes generated", dto.NewGenerationResponse(res))
}

func (h *RouteHandler) writeGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case services.IsBusinessError(err):
		h.Log.Info("route generation rejected", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(h.Log, w, r, http.StatusBadRequest, businessMessage(err))
	case errors.Is(err, services.ErrGenerationInProgress):
		writeError(h.Log, w, r, http.StatusConflict, services.ErrGenerationInProgress.Error())
	default:
		h.Log.Error("route generation failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(h.Log, w, r, http.StatusInternalServerError, "internal server error")
	}
}

func businessMessage(err error) string {
	for _, sentinel := range []error{services.ErrNoDrivers, services.ErrNoLocations, services.ErrNoDueLocations} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// List returns the stored routes of ?date=YYYY-MM-DD, today by default.
func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.Today()
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		writeError(h.Log, w, r, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	routes, err := h.Store.ListRoutes(r.Context(), date)
	if err != nil {
		h.Log.Error("list routes failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(h.Log, w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(h.Log, w, r, http.StatusOK, "routes", dto.ListRoutesResponse{
		Date:   date,
		Count:  len(routes),
		Routes: dto.NewRouteResponses(routes),
	})
}

// Logs returns every generation log, newest day first.
func (h *RouteHandler) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Store.ListGenerationLogs(r.Context())
	if err != nil {
		h.Log.Error("list generation logs failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(h.Log, w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(h.Log, w, r, http.StatusOK, "generation logs", dto.NewGenerationLogResponses(logs))
}
