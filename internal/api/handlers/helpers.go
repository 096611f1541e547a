package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"waste-route-service/internal/api/dto"
	"waste-route-service/internal/platform/obs"
)

func writeJSON(log *zap.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeData(log *zap.Logger, w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	writeJSON(log, w, r, status, dto.Envelope{Message: msg, Data: data})
}

func writeError(log *zap.Logger, w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(log, w, r, status, map[string]string{"error": msg})
}
