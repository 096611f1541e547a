package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"waste-route-service/internal/api/handlers"
	"waste-route-service/internal/ports"
)

type RouterConfig struct {
	Generator handlers.RouteGenerator
	Store     ports.RouteStore
	Today     func() string
	Log       *zap.Logger
	// Generate requests accepted per minute; 0 disables the limit.
	GenerateRateLimit int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	routeHandler := &handlers.RouteHandler{
		Generator: cfg.Generator,
		Store:     cfg.Store,
		Today:     cfg.Today,
		Log:       log,
	}
	generate := limit(perMinute(cfg.GenerateRateLimit), routeHandler.Generate)

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/health", handlers.Health(log))
	router.HandlerFunc(http.MethodGet, "/routes", routeHandler.List)
	router.HandlerFunc(http.MethodGet, "/routes/generate", generate)
	router.HandlerFunc(http.MethodPost, "/routes/generate", generate)
	router.HandlerFunc(http.MethodGet, "/routes/logs", routeHandler.Logs)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})

	return alice.New(
		corsHandler.Handler,
		requestID,
		logging(log),
		recoverPanic(log),
	).Then(router)
}
