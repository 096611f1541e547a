package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"waste-route-service/internal/api"
	"waste-route-service/internal/app"
	"waste-route-service/internal/config"
	"waste-route-service/internal/platform/logger"
)

// main is the application composition root.
// It wires concrete adapters (SQL store, CSV loader, lock) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %+v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// Seed the roster on startup for local runs.
	if cfg.SeedPath != "" {
		if n, err := a.SeedDrivers(ctx); err != nil {
			log.Warn("driver seed skipped", zap.String("path", cfg.SeedPath), zap.Error(err))
		} else {
			log.Info("drivers seeded", zap.Int("count", n))
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Generator:         a.Generator,
		Store:             a.Store,
		Today:             a.Today,
		Log:               log.Named("http"),
		GenerateRateLimit: cfg.GenerateRateLimit,
	})

	// A generation run loads the source and writes one transaction; allow it time.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
