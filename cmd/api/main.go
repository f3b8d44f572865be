package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PratikDhanave/shop-analytics-service/internal/config"
	"github.com/PratikDhanave/shop-analytics-service/internal/httpserver"
	"github.com/PratikDhanave/shop-analytics-service/internal/logging"
	"github.com/PratikDhanave/shop-analytics-service/internal/retention"
	"github.com/PratikDhanave/shop-analytics-service/internal/store"
)

// main boots the service: config → logging → DB → schema → HTTP server.
func main() {
	// Load runtime config (defaults, optional CONFIG_FILE, environment).
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON)
	logger := logging.Component("main")

	// Connect to durable storage.
	db, err := store.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Ensure required tables/indexes exist so `docker compose up --build` is enough.
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatal(err)
	}

	sweeper := retention.New(db, cfg.RetentionHorizon(), cfg.Retention.Interval, nil)
	router := httpserver.NewRouter(cfg, db, sweeper)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", "addr", cfg.HTTP.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
	}
}
