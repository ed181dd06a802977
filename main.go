package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/realtimemaps-be/internal/api"
	"github.com/isdelr/realtimemaps-be/internal/auth"
	"github.com/isdelr/realtimemaps-be/internal/config"
	"github.com/isdelr/realtimemaps-be/internal/database"
	"github.com/isdelr/realtimemaps-be/internal/logger"
	"github.com/isdelr/realtimemaps-be/internal/metrics"
	"github.com/isdelr/realtimemaps-be/internal/services"
	"github.com/isdelr/realtimemaps-be/internal/transit"
	"github.com/isdelr/realtimemaps-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty || !cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up database
	db, err := database.New(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database schema")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	m := metrics.New()
	m.RegisterGauge("websocket_clients", "Connected websocket clients.", func() float64 {
		return float64(hub.ClientCount())
	})

	// Set up services
	hasher := auth.NewHasher(cfg.BcryptCost)
	userService := services.NewUserService(db, hasher)
	searchService := services.NewSearchService(db)
	reportService := services.NewReportService(db)
	transitClient := transit.NewClient(transit.Config{
		TrainAPIKey:   cfg.TrainAPIKey,
		TrainBaseURL:  cfg.TrainAPIBaseURL,
		FlightAPIKey:  cfg.FlightAPIKey,
		FlightBaseURL: cfg.FlightAPIBaseURL,
		Timeout:       cfg.UpstreamTimeout,
	})

	// Set up router
	router := api.NewRouter(api.Deps{
		Logger:            log.Logger,
		Hub:               hub,
		Metrics:           m,
		UserService:       userService,
		SearchService:     searchService,
		ReportService:     reportService,
		Transit:           transitClient,
		AllowedOrigins:    cfg.AllowedOrigins,
		FrontendBuildPath: cfg.FrontendBuildPath,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("driver", cfg.DatabaseDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
