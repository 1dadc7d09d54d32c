// cmd/api/main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"miniregion/internal/adapter/overpass"
	"miniregion/internal/adapter/places"
	"miniregion/internal/adapter/storage"
	"miniregion/internal/config"
	"miniregion/internal/logging"
	"miniregion/internal/server"
	"miniregion/internal/service/activities"
	"miniregion/internal/service/aggregation"
	"miniregion/internal/service/enrich"
)

func main() {
	port := flag.Int("port", 0, "HTTP port (overrides PORT)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	// NATS is optional: without it refresh events are not published
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = initNATS(cfg.NATS, logging.Component(log, "nats"))
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, refresh notifications disabled")
		} else {
			defer natsConn.Close()
		}
	}

	// Initialize storage adapters
	restaurantStore := storage.NewRestaurantStore(db)
	activityStore := storage.NewActivityStore(db)

	// Initialize place provider client
	placesClient := places.NewClient(places.Config{
		APIKey:           cfg.Places.APIKey,
		BaseURL:          cfg.Places.BaseURL,
		Timeout:          cfg.Places.Timeout,
		DetailTimeout:    cfg.Places.DetailTimeout,
		Language:         cfg.Places.Language,
		Country:          cfg.Places.Country,
		BreakerThreshold: cfg.Places.BreakerThreshold,
		BreakerTimeout:   cfg.Places.BreakerTimeout,
	}, logging.Component(log, "places"))
	if !placesClient.Configured() {
		log.Warn().Msg("GOOGLE_API_KEY not set, restaurant search and autocomplete will fail")
	}

	// Initialize services
	fanout := enrich.NewFanout(placesClient, logging.Component(log, "enrich"))

	var publisher aggregation.Publisher
	if natsConn != nil {
		publisher = natsConn
	}

	engine := aggregation.NewEngine(
		placesClient,
		fanout,
		restaurantStore,
		publisher,
		aggregation.EngineConfig{
			Region:         cfg.Aggregation.Region,
			MaxPages:       cfg.Aggregation.MaxPages,
			PageDelay:      cfg.Aggregation.PageDelay,
			SearchRadius:   cfg.Places.SearchRadius,
			RefreshSubject: cfg.NATS.RefreshSubject,
		},
		logging.Component(log, "aggregation"),
	)

	importer := activities.NewImporter(
		overpass.NewClient(cfg.Aggregation.OverpassURL, 0, logging.Component(log, "overpass")),
		activityStore,
		cfg.Aggregation.ActivityBBox,
		logging.Component(log, "activities"),
	)

	scheduler := aggregation.NewScheduler(
		engine,
		aggregation.SchedulerConfig{Hour: cfg.Aggregation.RefreshHour},
		logging.Component(log, "scheduler"),
		importer,
	)
	scheduler.Start()

	deps := server.Dependencies{
		Engine:         engine,
		Places:         placesClient,
		Restaurants:    restaurantStore,
		Activities:     activityStore,
		RefreshSubject: cfg.NATS.RefreshSubject,
	}
	if natsConn != nil {
		deps.Subscriber = natsConn
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg, deps, logging.Component(log, "http"))

	// Start HTTP server
	go func() {
		log.Info().Str("addr", httpServer.Addr()).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop scheduler
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initNATS(cfg config.NATSConfig, log zerolog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("miniregion-api"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
