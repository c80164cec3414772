package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courier-route-service/internal/adapters/cache"
	"courier-route-service/internal/adapters/geocoding"
	"courier-route-service/internal/adapters/location"
	"courier-route-service/internal/adapters/repositories"
	"courier-route-service/internal/api"
	"courier-route-service/internal/config"
	"courier-route-service/internal/platform/db"
	"courier-route-service/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const geocodeCacheTTL = 30 * 24 * time.Hour

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

func run(ctx context.Context, cfg config.Config) error {
	var rdb *redis.Client
	if cfg.RedisAddress != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.RedisAddress, err)
		}
		log.Info().Str("addr", cfg.RedisAddress).Msg("connected to redis")
	}

	repo, geocodeCache, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := seedIfEmpty(ctx, repo, cfg.SeedPath); err != nil {
		return err
	}

	// Redis takes over geocode caching when configured.
	if rdb != nil {
		geocodeCache = cache.NewRedisGeocodeCache(rdb, geocodeCacheTTL)
	}

	geocoder, err := newGeocoder(cfg)
	if err != nil {
		return err
	}
	if _, fixed := geocoder.(*geocoding.FixedGeocoder); !fixed && geocodeCache != nil {
		geocoder = geocoding.NewCachedGeocoder(geocoder, geocodeCache)
	}

	var locations ports.LocationStore = location.NewMemoryLocationStore()
	if rdb != nil {
		locations = location.NewRedisLocationStore(rdb)
	}

	router := api.NewRouter(api.RouterConfig{
		Repo:               repo,
		Geocoder:           geocoder,
		Locations:          locations,
		CourierID:          cfg.CourierID,
		AverageSpeedKmh:    cfg.AverageSpeedKmh,
		ClusterRadiusKm:    cfg.ClusterRadiusKm,
		GeocodeConcurrency: 4,
	})

	// Write timeout leaves room for POST /packages/geocode on a cold cache.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore selects the package repository and its matching geocode cache.
func openStore(ctx context.Context, cfg config.Config) (ports.PackageRepository, ports.GeocodeCache, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return repositories.NewMemoryPackageRepository(), nil, func() {}, nil

	case "postgres":
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, nil, err
		}
		return repositories.NewSQLPackageRepository(conn), cache.NewSQLGeocodeCache(conn), closer(conn), nil

	default:
		conn, err := db.OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repositories.InitSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, nil, err
		}
		return repositories.NewSqlitePackageRepository(conn), cache.NewSqliteGeocodeCache(conn), closer(conn), nil
	}
}

func closer(conn *sql.DB) func() {
	return func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}
}

// seedIfEmpty loads demo packages on first start so local runs have data.
func seedIfEmpty(ctx context.Context, repo ports.PackageRepository, seedPath string) error {
	if seedPath == "" {
		return nil
	}
	if _, err := os.Stat(seedPath); errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", seedPath).Msg("seed file not found, skipping")
		return nil
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if stats.Total > 0 {
		return nil
	}

	if err := repositories.SeedFromJSON(ctx, repo, seedPath); err != nil {
		return err
	}
	log.Info().Str("path", seedPath).Msg("seeded packages")
	return nil
}

func newGeocoder(cfg config.Config) (ports.Geocoder, error) {
	switch cfg.Geocoder {
	case "ors":
		if cfg.ORSAPIKey != "" {
			return geocoding.NewORSGeocoder(cfg.ORSAPIKey, "", cfg.GeocodeRatePerSec)
		}
	case "neshan":
		if cfg.NeshanAPIKey != "" {
			return geocoding.NewNeshanGeocoder(cfg.NeshanAPIKey, cfg.GeocodeRatePerSec)
		}
	}

	log.Warn().Str("geocoder", cfg.Geocoder).Msg("no geocoding api key configured, using fixed coordinates")
	return geocoding.NewFixedGeocoder(geocoding.DefaultFixedCoords), nil
}
