package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"courier-route-service/internal/adapters/repositories"
	"courier-route-service/internal/config"
	"courier-route-service/internal/platform/db"
	"courier-route-service/internal/ports"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: dbtool <command>

commands:
  init    create the schema
  seed    create the schema and upsert the seed packages
  reset   create the schema, delete every package and re-seed
  stats   print package counts`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if cfg.StoreDriver == "memory" {
		log.Fatal().Msg("dbtool needs STORE_DRIVER=sqlite or postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, repo, err := open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	seedPath := cfg.SeedPath

	switch os.Args[1] {
	case "init":
		log.Info().Str("driver", cfg.StoreDriver).Msg("schema ready")
	case "seed":
		seed(ctx, repo, seedPath)
	case "reset":
		if err := repo.Clear(ctx); err != nil {
			log.Fatal().Err(err).Msg("clear packages")
		}
		log.Info().Msg("packages cleared")
		seed(ctx, repo, seedPath)
	case "stats":
		stats, err := repo.Stats(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("package stats")
		}
		fmt.Printf("total=%d pending=%d delivered=%d\n", stats.Total, stats.Pending, stats.Delivered)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

// open connects to the configured database and makes sure the schema exists.
func open(ctx context.Context, cfg config.Config) (*sql.DB, ports.PackageRepository, error) {
	if cfg.StoreDriver == "postgres" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return conn, repositories.NewSQLPackageRepository(conn), nil
	}

	conn, err := db.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, repositories.NewSqlitePackageRepository(conn), nil
}

func seed(ctx context.Context, repo ports.PackageRepository, seedPath string) {
	log.Info().Str("path", seedPath).Msg("seeding database")
	if err := repositories.SeedFromJSON(ctx, repo, seedPath); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Msg("seeding complete")
}
