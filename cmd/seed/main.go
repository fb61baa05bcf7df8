// Command seed applies the SQL migrations and loads the YAML course catalog into Postgres.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fitcoach/internal/auth"
	"example.com/fitcoach/internal/config"
	"example.com/fitcoach/internal/observability"
	"example.com/fitcoach/internal/persistence/postgres"
	"example.com/fitcoach/internal/seed"
)

func main() {
	cfg := config.Load()
	file := flag.String("file", cfg.SeedFile, "catalog YAML file")
	migrations := flag.String("migrations", cfg.MigrationsDir, "directory of *.up.sql migrations")
	skipSeed := flag.Bool("migrate-only", false, "apply migrations without loading the catalog")
	flag.Parse()

	logger := observability.NewLogger("fitcoach-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool, *migrations)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	logger.Info().Strs("applied", applied).Msg("migrations up to date")
	if *skipSeed {
		return
	}

	catalog, err := seed.LoadFile(*file)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *file).Msg("load catalog")
	}
	store := postgres.NewStore(pool)
	res, err := seed.NewSeeder(store, store, store, auth.Hasher{}, logger).Apply(ctx, catalog)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply catalog")
	}
	logger.Info().
		Int("courses", res.Courses).
		Int("workouts", res.Workouts).
		Int("exercises", res.Exercises).
		Int("achievements", res.Achievements).
		Int("users", res.Users).
		Msg("catalog applied")
}
