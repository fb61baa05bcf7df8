package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"example.com/fitcoach/internal/api"
	"example.com/fitcoach/internal/auth"
	"example.com/fitcoach/internal/cache"
	"example.com/fitcoach/internal/captcha"
	"example.com/fitcoach/internal/chat"
	"example.com/fitcoach/internal/config"
	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/email"
	"example.com/fitcoach/internal/jobs"
	"example.com/fitcoach/internal/oauth"
	"example.com/fitcoach/internal/observability"
	"example.com/fitcoach/internal/outbox"
	"example.com/fitcoach/internal/persistence/memory"
	"example.com/fitcoach/internal/persistence/postgres"
	"example.com/fitcoach/internal/seed"
	httptransport "example.com/fitcoach/internal/transport/http"
	"example.com/fitcoach/internal/workout"
)

// repositories is satisfied by both storage drivers.
type repositories interface {
	domain.UserRepository
	domain.ResetTokenRepository
	domain.CourseRepository
	domain.FavoriteRepository
	domain.RatingRepository
	domain.ProgressRepository
	domain.ChatRepository
	domain.NutritionRepository
	domain.AchievementRepository
}

func main() {
	cfg := config.Load()
	logger := observability.NewLogger("fitcoach-api", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repos      repositories
		dispatcher *outbox.Dispatcher
		checks     []func(context.Context) error
	)
	switch cfg.StorageDriver {
	case "memory":
		store := memory.NewStore()
		repos = store
		seedMemory(ctx, cfg, store, logger)
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		repos = postgres.NewStore(pool)
		checks = append(checks, pool.Ping)

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()
		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize,
			outbox.WithLogger(logger.With().Str("component", "outbox").Logger()))
		go dispatcher.Start(ctx)
	}

	captchaStore := captcha.Store(captcha.NewMemoryStore())
	catalogCache := domain.CatalogCache(cache.NoopCatalog{})
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		defer client.Close()
		captchaStore = captcha.NewRedisStore(client)
		catalogCache = cache.NewRedisCatalog(client, cfg.CatalogCacheTTL)
		checks = append(checks, func(ctx context.Context) error { return client.Ping(ctx).Err() })
	} else {
		logger.Warn().Msg("REDIS_URL not set; captcha challenges and catalog cache stay in process")
	}

	var sender email.Sender = email.LogSender{}
	if cfg.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	}

	authCfg := auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL}
	captchaSvc := captcha.NewService(captchaStore, cfg.CaptchaTTL, cfg.CaptchaLength)
	hub := chat.NewHub(cfg.CORSOrigin, logger.With().Str("component", "chat").Logger())

	accounts := domain.NewAccountService(repos, repos, auth.Hasher{}, captchaSvc, auth.NewTokenIssuer(authCfg),
		email.NewResetMailer(sender, cfg.EmailFrom), domain.AccountOptions{ResetBaseURL: cfg.AppBaseURL})
	catalog := domain.NewCatalogService(repos, repos, repos, catalogCache)
	progress := domain.NewProgressService(repos, repos)
	achievements := domain.NewAchievementService(repos, repos)

	// Without Kafka nobody consumes completion events, so achievements are evaluated inline.
	inlineAchievements := cfg.StorageDriver == "memory"
	sessions := workout.NewManager(func(ctx context.Context, userID string, plan domain.WorkoutPlan) error {
		if _, err := progress.CompleteWorkout(ctx, userID, plan); err != nil {
			return err
		}
		observability.RecordAction(observability.ActionWorkoutCompleted)
		if inlineAchievements {
			_, err := achievements.Evaluate(ctx, userID)
			return err
		}
		return nil
	}, workout.WithLogger(logger.With().Str("component", "workout").Logger()))
	go sessions.Run(ctx)

	var google *oauth.Google
	if cfg.GoogleEnabled() {
		google = oauth.NewGoogle(oauth.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			StateSecret:  cfg.JWTSecret,
		})
	}

	limiter := httptransport.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go sweepLimiter(ctx, limiter)

	var scheduler *jobs.Scheduler
	if cfg.MaintenanceEnabled {
		scheduler = jobs.NewScheduler(logger.With().Str("component", "jobs").Logger(), 5*time.Minute)
		if err := jobs.RegisterMaintenance(scheduler, jobs.Schedules{
			PurgeResetTokens: cfg.PurgeSchedule,
			RecomputeRatings: cfg.RatingsSchedule,
		}, accounts, catalog); err != nil {
			logger.Fatal().Err(err).Msg("invalid maintenance schedule")
		}
		scheduler.Start()
	}

	handler := api.NewHandler(api.Deps{
		Accounts:     accounts,
		Catalog:      catalog,
		Progress:     progress,
		Chat:         domain.NewChatService(repos, repos, hub),
		Nutrition:    domain.NewNutritionService(repos, repos),
		Achievements: achievements,
		Stats:        domain.NewStatsService(repos, repos),
		Captcha:      captchaSvc,
		Hub:          hub,
		Sessions:     sessions,
		Google:       google,
		RateLimiter:  limiter,
		AuthConfig:   authCfg,
		CORSOrigin:   cfg.CORSOrigin,
		AppBaseURL:   cfg.AppBaseURL,
		Logger:       logger,
		Ready: func(ctx context.Context) error {
			var err error
			for _, check := range checks {
				err = errors.Join(err, check(ctx))
			}
			return err
		},
	})

	// WriteTimeout stays zero: SSE player streams and chat sockets are long-lived.
	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:     cfg.HTTPAddress,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}, handler.Routes())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", cfg.MetricsAddress).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress).Str("storage", cfg.StorageDriver).Msg("fitcoach api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdownCh
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("metrics server shutdown failed")
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	cancel()
	if dispatcher != nil {
		dispatcher.Wait()
	}
}

func seedMemory(ctx context.Context, cfg config.Config, store *memory.Store, logger zerolog.Logger) {
	if cfg.SeedFile == "" {
		return
	}
	catalog, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		logger.Warn().Err(err).Str("file", cfg.SeedFile).Msg("memory store starts empty")
		return
	}
	res, err := seed.NewSeeder(store, store, store, auth.Hasher{}, logger).Apply(ctx, catalog)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed memory store")
	}
	logger.Info().Interface("seeded", res).Msg("memory store seeded")
}

func sweepLimiter(ctx context.Context, limiter *httptransport.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
