package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"onsalenow.io/analytics/internal/application"
	"onsalenow.io/analytics/internal/config"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/infrastructure/mailer"
	"onsalenow.io/analytics/internal/infrastructure/memstore"
	"onsalenow.io/analytics/internal/infrastructure/postgres"
	"onsalenow.io/analytics/internal/infrastructure/recommend"
	"onsalenow.io/analytics/internal/infrastructure/redislock"
	kafkaconsumer "onsalenow.io/analytics/internal/kafka"
	transporthttp "onsalenow.io/analytics/internal/transport/http"
)

func main() {
	// ── Logging ──────────────────────────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// ── Config ───────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Server.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("env", cfg.Server.Env).Str("port", cfg.Server.Port).Msg("starting onsale-analytics")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Document store & outbox ──────────────────────────────────────────────
	var (
		store  domain.Store
		outbox domain.Outbox
	)
	switch cfg.Store.Driver {
	case config.DriverMemory:
		store, outbox = memstore.New(), memstore.NewOutbox()
		log.Warn().Msg("using in-memory document store; data is lost on restart")
	default:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		pgStore := postgres.New(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare schema")
		}
		store, outbox = pgStore, postgres.NewOutbox(pool)
		log.Info().Msg("postgres connected")
	}

	// ── Pass lease (Redis, optional) ──────────────────────────────────────────
	var locker application.PassLocker
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable; passes fall back to in-process locking")
		}
		locker = redislock.New(rdb, cfg.Redis.LeaseTTL)
	}

	// ── External HTTP services ────────────────────────────────────────────────
	notifier := mailer.New(cfg.Mailer.BaseURL, cfg.Mailer.Path, cfg.Mailer.Timeout)

	var recommender application.Recommender
	if cfg.Recommend.BaseURL != "" {
		recommender = recommend.New(cfg.Recommend.BaseURL, cfg.Recommend.Timeout, cfg.Recommend.CacheTTL)
	}

	// ── Application Service & SSE Hub ─────────────────────────────────────────
	hub := transporthttp.NewHub()
	svc := application.NewService(store, outbox, notifier, recommender, locker, hub, application.Options{
		Concurrency:   cfg.Engine.Concurrency,
		OutboxEnabled: cfg.Engine.OutboxEnabled,
		ClaimLease:    cfg.Engine.ClaimLease,
	})

	// ── HTTP Server ───────────────────────────────────────────────────────────
	handler := transporthttp.NewHandler(svc, hub)
	router := transporthttp.NewRouter(handler, cfg.Auth.JWTSecret, cfg.Auth.AdminRole)

	// ── Kafka Consumer ────────────────────────────────────────────────────────
	if cfg.Kafka.Enabled {
		consumer, err := kafkaconsumer.New(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerGroupID,
			cfg.Kafka.Topics,
			svc,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka consumer")
		}

		// Start Kafka consumer in background
		go consumer.Start(ctx)
		log.Info().Strs("topics", cfg.Kafka.Topics).Msg("kafka consumer started")
	}

	// ── Outbox Purge Job (every 24h) ──────────────────────────────────────────
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				svc.PurgeOutbox(context.Background(), cfg.Outbox.RetentionDays)
			case <-ctx.Done():
				return
			}
		}
	}()

	// ── Start HTTP Server ─────────────────────────────────────────────────────
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := router.Start(":" + cfg.Server.Port); err != nil {
			log.Info().Msg("HTTP server stopped")
		}
	}()

	// ── Graceful Shutdown ─────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("onsale-analytics stopped")
}
