package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vn.io.arda/console-sync/internal/application"
	"vn.io.arda/console-sync/internal/batch"
	"vn.io.arda/console-sync/internal/cache"
	"vn.io.arda/console-sync/internal/config"
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/infrastructure/memory"
	"vn.io.arda/console-sync/internal/infrastructure/postgres"
	"vn.io.arda/console-sync/internal/infrastructure/remote"
	kafkaconsumer "vn.io.arda/console-sync/internal/kafka"
	transporthttp "vn.io.arda/console-sync/internal/transport/http"
	"vn.io.arda/console-sync/internal/transport/mw"
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

	log.Info().Str("env", cfg.Server.Env).Str("port", cfg.Server.Port).Msg("starting arda-console-sync")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Remote API ────────────────────────────────────────────────────────────
	var backend application.Remote
	if cfg.Remote.Demo {
		mem := memory.New()
		memory.Seed(mem, time.Now())
		backend = mem
		log.Warn().Msg("demo mode: serving seeded in-memory data")
	} else {
		tokens := remote.NewTokenSource(ctx, remote.CredentialConfig{
			Token:        cfg.Remote.Token,
			TokenURL:     cfg.Remote.TokenURL,
			ClientID:     cfg.Remote.ClientID,
			ClientSecret: cfg.Remote.ClientSecret,
		})
		backend = remote.New(cfg.Remote.BaseURL, tokens,
			remote.WithMaxRetries(cfg.Remote.MaxRetries),
			remote.WithTimeout(cfg.Remote.Timeout),
		)
		log.Info().Str("base_url", cfg.Remote.BaseURL).Msg("remote API configured")
	}

	// ── Batch Journal ─────────────────────────────────────────────────────────
	var journal domain.BatchJournal = batch.NewMemoryJournal(cfg.Batch.JournalSize)
	if cfg.Database.Enabled {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}

		pg := postgres.New(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare batch journal")
		}
		journal = pg
		log.Info().Msg("postgres batch journal connected")
	}

	// ── Application Service ───────────────────────────────────────────────────
	svc, err := application.NewService(backend, journal, application.Options{
		Cache: cache.Options{
			FreshWindow: cfg.Cache.FreshWindow,
			LoadTimeout: cfg.Cache.LoadTimeout,
			MaxEntries:  cfg.Cache.MaxEntries,
		},
		Poller: application.PollSettings{
			Interval: cfg.Poller.Interval,
			Timeout:  cfg.Poller.Timeout,
		},
		Batch: batch.Options{
			Policy:      domain.FailurePolicy(cfg.Batch.FailurePolicy),
			ItemTimeout: cfg.Batch.ItemTimeout,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create service")
	}
	defer svc.Close()

	// ── SSE Hub ───────────────────────────────────────────────────────────────
	hub := transporthttp.NewHub()
	unsubscribe := svc.SubscribeToAggregate(hub.BroadcastCount)
	defer unsubscribe()

	svc.Start(ctx)
	log.Info().Dur("interval", cfg.Poller.Interval).Msg("unread-count poller started")

	// ── HTTP Server ───────────────────────────────────────────────────────────
	handler := transporthttp.NewHandler(svc, hub)
	if cfg.Server.Subject == "" {
		log.Warn().Msg("server.subject is empty: any bearer subject may drive this session")
	}
	router := transporthttp.NewRouter(handler, mw.AuthConfig{
		Subject: cfg.Server.Subject,
		Secret:  cfg.Server.JWTSecret,
		Now:     time.Now,
	})

	// ── Kafka Consumer ────────────────────────────────────────────────────────
	if cfg.Kafka.Enabled {
		consumer, err := kafkaconsumer.New(cfg.Kafka.Brokers, cfg.Kafka.Topics, svc)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka consumer")
		}

		// Start Kafka consumer in background
		go consumer.Start(ctx)
		log.Info().Strs("topics", cfg.Kafka.Topics).Msg("kafka consumer started")
	}

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

	log.Info().Msg("arda-console-sync stopped")
}
