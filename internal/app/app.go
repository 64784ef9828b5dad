// Package app bootstraps configuration, storage backends and the HTTP server,
// and owns the process lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizzerhq/quizzer/internal/auth"
	"github.com/quizzerhq/quizzer/internal/bank"
	"github.com/quizzerhq/quizzer/internal/config"
	"github.com/quizzerhq/quizzer/internal/dispatch"
	"github.com/quizzerhq/quizzer/internal/logging"
	"github.com/quizzerhq/quizzer/internal/quiz"
	"github.com/quizzerhq/quizzer/internal/server"
	"github.com/quizzerhq/quizzer/internal/store"
	"github.com/quizzerhq/quizzer/pkg/http/ws"
)

// Application aggregates shared infrastructure: storage backends, the session
// registry and the HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	registry *quiz.Registry
	store    store.Store
	http     *http.Server

	pool  *pgxpool.Pool
	redis *redis.Client
}

// New bootstraps the service: config-selected backends, session restore and
// the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	app := &Application{cfg: cfg, logger: logger}

	snapshotStore, err := app.buildSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}
	app.store = snapshotStore

	questionBank, err := app.buildQuestionBank(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := quiz.NewRegistry(quiz.DefaultScoringConfig(), logger)
	app.registry = registry

	snapshots, err := snapshotStore.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session snapshots: %w", err)
	}
	if restored := registry.Restore(snapshots); restored > 0 {
		logger.Info().Int("sessions", restored).Msg("restored sessions from snapshots")
	}

	if snapshot, created := registry.Create(cfg.DefaultQuizCode); created {
		logger.Info().Str("code", cfg.DefaultQuizCode).Msg("default quiz created")
		if snapshot != nil {
			if err := snapshotStore.Save(ctx, cfg.DefaultQuizCode, snapshot); err != nil {
				logger.Warn().Err(err).Msg("persist default quiz snapshot")
			}
		}
	}

	hub := ws.NewHub(logger)
	dispatcher := dispatch.New(hub, snapshotStore, logger)

	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.AdminTokenTTL,
		Issuer: cfg.Name,
	})
	authSvc := auth.NewService(cfg.Security.AdminPasswordHash, tokens, logger)

	app.http = server.NewHTTPServer(cfg, registry, dispatcher, questionBank, authSvc, hub, logger)
	return app, nil
}

func (a *Application) buildSnapshotStore(cfg *config.App) (store.Store, error) {
	switch cfg.Storage.SnapshotBackend {
	case config.BackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		a.logger.Info().Str("addr", cfg.Redis.Addr).Msg("using redis snapshot backend")
		return store.NewRedisStore(a.redis, a.logger), nil
	case config.BackendFile:
		a.logger.Info().Str("dir", cfg.Storage.DataDir).Msg("using file snapshot backend")
		return store.NewFileStore(cfg.Storage.DataDir, a.logger)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Storage.SnapshotBackend)
	}
}

func (a *Application) buildQuestionBank(ctx context.Context, cfg *config.App) (bank.Bank, error) {
	switch cfg.Storage.BankBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		a.logger.Info().Str("host", cfg.Postgres.Host).Msg("using postgres question bank")
		return bank.NewPostgresBank(pool), nil
	case config.BackendFile:
		a.logger.Info().Str("dir", cfg.Storage.DataDir).Msg("using file question bank")
		return bank.NewFileBank(cfg.Storage.DataDir, a.logger)
	default:
		return nil, fmt.Errorf("unknown question bank backend %q", cfg.Storage.BankBackend)
	}
}

// Run starts the HTTP server and waits for termination signals. On shutdown
// every live session is flushed to the snapshot store.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.flushSessions(shutdownCtx)

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// flushSessions writes a final snapshot of every session so nothing persisted
// only by the async path is lost.
func (a *Application) flushSessions(ctx context.Context) {
	for code, snapshot := range a.registry.Snapshots() {
		if err := a.store.Save(ctx, code, snapshot); err != nil {
			a.logger.Warn().Err(err).Str("code", code).Msg("final snapshot write failed")
		}
	}
}
