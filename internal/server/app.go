// Package server wires configuration, storage, services and the HTTP API
// into a runnable application.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/httpserver"
	"github.com/jengacalc/jengacalc/internal/server/mailcheck"
	"github.com/jengacalc/jengacalc/internal/server/materials"
	"github.com/jengacalc/jengacalc/internal/server/notify"
	"github.com/jengacalc/jengacalc/internal/server/paystack"
	"github.com/jengacalc/jengacalc/internal/server/repositories/challenges"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repomanager"
	"github.com/jengacalc/jengacalc/internal/server/services"
	"github.com/jengacalc/jengacalc/internal/timex"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	redis       redis.UniversalClient
	verifier    *services.VerifierService
	sessions    *services.SessionService
	server      *httpserver.HTTPServer
}

// newRepositoryManager is a seam for tests.
var newRepositoryManager = repomanager.New

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	app := &App{config: cfg, logger: logger}

	rm, err := newRepositoryManager(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	app.repomanager = rm

	sink, err := materials.NewSink(ctx, cfg)
	if err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("materials sink error: %w", err)
	}

	now := timex.Clock(timex.SystemClock)
	store := app.challengeStore(ctx)

	access := services.NewAccessService(rm, cfg, now, logger)
	app.verifier = services.NewVerifierService(store, mailcheck.New(nil, logger), app.notifier(), cfg, now, logger)
	activator := services.NewActivatorService(rm, cfg, now, logger)
	app.sessions = services.NewSessionService(rm, cfg, now, logger)
	checkout := services.NewCheckoutService(paystack.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, nil), cfg, logger)

	app.server = httpserver.NewHTTPServer(cfg, logger, httpserver.Services{
		Access:    access,
		Verifier:  app.verifier,
		Activator: activator,
		Sessions:  app.sessions,
		Checkout:  checkout,
		Materials: materials.NewLog(sink, logger),
		Health:    rm.Ping,
	}, now)

	return app, nil
}

// challengeStore uses Redis when configured and reachable, otherwise memory.
func (app *App) challengeStore(ctx context.Context) challenges.Repository {
	if app.config.RedisAddr == "" {
		return challenges.NewMemoryRepository()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
		DB:       app.config.RedisDB,
	})
	store := challenges.NewRedisRepository(client)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		app.logger.Warn(ctx, "redis unavailable, keeping challenges in memory", "address", app.config.RedisAddr, "error", err)
		_ = client.Close()
		return challenges.NewMemoryRepository()
	}

	app.redis = client
	app.logger.Info(ctx, "challenges stored in redis", "address", app.config.RedisAddr)
	return store
}

func (app *App) notifier() notify.Notifier {
	switch {
	case app.config.SMTPHost != "":
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     app.config.SMTPHost,
			Port:     app.config.SMTPPort,
			User:     app.config.SMTPUser,
			Password: app.config.SMTPPassword,
			From:     app.config.SMTPFrom,
		}, app.logger)
	case app.config.IsDevelopment():
		app.logger.Warn(context.Background(), "SMTP not configured, verification codes go to the log")
		return notify.NewLogNotifier(app.logger)
	default:
		app.logger.Error(context.Background(), "SMTP not configured, verification emails disabled")
		return notify.Disabled{}
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// sweep reclaims expired challenges, request history and sessions.
func (app *App) sweep(ctx context.Context) {
	if err := app.verifier.Sweep(ctx); err != nil {
		app.logger.Warn(ctx, "challenge sweep failed", "error", err)
	}
	if _, err := app.sessions.Sweep(ctx); err != nil {
		app.logger.Warn(ctx, "session sweep failed", "error", err)
	}
}

func (app *App) runJanitor(ctx context.Context) {
	interval := app.config.SweepInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.sweep(ctx)
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.StorageBackend)
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runJanitor(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()
	app.close()
}

func (app *App) close() {
	ctx := context.Background()
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.repomanager.Close(ctx); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
