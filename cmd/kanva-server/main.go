// Package main is the entry point for the Kanva access server: the
// password-gated backend of the Kanva.ao creative workspace.
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
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kanva-ao/kanva-server/internal/ai"
	"github.com/kanva-ao/kanva-server/internal/config"
	"github.com/kanva-ao/kanva-server/internal/handler"
	"github.com/kanva-ao/kanva-server/internal/lock"
	"github.com/kanva-ao/kanva-server/internal/notify"
	"github.com/kanva-ao/kanva-server/internal/repository/factory"
	"github.com/kanva-ao/kanva-server/internal/service"
	"github.com/kanva-ao/kanva-server/internal/storage"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load .env if exists
	_ = godotenv.Load()

	cfg := config.MustLoad(*configPath)
	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting kanva server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database and repositories
	dbResult, err := factory.New(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer dbResult.Database.Close()

	// Issuance lock: Redis when configured, in-process otherwise.
	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, uuid.NewString())
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("using redis issuance lock")
	}

	metrics := telemetry.New()

	// Image storage
	store, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	// AI providers are optional; the endpoints they back report a
	// "not configured" error when absent.
	var (
		generator ai.ImageGenerator
		reviewer  ai.DesignReviewer
		expander  ai.IdeaExpander
	)
	gemini, err := ai.NewGeminiClient(ctx, cfg.Gemini, logger)
	switch {
	case err == nil:
		defer gemini.Close()
		generator, reviewer, expander = gemini, gemini, gemini
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Warn().Msg("gemini api key not set, design generation disabled")
	default:
		return fmt.Errorf("initialize gemini: %w", err)
	}

	var remover ai.BackgroundRemover
	if cfg.Removal.Token != "" {
		remover = ai.NewHFRemover(cfg.Removal, logger)
	} else {
		logger.Warn().Msg("removal token not set, background removal disabled")
	}

	// Services
	keySvc := service.NewKeyService(dbResult.Repos.AccessKey, locker, cfg.Auth, logger)
	sessionSvc := service.NewSessionService()
	cardSvc := service.NewCardService(dbResult.Repos.Card, logger)
	designSvc := service.NewDesignService(service.DesignServiceDeps{
		Repo:        dbResult.Repos.Design,
		Keys:        keySvc,
		Generator:   generator,
		Reviewer:    reviewer,
		Expander:    expander,
		Remover:     remover,
		Store:       store,
		Metrics:     metrics,
		MaxAttempts: cfg.Gemini.MaxAttempts,
	}, logger)
	sender := notify.FromConfig(cfg.Email, logger)
	provisionSvc := service.NewProvisionService(keySvc, sender, cfg.Server.AppURL, metrics, logger)

	// HTTP API
	router := handler.NewRouter(handler.RouterConfig{
		Auth:              handler.NewAuthHandler(keySvc, sessionSvc, metrics, logger),
		Keys:              handler.NewKeysHandler(keySvc, metrics, logger),
		Cards:             handler.NewCardsHandler(cardSvc, logger),
		Designs:           handler.NewDesignsHandler(designSvc, logger),
		Webhook:           handler.NewWebhookHandler(provisionSvc, cfg.Webhook.Secret, metrics, logger),
		KeySvc:            keySvc,
		Database:          dbResult.Database,
		Metrics:           metrics,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RateLimitEnabled:  cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:            logger,
	})

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", apiServer.Addr).Msg("http server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}

// setupLogger configures zerolog from the logging settings.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return log.Logger
}
