package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lounge/internal/api"
	"lounge/internal/clock"
	"lounge/internal/config"
	"lounge/internal/database"
	"lounge/internal/events"
	"lounge/internal/export"
	"lounge/internal/logging"
	"lounge/internal/metrics"
	"lounge/internal/notify"
	"lounge/internal/repository"
	"lounge/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	week, err := cfg.Hours.Week()
	if err != nil {
		// Load already validated; a failure here means the config
		// changed underneath us.
		return err
	}

	db, err := database.NewDB(cfg.Storage.Path)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open request archive")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	redisClient, draftRepo := initDraftRepository(ctx, cfg, logger)
	defer func() { _ = repository.Close(redisClient) }()

	eventBus := events.NewEventBus()
	clk := clock.System()

	draftService := service.NewDraftService(draftRepo, db, eventBus, cfg.Business, clk, logger)
	statusService := service.NewStatusService(week, clk, cfg.RefreshInterval(), logger)
	go statusService.Run(ctx)

	if cfg.Notify.TelegramEnabled {
		notifier, err := notify.NewTelegramNotifier(cfg.Notify.BotToken, cfg.Notify.ChatID, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create telegram notifier")
			return err
		}
		notify.SubscribeSubmissions(eventBus, notifier, logger)
	}

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort, logger)
	}

	exporter := export.NewExporter(cfg.Exports.Path)
	apiServer := api.NewHTTPServer(cfg.API, draftService, statusService, db, exporter)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	logger.Info().Int("port", cfg.API.Port).Msg("Lounge status service started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("API server error")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", "statusd").Logger()

	return cfg, &logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg.Storage.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			logger.Error().Err(err).Msg("Failed to create storage directory")
			return err
		}
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Failed to create export directory")
		return err
	}
	return nil
}

func initDraftRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverDraftRepository) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable, drafts will fall back to memory")
		}
	}

	primary := repository.NewRedisDraftRepository(redisClient, cfg.Draft.KeyPrefix, cfg.DraftTTL())
	fallback := repository.NewMemoryDraftRepository(cfg.DraftTTL())
	return redisClient, repository.NewFailoverDraftRepository(primary, fallback, logger)
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("Prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server error")
	}
}
