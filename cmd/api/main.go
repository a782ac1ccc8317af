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

	"bookhive/internal/api"
	"bookhive/internal/config"
	"bookhive/internal/database"
	"bookhive/internal/domain"
	"bookhive/internal/events"
	"bookhive/internal/google"
	"bookhive/internal/logging"
	"bookhive/internal/metrics"
	"bookhive/internal/models"
	"bookhive/internal/notify"
	"bookhive/internal/repository"
	"bookhive/internal/service"
	"bookhive/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type seedEvent struct {
	models.Event `yaml:",inline"`
	Date         string `yaml:"event_date"`
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, base, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := base.With().Str("component", "api-main").Logger()

	if err := prepareDirectories(cfg); err != nil {
		logger.Error().Err(err).Msg("prepare directories")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, &base)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	sessions := initSessionStore(redisClient, &base)

	eventBus := events.NewEventBus()
	syncWorker := initSheetsWorker(ctx, cfg, db, redisClient, &base)
	initTelegram(ctx, cfg, eventBus, &base)
	if publisher := initAMQP(cfg, eventBus, &base); publisher != nil {
		defer func() { _ = publisher.Close() }()
	}

	tokens := api.NewTokenManager(cfg.API.JWT)
	bookingService := service.NewBookingService(db, eventBus, syncWorker, logging.Component(&base, "bookings"))
	svc := api.Services{
		Bookings: bookingService,
		Events:   service.NewEventService(db, bookingService, logging.Component(&base, "events")),
		Users: service.NewUserService(db, sessions, tokens, service.LoginLimit{
			Attempts: cfg.API.RateLimit.LoginAttempts,
			Window:   cfg.API.RateLimit.LoginWindow,
		}, logging.Component(&base, "users")),
		Analytics: service.NewAnalyticsService(db, logging.Component(&base, "analytics")),
		Sessions:  sessions,
		Tokens:    tokens,
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		inventory := api.NewInventoryService(svc.Events, svc.Analytics)
		grpcServer, err = api.NewGRPCServer(&cfg.API, inventory, &base)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(&cfg.API, svc, &base)

	startMetrics(ctx, cfg, &logger)
	startBackups(ctx, cfg, db, &base)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, *baseLogger, closer, nil
}

func prepareDirectories(cfg *config.Config) error {
	dirs := []string{filepath.Dir(cfg.Database.Path), cfg.Exports.Path}
	if cfg.Backup.Enabled && cfg.Backup.StoragePath != "" {
		dirs = append(dirs, cfg.Backup.StoragePath)
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func loadSeedEvents(logger *zerolog.Logger) ([]models.Event, error) {
	eventsPath := os.Getenv("EVENTS_PATH")
	if eventsPath == "" {
		eventsPath = "configs/events.yaml"
	}
	data, err := os.ReadFile(eventsPath)
	if os.IsNotExist(err) {
		logger.Info().Str("events_path", eventsPath).Msg("no seed events file, skipping")
		return nil, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("events_path", eventsPath).Msg("read events")
		return nil, err
	}

	var eventsConfig struct {
		Events []seedEvent `yaml:"events"`
	}
	if err := yaml.Unmarshal(data, &eventsConfig); err != nil {
		logger.Error().Err(err).Str("events_path", eventsPath).Msg("parse events")
		return nil, err
	}

	seeds := make([]models.Event, 0, len(eventsConfig.Events))
	for _, se := range eventsConfig.Events {
		date, err := time.Parse(models.DateLayout, se.Date)
		if err != nil {
			return nil, fmt.Errorf("event %q: bad event_date %q: %w", se.Title, se.Date, err)
		}
		event := se.Event
		event.EventDate = date
		seeds = append(seeds, event)
	}
	return seeds, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	seeds, err := loadSeedEvents(logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(seeds) > 0 {
		inserted, err := db.EnsureEvents(ctx, seeds)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("seed events: %w", err)
		}
		logger.Info().Int("inserted", inserted).Int("configured", len(seeds)).Msg("seed events applied")
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initSessionStore(redisClient *redis.Client, logger *zerolog.Logger) domain.SessionStore {
	memory := repository.NewMemorySessionStore()
	if redisClient == nil {
		logger.Info().Msg("using in-memory session store")
		return memory
	}
	return repository.NewFailoverSessionStore(
		repository.NewRedisSessionStore(redisClient),
		memory,
		logging.Component(logger, "sessions"),
	)
}

func initSheetsWorker(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) domain.SyncWorker {
	if !cfg.Sync.Enabled {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}
	logger.Info().Msg("google sheets connected")

	sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.RetryPolicy{
		MaxRetries:    cfg.Sync.MaxRetries,
		InitialDelay:  cfg.Sync.InitialDelay,
		MaxDelay:      cfg.Sync.MaxDelay,
		BackoffFactor: 2,
	}, logging.Component(logger, "sheets-worker"))
	go sheetsWorker.Start(ctx)

	return sheetsWorker
}

func initTelegram(ctx context.Context, cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Telegram.Enabled {
		return
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram bot init failed, booking notifications disabled")
		return
	}
	botAPI.Debug = cfg.Telegram.Debug
	logger.Info().Str("bot", botAPI.Self.UserName).Int("chats", len(cfg.Telegram.AdminChatIDs)).Msg("telegram notifier authorized")

	notifier := notify.NewTelegramNotifier(botAPI, cfg.Telegram.AdminChatIDs, logging.Component(logger, "telegram"))
	notifier.Subscribe(bus)
	go notifier.Start(ctx)
}

func initAMQP(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) *notify.AMQPPublisher {
	if cfg.AMQP.URL == "" {
		return nil
	}

	publisher, err := notify.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, logging.Component(logger, "amqp"))
	if err != nil {
		logger.Warn().Err(err).Msg("amqp connection failed, continuing without broker")
		return nil
	}
	publisher.Subscribe(bus)
	logger.Info().Str("queue", cfg.AMQP.Queue).Str("exchange", cfg.AMQP.Exchange).Msg("amqp publisher ready")
	return publisher
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startBackups(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) {
	if !cfg.Backup.Enabled {
		return
	}
	backups := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	go backups.Start(ctx)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
		logger.Info().Str("grpc_addr", grpcServer.Addr()).Msg("grpc server started")
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
