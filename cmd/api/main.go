package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartturf/internal/api"
	"smartturf/internal/config"
	"smartturf/internal/database"
	"smartturf/internal/domain"
	"smartturf/internal/events"
	"smartturf/internal/export"
	"smartturf/internal/logging"
	"smartturf/internal/metrics"
	"smartturf/internal/models"
	"smartturf/internal/repository"
	"smartturf/internal/service"
	"smartturf/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
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
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	cache := initCache(cfg, &logger)

	eventBus := events.NewEventBus()
	subscribeMetrics(eventBus)

	bookingService := service.NewBookingService(db, cache, eventBus, cfg.Booking, &logger)
	matchService := service.NewMatchService(db, eventBus, &logger)
	catalogService := service.NewCatalogService(db)
	userService := service.NewUserService(db, cfg.Auth.BcryptCost)

	exporter := export.NewExcelExporter(db, cfg.Exports.Path, &logger)
	exportWorker := worker.NewExportWorker(exporter, worker.RetryPolicy{}, &logger)

	httpServer := api.NewHTTPServer(cfg, db, api.Services{
		Users:    userService,
		Bookings: bookingService,
		Matches:  matchService,
		Catalog:  catalogService,
	}, cache, exportWorker, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go exportWorker.Start(ctx)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
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
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// loadCatalog reads the optional turf/kit seed file. A missing file means the
// catalog is managed entirely through the API.
func loadCatalog(logger *zerolog.Logger) ([]models.Turf, []models.Kit, error) {
	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "configs/catalog.yaml"
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info().Str("catalog_path", catalogPath).Msg("no catalog file, skipping seed")
			return nil, nil, nil
		}
		logger.Error().Err(err).Str("catalog_path", catalogPath).Msg("read catalog")
		return nil, nil, err
	}

	var catalog struct {
		Turfs []models.Turf `yaml:"turfs"`
		Kits  []models.Kit  `yaml:"kits"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("catalog_path", catalogPath).Msg("parse catalog")
		return nil, nil, err
	}

	return catalog.Turfs, catalog.Kits, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	turfs, kits, err := loadCatalog(logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.SeedCatalog(context.Background(), turfs, kits); err != nil {
		logger.Error().Err(err).Msg("seed catalog")
		db.Close()
		return nil, err
	}

	return db, nil
}

// initCache wires the slot cache: redis with in-memory failover when enabled,
// plain in-memory otherwise.
func initCache(cfg *config.Config, logger *zerolog.Logger) domain.CacheRepository {
	ttl := time.Duration(cfg.Booking.SlotCacheTTL) * time.Second
	memory := repository.NewMemoryCacheRepository(ttl)

	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return memory
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-memory cache")
		return memory
	}
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")

	primary := repository.NewRedisCacheRepository(redisClient, ttl)
	return repository.NewFailoverCacheRepository(primary, memory, logger)
}

func subscribeMetrics(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, func(*events.Event) error {
		metrics.IncBooking("created")
		return nil
	})
	bus.Subscribe(events.EventBookingConflict, func(*events.Event) error {
		metrics.IncBooking("conflict")
		return nil
	})
	bus.Subscribe(events.EventMatchJoined, func(*events.Event) error {
		metrics.IncMatchJoin("joined")
		return nil
	})
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

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
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
