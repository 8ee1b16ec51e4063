package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/coordinator"
	"github.com/i474232898/weather-dashboard/internal/events"
	"github.com/i474232898/weather-dashboard/internal/locations"
	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Key-value backend shared by the cache and the saved list.
	local, closeStore, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		RedisURL:    cfg.RedisURL,
		RedisPrefix: cfg.RedisPrefix,
		DatabaseURL: cfg.DatabaseURL,
	}, zl)
	if err != nil {
		zl.Fatal("failed to open local store", zap.Error(err))
	}
	defer closeStore()

	client := newWeatherClient(cfg, zl)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, zl)
		if err != nil {
			zl.Fatal("failed to create kafka publisher", zap.Error(err))
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			kp.Close(flushCtx)
		}()
		publisher = kp
	}

	coord := coordinator.New(
		client,
		cache.New[weather.WeatherSnapshot](local, cache.Config{TTL: cfg.CacheTTL, Logger: zl}),
		locations.NewStore(local),
		zl,
		coordinator.WithForecastDays(cfg.ForecastDays),
		coordinator.WithPublisher(publisher),
	)
	if _, err := coord.LoadSavedLocations(ctx); err != nil {
		zl.Warn("failed to load saved locations", zap.Error(err))
	}

	// Scheduler that periodically refreshes saved locations.
	sched := scheduler.New(coord, cfg.RefreshInterval, zl)
	if err := sched.Start(); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := store.Health(c.UserContext(), local); err != nil {
			zl.Warn("health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "degraded",
				"service": "weather-dashboard",
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})

	httpapi.RegisterRoutes(app, coord)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
		}
	}()
	zl.Info("weather dashboard started",
		zap.String("port", cfg.Port),
		zap.String("provider", cfg.WeatherProvider),
		zap.String("store", cfg.StoreBackend),
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
}

func newWeatherClient(cfg *config.AppConfig, zl *zap.Logger) weather.Client {
	if cfg.WeatherProvider == config.ProviderMock {
		zl.Info("using canned weather data")
		return providers.NewMockClient()
	}

	backoff := providers.DefaultBackoff()
	backoff.MaxRetries = int(cfg.MaxRetries)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	return providers.NewProxyClient(httpClient, cfg.WeatherEndpoint, backoff, zl)
}
