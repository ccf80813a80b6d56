package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traffic-insight/internal/api"
	"traffic-insight/internal/config"
	"traffic-insight/internal/observability"
	"traffic-insight/internal/registry"
	"traffic-insight/internal/scheduler"
	"traffic-insight/internal/services"
	"traffic-insight/pkg/client"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Traffic Insight Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	areas := registry.New(logger)

	clientConfig := client.ClientConfig{
		Timeout:        cfg.Upstream.Timeout,
		MaxRetries:     cfg.Upstream.MaxRetries,
		RetryDelay:     cfg.Upstream.RetryDelay,
		Multiplier:     cfg.Upstream.Multiplier,
		BreakerTimeout: cfg.Upstream.BreakerTimeout,
	}

	// Unconfigured providers stay nil; the gateway then serves
	// deterministic synthetic readings for them. The service must stay
	// available even with zero working upstreams.
	var trafficProvider services.TrafficProvider
	if cfg.Providers.TomTomAPIKey != "" {
		trafficProvider = client.NewTomTomClient(cfg.Providers.TomTomAPIKey, clientConfig, logger)
		logger.Info("TomTom traffic client initialized")
	} else {
		logger.Warn("TOMTOM_API_KEY not set, traffic readings will be synthetic")
	}

	var weatherProvider services.WeatherProvider
	if cfg.Providers.OpenWeatherAPIKey != "" {
		weatherProvider = client.NewOpenWeatherClient(cfg.Providers.OpenWeatherAPIKey, clientConfig, logger)
		logger.Info("OpenWeatherMap client initialized")
	} else {
		logger.Warn("OPENWEATHER_API_KEY not set, weather readings will be synthetic")
	}

	gateway := services.NewGateway(trafficProvider, weatherProvider, services.GatewayConfig{
		LiveTTL:         cfg.Cache.LiveTTL,
		SyntheticTTL:    cfg.Cache.SyntheticTTL,
		UpstreamTimeout: cfg.Upstream.Timeout,
		CacheMaxSize:    cfg.Cache.MaxSize,
	}, clock, metrics, logger)

	explainer := services.NewExplainer(gateway, cfg.Cache.LiveTTL, clock, logger)

	warmer := scheduler.NewWarmer(gateway, areas, cfg.Warmer.DefaultAreas, cfg.Warmer.Schedule, logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	handler := api.NewHandler(areas, explainer, gateway, api.ProviderStatus{
		TrafficConfigured: cfg.Providers.TomTomAPIKey != "",
		WeatherConfigured: cfg.Providers.OpenWeatherAPIKey != "",
	}, logger)
	api.SetupRoutes(app, handler, logger)

	if err := warmer.Start(); err != nil {
		logger.Fatal("Failed to start cache warmer", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	warmer.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	code := fiber.StatusInternalServerError
	kind := "internal"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if code == fiber.StatusNotFound {
			kind = "not_found"
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{"kind": kind, "message": err.Error()},
	})
}
