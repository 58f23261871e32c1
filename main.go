package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/market-backend/config"
	"github.com/fenilmodi00/market-backend/handlers"
	"github.com/fenilmodi00/market-backend/jobs"
	"github.com/fenilmodi00/market-backend/services"
	"github.com/fenilmodi00/market-backend/shared"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	unified := cfg.ToUnified()
	config.ConfigureLogging(unified.Logging)

	universe, err := config.LoadUniverse(cfg.UniverseFile)
	if err != nil {
		logrus.Fatalf("Failed to load symbol universe: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Provider with a short-lived cache in front of it
	yahooProvider := services.NewYahooProvider(&unified.Provider)
	defer yahooProvider.Close()

	var cacheBackend services.CacheBackend
	var memoryCache *services.CacheService
	if unified.Cache.RedisURL != "" {
		redisCache, err := services.NewRedisCache(ctx, unified.Cache.RedisURL, unified.Cache.DefaultTTL)
		if err != nil {
			logrus.Warnf("Redis unavailable, falling back to in-memory cache: %v", err)
		} else {
			defer redisCache.Close()
			cacheBackend = redisCache
		}
	}
	if cacheBackend == nil {
		memoryCache = services.NewCacheService(unified.Cache.DefaultTTL, unified.Cache.MaxSize)
		cacheBackend = memoryCache
	}
	provider := services.NewCachingProvider(yahooProvider, cacheBackend, unified.Cache.DefaultTTL)

	marketService := services.NewMarketService(provider, universe)
	newsService := services.NewNewsService(universe.Feeds, &unified.News)

	var snapshotSource services.SnapshotSource = services.NewStaticSnapshotSource()
	if unified.Stream.Source == shared.StreamSourceLive {
		snapshotSource = services.NewIndexSnapshotSource(marketService)
	}
	publisher := services.NewStreamPublisher(snapshotSource, &unified.Stream)

	logrus.WithFields(logrus.Fields{
		"provider":        unified.Provider.BaseURL,
		"cache_backend":   cacheBackend.Name(),
		"cache_ttl":       unified.Cache.DefaultTTL,
		"indices":         len(universe.Indices),
		"popular_symbols": len(universe.Popular),
		"feeds":           len(universe.Feeds),
		"stream_source":   unified.Stream.Source,
		"stream_interval": unified.Stream.Interval,
	}).Info("Market backend services initialized")

	// Background jobs
	warmupJob := jobs.NewCacheWarmupJob(marketService, unified.Cache.WarmupInterval)
	warmupJob.Start(ctx)
	if memoryCache != nil {
		jobs.NewCacheCleanupJob(memoryCache, unified.Cache.CleanupInterval).Start(ctx)
	}

	// Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      unified.Logging.ServiceName,
		UnescapePath: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	handlers.SetupRoutes(app,
		handlers.NewMarketHandler(marketService, newsService),
		handlers.NewStreamHandler(publisher),
		handlers.NewPerformanceHandler(publisher, cacheBackend, warmupJob),
	)

	go func() {
		<-ctx.Done()
		logrus.Info("Shutdown signal received, closing streams")
		publisher.Shutdown()

		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Errorf("Server failed to start: %v", err)
		os.Exit(1)
	}

	for _, snapshot := range shared.AllServiceMetrics() {
		logrus.WithFields(logrus.Fields{
			"service_name":   snapshot.ServiceName,
			"total_requests": snapshot.TotalRequests,
			"success_rate":   snapshot.SuccessRate,
		}).Info("Final service metrics")
	}
}
