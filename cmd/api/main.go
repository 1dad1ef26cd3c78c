package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/familyrecipes/backend/config"
	"github.com/pageza/familyrecipes/backend/internal/api"
	"github.com/pageza/familyrecipes/backend/internal/database"
	"github.com/pageza/familyrecipes/backend/internal/metrics"
	"github.com/pageza/familyrecipes/backend/internal/middleware"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/repos"
	"github.com/pageza/familyrecipes/backend/internal/router"
	"github.com/pageza/familyrecipes/backend/internal/server"
	"github.com/pageza/familyrecipes/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir, appLog); err != nil {
		appLog.Fatal("Failed to run migrations", "error", err)
	}

	// Rate limiting is skipped when Redis is unreachable.
	var redisClient *redis.Client
	if client, err := database.NewRedisClient(cfg, appLog); err != nil {
		appLog.Warn("Redis unavailable, rate limiting disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	repo := repos.NewRecipeRepo(db, appLog)

	var photos service.PhotoStore
	if cfg.S3Bucket != "" {
		s3Config, err := config.NewS3Config(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			appLog.Fatal("Failed to configure photo storage", "error", err)
		}
		photos = service.NewS3PhotoStore(s3Config, appLog)
	} else {
		appLog.Info("S3_BUCKET not set, recipe photo uploads disabled")
	}

	recipes := service.NewRecipeService(repo, photos, cfg.RateRoles, appLog)
	tokens := service.NewTokenService(cfg.JWTSecret)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	snapshot, err := metrics.NewSnapshotter(repo, appLog,
		metrics.WithInterval(cfg.MetricsInterval),
		metrics.WithRegisterer(registry),
	)
	if err != nil {
		appLog.Fatal("Failed to initialize metrics", "error", err)
	}

	handler := router.SetupRouter(router.Dependencies{
		Recipes:         api.NewRecipeHandler(recipes, cfg.RatingsEnabled, appLog),
		Health:          api.NewHealthHandler(db, snapshot),
		Tokens:          tokens,
		CreatorRoles:    cfg.CreateRoles,
		CreationLimiter: middleware.NewRecipeCreationRateLimiter(redisClient, appLog),
		RatingLimiter:   middleware.NewRecipeRatingRateLimiter(redisClient, appLog),
		Metrics:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSOrigins:     cfg.CORSOrigins,
		Log:             appLog,
	})
	srv := server.New(cfg, handler, appLog)

	snapshot.Start(ctx)
	err = srv.Start(ctx)
	snapshot.Stop()
	if err != nil {
		appLog.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
	appLog.Info("Server stopped")
}
