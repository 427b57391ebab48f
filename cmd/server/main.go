package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxis-edu/practice-service/internal/cache"
	"github.com/praxis-edu/practice-service/internal/config"
	"github.com/praxis-edu/practice-service/internal/handlers"
	"github.com/praxis-edu/practice-service/internal/middleware"
	"github.com/praxis-edu/practice-service/internal/repositories/postgres"
	"github.com/praxis-edu/practice-service/internal/services"
	"github.com/praxis-edu/practice-service/internal/utils"
	"github.com/praxis-edu/practice-service/internal/validator"
	"github.com/praxis-edu/practice-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := postgres.AutoMigrate(db); err != nil {
		logger.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Redis connection failed", "error", err)
		os.Exit(1)
	}
	cacheService := cache.NewRedisCache(redisClient, logger)

	publisher, err := cfg.Events.CreateEventPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		logger.Error("Event publisher setup failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := repo.Achievement().SeedDefaults(ctx); err != nil {
		logger.Error("Achievement seeding failed", "error", err)
		os.Exit(1)
	}

	serviceManager := services.NewServiceManager(repo, cacheService, publisher, logger, validator.New())
	handlerManager := handlers.NewHandlerManager(serviceManager, logger)
	auth := middleware.NewAuthenticator(cfg, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	handlerManager.SetupRoutes(router, auth.Middleware())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Practice service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Warn("Event publisher close failed", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		logger.Warn("Redis close failed", "error", err)
	}
	if err := repo.Close(); err != nil {
		logger.Warn("Database close failed", "error", err)
	}
	logger.Info("Shutdown complete")
}
