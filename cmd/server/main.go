// Package main runs the event organizer HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vmeste-app/backend/config"
	"github.com/vmeste-app/backend/internal/auth"
	"github.com/vmeste-app/backend/internal/events"
	"github.com/vmeste-app/backend/internal/middleware"
	"github.com/vmeste-app/backend/internal/purchases"
	"github.com/vmeste-app/backend/internal/tasks"
	"github.com/vmeste-app/backend/pkg/database"
	"github.com/vmeste-app/backend/pkg/redis"
	"github.com/vmeste-app/backend/pkg/response"
	"github.com/vmeste-app/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Event read cache; the API works without Redis, just uncached.
	var eventCache *events.Cache
	if rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger); err != nil {
		logger.Warn("event cache disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		eventCache = events.NewCache(rdb, time.Duration(cfg.Redis.CacheTTLSec)*time.Second, logger)
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ImagesBucket:         cfg.AWS.ImagesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Identity store
	userRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(userRepo, jwtService, logger)

	// Event aggregate + directory service
	eventRepo := events.NewRepository(pool)
	eventService := events.NewService(eventRepo, userRepo)
	eventHandler := events.NewHandler(eventService, eventCache, s3Client, logger)

	// Purchases
	purchaseRepo := purchases.NewRepository(pool)
	purchaseHandler := purchases.NewHandler(purchaseRepo, eventRepo, userRepo)

	// Tasks
	taskRepo := tasks.NewRepository(pool)
	taskHandler := tasks.NewHandler(taskRepo, eventRepo, userRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users
		api.GET("/users", middleware.RequireRole("ADMIN"), authHandler.List)
		api.GET("/users/exists", authHandler.Exists)
		api.GET("/users/telegram/:telegramId", authHandler.GetByTelegramID)
		api.GET("/users/:id", authHandler.GetByID)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", eventHandler.Create)
		api.GET("/events/user/:userId", eventHandler.ListForUser)
		api.GET("/events/organizer/:organizerId", eventHandler.ListByOrganizer)
		api.GET("/events/participant/:participantId", eventHandler.ListByParticipant)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PUT("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/participants/:userId", eventHandler.AddParticipant)
		api.DELETE("/events/:id/participants/:userId", eventHandler.RemoveParticipant)
		api.POST("/events/:id/image", eventHandler.UploadImage)
		api.POST("/events/:id/image/upload-url", eventHandler.GenerateImageUploadURL)

		// Purchases
		api.POST("/events/:id/purchases", purchaseHandler.Create)
		api.GET("/events/:id/purchases", purchaseHandler.ListByEvent)
		api.GET("/purchases/:id", purchaseHandler.GetByID)
		api.PUT("/purchases/:id", purchaseHandler.Update)
		api.DELETE("/purchases/:id", purchaseHandler.Delete)
		api.POST("/purchases/:id/participants/:userId", purchaseHandler.AddParticipant)
		api.DELETE("/purchases/:id/participants/:userId", purchaseHandler.RemoveParticipant)

		// Tasks
		api.POST("/events/:id/tasks", taskHandler.Create)
		api.GET("/events/:id/tasks", taskHandler.ListByEvent)
		api.GET("/tasks/:id", taskHandler.GetByID)
		api.PUT("/tasks/:id", taskHandler.Update)
		api.DELETE("/tasks/:id", taskHandler.Delete)
		api.PATCH("/tasks/:id/status", taskHandler.UpdateStatus)
		api.POST("/tasks/:id/assign/:userId", taskHandler.Assign)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
