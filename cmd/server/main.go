package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic_flow_app_go/config"
	"clinic_flow_app_go/db"
	"clinic_flow_app_go/handlers"
	"clinic_flow_app_go/logger"
	"clinic_flow_app_go/middleware"
	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat, "clinic-server")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize database
	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
		Environment: cfg.Environment,
	}, appLogger); err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.MigrationModels()...); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Live notification channel: Redis when configured, in-process otherwise
	var broker services.NotificationBroker
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			appLogger.Fatal("Failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		broker = services.NewRedisBroker(redisClient, appLogger.Named("broker"))
	} else {
		appLogger.Info("REDIS_ADDR not set, live notifications stay in-process")
		broker = services.NewMemoryBroker(appLogger.Named("broker"))
	}

	loginMonitor := services.NewLoginMonitor(appLogger.Named("security"))
	handlers.InitServices(handlers.Options{
		Logger:              appLogger,
		Broker:              broker,
		SearchLimit:         cfg.SearchResultLimit,
		NotificationHistory: cfg.NotificationHistory,
		LoginMonitor:        loginMonitor,
	})

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestLogger(appLogger.Named("http")))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.CSRF(cfg.IsProduction()))

	// Public routes (no authentication required)
	e.GET("/login", handlers.LoginHandler)
	e.POST("/login", handlers.LoginPostHandler, middleware.LoginRateLimiter.Middleware())
	e.POST("/api/login", handlers.LoginPostHandler, middleware.LoginRateLimiter.Middleware())

	// Protected routes (authentication + clinic required)
	protected := e.Group("")
	protected.Use(middleware.RequireAuth())
	protected.Use(middleware.RequireClinic(handlers.ClinicDirectory()))
	{
		protected.GET("/", handlers.DashboardHandler)
		protected.POST("/logout", handlers.LogoutHandler)
		protected.GET("/notifications", handlers.NotificationsPageHandler)

		api := protected.Group("/api")
		api.Use(middleware.APIRateLimiter.Middleware())
		api.GET("/me", handlers.GetCurrentUserHandler)
		api.GET("/search", handlers.SearchHandler, middleware.SearchRateLimiter.Middleware())

		// Notification routes
		api.GET("/notifications", handlers.GetNotificationsHandler)
		api.GET("/notifications/stream", handlers.NotificationStreamHandler)
		api.POST("/notifications/read-all", handlers.MarkAllNotificationsReadHandler)
		api.POST("/notifications/:id/read", handlers.MarkNotificationReadHandler)
		api.DELETE("/notifications/:id", handlers.DeleteNotificationHandler)
		api.POST("/notifications", handlers.CreateNotificationHandler, middleware.RequireRole(middleware.RoleOwnerOrAdmin...))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background cleanup jobs (runs every hour)
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				loginMonitor.Prune()

				removed, err := services.CleanupExpiredSessions(db.DB)
				if err != nil {
					appLogger.Error("Error cleaning up expired sessions", zap.Error(err))
					continue
				}
				if removed > 0 {
					appLogger.Info("Cleaned up expired sessions", zap.Int64("removed", removed))
				}
			}
		}
	}()

	// Start server
	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("Server starting", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
		errCh <- e.Start(":" + cfg.ServerPort)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	appLogger.Info("Server stopped")
}
