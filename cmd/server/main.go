// Package main runs the ShieldMate HTTP server with WebSocket chat and graceful shutdown.
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

	"github.com/shieldmate/backend/config"
	"github.com/shieldmate/backend/internal/applications"
	"github.com/shieldmate/backend/internal/attachments"
	"github.com/shieldmate/backend/internal/auth"
	"github.com/shieldmate/backend/internal/chat"
	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/internal/notifications"
	"github.com/shieldmate/backend/internal/organizations"
	"github.com/shieldmate/backend/internal/ratings"
	"github.com/shieldmate/backend/internal/skills"
	"github.com/shieldmate/backend/internal/templates"
	"github.com/shieldmate/backend/internal/volunteers"
	"github.com/shieldmate/backend/pkg/database"
	"github.com/shieldmate/backend/pkg/queue"
	"github.com/shieldmate/backend/pkg/redis"
	"github.com/shieldmate/backend/pkg/response"
	"github.com/shieldmate/backend/pkg/storage"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AttachmentsBucket:    cfg.AWS.AttachmentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Notifications (in-app rows + email jobs for the worker)
	notificationRepo := notifications.NewRepository(pool)
	notifier := notifications.NewDispatcher(notificationRepo, jobQueue, authRepo, logger)
	notificationHandler := notifications.NewHandler(notificationRepo, logger)

	// Missions (lifecycle engine + persistence)
	missionRepo := missions.NewRepository(pool)
	missionSvc := missions.NewService(missionRepo, notifier, logger)
	missionSvc.Window = time.Duration(cfg.Worker.ClosureWindowHours) * time.Hour
	missionHandler := missions.NewHandler(missionSvc, missionRepo, logger)

	// Applications
	applicationRepo := applications.NewRepository(pool)
	applicationHandler := applications.NewHandler(missionSvc, applicationRepo, logger)

	// Ratings
	ratingRepo := ratings.NewRepository(pool)
	ratingSvc := ratings.NewService(missionSvc, ratingRepo, logger)
	ratingHandler := ratings.NewHandler(ratingSvc, ratingRepo, logger)

	// Organizations
	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo, logger)

	// Skills and volunteer profiles
	skillRepo := skills.NewRepository(pool)
	skillHandler := skills.NewHandler(skillRepo, logger)
	volunteerRepo := volunteers.NewRepository(pool)
	volunteerHandler := volunteers.NewHandler(volunteerRepo, skillRepo, ratingRepo, logger)

	// Mission templates
	templateRepo := templates.NewRepository(pool)
	templateHandler := templates.NewHandler(templateRepo, logger)

	// Mission chat (WebSocket rooms + persisted history)
	chatPubSub := chat.NewRedisPubSub(rdb.Client, logger)
	hub := chat.NewHub(logger, chatPubSub, chatPubSub)
	chatRepo := chat.NewRepository(pool)
	chatHandler := chat.NewHandler(chatRepo, missionSvc, logger)

	// Attachments (S3-backed)
	attachmentRepo := attachments.NewRepository(pool)
	attachmentHandler := attachments.NewHandler(attachmentRepo, missionSvc, s3Client, logger)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public discovery
	router.GET("/missions/open", missionHandler.ListOpen)
	router.GET("/organizations/by-slug/:slug", orgHandler.GetBySlug)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Organizations
		api.POST("/organizations", orgHandler.Create)
		api.GET("/organizations/mine", orgHandler.ListMine)
		api.POST("/organizations/:id/members", orgHandler.Join)
		api.PATCH("/organizations/:id/members/:userId", orgHandler.ApproveMember)
		api.GET("/organizations/:id/members", orgHandler.ListMembers)
		api.GET("/organizations/:id/missions", missionHandler.ListByOrganization)

		// Missions and lifecycle
		api.POST("/missions", missionHandler.Create)
		api.GET("/missions/applied", missionHandler.ListApplied)
		api.GET("/missions/:id", missionHandler.GetByID)
		api.POST("/missions/:id/cancel", missionHandler.Cancel)
		api.POST("/missions/:id/closure/propose", missionHandler.ProposeClosure)
		api.POST("/missions/:id/closure/confirm", missionHandler.ConfirmClosure)
		api.POST("/missions/:id/closure/dispute", missionHandler.DisputeClosure)
		api.DELETE("/missions", middleware.RequireRole("admin"), missionHandler.BulkDelete)

		// Applications
		api.POST("/missions/:id/applications", applicationHandler.Submit)
		api.GET("/missions/:id/applications", applicationHandler.ListByMission)
		api.PATCH("/applications/:id", applicationHandler.Decide)
		api.GET("/applications/mine", applicationHandler.ListMine)

		// Ratings
		api.POST("/missions/:id/ratings", ratingHandler.Submit)
		api.GET("/missions/:id/ratings", ratingHandler.ListByMission)
		api.GET("/users/:id/ratings", ratingHandler.ListForUser)

		// Notifications
		api.GET("/notifications", notificationHandler.List)
		api.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)

		// Skills and volunteer profiles
		api.GET("/skills", skillHandler.List)
		api.POST("/skills", middleware.RequireRole("admin"), skillHandler.Create)
		api.GET("/volunteers/me", volunteerHandler.GetMine)
		api.PUT("/volunteers/me", volunteerHandler.UpdateMine)
		api.GET("/volunteers/:id", volunteerHandler.Get)

		// Mission templates
		api.GET("/templates", templateHandler.List)
		api.GET("/templates/:id", templateHandler.GetByID)
		api.POST("/templates", middleware.RequireRole("admin"), templateHandler.Create)
		api.DELETE("/templates/:id", middleware.RequireRole("admin"), templateHandler.Delete)

		// Mission chat history
		api.GET("/missions/:id/chat", chatHandler.History)

		// Attachments
		api.POST("/missions/:id/attachments", attachmentHandler.Upload)
		api.GET("/missions/:id/attachments", attachmentHandler.List)
		api.GET("/attachments/:id/download", attachmentHandler.Download)
		api.DELETE("/attachments/:id", attachmentHandler.Delete)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", chat.ServeWs(hub, chatRepo, missionSvc, logger, jwtValidate))

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
