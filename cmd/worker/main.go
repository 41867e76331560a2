// Package main runs the background worker: notification emails and the
// daily mission enforcement sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shieldmate/backend/config"
	"github.com/shieldmate/backend/internal/auth"
	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/internal/notifications"
	"github.com/shieldmate/backend/internal/worker"
	"github.com/shieldmate/backend/pkg/database"
	"github.com/shieldmate/backend/pkg/queue"
	"github.com/shieldmate/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Notification emails
	logs := worker.NewEmailLogRepository(pool)
	sender := worker.NewSMTPSender(cfg.Email)
	emailProcessor := worker.NewEmailProcessor(sender, logs, jobQueue, logger)

	// Enforcement sweep: auto-close pending closures past the window.
	// Sweep-triggered notifications flow through the same dispatcher as
	// the API server's, so both parties get in-app rows and emails.
	authRepo := auth.NewRepository(pool)
	notifier := notifications.NewDispatcher(notifications.NewRepository(pool), jobQueue, authRepo, logger)
	missionRepo := missions.NewRepository(pool)
	missionSvc := missions.NewService(missionRepo, notifier, logger)
	missionSvc.Window = time.Duration(cfg.Worker.ClosureWindowHours) * time.Hour
	enforcer := worker.NewEnforcer(missionSvc, time.Duration(cfg.Worker.SweepIntervalHours)*time.Hour, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go emailProcessor.Run(workerCtx)
	go enforcer.Run(workerCtx)
	logger.Info("worker started",
		zap.Int("sweep_interval_hours", cfg.Worker.SweepIntervalHours),
		zap.Int("closure_window_hours", cfg.Worker.ClosureWindowHours))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
