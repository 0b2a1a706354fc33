// Package main runs the notification delivery worker and the periodic
// batch sweeps.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gigboard/backend/config"
	"github.com/gigboard/backend/internal/emaillogs"
	"github.com/gigboard/backend/internal/gigs"
	"github.com/gigboard/backend/internal/notify"
	"github.com/gigboard/backend/internal/organizations"
	"github.com/gigboard/backend/internal/plans"
	"github.com/gigboard/backend/internal/worker"
	"github.com/gigboard/backend/pkg/database"
	"github.com/gigboard/backend/pkg/mailer"
	"github.com/gigboard/backend/pkg/queue"
	"github.com/gigboard/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	emailLogsRepo := emaillogs.NewRepository(pool)
	sender := mailer.NewSMTP(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser,
		cfg.Email.SMTPPass, cfg.Email.FromAddress, cfg.Email.FromName)

	gigRepo := gigs.NewRepository(pool)
	orgRepo := organizations.NewRepository(pool)
	planRepo := plans.NewRepository(pool)
	notifyRepo := notify.NewRepository(pool)
	engine := notify.NewEngine(notifyRepo, gigRepo, planRepo, orgRepo, emailLogsRepo, jobQueue,
		cfg.Server.PublicBaseURL, logger)

	processor := worker.NewNotificationProcessor(jobQueue, sender, emailLogsRepo, logger)
	go processor.Run(ctx)

	go runSweep(ctx, logger, "snooze", time.Duration(cfg.Jobs.SnoozeSweepMinutes)*time.Minute,
		func(ctx context.Context) (int, error) { return engine.SnoozeReminderSweep(ctx, time.Now()) })
	go runSweep(ctx, logger, "watcher", time.Duration(cfg.Jobs.WatcherSweepMinutes)*time.Minute,
		engine.WatcherSweep)
	reminderWindow := time.Duration(cfg.Jobs.ReminderWindowHours) * time.Hour
	go runSweep(ctx, logger, "reminder", time.Duration(cfg.Jobs.ReminderSweepMinutes)*time.Minute,
		func(ctx context.Context) (int, error) { return engine.ReminderSweep(ctx, time.Now(), reminderWindow) })

	logger.Info("worker started")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	logger.Info("worker stopped")
}

// runSweep runs one batch job on a fixed cadence until ctx is cancelled.
func runSweep(ctx context.Context, logger *zap.Logger, name string, interval time.Duration,
	fn func(context.Context) (int, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := fn(ctx)
			if err != nil {
				logger.Error("sweep failed", zap.String("sweep", name), zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("sweep done", zap.String("sweep", name), zap.Int("processed", n))
			}
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
