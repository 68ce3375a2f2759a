// Command worker consumes reservation and store events from RabbitMQ and
// appends them to the event log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/queue"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Env,
		ServiceName: cfg.App.ServiceName + "-worker",
	}); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting worker", zap.String("log_dir", cfg.RabbitMQ.LogDir))
	c := queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.LogDir, log)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", zap.Error(err))
		return
	}
	log.Info("worker shutting down gracefully")
}
