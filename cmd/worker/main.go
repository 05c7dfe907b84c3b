package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/autobuzz-backend/internal/app"
	"github.com/unclebandit/autobuzz-backend/internal/config"
	"github.com/unclebandit/autobuzz-backend/internal/handler"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/queue"
)

func main() {
	bootLogger := logging.NewLogger()
	config.LoadEnv(bootLogger)

	cfg, err := config.Load()
	if err != nil {
		bootLogger.WithError(err).Fatal("Invalid configuration")
	}
	logger := logging.NewLoggerWithService("autobuzz-worker", cfg.LogFile)
	if cfg.AMQPURL == "" {
		logger.Fatal("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}
	defer a.Close()

	q, err := queue.DialAMQP(cfg.AMQPURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to AMQP")
	}
	defer q.Close()

	if err := consume(q, a.Orchestrator, logger); err != nil {
		logger.WithError(err).Fatal("Failed to register consumer")
	}

	logger.Info("Worker running, waiting for autopilot runs...")
	<-ctx.Done()
	logger.Info("Worker stopping")
}

// consume executes every scheduled run job published on q.
func consume(q queue.Queue, runner handler.ScheduledRunner, logger logging.Logger) error {
	jobs := handler.NewRunJobHandler(runner, logger)
	return q.Subscribe(queue.TopicAutopilotRuns, jobs.Handle)
}
