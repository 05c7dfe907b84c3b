// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/autobuzz-backend/internal/app"
	"github.com/unclebandit/autobuzz-backend/internal/config"
	"github.com/unclebandit/autobuzz-backend/internal/controller"
	"github.com/unclebandit/autobuzz-backend/internal/handler"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/queue"
	"github.com/unclebandit/autobuzz-backend/internal/scheduler"
	"github.com/unclebandit/autobuzz-backend/internal/service"
	"github.com/unclebandit/autobuzz-backend/internal/token"
)

const shutdownTimeout = 15 * time.Second

func main() {
	bootLogger := logging.NewLogger()
	config.LoadEnv(bootLogger)

	cfg, err := config.Load()
	if err != nil {
		bootLogger.WithError(err).Fatal("Invalid configuration")
	}
	logger := logging.NewLoggerWithService("autobuzz-api", cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}
	defer a.Close()

	tokens, err := token.NewHMACService(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize token service")
	}

	// Scheduled runs go through AMQP when configured so a separate worker can
	// execute them. Otherwise they are consumed in-process.
	var q queue.Queue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.DialAMQP(cfg.AMQPURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to AMQP")
		}
		q = amqpQueue
	} else {
		q = queue.NewInMemoryQueue(logger)
		jobs := handler.NewRunJobHandler(a.Orchestrator, logger)
		if err := q.Subscribe(queue.TopicAutopilotRuns, jobs.Handle); err != nil {
			logger.WithError(err).Fatal("Failed to subscribe run handler")
		}
	}
	defer q.Close()

	stopScheduler := scheduler.New(a.Repos.Autopilot, q, logger, cfg.SchedulerInterval).Start(ctx)
	defer stopScheduler()

	auth := service.NewAuthService(a.Repos.Users, tokens, logger)
	router := controller.NewRouter(controller.Controllers{
		Auth:      &controller.AuthController{Auth: auth, Logger: logger},
		Sns:       &controller.SnsController{Accounts: &service.AccountService{Accounts: a.Repos.Accounts}, Logger: logger},
		Genres:    &controller.GenreController{Genres: &service.GenreService{Genres: a.Repos.Genres}, Logger: logger},
		Schedules: &controller.ScheduleController{Schedules: &service.ScheduleService{Schedules: a.Repos.Schedules}, Logger: logger},
		Posts: &controller.PostController{Posts: &service.PostService{
			Posts:     a.Repos.Posts,
			Source:    a.Trends,
			Generator: a.Generator,
			Logger:    logger,
		}, Logger: logger},
		Affiliate: &controller.AffiliateController{Affiliates: &service.AffiliateService{
			Affiliates: a.Repos.Affiliates,
			Links:      a.Repos.Links,
			Posts:      a.Repos.Posts,
		}, Logger: logger},
		Autopilot: &controller.AutopilotController{Store: a.Status, Runner: a.Orchestrator, Logger: logger},
		Dashboard: &controller.DashboardController{Dashboard: &service.DashboardService{
			Posts:      a.Repos.Posts,
			Links:      a.Repos.Links,
			Affiliates: a.Repos.Affiliates,
		}, Logger: logger},
		Links: &controller.LinkController{
			Links:  service.NewLinkService(a.Repos.Links, logger),
			AppURL: cfg.AppURL,
			Logger: logger,
		},
		Authenticator: auth,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Error during shutdown")
	}
	logger.Info("Server stopped")
}
