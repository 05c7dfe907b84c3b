// Package app wires the repositories, collaborators and use cases shared by
// the server and worker binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unclebandit/autobuzz-backend/internal/autopilot"
	"github.com/unclebandit/autobuzz-backend/internal/config"
	"github.com/unclebandit/autobuzz-backend/internal/db"
	"github.com/unclebandit/autobuzz-backend/internal/generator"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/notify"
	"github.com/unclebandit/autobuzz-backend/internal/publisher"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
	"github.com/unclebandit/autobuzz-backend/internal/trend"
)

const redisDialTimeout = 5 * time.Second

type Repositories struct {
	Users      *repository.UserRepository
	Accounts   *repository.SnsAccountRepository
	Genres     *repository.GenreRepository
	Schedules  *repository.ScheduleRepository
	Posts      *repository.PostRepository
	Affiliates *repository.AffiliateRepository
	Links      *repository.LinkRepository
	Autopilot  *repository.AutopilotRepository
}

type App struct {
	Config *config.Config
	Logger logging.Logger
	DB     *sql.DB
	Redis  goredis.UniversalClient

	Repos        Repositories
	Trends       trend.Source
	Generator    generator.Generator
	Status       *autopilot.StatusStore
	Orchestrator *autopilot.Orchestrator
}

// New opens the database, applies the schema and builds the autopilot
// orchestrator. Redis is optional: without it trends are not cached and run
// locks are process-local.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: conn}
	a.Repos = Repositories{
		Users:      &repository.UserRepository{DB: conn},
		Accounts:   &repository.SnsAccountRepository{DB: conn},
		Genres:     &repository.GenreRepository{DB: conn},
		Schedules:  &repository.ScheduleRepository{DB: conn},
		Posts:      &repository.PostRepository{DB: conn},
		Affiliates: &repository.AffiliateRepository{DB: conn},
		Links:      &repository.LinkRepository{DB: conn},
		Autopilot:  &repository.AutopilotRepository{DB: conn},
	}

	if cfg.RedisURL != "" {
		client, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		logger.Info("Redis connected")
	}

	a.Trends = newTrendSource(cfg, a.Redis, logger)
	a.Generator, err = generator.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init generator: %w", err)
	}

	a.Status = autopilot.NewStatusStore(a.Repos.Autopilot)

	var locker autopilot.RunLocker = autopilot.NewLocalRunLocker()
	if a.Redis != nil {
		locker = autopilot.NewRedisRunLocker(a.Redis, cfg.RunLockTTL, logger)
	}

	a.Orchestrator = autopilot.NewOrchestrator(autopilot.Dependencies{
		Genres:    a.Repos.Genres,
		Accounts:  a.Repos.Accounts,
		Schedules: a.Repos.Schedules,
		Posts:     a.Repos.Posts,
		Offers:    a.Repos.Affiliates,
		Status:    a.Status,
		Trends:    a.Trends,
		Generator: a.Generator,
		Publishers: publisher.Registry{
			model.PlatformX:       publisher.NewXPublisher(cfg.XAPIKey, cfg.XAPISecret, cfg.XAPIURL, logger),
			model.PlatformThreads: publisher.NewThreadsPublisher(cfg.ThreadsURL),
		},
		Locker:   locker,
		Notifier: notify.New(cfg.SlackWebhookURL),
		Logger:   logger,
	}, autopilot.Options{
		Concurrency: cfg.AutopilotConcurrency,
		CallTimeout: cfg.CollaboratorTimeout,
		Retries:     cfg.CollaboratorRetries,
		Location:    cfg.Location(),
	})

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func openRedis(ctx context.Context, redisURL string) (goredis.UniversalClient, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = redisDialTimeout
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func newTrendSource(cfg *config.Config, client goredis.UniversalClient, logger logging.Logger) trend.Source {
	var src trend.Source = trend.NewAggregator(
		trend.NewGoogleTrendsCollector(cfg.GoogleTrendsFeedURL),
		trend.NewNewsCollector(trend.ParseNewsFeeds(cfg.NewsFeeds), logger),
		trend.NewXBuzzCollector(cfg.XBearerToken, cfg.XAPIURL),
		logger,
	)
	if client != nil {
		src = trend.NewCachedSource(src, client, cfg.TrendCacheTTL, logger)
	}
	return src
}
