package scheduler

import (
	"context"
	"time"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/queue"
)

type OwnerLister interface {
	ListEnabledOwners(ctx context.Context) ([]string, error)
}

// Scheduler publishes one RunJob per enabled owner on every tick. Ticks are
// aligned to interval boundaries so each minute is evaluated once.
type Scheduler struct {
	owners   OwnerLister
	queue    queue.Queue
	logger   logging.Logger
	interval time.Duration
	now      func() time.Time
}

func New(owners OwnerLister, q queue.Queue, logger logging.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{owners: owners, queue: q, logger: logger, interval: interval, now: time.Now}
}

// Start runs the tick loop until the returned stop func is called or parent ends.
func (s *Scheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			now := s.now()
			next := now.Truncate(s.interval).Add(s.interval)
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.Tick(ctx, next)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Tick enqueues a job for every owner with autopilot enabled. It returns the
// number of jobs published.
func (s *Scheduler) Tick(ctx context.Context, at time.Time) int {
	owners, err := s.owners.ListEnabledOwners(ctx)
	if err != nil {
		s.logger.WithError(err).Error("scheduler: list enabled owners failed")
		return 0
	}

	published := 0
	for _, owner := range owners {
		job := queue.RunJob{UserID: owner, TickAt: at.UTC()}
		if err := s.queue.Publish(ctx, queue.TopicAutopilotRuns, job); err != nil {
			s.logger.WithError(err).WithField("owner_id", owner).Error("scheduler: enqueue run failed")
			continue
		}
		published++
	}
	if published > 0 {
		s.logger.WithField("jobs", published).WithField("tick_at", at).Debug("scheduler: tick enqueued")
	}
	return published
}
