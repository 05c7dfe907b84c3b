package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/autobuzz-backend/internal/autopilot"
	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/queue"
)

type ScheduledRunner interface {
	RunScheduled(ctx context.Context, ownerID string, now time.Time) (*model.RunResult, error)
}

// RunJobHandler consumes autopilot_runs jobs.
type RunJobHandler struct {
	Runner ScheduledRunner
	Logger logging.Logger
}

func NewRunJobHandler(runner ScheduledRunner, logger logging.Logger) *RunJobHandler {
	return &RunJobHandler{Runner: runner, Logger: logger}
}

// Handle acknowledges malformed jobs, skipped ticks and owners that are
// already running. Only run-level failures are returned for redelivery.
func (h *RunJobHandler) Handle(ctx context.Context, payload []byte) error {
	var job queue.RunJob
	if err := json.Unmarshal(payload, &job); err != nil || job.UserID == "" {
		h.Logger.WithField("payload", string(payload)).Warn("Discarding malformed run job")
		return nil
	}
	log := h.Logger.WithFields(logrus.Fields{"owner_id": job.UserID, "tick_at": job.TickAt})

	result, err := h.Runner.RunScheduled(ctx, job.UserID, job.TickAt)
	switch {
	case errors.Is(err, autopilot.ErrSkipped):
		log.Debug("No schedule due")
		return nil
	case errors.Is(err, appErrors.ErrRunInProgress):
		log.Info("Run already in progress, skipping tick")
		return nil
	case err != nil:
		log.WithError(err).Error("Scheduled run failed")
		return err
	}

	log.WithField("message", result.Message).Info("Scheduled run completed")
	return nil
}
