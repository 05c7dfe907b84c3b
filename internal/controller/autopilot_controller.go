package controller

import (
	"context"
	"net/http"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type AutopilotStatusStore interface {
	Get(ctx context.Context, ownerID string) (*model.AutopilotStatus, error)
	Toggle(ctx context.Context, ownerID string, enabled bool) (*model.AutopilotStatus, error)
}

type AutopilotRunner interface {
	RunNow(ctx context.Context, ownerID string) (*model.RunResult, error)
}

type AutopilotController struct {
	Store  AutopilotStatusStore
	Runner AutopilotRunner
	Logger logging.Logger
}

func (c *AutopilotController) Status(w http.ResponseWriter, r *http.Request) {
	status, err := c.Store.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (c *AutopilotController) Toggle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled" validate:"required"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	status, err := c.Store.Toggle(r.Context(), UserID(r.Context()), *body.Enabled)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// RunNow executes a manual run and returns its result. The run stops early
// if the client disconnects.
func (c *AutopilotController) RunNow(w http.ResponseWriter, r *http.Request) {
	result, err := c.Runner.RunNow(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
