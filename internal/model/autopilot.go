// internal/model/autopilot.go
package model

import "time"

type RunTrigger string

const (
	TriggerManual    RunTrigger = "manual"
	TriggerScheduled RunTrigger = "scheduled"
)

// AutopilotStatus is the per-owner toggle plus metadata of the last run.
type AutopilotStatus struct {
	UserID         string     `json:"user_id"`
	Enabled        bool       `json:"enabled"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastRunMessage string     `json:"last_run_message,omitempty"`
	LastRunTrigger RunTrigger `json:"last_run_trigger,omitempty"`
}

// RunItemStatus is the outcome of one genre/platform pair.
type RunItemStatus string

const (
	ItemPosted RunItemStatus = "posted"
	ItemDraft  RunItemStatus = "draft"
	ItemError  RunItemStatus = "error"
)

type RunItem struct {
	PostID   string        `json:"post_id,omitempty"`
	Platform Platform      `json:"platform"`
	Genre    string        `json:"genre,omitempty"`
	Status   RunItemStatus `json:"status"`
	Content  string        `json:"content"`
	Error    string        `json:"error,omitempty"`
}

// RunResult is built once per run and not modified after it is returned.
type RunResult struct {
	Message    string     `json:"message"`
	Trigger    RunTrigger `json:"trigger"`
	Truncated  bool       `json:"truncated"`
	Items      []RunItem  `json:"results"`
	Posted     int        `json:"posted"`
	Drafts     int        `json:"drafts"`
	Errors     int        `json:"errors"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}
