// internal/model/post.go
package model

import "time"

type Platform string

const (
	PlatformX       Platform = "x"
	PlatformThreads Platform = "threads"
)

func (p Platform) Valid() bool {
	return p == PlatformX || p == PlatformThreads
}

// CharLimit is the maximum post length in runes.
func (p Platform) CharLimit() int {
	if p == PlatformThreads {
		return 500
	}
	return 280
}

func (p Platform) DisplayName() string {
	if p == PlatformThreads {
		return "Threads"
	}
	return "X (Twitter)"
}

type PostStatus string

const (
	PostPending PostStatus = "pending"
	PostDraft   PostStatus = "draft"
	PostPosted  PostStatus = "posted"
	PostError   PostStatus = "error"
)

// CanTransition reports whether a post may move from s to next.
// Status only moves forward: pending -> draft/posted/error, draft -> posted/error.
func (s PostStatus) CanTransition(next PostStatus) bool {
	switch s {
	case PostPending:
		return next == PostDraft || next == PostPosted || next == PostError
	case PostDraft:
		return next == PostPosted || next == PostError
	default:
		return false
	}
}

// Predecessors lists the statuses that may transition into s.
func (s PostStatus) Predecessors() []PostStatus {
	var out []PostStatus
	for _, from := range []PostStatus{PostPending, PostDraft} {
		if from.CanTransition(s) {
			out = append(out, from)
		}
	}
	return out
}

type Post struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"-"`
	Platform  Platform   `db:"platform" json:"platform"`
	Genre     string     `db:"genre" json:"genre,omitempty"`
	Content   string     `db:"content" json:"content"`
	Status    PostStatus `db:"status" json:"status"`
	LastError string     `db:"last_error" json:"last_error,omitempty"`
	PostedAt  *time.Time `db:"posted_at" json:"posted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
