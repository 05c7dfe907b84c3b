package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

// ErrInvalidTransition is returned when an update would move a post backwards.
var ErrInvalidTransition = errors.New("post status transition not allowed")

type PostRepositoryInterface interface {
	Create(ctx context.Context, p *model.Post) error
	UpdateStatus(ctx context.Context, id string, status model.PostStatus, lastError string, postedAt *time.Time) error
	GetByID(ctx context.Context, userID, id string) (*model.Post, error)
	ListByUser(ctx context.Context, userID string) ([]model.Post, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]model.Post, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, id string) error
}

type PostRepository struct {
	DB *sql.DB
}

const postColumns = `id, user_id, platform, genre, content, status, last_error, posted_at, created_at`

func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	p.ID = newID(p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = model.PostPending
	}
	query := `
        INSERT INTO posts (` + postColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.UserID, string(p.Platform), p.Genre, p.Content,
		string(p.Status), p.LastError, nullTime(p.PostedAt), p.CreatedAt)
	if err != nil {
		return appErrors.NewPersistence("insert post", err)
	}
	return nil
}

// UpdateStatus moves a post to status only when its current status allows it.
func (r *PostRepository) UpdateStatus(ctx context.Context, id string, status model.PostStatus, lastError string, postedAt *time.Time) error {
	from := status.Predecessors()
	if len(from) == 0 {
		return fmt.Errorf("%w: nothing moves to %s", ErrInvalidTransition, status)
	}
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	query := `
        UPDATE posts SET status=$1, last_error=$2, posted_at=COALESCE($3, posted_at)
        WHERE id=$4 AND status = ANY($5)
    `
	res, err := r.DB.ExecContext(ctx, query, string(status), lastError, nullTime(postedAt), id, pq.Array(allowed))
	if err != nil {
		return appErrors.NewPersistence("update post status", err)
	}
	return expectOne(res, fmt.Errorf("%w: post %s to %s", ErrInvalidTransition, id, status))
}

func (r *PostRepository) GetByID(ctx context.Context, userID, id string) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id=$1 AND user_id=$2`
	p, err := scanPost(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("post", id)
		}
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	return r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *PostRepository) ListRecent(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	return r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
}

func (r *PostRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM posts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return appErrors.NewPersistence("delete post", err)
	}
	return expectOne(res, appErrors.NewNotFound("post", id))
}

func (r *PostRepository) list(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	var p model.Post
	var platform, status string
	var postedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &platform, &p.Genre, &p.Content, &status, &p.LastError, &postedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Platform = model.Platform(platform)
	p.Status = model.PostStatus(status)
	p.PostedAt = timePtr(postedAt)
	return &p, nil
}

var _ PostRepositoryInterface = (*PostRepository)(nil)
