package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

// ErrShortCodeTaken signals a short_code collision; callers retry with a new code.
var ErrShortCodeTaken = errors.New("short code already in use")

type LinkRepositoryInterface interface {
	Create(ctx context.Context, l *model.ShortLink) error
	GetByCode(ctx context.Context, code string) (*model.ShortLink, error)
	RecordClick(ctx context.Context, linkID string) error
	CountClicksByUser(ctx context.Context, userID string) (int, error)
}

type LinkRepository struct {
	DB *sql.DB
}

func (r *LinkRepository) Create(ctx context.Context, l *model.ShortLink) error {
	l.ID = newID(l.ID)
	l.CreatedAt = time.Now().UTC()
	query := `INSERT INTO short_links (id, user_id, original_url, short_code, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.DB.ExecContext(ctx, query, l.ID, l.UserID, l.OriginalURL, l.ShortCode, l.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrShortCodeTaken
		}
		return appErrors.NewPersistence("insert short link", err)
	}
	return nil
}

func (r *LinkRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	var l model.ShortLink
	err := r.DB.QueryRowContext(ctx, `
        SELECT id, user_id, original_url, short_code, created_at FROM short_links WHERE short_code=$1
    `, code).Scan(&l.ID, &l.UserID, &l.OriginalURL, &l.ShortCode, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("link", code)
		}
		return nil, err
	}
	return &l, nil
}

func (r *LinkRepository) RecordClick(ctx context.Context, linkID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO click_logs (id, link_id, clicked_at) VALUES ($1, $2, $3)`, newID(""), linkID, time.Now().UTC())
	if err != nil {
		return appErrors.NewPersistence("insert click log", err)
	}
	return nil
}

func (r *LinkRepository) CountClicksByUser(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM click_logs c
        JOIN short_links l ON l.id = c.link_id
        WHERE l.user_id=$1
    `, userID).Scan(&total)
	return total, err
}

var _ LinkRepositoryInterface = (*LinkRepository)(nil)
