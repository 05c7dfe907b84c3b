package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type GenreRepositoryInterface interface {
	Create(ctx context.Context, g *model.Genre) error
	ListByUser(ctx context.Context, userID string) ([]model.Genre, error)
	Delete(ctx context.Context, userID, id string) error
}

type GenreRepository struct {
	DB *sql.DB
}

func (r *GenreRepository) Create(ctx context.Context, g *model.Genre) error {
	g.ID = newID(g.ID)
	g.CreatedAt = time.Now().UTC()
	g.Keywords = model.NormalizeKeywords(g.Keywords)
	keywords, err := json.Marshal(g.Keywords)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	query := `
        INSERT INTO genres (id, user_id, genre_name, keywords, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	if _, err := r.DB.ExecContext(ctx, query, g.ID, g.UserID, g.Name, keywords, g.CreatedAt); err != nil {
		return appErrors.NewPersistence("insert genre", err)
	}
	return nil
}

func (r *GenreRepository) ListByUser(ctx context.Context, userID string) ([]model.Genre, error) {
	query := `
        SELECT id, user_id, genre_name, keywords, created_at
        FROM genres WHERE user_id=$1 ORDER BY created_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	genres := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		var raw []byte
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &raw, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Keywords = []string{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &g.Keywords); err != nil {
				return nil, fmt.Errorf("decode keywords for genre %s: %w", g.ID, err)
			}
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (r *GenreRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM genres WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return appErrors.NewPersistence("delete genre", err)
	}
	return expectOne(res, appErrors.NewNotFound("genre", id))
}

var _ GenreRepositoryInterface = (*GenreRepository)(nil)
