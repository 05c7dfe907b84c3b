package repository

import (
	"context"
	"database/sql"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type SnsAccountRepositoryInterface interface {
	Create(ctx context.Context, a *model.SnsAccount) error
	ListByUser(ctx context.Context, userID string) ([]model.SnsAccount, error)
	Delete(ctx context.Context, userID, id string) error
}

type SnsAccountRepository struct {
	DB *sql.DB
}

func (r *SnsAccountRepository) Create(ctx context.Context, a *model.SnsAccount) error {
	a.ID = newID(a.ID)
	a.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO sns_accounts (id, user_id, platform, access_token, access_token_secret, refresh_token, account_name, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.UserID, string(a.Platform), a.AccessToken, a.AccessTokenSecret,
		a.RefreshToken, a.AccountName, nullTime(a.ExpiresAt), a.CreatedAt)
	if err != nil {
		return appErrors.NewPersistence("insert sns account", err)
	}
	return nil
}

// ListByUser returns accounts oldest first so platform order is stable across runs.
func (r *SnsAccountRepository) ListByUser(ctx context.Context, userID string) ([]model.SnsAccount, error) {
	query := `
        SELECT id, user_id, platform, access_token, access_token_secret, refresh_token, account_name, expires_at, created_at
        FROM sns_accounts WHERE user_id=$1 ORDER BY created_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []model.SnsAccount{}
	for rows.Next() {
		var a model.SnsAccount
		var platform string
		var expires sql.NullTime
		if err := rows.Scan(&a.ID, &a.UserID, &platform, &a.AccessToken, &a.AccessTokenSecret,
			&a.RefreshToken, &a.AccountName, &expires, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Platform = model.Platform(platform)
		a.ExpiresAt = timePtr(expires)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SnsAccountRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sns_accounts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return appErrors.NewPersistence("delete sns account", err)
	}
	return expectOne(res, appErrors.NewNotFound("sns account", id))
}

var _ SnsAccountRepositoryInterface = (*SnsAccountRepository)(nil)
