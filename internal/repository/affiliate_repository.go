package repository

import (
	"context"
	"database/sql"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type AffiliateRepositoryInterface interface {
	CreateAccount(ctx context.Context, a *model.AffiliateAccount) error
	ListAccounts(ctx context.Context, userID string) ([]model.AffiliateAccount, error)
	CreateOffer(ctx context.Context, o *model.AffiliateOffer) error
	ListOffers(ctx context.Context, userID string) ([]model.AffiliateOffer, error)
	DeleteOffer(ctx context.Context, userID, id string) error
	RecordRevenue(ctx context.Context, userID string, amount float64) error
	TotalRevenue(ctx context.Context, userID string) (float64, error)
}

type AffiliateRepository struct {
	DB *sql.DB
}

func (r *AffiliateRepository) CreateAccount(ctx context.Context, a *model.AffiliateAccount) error {
	a.ID = newID(a.ID)
	a.CreatedAt = time.Now().UTC()
	query := `INSERT INTO affiliate_accounts (id, user_id, platform, tracking_id, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.DB.ExecContext(ctx, query, a.ID, a.UserID, a.Platform, a.TrackingID, a.CreatedAt); err != nil {
		return appErrors.NewPersistence("insert affiliate account", err)
	}
	return nil
}

func (r *AffiliateRepository) ListAccounts(ctx context.Context, userID string) ([]model.AffiliateAccount, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, user_id, platform, tracking_id, created_at
        FROM affiliate_accounts WHERE user_id=$1 ORDER BY created_at, id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []model.AffiliateAccount{}
	for rows.Next() {
		var a model.AffiliateAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Platform, &a.TrackingID, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AffiliateRepository) CreateOffer(ctx context.Context, o *model.AffiliateOffer) error {
	o.ID = newID(o.ID)
	o.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO affiliate_offers (id, user_id, title, affiliate_url, genre, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	if _, err := r.DB.ExecContext(ctx, query, o.ID, o.UserID, o.Title, o.AffiliateURL, o.Genre, o.CreatedAt); err != nil {
		return appErrors.NewPersistence("insert affiliate offer", err)
	}
	return nil
}

func (r *AffiliateRepository) ListOffers(ctx context.Context, userID string) ([]model.AffiliateOffer, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, user_id, title, affiliate_url, genre, created_at
        FROM affiliate_offers WHERE user_id=$1 ORDER BY created_at, id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := []model.AffiliateOffer{}
	for rows.Next() {
		var o model.AffiliateOffer
		if err := rows.Scan(&o.ID, &o.UserID, &o.Title, &o.AffiliateURL, &o.Genre, &o.CreatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (r *AffiliateRepository) DeleteOffer(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM affiliate_offers WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return appErrors.NewPersistence("delete affiliate offer", err)
	}
	return expectOne(res, appErrors.NewNotFound("affiliate offer", id))
}

func (r *AffiliateRepository) RecordRevenue(ctx context.Context, userID string, amount float64) error {
	query := `INSERT INTO affiliate_revenue (id, user_id, amount, recorded_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.DB.ExecContext(ctx, query, newID(""), userID, amount, time.Now().UTC()); err != nil {
		return appErrors.NewPersistence("insert affiliate revenue", err)
	}
	return nil
}

func (r *AffiliateRepository) TotalRevenue(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM affiliate_revenue WHERE user_id=$1`, userID).Scan(&total)
	return total, err
}

var _ AffiliateRepositoryInterface = (*AffiliateRepository)(nil)
