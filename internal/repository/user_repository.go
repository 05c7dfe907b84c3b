package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

// Create inserts the user and its disabled autopilot row in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	u.ID = newID(u.ID)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.PlanType == "" {
		u.PlanType = "free"
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return appErrors.NewPersistence("begin user insert", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
        INSERT INTO users (id, email, password_hash, plan_type, is_admin, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, u.ID, u.Email, u.PasswordHash, u.PlanType, u.IsAdmin, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.ErrEmailTaken
		}
		return appErrors.NewPersistence("insert user", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO autopilot_status (user_id, enabled) VALUES ($1, FALSE)
        ON CONFLICT (user_id) DO NOTHING
    `, u.ID)
	if err != nil {
		return appErrors.NewPersistence("insert autopilot status", err)
	}

	if err := tx.Commit(); err != nil {
		return appErrors.NewPersistence("commit user insert", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `WHERE email=$1`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `WHERE id=$1`, id)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	query := `SELECT id, email, password_hash, plan_type, is_admin, created_at FROM users ` + where
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.PlanType, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("user", arg)
		}
		return nil, err
	}
	return &u, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
