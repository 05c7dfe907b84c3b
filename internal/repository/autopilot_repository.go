package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type AutopilotRepositoryInterface interface {
	Get(ctx context.Context, userID string) (*model.AutopilotStatus, error)
	SetEnabled(ctx context.Context, userID string, enabled bool) error
	RecordRun(ctx context.Context, userID string, at time.Time, message string, trigger model.RunTrigger) error
	ListEnabledOwners(ctx context.Context) ([]string, error)
}

type AutopilotRepository struct {
	DB *sql.DB
}

// Get returns the stored status, or a disabled one when the owner has no row yet.
func (r *AutopilotRepository) Get(ctx context.Context, userID string) (*model.AutopilotStatus, error) {
	query := `
        SELECT enabled, last_run_at, last_run_message, last_run_trigger
        FROM autopilot_status WHERE user_id=$1
    `
	st := &model.AutopilotStatus{UserID: userID}
	var lastRun sql.NullTime
	var trigger string
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&st.Enabled, &lastRun, &st.LastRunMessage, &trigger)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, nil
		}
		return nil, appErrors.NewPersistence("read autopilot status", err)
	}
	st.LastRunAt = timePtr(lastRun)
	st.LastRunTrigger = model.RunTrigger(trigger)
	return st, nil
}

func (r *AutopilotRepository) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	query := `
        INSERT INTO autopilot_status (user_id, enabled, updated_at) VALUES ($1, $2, NOW())
        ON CONFLICT (user_id) DO UPDATE SET enabled=EXCLUDED.enabled, updated_at=NOW()
    `
	if _, err := r.DB.ExecContext(ctx, query, userID, enabled); err != nil {
		return appErrors.NewPersistence("write autopilot status", err)
	}
	return nil
}

func (r *AutopilotRepository) RecordRun(ctx context.Context, userID string, at time.Time, message string, trigger model.RunTrigger) error {
	query := `
        INSERT INTO autopilot_status (user_id, last_run_at, last_run_message, last_run_trigger, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET last_run_at=EXCLUDED.last_run_at, last_run_message=EXCLUDED.last_run_message,
            last_run_trigger=EXCLUDED.last_run_trigger, updated_at=NOW()
    `
	if _, err := r.DB.ExecContext(ctx, query, userID, at, message, string(trigger)); err != nil {
		return appErrors.NewPersistence("record autopilot run", err)
	}
	return nil
}

func (r *AutopilotRepository) ListEnabledOwners(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT user_id FROM autopilot_status WHERE enabled ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

var _ AutopilotRepositoryInterface = (*AutopilotRepository)(nil)
