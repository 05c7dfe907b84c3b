package repository

import (
	"context"
	"database/sql"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type ScheduleRepositoryInterface interface {
	Create(ctx context.Context, s *model.Schedule) error
	ListByUser(ctx context.Context, userID string) ([]model.Schedule, error)
	Delete(ctx context.Context, userID, id string) error
}

type ScheduleRepository struct {
	DB *sql.DB
}

func (r *ScheduleRepository) Create(ctx context.Context, s *model.Schedule) error {
	s.ID = newID(s.ID)
	s.CreatedAt = time.Now().UTC()
	if s.Frequency == "" {
		s.Frequency = model.FrequencyDaily
	}
	query := `INSERT INTO schedules (id, user_id, time, frequency, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.DB.ExecContext(ctx, query, s.ID, s.UserID, s.Time, string(s.Frequency), s.CreatedAt); err != nil {
		return appErrors.NewPersistence("insert schedule", err)
	}
	return nil
}

func (r *ScheduleRepository) ListByUser(ctx context.Context, userID string) ([]model.Schedule, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, user_id, time, frequency, created_at
        FROM schedules WHERE user_id=$1 ORDER BY time, id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []model.Schedule{}
	for rows.Next() {
		var s model.Schedule
		var freq string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Time, &freq, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Frequency = model.Frequency(freq)
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM schedules WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return appErrors.NewPersistence("delete schedule", err)
	}
	return expectOne(res, appErrors.NewNotFound("schedule", id))
}

var _ ScheduleRepositoryInterface = (*ScheduleRepository)(nil)
