package service

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

type GenreService struct {
	Genres repository.GenreRepositoryInterface
}

func (s *GenreService) Create(ctx context.Context, userID, name string, keywords []string) (*model.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("genre_name", "ジャンル名を入力してください")
	}
	g := &model.Genre{UserID: userID, Name: name, Keywords: model.NormalizeKeywords(keywords)}
	if err := s.Genres.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GenreService) List(ctx context.Context, userID string) ([]model.Genre, error) {
	return s.Genres.ListByUser(ctx, userID)
}

func (s *GenreService) Delete(ctx context.Context, userID, id string) error {
	return s.Genres.Delete(ctx, userID, id)
}

type ScheduleService struct {
	Schedules repository.ScheduleRepositoryInterface
}

func (s *ScheduleService) Create(ctx context.Context, userID, clock string, frequency model.Frequency) (*model.Schedule, error) {
	normalized, err := model.ParseClock(strings.TrimSpace(clock))
	if err != nil {
		return nil, appErrors.NewValidation("time", "時刻はHH:MM形式で入力してください")
	}
	if frequency == "" {
		frequency = model.FrequencyDaily
	}
	if !frequency.Valid() {
		return nil, appErrors.NewValidation("frequency", "頻度は daily / weekdays / weekends のいずれかです")
	}
	sch := &model.Schedule{UserID: userID, Time: normalized, Frequency: frequency}
	if err := s.Schedules.Create(ctx, sch); err != nil {
		return nil, err
	}
	return sch, nil
}

func (s *ScheduleService) List(ctx context.Context, userID string) ([]model.Schedule, error) {
	return s.Schedules.ListByUser(ctx, userID)
}

func (s *ScheduleService) Delete(ctx context.Context, userID, id string) error {
	return s.Schedules.Delete(ctx, userID, id)
}
