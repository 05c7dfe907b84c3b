package service

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/generator"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
	"github.com/unclebandit/autobuzz-backend/internal/trend"
)

type PostService struct {
	Posts     repository.PostRepositoryInterface
	Source    trend.Source
	Generator generator.Generator
	Logger    logging.Logger
}

func (s *PostService) List(ctx context.Context, userID string) ([]model.Post, error) {
	return s.Posts.ListByUser(ctx, userID)
}

func (s *PostService) Get(ctx context.Context, userID, id string) (*model.Post, error) {
	return s.Posts.GetByID(ctx, userID, id)
}

func (s *PostService) Delete(ctx context.Context, userID, id string) error {
	return s.Posts.Delete(ctx, userID, id)
}

// Generate creates a draft post. A failing trend source degrades to
// genre-only generation.
func (s *PostService) Generate(ctx context.Context, userID string, platform model.Platform, genre string) (*model.Post, error) {
	if !platform.Valid() {
		return nil, appErrors.NewValidation("", "対応していないプラットフォームです")
	}
	genre = strings.TrimSpace(genre)

	var keywords []string
	if genre != "" {
		keywords = []string{genre}
	}
	trends, err := s.Source.Collect(ctx, keywords)
	if err != nil {
		s.Logger.WithError(err).WithField("genre", genre).Warn("Trend collection failed, generating without trends")
		trends = nil
	}

	content, err := s.Generator.Generate(ctx, generator.Request{Platform: platform, Genre: genre, Trends: trends})
	if err != nil {
		return nil, appErrors.NewCollaboratorFailure("generator", err)
	}

	post := &model.Post{
		UserID:   userID,
		Platform: platform,
		Genre:    genre,
		Content:  content,
		Status:   model.PostDraft,
	}
	if err := s.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Trends returns the aggregate over the default keyword set.
func (s *PostService) Trends(ctx context.Context) (*model.TrendData, error) {
	data, err := s.Source.Collect(ctx, nil)
	if err != nil {
		return nil, appErrors.NewCollaboratorFailure("trends", err)
	}
	return data, nil
}
