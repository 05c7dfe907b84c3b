package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type PostUseCases interface {
	List(ctx context.Context, userID string) ([]model.Post, error)
	Get(ctx context.Context, userID, id string) (*model.Post, error)
	Delete(ctx context.Context, userID, id string) error
	Generate(ctx context.Context, userID string, platform model.Platform, genre string) (*model.Post, error)
	Trends(ctx context.Context) (*model.TrendData, error)
}

type PostController struct {
	Posts  PostUseCases
	Logger logging.Logger
}

func (c *PostController) List(w http.ResponseWriter, r *http.Request) {
	posts, err := c.Posts.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (c *PostController) Get(w http.ResponseWriter, r *http.Request) {
	post, err := c.Posts.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (c *PostController) Generate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string `json:"platform" validate:"required"`
		Genre    string `json:"genre" validate:"max=100"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	post, err := c.Posts.Generate(r.Context(), UserID(r.Context()), model.Platform(body.Platform), body.Genre)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (c *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Posts.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *PostController) Trends(w http.ResponseWriter, r *http.Request) {
	data, err := c.Posts.Trends(r.Context())
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
