package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type GenreUseCases interface {
	Create(ctx context.Context, userID, name string, keywords []string) (*model.Genre, error)
	List(ctx context.Context, userID string) ([]model.Genre, error)
	Delete(ctx context.Context, userID, id string) error
}

type ScheduleUseCases interface {
	Create(ctx context.Context, userID, clock string, frequency model.Frequency) (*model.Schedule, error)
	List(ctx context.Context, userID string) ([]model.Schedule, error)
	Delete(ctx context.Context, userID, id string) error
}

type GenreController struct {
	Genres GenreUseCases
	Logger logging.Logger
}

func (c *GenreController) List(w http.ResponseWriter, r *http.Request) {
	genres, err := c.Genres.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	if genres == nil {
		genres = []model.Genre{}
	}
	writeJSON(w, http.StatusOK, genres)
}

func (c *GenreController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GenreName string   `json:"genre_name" validate:"required,max=100"`
		Keywords  []string `json:"keywords" validate:"max=20,dive,max=50"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	genre, err := c.Genres.Create(r.Context(), UserID(r.Context()), body.GenreName, body.Keywords)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, genre)
}

func (c *GenreController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Genres.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ScheduleController struct {
	Schedules ScheduleUseCases
	Logger    logging.Logger
}

func (c *ScheduleController) List(w http.ResponseWriter, r *http.Request) {
	schedules, err := c.Schedules.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (c *ScheduleController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Time      string `json:"time" validate:"required"`
		Frequency string `json:"frequency" validate:"omitempty,oneof=daily weekdays weekends"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	schedule, err := c.Schedules.Create(r.Context(), UserID(r.Context()), body.Time, model.Frequency(body.Frequency))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, schedule)
}

func (c *ScheduleController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Schedules.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
