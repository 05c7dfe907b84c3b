package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type LinkUseCases interface {
	Shorten(ctx context.Context, userID, originalURL string) (*model.ShortLink, error)
	Resolve(ctx context.Context, code string) (*model.ShortLink, error)
}

type LinkController struct {
	Links  LinkUseCases
	AppURL string
	Logger logging.Logger
}

type shortLinkResponse struct {
	*model.ShortLink
	ShortURL string `json:"short_url"`
}

func (c *LinkController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OriginalURL string `json:"original_url" validate:"required,http_url,max=2048"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	link, err := c.Links.Shorten(r.Context(), UserID(r.Context()), body.OriginalURL)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, shortLinkResponse{
		ShortLink: link,
		ShortURL:  strings.TrimRight(c.AppURL, "/") + "/api/links/r/" + link.ShortCode,
	})
}

// Redirect is public: visitors following a posted link are not logged in.
func (c *LinkController) Redirect(w http.ResponseWriter, r *http.Request) {
	link, err := c.Links.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	http.Redirect(w, r, link.OriginalURL, http.StatusFound)
}
