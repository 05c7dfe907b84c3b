package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/service"
)

type AccountUseCases interface {
	Connect(ctx context.Context, userID string, platform model.Platform, in service.ConnectAccountInput) (*model.SnsAccount, error)
	List(ctx context.Context, userID string) ([]model.SnsAccount, error)
	Delete(ctx context.Context, userID, id string) error
}

type SnsController struct {
	Accounts AccountUseCases
	Logger   logging.Logger
}

func (c *SnsController) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := c.Accounts.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	if accounts == nil {
		accounts = []model.SnsAccount{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Connect stores tokens the client obtained through the platform's OAuth flow.
// The path parameter wins over any platform in the body.
func (c *SnsController) Connect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform          string `json:"platform"`
		AccessToken       string `json:"access_token" validate:"required"`
		AccessTokenSecret string `json:"access_token_secret"`
		RefreshToken      string `json:"refresh_token"`
		AccountName       string `json:"account_name" validate:"max=100"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	platform := model.Platform(chi.URLParam(r, "platform"))
	acct, err := c.Accounts.Connect(r.Context(), UserID(r.Context()), platform, service.ConnectAccountInput{
		AccessToken:       body.AccessToken,
		AccessTokenSecret: body.AccessTokenSecret,
		RefreshToken:      body.RefreshToken,
		AccountName:       body.AccountName,
	})
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (c *SnsController) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := c.Accounts.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
