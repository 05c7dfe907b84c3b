package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type AffiliateUseCases interface {
	CreateAccount(ctx context.Context, userID, platform, trackingID string) (*model.AffiliateAccount, error)
	ListAccounts(ctx context.Context, userID string) ([]model.AffiliateAccount, error)
	CreateOffer(ctx context.Context, userID, title, affiliateURL, genre string) (*model.AffiliateOffer, error)
	ListOffers(ctx context.Context, userID string) ([]model.AffiliateOffer, error)
	DeleteOffer(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string) (*model.AffiliateStats, error)
}

type DashboardUseCases interface {
	Stats(ctx context.Context, userID string) (*model.DashboardStats, error)
}

type AffiliateController struct {
	Affiliates AffiliateUseCases
	Logger     logging.Logger
}

func (c *AffiliateController) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := c.Affiliates.ListAccounts(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	if accounts == nil {
		accounts = []model.AffiliateAccount{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (c *AffiliateController) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform   string `json:"platform" validate:"required,max=50"`
		TrackingID string `json:"tracking_id" validate:"max=100"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	acct, err := c.Affiliates.CreateAccount(r.Context(), UserID(r.Context()), body.Platform, body.TrackingID)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (c *AffiliateController) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := c.Affiliates.ListOffers(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	if offers == nil {
		offers = []model.AffiliateOffer{}
	}
	writeJSON(w, http.StatusOK, offers)
}

func (c *AffiliateController) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title        string `json:"title" validate:"required,max=200"`
		AffiliateURL string `json:"affiliate_url" validate:"required,http_url"`
		Genre        string `json:"genre" validate:"max=100"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	offer, err := c.Affiliates.CreateOffer(r.Context(), UserID(r.Context()), body.Title, body.AffiliateURL, body.Genre)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (c *AffiliateController) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	if err := c.Affiliates.DeleteOffer(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AffiliateController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.Affiliates.Stats(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type DashboardController struct {
	Dashboard DashboardUseCases
	Logger    logging.Logger
}

func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.Dashboard.Stats(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
