package controller

import (
	"context"
	"net/http"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type AuthUseCases interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthController struct {
	Auth   AuthUseCases
	Logger logging.Logger
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	user, err := c.Auth.Register(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      user.ID,
		"email":   user.Email,
		"message": "登録が完了しました",
	})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	token, err := c.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}
