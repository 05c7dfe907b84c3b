package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
	"github.com/unclebandit/autobuzz-backend/internal/token"
)

const minPasswordLength = 8

type AuthService struct {
	Users      repository.UserRepositoryInterface
	Tokens     token.Service
	Logger     logging.Logger
	BcryptCost int
}

func NewAuthService(users repository.UserRepositoryInterface, tokens token.Service, logger logging.Logger) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Logger: logger, BcryptCost: bcrypt.DefaultCost}
}

// Register creates the user with a disabled autopilot.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, appErrors.NewValidation("email", "メールアドレスを入力してください")
	}
	if len([]rune(password)) < minPasswordLength {
		return nil, appErrors.NewValidation("password", "パスワードは8文字以上で入力してください")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: email, PasswordHash: string(hash)}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.Logger.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login returns an access token. Unknown emails and wrong passwords fail alike.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		var nf *appErrors.NotFoundError
		if errors.As(err, &nf) {
			return "", appErrors.ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", appErrors.ErrInvalidCredentials
	}
	return s.Tokens.Issue(user.ID)
}

// Authenticate resolves a bearer token to the user ID.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (string, error) {
	userID, err := s.Tokens.Validate(bearer)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return "", appErrors.NewAuth("トークンの有効期限が切れています")
		}
		return "", appErrors.NewAuth("認証情報が無効です")
	}
	return userID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
