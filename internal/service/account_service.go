package service

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

// ConnectAccountInput carries the tokens obtained by the client's OAuth flow.
type ConnectAccountInput struct {
	AccessToken       string
	AccessTokenSecret string
	RefreshToken      string
	AccountName       string
}

type AccountService struct {
	Accounts repository.SnsAccountRepositoryInterface
}

func (s *AccountService) Connect(ctx context.Context, userID string, platform model.Platform, in ConnectAccountInput) (*model.SnsAccount, error) {
	if !platform.Valid() {
		return nil, appErrors.NewValidation("", "対応していないプラットフォームです")
	}
	if strings.TrimSpace(in.AccessToken) == "" {
		return nil, appErrors.NewValidation("access_token", "アクセストークンを入力してください")
	}
	acct := &model.SnsAccount{
		UserID:            userID,
		Platform:          platform,
		AccessToken:       strings.TrimSpace(in.AccessToken),
		AccessTokenSecret: strings.TrimSpace(in.AccessTokenSecret),
		RefreshToken:      in.RefreshToken,
		AccountName:       strings.TrimSpace(in.AccountName),
	}
	if err := s.Accounts.Create(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]model.SnsAccount, error) {
	return s.Accounts.ListByUser(ctx, userID)
}

func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	return s.Accounts.Delete(ctx, userID, id)
}
