package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

const (
	shortCodeLength   = 8
	shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts   = 5
)

type LinkService struct {
	Links  repository.LinkRepositoryInterface
	Logger logging.Logger

	newCode func() (string, error)
}

func NewLinkService(links repository.LinkRepositoryInterface, logger logging.Logger) *LinkService {
	return &LinkService{Links: links, Logger: logger, newCode: randomShortCode}
}

// Shorten stores a tracked link under a fresh random code.
func (s *LinkService) Shorten(ctx context.Context, userID, originalURL string) (*model.ShortLink, error) {
	if !validHTTPURL(originalURL) {
		return nil, appErrors.NewValidation("original_url", "URLの形式が正しくありません")
	}
	gen := s.newCode
	if gen == nil {
		gen = randomShortCode
	}
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := gen()
		if err != nil {
			return nil, err
		}
		link := &model.ShortLink{UserID: userID, OriginalURL: strings.TrimSpace(originalURL), ShortCode: code}
		err = s.Links.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrShortCodeTaken) {
			return nil, err
		}
		s.Logger.WithField("attempt", attempt).Debug("Short code collision, retrying")
	}
	return nil, fmt.Errorf("allocate short code: %w", repository.ErrShortCodeTaken)
}

// Resolve returns the link for code and logs the click. A failed click
// write does not block the redirect.
func (s *LinkService) Resolve(ctx context.Context, code string) (*model.ShortLink, error) {
	link, err := s.Links.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.Links.RecordClick(ctx, link.ID); err != nil {
		s.Logger.WithError(err).WithField("link_id", link.ID).Warn("Failed to record click")
	}
	return link, nil
}

func randomShortCode() (string, error) {
	max := big.NewInt(int64(len(shortCodeAlphabet)))
	var b strings.Builder
	b.Grow(shortCodeLength)
	for range shortCodeLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate short code: %w", err)
		}
		b.WriteByte(shortCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
