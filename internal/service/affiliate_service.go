package service

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

type AffiliateService struct {
	Affiliates repository.AffiliateRepositoryInterface
	Links      repository.LinkRepositoryInterface
	Posts      repository.PostRepositoryInterface
}

func (s *AffiliateService) CreateAccount(ctx context.Context, userID, platform, trackingID string) (*model.AffiliateAccount, error) {
	platform = strings.TrimSpace(platform)
	if platform == "" {
		return nil, appErrors.NewValidation("platform", "ASPを入力してください")
	}
	a := &model.AffiliateAccount{UserID: userID, Platform: platform, TrackingID: strings.TrimSpace(trackingID)}
	if err := s.Affiliates.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AffiliateService) ListAccounts(ctx context.Context, userID string) ([]model.AffiliateAccount, error) {
	return s.Affiliates.ListAccounts(ctx, userID)
}

func (s *AffiliateService) CreateOffer(ctx context.Context, userID, title, affiliateURL, genre string) (*model.AffiliateOffer, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, appErrors.NewValidation("title", "案件名を入力してください")
	}
	if !validHTTPURL(affiliateURL) {
		return nil, appErrors.NewValidation("affiliate_url", "URLの形式が正しくありません")
	}
	o := &model.AffiliateOffer{UserID: userID, Title: title, AffiliateURL: strings.TrimSpace(affiliateURL), Genre: strings.TrimSpace(genre)}
	if err := s.Affiliates.CreateOffer(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *AffiliateService) ListOffers(ctx context.Context, userID string) ([]model.AffiliateOffer, error) {
	return s.Affiliates.ListOffers(ctx, userID)
}

func (s *AffiliateService) DeleteOffer(ctx context.Context, userID, id string) error {
	return s.Affiliates.DeleteOffer(ctx, userID, id)
}

// Stats reports clicks, revenue and click-through rate per post.
func (s *AffiliateService) Stats(ctx context.Context, userID string) (*model.AffiliateStats, error) {
	var (
		stats = &model.AffiliateStats{}
		posts int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalClicks, err = s.Links.CountClicksByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.Affiliates.TotalRevenue(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		posts, err = s.Posts.CountByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.Offers, err = s.Affiliates.ListOffers(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.Offers == nil {
		stats.Offers = []model.AffiliateOffer{}
	}
	stats.CTR = clickThroughRate(stats.TotalClicks, posts)
	return stats, nil
}

func clickThroughRate(clicks, posts int) float64 {
	if posts == 0 {
		return 0
	}
	return float64(clicks) / float64(posts)
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
