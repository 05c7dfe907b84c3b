package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

const recentPostsLimit = 10

type DashboardService struct {
	Posts      repository.PostRepositoryInterface
	Links      repository.LinkRepositoryInterface
	Affiliates repository.AffiliateRepositoryInterface
}

func (s *DashboardService) Stats(ctx context.Context, userID string) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalPosts, err = s.Posts.CountByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalClicks, err = s.Links.CountClicksByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.Affiliates.TotalRevenue(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentPosts, err = s.Posts.ListRecent(gctx, userID, recentPostsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.RecentPosts == nil {
		stats.RecentPosts = []model.Post{}
	}
	stats.CTR = clickThroughRate(stats.TotalClicks, stats.TotalPosts)
	return stats, nil
}
