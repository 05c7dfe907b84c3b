package trend

import (
	"context"
	"sort"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

const (
	allItemsLimit = 30
	topKeywordsN  = 10
)

// Source supplies aggregated trend data for a keyword set.
type Source interface {
	Collect(ctx context.Context, keywords []string) (*model.TrendData, error)
}

type feedCollector interface {
	Collect(ctx context.Context) ([]model.TrendItem, error)
}

type buzzCollector interface {
	Collect(ctx context.Context, keywords []string) ([]model.TrendItem, error)
}

// Aggregator queries every source concurrently. A failing source is replaced
// by its fallback list so callers always get a complete TrendData unless ctx ends.
type Aggregator struct {
	Google feedCollector
	News   feedCollector
	XBuzz  buzzCollector
	Logger logging.Logger
}

func NewAggregator(google, news feedCollector, xbuzz buzzCollector, logger logging.Logger) *Aggregator {
	return &Aggregator{Google: google, News: news, XBuzz: xbuzz, Logger: logger}
}

func (a *Aggregator) Collect(ctx context.Context, keywords []string) (*model.TrendData, error) {
	var google, news, buzz []model.TrendItem

	var g errgroup.Group
	g.Go(func() error {
		google = a.collectOrFallback("google_trends", func() ([]model.TrendItem, error) { return a.Google.Collect(ctx) }, mockGoogleTrends)
		return nil
	})
	g.Go(func() error {
		news = a.collectOrFallback("news", func() ([]model.TrendItem, error) { return a.News.Collect(ctx) }, mockNews)
		return nil
	})
	g.Go(func() error {
		buzz = a.collectOrFallback("x_buzz", func() ([]model.TrendItem, error) { return a.XBuzz.Collect(ctx, keywords) }, mockBuzzPosts)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Merge(google, news, buzz), nil
}

func (a *Aggregator) collectOrFallback(source string, fetch func() ([]model.TrendItem, error), fallback func() []model.TrendItem) []model.TrendItem {
	items, err := fetch()
	if err != nil || len(items) == 0 {
		if err != nil {
			a.Logger.WithError(err).WithField("source", source).Warn("Trend source failed, using fallback")
		}
		return fallback()
	}
	return items
}

// Merge ranks every item by score and derives the top keyword list.
func Merge(google, news, buzz []model.TrendItem) *model.TrendData {
	all := make([]model.TrendItem, 0, len(google)+len(news)+len(buzz))
	all = append(all, google...)
	all = append(all, news...)
	all = append(all, buzz...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

	data := &model.TrendData{
		GoogleTrends: nonNil(google),
		News:         nonNil(news),
		XBuzz:        nonNil(buzz),
		TopKeywords:  topKeywords(all, topKeywordsN),
	}
	if len(all) > allItemsLimit {
		data.All = all[:allItemsLimit]
	} else {
		data.All = all
	}
	return data
}

func topKeywords(items []model.TrendItem, n int) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, item := range items {
		if utf8.RuneCountInString(item.Title) <= 1 {
			continue
		}
		if _, ok := seen[item.Title]; ok {
			continue
		}
		seen[item.Title] = struct{}{}
		out = append(out, item.Title)
		if len(out) == n {
			break
		}
	}
	return out
}

func nonNil(items []model.TrendItem) []model.TrendItem {
	if items == nil {
		return []model.TrendItem{}
	}
	return items
}
