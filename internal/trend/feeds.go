package trend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

const (
	googleTrendsPage  = "https://trends.google.co.jp/trending?geo=JP"
	newsPerFeed       = 3
	newsMaxItems      = 15
	newsDescMaxRunes  = 200
	googleTrendsCount = 20
)

// GoogleTrendsCollector reads the daily trending searches RSS feed.
type GoogleTrendsCollector struct {
	FeedURL string
	Count   int
	Parser  *gofeed.Parser
}

func NewGoogleTrendsCollector(feedURL string) *GoogleTrendsCollector {
	return &GoogleTrendsCollector{FeedURL: feedURL, Count: googleTrendsCount, Parser: newParser()}
}

func (c *GoogleTrendsCollector) Collect(ctx context.Context) ([]model.TrendItem, error) {
	if c.FeedURL == "" {
		return nil, errors.New("google trends feed not configured")
	}
	feed, err := c.Parser.ParseURLWithContext(c.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse google trends feed: %w", err)
	}

	count := c.Count
	if count <= 0 {
		count = googleTrendsCount
	}
	items := make([]model.TrendItem, 0, count)
	for i, entry := range feed.Items {
		if i >= count {
			break
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}
		link := entry.Link
		if link == "" {
			link = googleTrendsPage
		}
		items = append(items, model.TrendItem{
			Source:      model.SourceGoogleTrends,
			Title:       title,
			Description: "Google Trendsで急上昇中: " + title,
			Score:       float64(count - i),
			URL:         link,
		})
	}
	if len(items) == 0 {
		return nil, errors.New("google trends feed had no entries")
	}
	return items, nil
}

// NewsFeed is one RSS source and the category label attached to its entries.
type NewsFeed struct {
	URL      string
	Category string
}

// ParseNewsFeeds reads "url|category" pairs.
func ParseNewsFeeds(pairs []string) []NewsFeed {
	feeds := make([]NewsFeed, 0, len(pairs))
	for _, pair := range pairs {
		url, category, _ := strings.Cut(pair, "|")
		if url = strings.TrimSpace(url); url != "" {
			feeds = append(feeds, NewsFeed{URL: url, Category: strings.TrimSpace(category)})
		}
	}
	return feeds
}

// NewsCollector takes the first few entries of each feed. A failing feed is skipped.
type NewsCollector struct {
	Feeds  []NewsFeed
	Parser *gofeed.Parser
	Logger logging.Logger
}

func NewNewsCollector(feeds []NewsFeed, logger logging.Logger) *NewsCollector {
	return &NewsCollector{Feeds: feeds, Parser: newParser(), Logger: logger}
}

func (c *NewsCollector) Collect(ctx context.Context) ([]model.TrendItem, error) {
	var items []model.TrendItem
	for _, src := range c.Feeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		feed, err := c.Parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			c.Logger.WithError(err).WithField("feed", src.URL).Warn("News feed fetch failed")
			continue
		}
		for i, entry := range feed.Items {
			if i >= newsPerFeed {
				break
			}
			desc := entry.Description
			if desc == "" {
				desc = entry.Content
			}
			items = append(items, model.TrendItem{
				Source:      model.SourceNews,
				Title:       strings.TrimSpace(entry.Title),
				Description: truncateRunes(strings.TrimSpace(desc), newsDescMaxRunes),
				Score:       1,
				URL:         entry.Link,
				Category:    src.Category,
			})
		}
	}
	if len(items) == 0 {
		return nil, errors.New("no news entries collected")
	}
	if len(items) > newsMaxItems {
		items = items[:newsMaxItems]
	}
	return items, nil
}

func newParser() *gofeed.Parser {
	p := gofeed.NewParser()
	p.UserAgent = "autobuzz-trend-collector/1.0"
	return p
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
