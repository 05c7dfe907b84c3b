package trend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/unclebandit/autobuzz-backend/internal/model"
)

var defaultBuzzKeywords = []string{"話題", "バズ"}

// XBuzzCollector searches recent Japanese posts on X and ranks them by engagement.
type XBuzzCollector struct {
	BearerToken string
	BaseURL     string
	MaxResults  int
	HTTPClient  *http.Client
	executor    failsafe.Executor[*http.Response]
}

func NewXBuzzCollector(bearerToken, baseURL string) *XBuzzCollector {
	return &XBuzzCollector{
		BearerToken: bearerToken,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		MaxResults:  10,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		executor:    newSearchExecutor(),
	}
}

// newSearchExecutor retries transport errors, 429 and 5xx twice with backoff.
func newSearchExecutor() failsafe.Executor[*http.Response] {
	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(200*time.Millisecond, 2*time.Second).
		WithMaxRetries(2).
		WithJitterFactor(0.1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled)
			}
			return resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500)
		}).
		ReturnLastFailure().
		Build()
	return failsafe.With[*http.Response](retry)
}

func (c *XBuzzCollector) Collect(ctx context.Context, keywords []string) ([]model.TrendItem, error) {
	if c.BearerToken == "" {
		return nil, errors.New("x bearer token not configured")
	}
	if len(keywords) == 0 {
		keywords = defaultBuzzKeywords
	}

	params := url.Values{}
	params.Set("query", strings.Join(keywords, " OR ")+" lang:ja -is:retweet")
	params.Set("max_results", strconv.Itoa(c.MaxResults))
	params.Set("tweet.fields", "public_metrics,created_at")
	endpoint := c.BaseURL + "/2/tweets/search/recent?" + params.Encode()

	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
		return c.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("x recent search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("x recent search: status %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			Text          string `json:"text"`
			PublicMetrics struct {
				LikeCount    int `json:"like_count"`
				RetweetCount int `json:"retweet_count"`
				ReplyCount   int `json:"reply_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode x search response: %w", err)
	}

	items := make([]model.TrendItem, 0, len(body.Data))
	for _, tweet := range body.Data {
		m := tweet.PublicMetrics
		items = append(items, model.TrendItem{
			Source:      model.SourceX,
			Title:       truncateRunes(tweet.Text, 60),
			Description: tweet.Text,
			Score:       EngagementScore(m.LikeCount, m.RetweetCount, m.ReplyCount),
		})
	}
	return items, nil
}

// EngagementScore weighs retweets double and replies half.
func EngagementScore(likes, retweets, replies int) float64 {
	return float64(likes) + 2*float64(retweets) + 0.5*float64(replies)
}
