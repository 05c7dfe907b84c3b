package trend

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

const cacheKeyPrefix = "autobuzz:trends:"

// CachedSource serves repeated requests for the same keyword set from Redis.
// A Redis outage degrades to calling the wrapped Source directly.
type CachedSource struct {
	Source Source
	Client goredis.UniversalClient
	TTL    time.Duration
	Logger logging.Logger
}

func NewCachedSource(src Source, client goredis.UniversalClient, ttl time.Duration, logger logging.Logger) *CachedSource {
	return &CachedSource{Source: src, Client: client, TTL: ttl, Logger: logger}
}

func (c *CachedSource) Collect(ctx context.Context, keywords []string) (*model.TrendData, error) {
	key := cacheKey(keywords)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var data model.TrendData
		if jsonErr := json.Unmarshal(raw, &data); jsonErr == nil {
			return &data, nil
		}
		c.Logger.WithField("key", key).Warn("Discarding undecodable trend cache entry")
	case !errors.Is(err, goredis.Nil):
		c.Logger.WithError(err).Warn("Trend cache read failed")
	}

	data, err := c.Source.Collect(ctx, keywords)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(data); err == nil {
		if err := c.Client.Set(ctx, key, encoded, c.TTL).Err(); err != nil {
			c.Logger.WithError(err).Warn("Trend cache write failed")
		}
	}
	return data, nil
}

// cacheKey ignores keyword order, so a genre hits the same entry however its
// keywords were entered.
func cacheKey(keywords []string) string {
	normalized := model.NormalizeKeywords(keywords)
	if len(normalized) == 0 {
		return cacheKeyPrefix + "_"
	}
	slices.Sort(normalized)
	return cacheKeyPrefix + strings.Join(normalized, ",")
}
