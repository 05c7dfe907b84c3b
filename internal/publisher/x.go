package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dghubble/oauth1"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

// XPublisher posts through the X API v2 with OAuth 1.0a user context. The
// consumer key pair belongs to the app, the token pair to the connected account.
type XPublisher struct {
	ConsumerKey    string
	ConsumerSecret string
	BaseURL        string
	Logger         logging.Logger
}

func NewXPublisher(consumerKey, consumerSecret, baseURL string, logger logging.Logger) *XPublisher {
	return &XPublisher{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		BaseURL:        strings.TrimRight(baseURL, "/"),
		Logger:         logger,
	}
}

func (p *XPublisher) Publish(ctx context.Context, content string, account model.SnsAccount) (*Delivery, error) {
	if p.ConsumerKey == "" || p.ConsumerSecret == "" {
		return nil, fmt.Errorf("x: app keys missing: %w", ErrNotConfigured)
	}
	if account.AccessToken == "" || account.AccessTokenSecret == "" {
		return nil, fmt.Errorf("x: account %s has no token pair: %w", account.ID, ErrNotConfigured)
	}

	client := oauth1.NewConfig(p.ConsumerKey, p.ConsumerSecret).
		Client(ctx, oauth1.NewToken(account.AccessToken, account.AccessTokenSecret))

	payload, err := json.Marshal(map[string]string{"text": content})
	if err != nil {
		return nil, fmt.Errorf("x: marshal tweet: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("x: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("x: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, statusError("x", resp)
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	// The tweet is live once X answers 2xx, so an unreadable body only loses the id.
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Data.ID == "" {
		if p.Logger != nil {
			p.Logger.WithError(err).WithField("account_id", account.ID).Warn("X accepted the post but returned no id")
		}
		return &Delivery{}, nil
	}
	return &Delivery{ExternalID: out.Data.ID, URL: "https://x.com/i/status/" + out.Data.ID}, nil
}
