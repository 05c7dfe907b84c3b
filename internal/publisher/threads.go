package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unclebandit/autobuzz-backend/internal/model"
)

// ThreadsPublisher creates a text container and then publishes it.
type ThreadsPublisher struct {
	BaseURL    string
	UserID     string
	HTTPClient *http.Client
}

func NewThreadsPublisher(baseURL string) *ThreadsPublisher {
	return &ThreadsPublisher{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserID:     "me",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *ThreadsPublisher) Publish(ctx context.Context, content string, account model.SnsAccount) (*Delivery, error) {
	if account.AccessToken == "" {
		return nil, fmt.Errorf("threads: account %s has no access token: %w", account.ID, ErrNotConfigured)
	}

	containerID, err := p.post(ctx, "threads", url.Values{
		"media_type":   {"TEXT"},
		"text":         {content},
		"access_token": {account.AccessToken},
	})
	if err != nil {
		return nil, fmt.Errorf("threads: create container: %w", err)
	}

	postID, err := p.post(ctx, "threads_publish", url.Values{
		"creation_id":  {containerID},
		"access_token": {account.AccessToken},
	})
	if err != nil {
		return nil, fmt.Errorf("threads: publish container %s: %w", containerID, err)
	}
	return &Delivery{ExternalID: postID}, nil
}

func (p *ThreadsPublisher) post(ctx context.Context, edge string, params url.Values) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?%s", p.BaseURL, p.UserID, edge, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("threads", resp)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("response carried no id")
	}
	return out.ID, nil
}
