package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

// ErrNotConfigured means the platform cannot be posted to with the current app
// keys or account tokens. Callers keep the post as a draft.
var ErrNotConfigured = errors.New("publishing credentials not configured")

// Delivery is the platform's acknowledgement of a published post.
type Delivery struct {
	ExternalID string
	URL        string
}

type Publisher interface {
	Publish(ctx context.Context, content string, account model.SnsAccount) (*Delivery, error)
}

// Registry maps each platform to its publisher.
type Registry map[model.Platform]Publisher

func (r Registry) For(platform model.Platform) (Publisher, bool) {
	p, ok := r[platform]
	return p, ok
}

// StatusError is a non-2xx platform response. The request reached the
// platform and was refused, so nothing was published.
type StatusError struct {
	Platform string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Platform, e.Code, e.Body)
}

// Retryable reports rate limits and server errors.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsRetryable reports whether err is a refused request worth one more attempt.
func IsRetryable(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Retryable()
}

// statusError reads a non-2xx response into an error. Client errors other
// than 429 are permanent.
func statusError(platform string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	err := &StatusError{Platform: platform, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	if err.Retryable() {
		return err
	}
	return appErrors.NewPermanent(err)
}
