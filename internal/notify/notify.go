package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/unclebandit/autobuzz-backend/internal/model"
)

// Notifier is told about every finished autopilot run.
type Notifier interface {
	RunCompleted(ctx context.Context, ownerID string, result *model.RunResult) error
}

type NopNotifier struct{}

func (NopNotifier) RunCompleted(context.Context, string, *model.RunResult) error { return nil }

// SlackNotifier posts a run summary to an incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{WebhookURL: webhookURL, post: slack.PostWebhookContext}
}

// New returns a SlackNotifier when a webhook is configured, otherwise a no-op.
func New(webhookURL string) Notifier {
	if webhookURL == "" {
		return NopNotifier{}
	}
	return NewSlackNotifier(webhookURL)
}

func (n *SlackNotifier) RunCompleted(ctx context.Context, ownerID string, result *model.RunResult) error {
	if result == nil {
		return nil
	}
	if err := n.post(ctx, n.WebhookURL, &slack.WebhookMessage{Text: FormatRun(ownerID, result)}); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// FormatRun renders the run summary followed by one line per failed pair.
func FormatRun(ownerID string, result *model.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[AutoBuzz] %s run for %s: %s", result.Trigger, ownerID, result.Message)
	for _, item := range result.Items {
		if item.Status != model.ItemError {
			continue
		}
		reason := item.Error
		if reason == "" {
			reason = item.Content
		}
		fmt.Fprintf(&b, "\n• %s / %s: %s", item.Genre, item.Platform.DisplayName(), reason)
	}
	return b.String()
}
