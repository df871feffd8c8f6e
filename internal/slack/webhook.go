package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"encore/internal/logger"

	slackapi "github.com/slack-go/slack"
)

type webhookClient struct {
	url        string
	httpClient *http.Client
	logger     logger.Logger
}

// NewWebhookClient posts messages to a Slack incoming webhook.
// Webhooks created by a Slack app are bound to one channel and ignore Message.Channel;
// legacy webhooks honour it.
func NewWebhookClient(url string, timeout time.Duration, log logger.Logger) Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webhookClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(logger.String("component", "slack_webhook")),
	}
}

func (c *webhookClient) Send(ctx context.Context, msg Message) error {
	err := slackapi.PostWebhookCustomHTTPContext(ctx, c.url, c.httpClient, &slackapi.WebhookMessage{
		Channel: msg.Channel,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}

	c.logger.Debug("slack message sent", logger.String("channel", msg.Channel))

	return nil
}
