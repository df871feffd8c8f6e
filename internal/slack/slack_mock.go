package slack

import (
	"context"

	"encore/internal/logger"
)

type logOnlyClient struct {
	logger logger.Logger
}

// NewMockClient returns a client that only logs messages, used when no webhook is configured
func NewMockClient(log logger.Logger) Client {
	return &logOnlyClient{
		logger: log.With(logger.String("component", "slack_mock")),
	}
}

func (m *logOnlyClient) Send(ctx context.Context, msg Message) error {
	m.logger.Info("MOCK: Slack message",
		logger.String("channel", msg.Channel),
		logger.String("text", msg.Text),
	)
	return nil
}
