package slack

import "context"

// Message is one Slack post. Channel empty means the webhook's default channel.
type Message struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// Client delivers messages to Slack
type Client interface {
	Send(ctx context.Context, msg Message) error
}
