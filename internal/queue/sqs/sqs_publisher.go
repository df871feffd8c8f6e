package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"encore/internal/logger"
	queue "encore/internal/queue/iface"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SendMessageAPI is the slice of the SQS client the publisher needs
type SendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsPublisher struct {
	client   SendMessageAPI
	queueURL string
	logger   logger.Logger
}

// NewSQSPublisher creates a publisher that JSON-encodes messages onto queueURL
func NewSQSPublisher(client SendMessageAPI, queueURL string, log logger.Logger) queue.Publisher {
	return &sqsPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   log.With(logger.String("component", "sqs_publisher")),
	}
}

func (p *sqsPublisher) Send(ctx context.Context, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		p.logger.Error("failed to send message to SQS",
			logger.String("queue_url", p.queueURL),
			logger.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.Debug("message sent to queue",
		logger.String("queue_url", p.queueURL),
		logger.String("message_id", aws.ToString(out.MessageId)))

	return nil
}
