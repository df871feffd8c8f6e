package sqs

import (
	"context"
	"testing"

	"encore/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSQSPublisherSend(t *testing.T) {
	client := &fakeSQS{}
	pub := NewSQSPublisher(client, "http://localhost:4566/000000000000/crm-sync", logger.NewNopLogger())

	err := pub.Send(context.Background(), map[string]string{"request_id": "abc"})
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	assert.Equal(t, "http://localhost:4566/000000000000/crm-sync", aws.ToString(client.inputs[0].QueueUrl))
	assert.JSONEq(t, `{"request_id":"abc"}`, aws.ToString(client.inputs[0].MessageBody))
}

func TestSQSPublisherSendError(t *testing.T) {
	pub := NewSQSPublisher(&fakeSQS{err: assert.AnError}, "q", logger.NewNopLogger())

	err := pub.Send(context.Background(), "payload")
	assert.ErrorIs(t, err, assert.AnError)
}
