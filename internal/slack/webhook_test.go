package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"encore/internal/logger"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookClientSend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewWebhookClient(srv.URL, time.Second, logger.NewNopLogger())

	err := client.Send(context.Background(), Message{Channel: "#ops-alerts", Text: "job failed"})
	require.NoError(t, err)
	assert.Equal(t, "#ops-alerts", got.Channel)
	assert.Equal(t, "job failed", got.Text)
}

func TestWebhookClientNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewWebhookClient(srv.URL, time.Second, logger.NewNopLogger())

	err := client.Send(context.Background(), Message{Text: "job failed"})
	require.Error(t, err)

	var statusErr slackapi.StatusCodeError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
}

func TestWebhookClientHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewWebhookClient(srv.URL, 5*time.Second, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Send(ctx, Message{Text: "job failed"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
