package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/teamdesk/taskflow-api/internal/constants"
)

// WebhookClient posts chat-bot messages to a team's external channel. Calls
// go through a circuit breaker so a dead endpoint cannot pile up goroutines
// waiting on timeouts.
type WebhookClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewWebhookClient creates a WebhookClient with a short request timeout.
func NewWebhookClient(log *logrus.Logger) *WebhookClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notification-webhook",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infof("circuit breaker %q changed from %s to %s", name, from.String(), to.String())
		},
	})

	return &WebhookClient{
		client:  &http.Client{Timeout: constants.NotifyTimeout},
		breaker: breaker,
	}
}

// SendMessage posts the text to the webhook URL as a JSON payload.
func (w *WebhookClient) SendMessage(url, text string) error {
	_, err := w.breaker.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(map[string]string{"text": text})
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), constants.NotifyTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("webhook responded with status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
