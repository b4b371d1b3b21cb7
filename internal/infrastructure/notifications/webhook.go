package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
)

// WebhookChannel POSTs the payload as JSON to a configured endpoint
type WebhookChannel struct {
	name     string
	endpoint string
	client   *http.Client
	logger   *logging.ChanneledLogger
}

// NewWebhookChannel creates a generic JSON webhook adapter
func NewWebhookChannel(name, endpoint string, logger *logging.ChanneledLogger) (*WebhookChannel, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("webhook channel %q: endpoint is required", name)
	}
	return &WebhookChannel{
		name:     name,
		endpoint: endpoint,
		client:   &http.Client{},
		logger:   logger,
	}, nil
}

// Name identifies this channel in escalation schedules
func (c *WebhookChannel) Name() string { return c.name }

// Send delivers the payload; non-2xx responses are failures
func (c *WebhookChannel) Send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook %s: failed to encode payload: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: failed to build request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: delivery failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s: delivery rejected with status %d", c.name, resp.StatusCode)
	}

	if c.logger != nil {
		c.logger.Dispatch().Debug("Webhook delivered", "channel", c.name, "status", resp.StatusCode)
	}
	return nil
}
