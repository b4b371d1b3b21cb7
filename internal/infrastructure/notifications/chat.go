package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
)

// severityEmoji decorates chat messages by severity
var severityEmoji = map[string]string{
	"info":     "ℹ️",
	"warning":  "⚠️",
	"critical": "🚨",
}

// ChatWebhookChannel formats the payload as a chat message and posts it to
// an incoming-webhook URL (Slack/Mattermost style `{"text": ...}` body)
type ChatWebhookChannel struct {
	name   string
	url    string
	client *http.Client
	logger *logging.ChanneledLogger
}

// NewChatWebhookChannel creates a chat incoming-webhook adapter
func NewChatWebhookChannel(name, url string, logger *logging.ChanneledLogger) (*ChatWebhookChannel, error) {
	if url == "" {
		return nil, fmt.Errorf("chat channel %q: webhook URL is required", name)
	}
	return &ChatWebhookChannel{
		name:   name,
		url:    url,
		client: &http.Client{},
		logger: logger,
	}, nil
}

// Name identifies this channel in escalation schedules
func (c *ChatWebhookChannel) Name() string { return c.name }

// Send formats and delivers the payload as a chat message
func (c *ChatWebhookChannel) Send(ctx context.Context, payload Payload) error {
	var text strings.Builder
	if emoji, ok := severityEmoji[payload.Severity]; ok {
		text.WriteString(emoji + " ")
	}
	fmt.Fprintf(&text, "*%s* [%s]\n%s", payload.Title, strings.ToUpper(payload.Severity), payload.Message)
	for key, value := range payload.Metadata {
		fmt.Fprintf(&text, "\n• %s: %s", key, value)
	}

	body, err := json.Marshal(map[string]string{"text": text.String()})
	if err != nil {
		return fmt.Errorf("chat %s: failed to encode message: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chat %s: failed to build request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat %s: delivery failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chat %s: delivery rejected with status %d", c.name, resp.StatusCode)
	}

	if c.logger != nil {
		c.logger.Dispatch().Debug("Chat message delivered", "channel", c.name)
	}
	return nil
}
