package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/resendlabs/resend-go"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
)

// EmailChannel delivers alert notifications via the Resend API
type EmailChannel struct {
	name      string
	client    *resend.Client
	to        []string
	fromEmail string
	fromName  string
	logger    *logging.ChanneledLogger
}

// EmailConfig holds the Resend delivery settings
type EmailConfig struct {
	APIKey    string
	To        []string
	FromEmail string
	FromName  string
}

// Validate checks the email configuration eagerly
func (c *EmailConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("email channel: API key is required")
	}
	if len(c.To) == 0 {
		return fmt.Errorf("email channel: at least one recipient is required")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("email channel: from address is required")
	}
	return nil
}

// NewEmailChannel creates a Resend-backed email adapter
func NewEmailChannel(name string, cfg *EmailConfig, logger *logging.ChanneledLogger) (*EmailChannel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &EmailChannel{
		name:      name,
		client:    resend.NewClient(cfg.APIKey),
		to:        cfg.To,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}, nil
}

// Name identifies this channel in escalation schedules
func (c *EmailChannel) Name() string { return c.name }

// Send composes and sends the alert email
func (c *EmailChannel) Send(ctx context.Context, payload Payload) error {
	var body strings.Builder
	fmt.Fprintf(&body, "<h2>%s</h2>", payload.Title)
	fmt.Fprintf(&body, "<p><strong>Severity:</strong> %s</p>", strings.ToUpper(payload.Severity))
	fmt.Fprintf(&body, "<p>%s</p>", payload.Message)
	if len(payload.Metadata) > 0 {
		body.WriteString("<ul>")
		for key, value := range payload.Metadata {
			fmt.Fprintf(&body, "<li><strong>%s:</strong> %s</li>", key, value)
		}
		body.WriteString("</ul>")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      c.to,
		Subject: fmt.Sprintf("[%s] %s", strings.ToUpper(payload.Severity), payload.Title),
		Html:    body.String(),
	}

	// The Resend client has no context-aware send; honor cancellation
	// before the call so a shut-down dispatcher does not start new sends.
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("email %s: delivery failed: %w", c.name, err)
	}

	if c.logger != nil {
		c.logger.Dispatch().Debug("Alert email delivered", "channel", c.name, "recipients", len(c.to))
	}
	return nil
}
