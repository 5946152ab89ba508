// Package email provides the e-mail sending client.
//
// It uses Resend (resend-go) as the provider and sends plain-text
// messages from a fixed sender address.
package email

import (
	"context"

	"github.com/deppfellow/inquiry-intake/internal/config"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Sender is the fixed From address of every notification.
const Sender = "Inquiry Desk <inquiries@resend.dev>"

// Client wraps the Resend client.
type Client struct {
	client *resend.Client
	from   string
	logger *zerolog.Logger
}

// NewClient creates a Client authenticated with the configured API key.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	return newClient(resend.NewClient(cfg.Integration.ResendAPIKey), logger)
}

func newClient(rc *resend.Client, logger *zerolog.Logger) *Client {
	return &Client{
		client: rc,
		from:   Sender,
		logger: logger,
	}
}

// SendText sends a plain-text e-mail to a single recipient and returns the
// provider's message id.
func (c *Client) SendText(ctx context.Context, to, subject, body string) (string, error) {
	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "failed to send email to %s", to)
	}

	c.logger.Debug().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("email accepted by provider")

	return sent.Id, nil
}
