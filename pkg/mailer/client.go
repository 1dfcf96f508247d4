package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/supplierhq/suppliers-backend/pkg/config"
)

// Message is one outbound email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
	BCC      string
}

// Client sends email through the Sendgrid API.
type Client struct {
	send     func(ctx context.Context, msg *mail.SGMailV3) (int, error)
	fromAddr string
	fromName string
}

// New builds a Sendgrid-backed mail client.
func New(cfg config.SendgridConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("sendgrid from address is required")
	}
	sg := sendgrid.NewSendClient(cfg.APIKey)
	return &Client{
		send: func(ctx context.Context, msg *mail.SGMailV3) (int, error) {
			resp, err := sg.SendWithContext(ctx, msg)
			if err != nil {
				return 0, err
			}
			return resp.StatusCode, nil
		},
		fromAddr: cfg.DefaultFrom,
		fromName: cfg.FromName,
	}, nil
}

// Send delivers the message. A non-2xx API response is reported as an error.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient address is required")
	}

	from := mail.NewEmail(c.fromName, c.fromAddr)
	to := mail.NewEmail(msg.ToName, msg.To)
	payload := mail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)

	if msg.BCC != "" && len(payload.Personalizations) > 0 {
		payload.Personalizations[0].AddBCCs(mail.NewEmail("", msg.BCC))
	}

	status, err := c.send(ctx, payload)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d", status)
	}
	return nil
}
