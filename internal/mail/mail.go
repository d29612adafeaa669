// Package mail sends account lifecycle notifications through SendGrid.
// Sends are fire-and-forget: failures are logged and swallowed, and callers
// must never fail a request on a mail error.
package mail

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer is the notification surface consumed by the user service.
type Mailer interface {
	SendWelcome(name, email string)
	SendCancellation(name, email string)
}

// Client sends transactional email via the SendGrid API.
type Client struct {
	sg   *sendgrid.Client
	from *sgmail.Email
}

// NewClient creates a Client using the given provider API key and sender.
func NewClient(apiKey, fromName, fromAddr string) *Client {
	return &Client{
		sg:   sendgrid.NewSendClient(apiKey),
		from: sgmail.NewEmail(fromName, fromAddr),
	}
}

// SendWelcome greets a freshly registered user.
func (c *Client) SendWelcome(name, email string) {
	body := fmt.Sprintf(
		"Hi %s,\nWelcome to TaskHub. You have been registered successfully. Let us know how you get along with the API.\n\nThanks and Regards,\nThe TaskHub Team",
		name,
	)
	c.send(name, email, "Thank you for joining TaskHub", body)
}

// SendCancellation confirms an account deletion.
func (c *Client) SendCancellation(name, email string) {
	body := fmt.Sprintf(
		"Hi %s,\nYour account has been canceled. We would love to hear what we could have done better.\n\nThanks and Regards,\nThe TaskHub Team",
		name,
	)
	c.send(name, email, "Your TaskHub account has been canceled", body)
}

func (c *Client) send(toName, toAddr, subject, body string) {
	msg := sgmail.NewSingleEmail(c.from, subject, sgmail.NewEmail(toName, toAddr), body, "")
	if _, err := c.sg.Send(msg); err != nil {
		log.Warn().Err(err).Str("to", toAddr).Str("subject", subject).Msg("Failed to send notification email")
	}
}

// Noop discards all notifications. Used when no provider key is configured.
type Noop struct{}

func (Noop) SendWelcome(name, email string)      {}
func (Noop) SendCancellation(name, email string) {}
