package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const senderName = "Clinic"

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier delivers email through the SendGrid v3 API.
type SendGridNotifier struct {
	client mailSender
	from   *mail.Email
}

func NewSendGridNotifier(apiKey, from string) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(senderName, from),
	}
}

func (n *SendGridNotifier) SendVerification(ctx context.Context, email, code string) error {
	return n.send(ctx, email, verificationMessage(code))
}

func (n *SendGridNotifier) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	return n.send(ctx, email, passwordResetMessage(resetURL))
}

func (n *SendGridNotifier) SendResetSuccess(ctx context.Context, email string) error {
	return n.send(ctx, email, resetSuccessMessage())
}

func (n *SendGridNotifier) send(ctx context.Context, to string, m message) error {
	msg := mail.NewSingleEmail(n.from, m.subject, mail.NewEmail("", to), m.text, m.html)

	resp, err := n.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("sendgrid: status %d", resp.StatusCode)
	}
	return fmt.Errorf("%w: sendgrid status %d", ErrPermanent, resp.StatusCode)
}
