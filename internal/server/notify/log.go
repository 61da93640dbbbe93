package notify

import (
	"context"

	"github.com/clinicdesk/identity/internal/logging"
)

// LogNotifier writes deliveries to the log instead of sending them. With
// reveal set, the code or link itself is logged so a developer can finish
// the flow locally; it must stay off outside development.
type LogNotifier struct {
	log    logging.Logger
	reveal bool
}

func NewLogNotifier(log logging.Logger, reveal bool) *LogNotifier {
	return &LogNotifier{log: log.With("module", "notify"), reveal: reveal}
}

func (n *LogNotifier) SendVerification(ctx context.Context, email, code string) error {
	n.emit(ctx, "verification email", email, "code", code)
	return nil
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	n.emit(ctx, "password reset email", email, "reset_url", resetURL)
	return nil
}

func (n *LogNotifier) SendResetSuccess(ctx context.Context, email string) error {
	n.log.Info(ctx, "reset success email", "to", email)
	return nil
}

func (n *LogNotifier) emit(ctx context.Context, msg, to, key, secret string) {
	if n.reveal {
		n.log.Info(ctx, msg, "to", to, key, secret)
		return
	}
	n.log.Info(ctx, msg, "to", to)
}
