// Package notify delivers account emails: verification codes, reset links
// and reset confirmations.
package notify

import (
	"context"
	"errors"
)

// Notifier sends account emails. Implementations may block on the network;
// wrap them in a Dispatcher to keep delivery off the request path.
type Notifier interface {
	SendVerification(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, resetURL string) error
	SendResetSuccess(ctx context.Context, email string) error
}

// ErrPermanent marks a delivery failure that retrying cannot fix, such as
// a rejected request.
var ErrPermanent = errors.New("permanent delivery failure")
