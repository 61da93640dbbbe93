package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clinicdesk/identity/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	defaultAttemptTimeout = 10 * time.Second
	defaultBackoff        = 200 * time.Millisecond
	maxRetries            = 3
)

// Dispatcher runs deliveries of the wrapped Notifier in the background.
// Every call returns nil at once; failures are retried with exponential
// backoff and then logged. The caller's cancellation does not stop a
// delivery that has already been handed over.
type Dispatcher struct {
	next    Notifier
	log     logging.Logger
	timeout time.Duration
	backoff time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps next. timeout bounds each delivery attempt.
func NewDispatcher(next Notifier, log logging.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	return &Dispatcher{
		next:    next,
		log:     log.With("module", "dispatcher"),
		timeout: timeout,
		backoff: defaultBackoff,
	}
}

func (d *Dispatcher) SendVerification(ctx context.Context, email, code string) error {
	d.dispatch(ctx, "verification", func(ctx context.Context) error {
		return d.next.SendVerification(ctx, email, code)
	})
	return nil
}

func (d *Dispatcher) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	d.dispatch(ctx, "password_reset", func(ctx context.Context) error {
		return d.next.SendPasswordReset(ctx, email, resetURL)
	})
	return nil
}

func (d *Dispatcher) SendResetSuccess(ctx context.Context, email string) error {
	d.dispatch(ctx, "reset_success", func(ctx context.Context) error {
		return d.next.SendResetSuccess(ctx, email)
	})
	return nil
}

// Wait blocks until every dispatched delivery has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, send func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		attempts := 0
		backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(d.backoff))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			attempts++
			attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			err := send(attemptCtx)
			if err == nil || errors.Is(err, ErrPermanent) {
				return err
			}
			return retry.RetryableError(err)
		})
		if err != nil {
			d.log.Error(ctx, "email delivery failed", "kind", kind, "attempts", attempts, "error", err)
			return
		}
		d.log.Debug(ctx, "email delivered", "kind", kind, "attempts", attempts)
	}()
}
