package services

import (
	"context"
	"time"

	"github.com/clinicdesk/identity/internal/logging"
	"github.com/clinicdesk/identity/internal/server/repositories/repomanager"
	"github.com/clinicdesk/identity/internal/server/repositories/users"
)

// Janitor periodically clears expired verification codes and reset tokens.
// Expired tokens are already unusable; this only keeps the table tidy.
type Janitor struct {
	repomanager repomanager.RepositoryManager
	interval    time.Duration
	log         logging.Logger
	now         func() time.Time
}

func NewJanitor(rm repomanager.RepositoryManager, interval time.Duration, log logging.Logger) *Janitor {
	return &Janitor{
		repomanager: rm,
		interval:    interval,
		log:         log.With("module", "janitor"),
		now:         time.Now,
	}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables it.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := j.Sweep(ctx); err != nil {
				j.log.Warn(ctx, "token sweep failed", "error", err)
			}
		}
	}
}

// Sweep clears expired codes and tokens in one unit of work and reports
// how many of each it cleared.
func (j *Janitor) Sweep(ctx context.Context) (codes, resets int64, err error) {
	now := j.now()
	err = j.repomanager.WithinTx(ctx, func(ctx context.Context, repo users.Repository) error {
		var err error
		if codes, err = repo.ClearExpiredVerificationCodes(ctx, now); err != nil {
			return err
		}
		resets, err = repo.ClearExpiredResetTokens(ctx, now)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	if codes > 0 || resets > 0 {
		j.log.Info(ctx, "expired tokens cleared", "verification_codes", codes, "reset_tokens", resets)
	}
	return codes, resets, nil
}
