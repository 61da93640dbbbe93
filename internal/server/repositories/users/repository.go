// Package users is the credential store: user rows and the one-time tokens
// attached to them.
package users

import (
	"context"
	"time"

	"github.com/clinicdesk/identity/internal/server/models"
)

// Repository persists users. Consume operations find, check and clear a
// one-time token in a single atomic step; they return common.ErrorNotFound
// when no row holds a matching, unexpired token.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (*models.User, error)
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, token string, now time.Time, newHash string) (*models.User, error)
	TouchLogin(ctx context.Context, id string, now time.Time) error
	ClearExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
