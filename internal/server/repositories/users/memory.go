package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/clinicdesk/identity/internal/common"
	"github.com/clinicdesk/identity/internal/server/auth"
	"github.com/clinicdesk/identity/internal/server/models"
)

// MemoryRepository keeps users in process memory. It backs development runs
// with the "memory" DSN and the service tests. All operations hold one mutex,
// which gives consume operations the same all-or-nothing behaviour as the
// conditional UPDATE of the Postgres store.
type MemoryRepository struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	email map[string]string
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]*models.User),
		email: make(map[string]string),
		now:   time.Now,
	}
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.email[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := r.email[key]; ok {
		return nil, common.ErrorDuplicateEmail
	}
	if user.VerificationToken != nil {
		for _, u := range r.byID {
			if u.VerificationToken != nil && *u.VerificationToken == *user.VerificationToken {
				return nil, common.ErrorDuplicateCode
			}
		}
	}

	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.byID[user.ID] = clone(user)
	r.email[key] = user.ID
	return user, nil
}

func (r *MemoryRepository) ConsumeVerificationToken(_ context.Context, code string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if !live(u.VerificationToken, u.VerificationTokenExpiresAt, code, now) {
			continue
		}
		u.IsVerified = true
		u.VerificationToken, u.VerificationTokenExpiresAt = nil, nil
		u.UpdatedAt = now
		return clone(u), nil
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.ResetPasswordToken, u.ResetPasswordExpiresAt = &token, &expiresAt
	u.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) ConsumeResetToken(_ context.Context, token string, now time.Time, newHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if !live(u.ResetPasswordToken, u.ResetPasswordExpiresAt, token, now) {
			continue
		}
		u.PasswordHash = newHash
		u.ResetPasswordToken, u.ResetPasswordExpiresAt = nil, nil
		u.UpdatedAt = now
		return clone(u), nil
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) TouchLogin(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLogin = &now
	u.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) ClearExpiredVerificationCodes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, u := range r.byID {
		if u.VerificationTokenExpiresAt != nil && !u.VerificationTokenExpiresAt.After(now) {
			u.VerificationToken, u.VerificationTokenExpiresAt = nil, nil
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, u := range r.byID {
		if u.ResetPasswordExpiresAt != nil && !u.ResetPasswordExpiresAt.After(now) {
			u.ResetPasswordToken, u.ResetPasswordExpiresAt = nil, nil
			n++
		}
	}
	return n, nil
}

// live reports whether stored matches presented and has not expired. The
// comparison runs in constant time since this store scans rather than
// looking the token up by key.
func live(stored *string, expiresAt *time.Time, presented string, now time.Time) bool {
	if stored == nil || expiresAt == nil {
		return false
	}
	if !auth.TokensEqual(*stored, presented) {
		return false
	}
	return expiresAt.After(now)
}

func clone(u *models.User) *models.User {
	c := *u
	c.VerificationToken = clonePtr(u.VerificationToken)
	c.VerificationTokenExpiresAt = clonePtr(u.VerificationTokenExpiresAt)
	c.ResetPasswordToken = clonePtr(u.ResetPasswordToken)
	c.ResetPasswordExpiresAt = clonePtr(u.ResetPasswordExpiresAt)
	c.LastLogin = clonePtr(u.LastLogin)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
