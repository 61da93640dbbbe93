package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicdesk/identity/internal/common"
	"github.com/clinicdesk/identity/internal/server/auth"
	"github.com/clinicdesk/identity/internal/server/models"
	"github.com/clinicdesk/identity/internal/server/repositories/users"
)

type sentMail struct {
	kind  string
	email string
	value string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) record(kind, email, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{kind: kind, email: email, value: value})
	return f.err
}

func (f *fakeNotifier) SendVerification(_ context.Context, email, code string) error {
	return f.record("verification", email, code)
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, email, resetURL string) error {
	return f.record("password_reset", email, resetURL)
}

func (f *fakeNotifier) SendResetSuccess(_ context.Context, email string) error {
	return f.record("reset_success", email, "")
}

func (f *fakeNotifier) last(kind string) (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == kind {
			return f.sent[i], true
		}
	}
	return sentMail{}, false
}

func (f *fakeNotifier) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.kind == kind {
			n++
		}
	}
	return n
}

// countingHasher wraps the real hasher and counts Verify calls.
type countingHasher struct {
	*auth.BcryptHasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(plain, digest string) bool {
	h.verifies.Add(1)
	return h.BcryptHasher.Verify(plain, digest)
}

type stubSessions struct {
	verifyErr error
	userID    string
}

func (s *stubSessions) Issue(userID string) (string, time.Time, error) {
	return "tok-" + userID, time.Now().Add(time.Hour), nil
}

func (s *stubSessions) Verify(string) (string, error) {
	return s.userID, s.verifyErr
}

var errStore = errors.New("connection reset by peer")

// brokenRepo fails every call the way a lost database connection would.
type brokenRepo struct{}

func (brokenRepo) FindByEmail(context.Context, string) (*models.User, error) { return nil, errStore }
func (brokenRepo) FindByID(context.Context, string) (*models.User, error)    { return nil, errStore }
func (brokenRepo) Create(context.Context, *models.User) (*models.User, error) {
	return nil, errStore
}
func (brokenRepo) ConsumeVerificationToken(context.Context, string, time.Time) (*models.User, error) {
	return nil, errStore
}
func (brokenRepo) SetResetToken(context.Context, string, string, time.Time) error { return errStore }
func (brokenRepo) ConsumeResetToken(context.Context, string, time.Time, string) (*models.User, error) {
	return nil, errStore
}
func (brokenRepo) TouchLogin(context.Context, string, time.Time) error { return errStore }
func (brokenRepo) ClearExpiredVerificationCodes(context.Context, time.Time) (int64, error) {
	return 0, errStore
}
func (brokenRepo) ClearExpiredResetTokens(context.Context, time.Time) (int64, error) {
	return 0, errStore
}

type brokenManager struct{}

func (brokenManager) Users() users.Repository { return brokenRepo{} }
func (brokenManager) WithinTx(ctx context.Context, fn func(context.Context, users.Repository) error) error {
	return fn(ctx, brokenRepo{})
}
func (brokenManager) Close() error { return nil }

// fixedCodes hands out verification codes from a list, repeating the last
// one once the list runs out.
type fixedCodes struct {
	*auth.TokenIssuer
	mu    sync.Mutex
	codes []string
}

func (f *fixedCodes) IssueVerificationCode() (string, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := f.codes[0]
	if len(f.codes) > 1 {
		f.codes = f.codes[1:]
	}
	return code, time.Now().Add(time.Hour), nil
}

// vanishingRepo behaves like the account was deleted between lookup and
// update.
type vanishingRepo struct {
	*users.MemoryRepository
}

func (vanishingRepo) TouchLogin(context.Context, string, time.Time) error {
	return common.ErrorNotFound
}

func (vanishingRepo) SetResetToken(context.Context, string, string, time.Time) error {
	return common.ErrorNotFound
}

type vanishingManager struct{ repo vanishingRepo }

func (m vanishingManager) Users() users.Repository { return m.repo }
func (m vanishingManager) WithinTx(ctx context.Context, fn func(context.Context, users.Repository) error) error {
	return fn(ctx, m.repo)
}
func (vanishingManager) Close() error { return nil }
