// Package services contains the identity flows: signup, email verification,
// login, password reset and session checks, plus the expired-token janitor.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clinicdesk/identity/internal/common"
	"github.com/clinicdesk/identity/internal/logging"
	"github.com/clinicdesk/identity/internal/server/models"
	"github.com/clinicdesk/identity/internal/server/notify"
	"github.com/clinicdesk/identity/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	// maxPasswordBytes is the longest password bcrypt hashes without truncation.
	maxPasswordBytes = 72

	// codeAttempts bounds re-issuing a verification code that another
	// pending account already holds.
	codeAttempts = 5
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type TokenIssuer interface {
	IssueVerificationCode() (string, time.Time, error)
	IssueResetToken() (string, time.Time, error)
}

type SessionIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// Session is the result of a successful signup or login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      models.Profile
}

// AuthService implements the account flows on top of the credential store.
// Store faults are logged and reported as common.ErrorInternal; notifier
// failures never undo a committed change.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	sessions    SessionIssuer
	notifier    notify.Notifier
	log         logging.Logger
	frontendURL string
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	rm repomanager.RepositoryManager,
	hasher PasswordHasher,
	tokens TokenIssuer,
	sessions SessionIssuer,
	notifier notify.Notifier,
	log logging.Logger,
	frontendURL string,
) *AuthService {
	return &AuthService{
		repomanager: rm,
		hasher:      hasher,
		tokens:      tokens,
		sessions:    sessions,
		notifier:    notifier,
		log:         log.With("module", "auth"),
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

// Signup creates an unverified account, sends its verification code and
// starts a session. An email that is already registered yields
// common.ErrorDuplicateAccount.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	in := signupInput{Email: normalizeEmail(email), Password: password, Name: strings.TrimSpace(name)}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}
	user, code, err := s.createUnverified(ctx, in, hash)
	if err != nil {
		return nil, err
	}

	sess, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.reportDelivery(ctx, "verification", s.notifier.SendVerification(ctx, user.Email, code))
	s.log.Info(ctx, "user signed up", "user_id", user.ID)
	return sess, nil
}

// createUnverified stores a new account with a fresh verification code. A
// code already held by another pending account is replaced and the insert
// retried, so a code always identifies a single account.
func (s *AuthService) createUnverified(ctx context.Context, in signupInput, hash string) (*models.User, string, error) {
	users := s.repomanager.Users()
	id := uuid.NewString()

	for range codeAttempts {
		code, expiresAt, err := s.tokens.IssueVerificationCode()
		if err != nil {
			return nil, "", s.internal(ctx, "issue verification code", err)
		}

		user, err := users.Create(ctx, &models.User{
			ID:                         id,
			Email:                      in.Email,
			PasswordHash:               hash,
			Name:                       in.Name,
			VerificationToken:          &code,
			VerificationTokenExpiresAt: &expiresAt,
		})
		switch {
		case err == nil:
			return user, code, nil
		case errors.Is(err, common.ErrorDuplicateEmail):
			return nil, "", common.ErrorDuplicateAccount
		case errors.Is(err, common.ErrorDuplicateCode):
			s.log.Debug(ctx, "verification code taken, reissuing")
			continue
		default:
			return nil, "", s.internal(ctx, "create user", err)
		}
	}
	return nil, "", s.internal(ctx, "create user", common.ErrorDuplicateCode)
}

// VerifyEmail consumes a verification code and marks its account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (*models.Profile, error) {
	code = strings.TrimSpace(code)
	if err := validateInput(verifyInput{Code: code}); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users().ConsumeVerificationToken(ctx, code, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidOrExpiredCode
		}
		return nil, s.internal(ctx, "consume verification code", err)
	}

	s.log.Info(ctx, "email verified", "user_id", user.ID)
	p := models.ToProfile(user)
	return &p, nil
}

// Login checks credentials and starts a session. Unknown emails and wrong
// passwords are indistinguishable, in outcome and in the work done.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	in := loginInput{Email: normalizeEmail(email), Password: password}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	users := s.repomanager.Users()
	user, err := users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(in.Password, s.dummyDigest())
			return nil, common.ErrorInvalidCredentials
		}
		return nil, s.internal(ctx, "find user", err)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}

	now := s.now()
	if err := users.TouchLogin(ctx, user.ID, now); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, s.internal(ctx, "record login", err)
	}
	user.LastLogin = &now

	sess, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return sess, nil
}

// ForgotPassword sends a reset link when email belongs to an account. The
// result is the same whether or not it does.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	in := forgotInput{Email: normalizeEmail(email)}
	if err := validateInput(in); err != nil {
		return err
	}

	users := s.repomanager.Users()
	user, err := users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return s.internal(ctx, "find user", err)
	}

	token, expiresAt, err := s.tokens.IssueResetToken()
	if err != nil {
		return s.internal(ctx, "issue reset token", err)
	}
	if err := users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return s.internal(ctx, "store reset token", err)
	}

	s.reportDelivery(ctx, "password_reset", s.notifier.SendPasswordReset(ctx, user.Email, s.resetURL(token)))
	s.log.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token and sets a new password. Of several
// concurrent calls with one token, exactly one succeeds.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return common.ErrorInvalidOrExpiredToken
	}
	if err := validateInput(resetInput{Password: newPassword}); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal(ctx, "hash password", err)
	}

	user, err := s.repomanager.Users().ConsumeResetToken(ctx, token, s.now(), hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInvalidOrExpiredToken
		}
		return s.internal(ctx, "consume reset token", err)
	}

	s.reportDelivery(ctx, "reset_success", s.notifier.SendResetSuccess(ctx, user.Email))
	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// CheckAuth resolves a session token to the profile of its account.
func (s *AuthService) CheckAuth(ctx context.Context, sessionToken string) (*models.Profile, error) {
	if sessionToken == "" {
		return nil, common.ErrorUnauthenticated
	}
	userID, err := s.sessions.Verify(sessionToken)
	if err != nil {
		return nil, common.ErrorUnauthenticated
	}

	user, err := s.repomanager.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, s.internal(ctx, "find user", err)
	}

	p := models.ToProfile(user)
	return &p, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*Session, error) {
	token, expiresAt, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, s.internal(ctx, "issue session", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: models.ToProfile(user)}, nil
}

func (s *AuthService) resetURL(token string) string {
	return s.frontendURL + "/reset-password/" + token
}

// dummyDigest is compared against when no account matches, so that an
// unknown email costs one bcrypt comparison like a known one.
func (s *AuthService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.log.Warn(context.Background(), "dummy digest unavailable", "error", err)
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *AuthService) reportDelivery(ctx context.Context, kind string, err error) {
	if err != nil {
		s.log.Warn(ctx, "notification not sent", "kind", kind, "error", err)
	}
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s", common.ErrorInternal, op)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
