package auth

import (
	"crypto/subtle"
	"time"

	"github.com/clinicdesk/identity/internal/common"
)

const (
	verificationCodeDigits = 6
	resetTokenBytes        = 32

	DefaultVerificationCodeTTL = 24 * time.Hour
	DefaultResetTokenTTL       = time.Hour
)

// TokenIssuer generates one-time secrets with their expiry. It does not
// validate them; that happens in the store's atomic consume.
type TokenIssuer struct {
	verificationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
}

func NewTokenIssuer(verificationTTL, resetTTL time.Duration) *TokenIssuer {
	if verificationTTL <= 0 {
		verificationTTL = DefaultVerificationCodeTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTokenTTL
	}
	return &TokenIssuer{verificationTTL: verificationTTL, resetTTL: resetTTL, now: time.Now}
}

// IssueVerificationCode returns a six-digit code in [100000, 999999].
func (i *TokenIssuer) IssueVerificationCode() (string, time.Time, error) {
	code, err := common.MakeRandDigits(verificationCodeDigits)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, i.now().Add(i.verificationTTL), nil
}

// IssueResetToken returns 256 random bits, hex-encoded.
func (i *TokenIssuer) IssueResetToken() (string, time.Time, error) {
	tok, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, i.now().Add(i.resetTTL), nil
}

// TokensEqual compares two secrets in constant time.
func TokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
