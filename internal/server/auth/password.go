// Package auth holds the credential primitives of the identity service:
// password hashing, one-time token issuance and stateless session tokens.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor for new digests. Existing digests
// carry their own cost and keep verifying after it changes.
const passwordCost = 10

// BcryptHasher produces and checks salted bcrypt digests.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: passwordCost}
}

// Hash returns a salted digest of plain. Inputs longer than 72 bytes are
// rejected by bcrypt.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plain matches digest. A malformed digest never
// matches.
func (h *BcryptHasher) Verify(plain, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	return err == nil
}
