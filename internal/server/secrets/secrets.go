// Package secrets bundles the one-way hashing primitives of the auth core:
// bcrypt for passwords, a deterministic keyed digest for refresh and reset
// tokens, and reset-token generation.
//
// Passwords use a per-hash salt (bcrypt), so two equal passwords store
// differently. Refresh and reset tokens are looked up by value, which rules
// out salted hashes; they are stored as an HMAC-SHA256 digest under a
// dedicated key instead, keeping the lookup a plain indexed equality while a
// leaked table alone remains unusable.
package secrets

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"

	"github.com/avdeyev/tokensmith/internal/common"
)

// dummyHash is a valid bcrypt hash of an unrelated string. Login verifies
// against it when the email is unknown so both failure paths cost one bcrypt
// comparison.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword returns the bcrypt hash of plain using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// BurnPasswordCheck performs a bcrypt comparison against a throwaway hash.
// Used on the unknown-email login path for timing parity with VerifyPassword.
func BurnPasswordCheck(plain string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plain))
}

// Digester computes the storage digest of refresh and reset tokens.
type Digester struct {
	key []byte
}

// NewDigester returns a Digester keyed with key.
func NewDigester(key []byte) *Digester {
	return &Digester{key: key}
}

// Digest returns the hex-encoded HMAC-SHA256 of token under the digester key.
// The digest is deterministic, so the stored column can carry a unique index.
func (d *Digester) Digest(token string) string {
	mac := hmac.New(sha256.New, d.key)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewResetToken generates a password-reset token with 256 bits of entropy,
// hex-encoded. The plaintext is handed to the caller for out-of-band delivery
// and never persisted.
func NewResetToken() (string, error) {
	return common.MakeRandHexString(32)
}
