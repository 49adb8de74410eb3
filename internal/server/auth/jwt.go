// Package auth implements the token signer: issuing and verifying signed,
// time-bound JWTs (HS256) that carry the subject identity.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avdeyev/tokensmith/internal/common"
)

// Claims are the statements embedded in issued tokens. The subject holds the
// user id; Email is set on access tokens only, refresh tokens carry the
// subject alone.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// IssueToken signs a token for userID with the given validity. Pass an empty
// email for subject-only tokens (refresh). Every token gets a random jti, so
// two tokens issued within the same second never collide.
func IssueToken(userID, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString and returns its
// claims. Failures are reported as distinct conditions:
// common.ErrTokenExpired, common.ErrTokenInvalidSignature, or
// common.ErrTokenMalformed for anything else unparseable.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrTokenInvalidSignature
		}
		return secretKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, common.ErrTokenInvalidSignature):
			return nil, common.ErrTokenInvalidSignature
		default:
			return nil, common.ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
