// Package users declares the server-side repository contract for the user
// credential store.
package users

import (
	"context"
	"time"

	"github.com/avdeyev/tokensmith/internal/server/models"
)

// Repository defines the read/write contract the auth core needs from the
// credential store. Lookups return common.ErrorNotFound when no row matches.
type Repository interface {
	// Create inserts a new user. The email must already be normalized to
	// lowercase. A duplicate email yields common.ErrEmailExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user under the default projection, which
	// excludes the password hash.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByEmailWithCredentials returns the user including the password
	// hash. Login is the only caller.
	GetByEmailWithCredentials(ctx context.Context, email string) (*models.User, error)

	// FindByRefreshDigest returns the user whose live refresh token has the
	// given storage digest.
	FindByRefreshDigest(ctx context.Context, digest string) (*models.User, error)

	// FindByResetDigest returns the user whose pending reset token has the
	// given storage digest.
	FindByResetDigest(ctx context.Context, digest string) (*models.User, error)

	// SetRefreshDigest stores digest as the user's live refresh token,
	// overwriting any prior value.
	SetRefreshDigest(ctx context.Context, userID, digest string) error

	// RotateRefreshDigest replaces oldDigest with newDigest only if
	// oldDigest is still the live one. When another rotation won the race it
	// returns common.ErrorNotFound.
	RotateRefreshDigest(ctx context.Context, userID, oldDigest, newDigest string) error

	// SetResetToken stores the digest and expiry of a pending password
	// reset, replacing any prior pending reset.
	SetResetToken(ctx context.Context, userID, digest string, expires time.Time) error

	// CompletePasswordReset sets the new password hash and clears the reset
	// fields together with the live refresh digest. The update is conditioned
	// on resetDigest still being the pending one; common.ErrorNotFound
	// signals it was consumed or replaced in the meantime.
	CompletePasswordReset(ctx context.Context, userID, resetDigest, passwordHash string) error
}
