// Package services contains server-side business logic. This file implements
// AuthService, which verifies credentials, mints and rotates token pairs, and
// drives the password-reset lifecycle.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avdeyev/tokensmith/internal/common"
	"github.com/avdeyev/tokensmith/internal/dbx"
	"github.com/avdeyev/tokensmith/internal/server/auth"
	"github.com/avdeyev/tokensmith/internal/server/config"
	"github.com/avdeyev/tokensmith/internal/server/mail"
	"github.com/avdeyev/tokensmith/internal/server/models"
	"github.com/avdeyev/tokensmith/internal/server/repositories/repomanager"
	"github.com/avdeyev/tokensmith/internal/server/secrets"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ValidationResult is the outcome of ValidateToken. Claims are populated only
// when Valid is true.
type ValidationResult struct {
	Valid  bool
	UserID string
	Email  string
}

// AuthService provides authentication-related operations:
//   - Register: create users
//   - Login: verify credentials and mint tokens
//   - RefreshToken: rotate refresh tokens and mint new access tokens
//   - ValidateToken: report whether an access token is still good
//   - RequestPasswordReset / ResetPassword: the reset-token lifecycle
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	digester                     *secrets.Digester
	mailer                       mail.Sender
	accessKey                    []byte
	refreshKey                   []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
	bcryptCost                   int
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, sender mail.Sender, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		digester:                     secrets.NewDigester(cfg.DigestKey()),
		mailer:                       sender,
		accessKey:                    cfg.AccessSigningKey(),
		refreshKey:                   cfg.RefreshSigningKey(),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
		bcryptCost:                   cfg.BcryptCost,
	}
}

// Register creates a new user with the given email and password. The email is
// normalized to lowercase; a duplicate yields common.ErrEmailExists.
// Registration does not log the user in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	hash, err := secrets.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrEmailExists) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}
	return u, nil
}

// Login verifies email and password and, on success, returns a new TokenPair
// whose refresh token replaces any previously live one. An unknown email and
// a wrong password both come back as common.ErrInvalidCredentials, with a
// burned hash comparison on the unknown-email path so the two are not
// distinguishable by timing.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmailWithCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			secrets.BurnPasswordCheck(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}
	if !secrets.VerifyPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	// A login that cannot durably store the refresh digest must not report
	// success.
	pair, err := s.mintTokenPair(ctx, user, func(ctx context.Context, digest string) error {
		return repo.SetRefreshDigest(ctx, user.ID, digest)
	})
	if err != nil {
		return nil, common.ErrorInternal
	}
	return pair, nil
}

// RefreshToken validates a presented refresh token by its storage digest and
// rotates it transactionally, returning a fresh TokenPair. The rotation is
// conditioned on the old digest still being live, so of two concurrent calls
// with the same token exactly one succeeds and the other observes
// common.ErrInvalidToken.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, common.ErrMissingToken
	}

	oldDigest := s.digester.Digest(refreshToken)

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindByRefreshDigest(ctx, oldDigest)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return common.ErrorInternal
		}

		pair, err = s.mintTokenPair(ctx, user, func(ctx context.Context, digest string) error {
			if err := repo.RotateRefreshDigest(ctx, user.ID, oldDigest, digest); err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return common.ErrInvalidToken
				}
				return common.ErrorInternal
			}
			return nil
		})
		return err
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// ValidateToken reports whether an access token is currently valid. Routine
// failures (expired, malformed, tampered) are a negative result, never an
// error.
func (s *AuthService) ValidateToken(ctx context.Context, token string) ValidationResult {
	claims, err := auth.ParseToken(token, s.accessKey)
	if err != nil {
		return ValidationResult{Valid: false}
	}
	return ValidationResult{Valid: true, UserID: claims.Subject, Email: claims.Email}
}

// RequestPasswordReset generates a reset token for the user behind email,
// stores its digest with an expiry, hands the plaintext to the mail
// collaborator, and returns it for out-of-band delivery. The plaintext is
// never persisted. An unknown email yields common.ErrUserNotFound.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", common.ErrUserNotFound
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrUserNotFound
		}
		return "", common.ErrorInternal
	}

	token, err := secrets.NewResetToken()
	if err != nil {
		return "", common.ErrorInternal
	}

	expires := time.Now().Add(s.resetTokenValidityDuration)
	if err := repo.SetResetToken(ctx, user.ID, s.digester.Digest(token), expires); err != nil {
		return "", common.ErrorInternal
	}

	// Delivery is best effort; the mailer logs its own failures.
	_ = s.mailer.SendPasswordReset(ctx, user.Email, token)

	return token, nil
}

// ResetPassword consumes a reset token: it locates the unique pending reset
// whose digest matches the presented token, checks the expiry, and replaces
// the password hash. Completion also revokes the live refresh token, ending
// any session opened under the old password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return common.ErrResetTokenInvalid
	}

	digest := s.digester.Digest(token)

	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByResetDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrResetTokenInvalid
		}
		return common.ErrorInternal
	}

	if user.ResetTokenExpires.IsZero() || time.Now().After(user.ResetTokenExpires) {
		return common.ErrResetTokenExpired
	}

	hash, err := secrets.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return common.ErrorInternal
	}

	if err := repo.CompletePasswordReset(ctx, user.ID, digest, hash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// consumed by a concurrent completion
			return common.ErrResetTokenInvalid
		}
		return common.ErrorInternal
	}
	return nil
}

// NormalizeEmail lowercases and trims an email so every lookup and write uses
// the same key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// mintTokenPair issues an access token carrying the subject id and email, a
// subject-only refresh token, and persists the refresh token's storage digest
// through the supplied callback before returning the pair.
func (s *AuthService) mintTokenPair(ctx context.Context, user *models.User, persist func(ctx context.Context, digest string) error) (*TokenPair, error) {
	access, err := auth.IssueToken(user.ID, user.Email, s.accessKey, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := auth.IssueToken(user.ID, "", s.refreshKey, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := persist(ctx, s.digester.Digest(refresh)); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
