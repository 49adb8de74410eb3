package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avdeyev/tokensmith/internal/common"
	"github.com/avdeyev/tokensmith/internal/dbx"
	"github.com/avdeyev/tokensmith/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for unique-constraint breaks.
const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrEmailExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, created_at
		FROM users
		WHERE email = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmailWithCredentials(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByRefreshDigest(ctx context.Context, digest string) (*models.User, error) {
	query := `
		SELECT id, email, created_at
		FROM users
		WHERE refresh_token_digest = $1
	`
	user := &models.User{RefreshTokenDigest: digest}
	err := r.db.QueryRowContext(ctx, query, digest).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByResetDigest(ctx context.Context, digest string) (*models.User, error) {
	query := `
		SELECT id, email, reset_token_expires, created_at
		FROM users
		WHERE reset_token_digest = $1
	`
	user := &models.User{ResetTokenDigest: digest}
	var expires sql.NullTime
	err := r.db.QueryRowContext(ctx, query, digest).Scan(&user.ID, &user.Email, &expires, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if expires.Valid {
		user.ResetTokenExpires = expires.Time
	}
	return user, nil
}

func (r *PostgresRepository) SetRefreshDigest(ctx context.Context, userID, digest string) error {
	query := `
		UPDATE users SET refresh_token_digest = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, digest)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) RotateRefreshDigest(ctx context.Context, userID, oldDigest, newDigest string) error {
	query := `
		UPDATE users SET refresh_token_digest = $3
		WHERE id = $1 AND refresh_token_digest = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, oldDigest, newDigest)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, digest string, expires time.Time) error {
	query := `
		UPDATE users SET reset_token_digest = $2, reset_token_expires = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, digest, expires)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) CompletePasswordReset(ctx context.Context, userID, resetDigest, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $3,
		    reset_token_digest = NULL,
		    reset_token_expires = NULL,
		    refresh_token_digest = NULL
		WHERE id = $1 AND reset_token_digest = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, resetDigest, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

// requireRow maps a zero-row update to common.ErrorNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
