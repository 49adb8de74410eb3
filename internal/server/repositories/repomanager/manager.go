// Package repomanager constructs repositories over a shared database handle.
// Services ask the manager for a repository bound to either the pool or an
// open transaction, so the same code runs inside and outside dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/avdeyev/tokensmith/internal/dbx"
	"github.com/avdeyev/tokensmith/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to the given DBTX and
// applies schema migrations.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
