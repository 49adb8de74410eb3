package repomanager

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/avdeyev/tokensmith/internal/server/migrations"
)

var _ RepositoryManager = (*PostgresRepositoryManager)(nil)

func TestUsers_BoundToHandle(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := NewPostgresRepositoryManager()
	require.NotNil(t, m.Users(db))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.Migrations.ReadDir(".")
	require.NoError(t, err)
	require.NotEmpty(t, entries, "schema migrations must be embedded")

	var found bool
	for _, e := range entries {
		if e.Name() == "00001_create_users.sql" {
			found = true
		}
	}
	require.True(t, found)
}
