package repository_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/database"
)

// newMock creates a pool over sqlmock for the given dialect.
func newMock(t *testing.T, dialect database.Dialect) (*database.Pool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewPool(db, dialect), mock
}
