package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	pg, err := DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", pg.Name())

	my, err := DialectFor("MySQL")
	require.NoError(t, err)
	assert.Equal(t, "mysql", my.Name())

	_, err = DialectFor("sqlite")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	query := "UPDATE t SET a = ? WHERE id = ? AND used = ?"

	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2 AND used = $3", Postgres{}.Rebind(query))
	assert.Equal(t, query, MySQL{}.Rebind(query))
}

func TestIsUniqueViolation(t *testing.T) {
	pgDup := &pq.Error{Code: "23505"}
	pgFK := &pq.Error{Code: "23503"}
	myDup := &mysql.MySQLError{Number: 1062}

	assert.True(t, Postgres{}.IsUniqueViolation(fmt.Errorf("wrapped: %w", pgDup)))
	assert.False(t, Postgres{}.IsUniqueViolation(pgFK))
	assert.False(t, Postgres{}.IsUniqueViolation(myDup))

	assert.True(t, MySQL{}.IsUniqueViolation(myDup))
	assert.False(t, MySQL{}.IsUniqueViolation(pgDup))
	assert.False(t, MySQL{}.IsUniqueViolation(errors.New("boom")))
}

func TestInsertID(t *testing.T) {
	ctx := context.Background()

	t.Run("postgres uses RETURNING", func(t *testing.T) {
		pool, mock := newMockPool(t, Postgres{})
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (email) VALUES ($1) RETURNING id")).
			WithArgs("a@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

		id, err := pool.InsertID(ctx, pool.DB, "INSERT INTO users (email) VALUES (?)", "a@example.com")

		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mysql uses LastInsertId", func(t *testing.T) {
		pool, mock := newMockPool(t, MySQL{})
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email) VALUES (?)")).
			WithArgs("a@example.com").
			WillReturnResult(sqlmock.NewResult(7, 1))

		id, err := pool.InsertID(ctx, pool.DB, "INSERT INTO users (email) VALUES (?)", "a@example.com")

		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDDLTokens(t *testing.T) {
	assert.Contains(t, Postgres{}.AutoIncrementPK(), "BIGSERIAL")
	assert.Contains(t, MySQL{}.AutoIncrementPK(), "AUTO_INCREMENT")
	assert.NotEqual(t, Postgres{}.TimestampType(), MySQL{}.TimestampType())
}
