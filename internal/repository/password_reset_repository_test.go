package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/database"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository"
	"github.com/taskhub/backend/internal/utils"
)

var tokenRowColumns = []string{"id", "user_id", "token_hash", "expires_at", "used", "last_sent_at", "created_at"}

func TestPasswordResetRepository_Issue(t *testing.T) {
	pool, mock := newMock(t, database.Postgres{})
	repo := repository.NewPasswordResetRepository(pool)
	now := time.Now()
	token := models.NewResetToken(4, "digest", now, time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1")).
		WithArgs(int64(4)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, used, last_sent_at, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id")).
		WithArgs(int64(4), "digest", token.ExpiresAt, false, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	issued, err := repo.Issue(context.Background(), token, 30*time.Second)

	require.NoError(t, err)
	assert.True(t, issued)
	assert.Equal(t, int64(11), token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetRepository_IssueInCooldown(t *testing.T) {
	pool, mock := newMock(t, database.MySQL{})
	repo := repository.NewPasswordResetRepository(pool)
	now := time.Now()
	sent := now.Add(-10 * time.Second)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = ? FOR UPDATE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(tokenRowColumns).AddRow(2, 4, "digest", sent.Add(time.Hour), false, sent, sent))
	mock.ExpectCommit()

	issued, err := repo.Issue(context.Background(), models.NewResetToken(4, "next", now, time.Hour), 30*time.Second)

	require.NoError(t, err)
	assert.False(t, issued)
	assert.NoError(t, mock.ExpectationsWereMet(), "no row may be inserted")
}

func TestPasswordResetRepository_IssueUnknownUser(t *testing.T) {
	pool, mock := newMock(t, nil)
	repo := repository.NewPasswordResetRepository(pool)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	issued, err := repo.Issue(context.Background(), models.NewResetToken(9, "digest", time.Now(), time.Hour), time.Minute)

	assert.False(t, issued)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetRepository_LatestForUser(t *testing.T) {
	pool, mock := newMock(t, nil)
	repo := repository.NewPasswordResetRepository(pool)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(tokenRowColumns).AddRow(2, 4, "digest", now.Add(time.Hour), false, now, now))

	token, err := repo.LatestForUser(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, int64(2), token.ID)

	mock.ExpectQuery("FROM password_reset_tokens").WillReturnError(sql.ErrNoRows)
	token, err = repo.LatestForUser(context.Background(), 5)
	assert.NoError(t, err)
	assert.Nil(t, token, "no previous request is not an error")

	mock.ExpectQuery("FROM password_reset_tokens").WillReturnError(errors.New("connection reset"))
	_, err = repo.LatestForUser(context.Background(), 6)
	assert.Error(t, err)
}

func TestPasswordResetRepository_FindByUserAndHash(t *testing.T) {
	pool, mock := newMock(t, nil)
	repo := repository.NewPasswordResetRepository(pool)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND token_hash = $2")).
		WithArgs(int64(4), "wrong").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserAndHash(context.Background(), 4, "wrong")

	require.Error(t, err)
	assert.True(t, utils.IsNotFoundError(err))
	assert.Equal(t, "invalid token or email", err.Error())
}

func TestPasswordResetRepository_Redeem(t *testing.T) {
	pool, mock := newMock(t, nil)
	repo := repository.NewPasswordResetRepository(pool)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE password_reset_tokens SET used = TRUE WHERE id = $1 AND used = FALSE")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("new-hash", sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Redeem(context.Background(), 2, 4, "new-hash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetRepository_RedeemAlreadyClaimed(t *testing.T) {
	pool, mock := newMock(t, nil)
	repo := repository.NewPasswordResetRepository(pool)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE password_reset_tokens SET used = TRUE").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Redeem(context.Background(), 2, 4, "new-hash")

	assert.ErrorIs(t, err, utils.ErrTokenUsed)
	assert.NoError(t, mock.ExpectationsWereMet(), "the password must not be touched")
}

func TestPasswordResetRepository_RedeemRollsBackOnPasswordFailure(t *testing.T) {
	pool, mock := newMock(t, nil)
	repo := repository.NewPasswordResetRepository(pool)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE password_reset_tokens").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Redeem(context.Background(), 2, 4, "new-hash")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetRepository_DeleteExpiredBefore(t *testing.T) {
	pool, mock := newMock(t, database.MySQL{})
	repo := repository.NewPasswordResetRepository(pool)
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM password_reset_tokens WHERE expires_at < ?")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteExpiredBefore(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}
