package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/database"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// PasswordResetRepository stores issued reset tokens.
type PasswordResetRepository interface {
	// Issue inserts token and sets its ID unless the user's latest token was
	// sent within cooldown of token.CreatedAt. The check and the insert are
	// atomic per user; it reports whether the row was stored.
	Issue(ctx context.Context, token *models.ResetToken, cooldown time.Duration) (bool, error)

	// LatestForUser returns the most recently created token of a user, or nil
	// when the user never requested one.
	LatestForUser(ctx context.Context, userID int64) (*models.ResetToken, error)

	// FindByUserAndHash returns the token matching both user and digest.
	FindByUserAndHash(ctx context.Context, userID int64, tokenHash string) (*models.ResetToken, error)

	// Redeem marks the token used and stores the new password hash in one
	// transaction. The token is claimed only if it is still unused, so of two
	// concurrent redemptions exactly one wins; the other gets ErrTokenUsed.
	Redeem(ctx context.Context, tokenID, userID int64, passwordHash string) error

	// DeleteExpiredBefore removes rows that expired before cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLPasswordResetRepository is the database/sql implementation of PasswordResetRepository.
type SQLPasswordResetRepository struct {
	db *database.Pool
}

// NewPasswordResetRepository creates a new PasswordResetRepository.
func NewPasswordResetRepository(db *database.Pool) PasswordResetRepository {
	return &SQLPasswordResetRepository{db: db}
}

const resetTokenColumns = "id, user_id, token_hash, expires_at, used, last_sent_at, created_at"

func scanResetToken(row interface{ Scan(...interface{}) error }) (*models.ResetToken, error) {
	token := &models.ResetToken{}
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.Used,
		&token.LastSentAt,
		&token.CreatedAt,
	)
	return token, err
}

// Issue stores token unless the user's latest token was sent less than
// cooldown before token.CreatedAt. The user row is locked for the duration of
// the transaction, so concurrent requests for one user are serialized.
func (r *SQLPasswordResetRepository) Issue(ctx context.Context, token *models.ResetToken, cooldown time.Duration) (bool, error) {
	issued := false
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		startTime := time.Now()

		lock := r.db.Rebind(fmt.Sprintf("SELECT id FROM %s WHERE id = ? FOR UPDATE", constants.TableUsers))
		var userID int64
		err := tx.QueryRowContext(ctx, lock, token.UserID).Scan(&userID)
		utils.LogDBQuery(lock, []interface{}{token.UserID}, time.Since(startTime), err)
		if errors.Is(err, sql.ErrNoRows) {
			return utils.NewNotFoundError("User", token.UserID)
		}
		if err != nil {
			return fmt.Errorf("failed to lock user for reset: %w", err)
		}

		latest, err := r.latestForUser(ctx, tx, token.UserID)
		if err != nil {
			return err
		}
		if latest != nil && latest.InCooldown(token.CreatedAt, cooldown) {
			return nil
		}

		startTime = time.Now()
		query := fmt.Sprintf(
			"INSERT INTO %s (user_id, token_hash, expires_at, used, last_sent_at, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			constants.TablePasswordResetTokens,
		)
		args := []interface{}{token.UserID, token.TokenHash, token.ExpiresAt, token.Used, token.LastSentAt, token.CreatedAt}

		id, err := r.db.InsertID(ctx, tx, query, args...)
		utils.LogDBQuery(query, args, time.Since(startTime), err)
		if err != nil {
			return fmt.Errorf("failed to create password reset token: %w", err)
		}
		token.ID = id
		issued = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return issued, nil
}

// LatestForUser implements PasswordResetRepository.
func (r *SQLPasswordResetRepository) LatestForUser(ctx context.Context, userID int64) (*models.ResetToken, error) {
	return r.latestForUser(ctx, r.db, userID)
}

func (r *SQLPasswordResetRepository) latestForUser(ctx context.Context, q database.Querier, userID int64) (*models.ResetToken, error) {
	startTime := time.Now()

	query := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		resetTokenColumns, constants.TablePasswordResetTokens,
	))

	token, err := scanResetToken(q.QueryRowContext(ctx, query, userID))

	if errors.Is(err, sql.ErrNoRows) {
		utils.LogDBQuery(query, []interface{}{userID}, time.Since(startTime), nil)
		return nil, nil
	}
	utils.LogDBQuery(query, []interface{}{userID}, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest reset token: %w", err)
	}

	return token, nil
}

// FindByUserAndHash implements PasswordResetRepository.
func (r *SQLPasswordResetRepository) FindByUserAndHash(ctx context.Context, userID int64, tokenHash string) (*models.ResetToken, error) {
	startTime := time.Now()

	query := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE user_id = ? AND token_hash = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		resetTokenColumns, constants.TablePasswordResetTokens,
	))

	token, err := scanResetToken(r.db.QueryRowContext(ctx, query, userID, tokenHash))

	utils.LogDBQuery(query, []interface{}{userID, tokenHash}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewResetTokenNotFoundError()
		}
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}

	return token, nil
}

// Redeem implements PasswordResetRepository.
func (r *SQLPasswordResetRepository) Redeem(ctx context.Context, tokenID, userID int64, passwordHash string) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		startTime := time.Now()

		query := r.db.Rebind(fmt.Sprintf(
			"UPDATE %s SET used = TRUE WHERE id = ? AND used = FALSE",
			constants.TablePasswordResetTokens,
		))

		result, err := tx.ExecContext(ctx, query, tokenID)
		utils.LogDBQuery(query, []interface{}{tokenID}, time.Since(startTime), err)
		if err != nil {
			return fmt.Errorf("failed to mark reset token used: %w", err)
		}

		claimed, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if claimed == 0 {
			return utils.NewTokenUsedError()
		}

		if err := updatePassword(ctx, r.db, tx, userID, passwordHash); err != nil {
			return err
		}

		log.Info().
			Int64("user_id", userID).
			Int64("token_id", tokenID).
			Msg("Password reset token redeemed")

		return nil
	})
}

// DeleteExpiredBefore implements PasswordResetRepository.
func (r *SQLPasswordResetRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	startTime := time.Now()

	query := r.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", constants.TablePasswordResetTokens))

	result, err := r.db.ExecContext(ctx, query, cutoff)
	utils.LogDBQuery(query, []interface{}{cutoff}, time.Since(startTime), err)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired reset tokens: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return removed, nil
}
