// Package repository implements persistence on database/sql. Queries are
// written with '?' placeholders and rebound for the configured driver.
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

// UserRepository defines methods for interacting with user data
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// SQLUserRepository is the database/sql implementation of UserRepository
type SQLUserRepository struct {
	db *database.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Pool) UserRepository {
	return &SQLUserRepository{
		db: db,
	}
}

const userColumns = "id, name, email, password_hash, position, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Position,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// Create adds a new user to the database
func (r *SQLUserRepository) Create(ctx context.Context, user *models.User) error {
	startTime := time.Now()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := fmt.Sprintf(
		"INSERT INTO %s (name, email, password_hash, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		constants.TableUsers,
	)

	id, err := r.db.InsertID(ctx, r.db, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Position,
		user.CreatedAt,
		user.UpdatedAt,
	)

	utils.LogDBQuery(
		query,
		[]interface{}{user.Name, user.Email, user.PasswordHash, user.Position, user.CreatedAt, user.UpdatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return utils.NewDuplicateError("User", "email", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id

	log.Info().
		Int64("user_id", user.ID).
		Str("email", utils.MaskEmail(user.Email)).
		Msg("User created")

	return nil
}

// GetByID retrieves a user by ID
func (r *SQLUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	startTime := time.Now()

	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", userColumns, constants.TableUsers))

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))

	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", id)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	startTime := time.Now()

	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE LOWER(email) = LOWER(?)", userColumns, constants.TableUsers))

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))

	utils.LogDBQuery(query, []interface{}{utils.MaskEmail(email)}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", utils.MaskEmail(email))
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// Update saves the profile fields of a user
func (r *SQLUserRepository) Update(ctx context.Context, user *models.User) error {
	startTime := time.Now()

	user.UpdatedAt = time.Now()

	query := r.db.Rebind(fmt.Sprintf(
		"UPDATE %s SET name = ?, email = ?, position = ?, updated_at = ? WHERE id = ?",
		constants.TableUsers,
	))

	result, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.Position, user.UpdatedAt, user.ID)

	utils.LogDBQuery(
		query,
		[]interface{}{user.Name, utils.MaskEmail(user.Email), user.Position, user.UpdatedAt, user.ID},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return utils.NewDuplicateError("User", "email", user.Email)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("User", user.ID)
	}

	return nil
}

// UpdatePassword replaces the stored credential hash
func (r *SQLUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return updatePassword(ctx, r.db, r.db, id, passwordHash)
}

// updatePassword runs on q so the reset redemption can reuse it inside its transaction.
func updatePassword(ctx context.Context, db *database.Pool, q database.Querier, id int64, passwordHash string) error {
	startTime := time.Now()

	query := db.Rebind(fmt.Sprintf(
		"UPDATE %s SET password_hash = ?, updated_at = ? WHERE id = ?",
		constants.TableUsers,
	))

	now := time.Now()
	result, err := q.ExecContext(ctx, query, passwordHash, now, id)

	utils.LogDBQuery(query, []interface{}{passwordHash, now, id}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("User", id)
	}

	return nil
}

// ExistsByEmail checks if a user with the given email exists
func (r *SQLUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	startTime := time.Now()

	query := r.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE LOWER(email) = LOWER(?)", constants.TableUsers))

	var count int64
	err := r.db.QueryRowContext(ctx, query, email).Scan(&count)

	utils.LogDBQuery(query, []interface{}{utils.MaskEmail(email)}, time.Since(startTime), err)

	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return count > 0, nil
}
