// Package scripts provides database seeding for TaskHub.
//
// Seeds work like migrations: each one is recorded in the seeds table and
// runs at most once, so seeding is safe on new and existing databases.
package scripts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/database"
	"github.com/taskhub/backend/internal/utils"
)

const seedsTable = "seeds"

// ErrAdminPasswordMissing is returned when an admin email is configured
// without a password.
var ErrAdminPasswordMissing = errors.New("seed admin password is not set")

type seed struct {
	Name     string
	SeedFunc func(ctx context.Context, tx *sql.Tx) error
}

// Seeder handles database seeding.
type Seeder struct {
	db     *database.Pool
	hasher auth.Hasher
	admin  config.SeedSettings
	now    func() time.Time
}

// NewSeeder creates a new seeder. The admin seed is skipped when
// admin.AdminEmail is empty.
func NewSeeder(db *database.Pool, hasher auth.Hasher, admin config.SeedSettings) *Seeder {
	return &Seeder{
		db:     db,
		hasher: hasher,
		admin:  admin,
		now:    time.Now,
	}
}

// SeedDatabase runs every seed that has not been executed yet.
func (s *Seeder) SeedDatabase(ctx context.Context) error {
	log.Info().Msg("Seeding database")
	startTime := s.now()

	if err := s.createSeedsTable(ctx); err != nil {
		return fmt.Errorf("failed to create seeds table: %w", err)
	}

	executedSeeds, err := s.getExecutedSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed seeds: %w", err)
	}

	for _, sd := range s.seeds() {
		if executedSeeds[sd.Name] {
			log.Debug().Str("seed", sd.Name).Msg("Seed already executed")
			continue
		}
		log.Info().Str("seed", sd.Name).Msg("Running seed")
		if err := s.runSeed(ctx, sd.Name, sd.SeedFunc); err != nil {
			return err
		}
	}

	log.Info().
		Dur("duration", s.now().Sub(startTime)).
		Msg("Database seeding completed")

	return nil
}

func (s *Seeder) seeds() []seed {
	var seeds []seed
	if strings.TrimSpace(s.admin.AdminEmail) != "" {
		seeds = append(seeds, seed{"admin_user", s.seedAdmin})
	} else {
		log.Info().Msg("No admin email configured, skipping admin seed")
	}
	return seeds
}

func (s *Seeder) createSeedsTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name VARCHAR(255) PRIMARY KEY,
		executed_at %s NOT NULL
	)`, seedsTable, s.db.Dialect.TimestampType())
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *Seeder) getExecutedSeeds(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT name FROM %s", seedsTable))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	seeds := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		seeds[name] = true
	}

	return seeds, rows.Err()
}

// runSeed runs a seed function and records it in one transaction.
func (s *Seeder) runSeed(ctx context.Context, name string, seedFunc func(ctx context.Context, tx *sql.Tx) error) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := seedFunc(ctx, tx); err != nil {
			return fmt.Errorf("seed %s failed: %w", name, err)
		}

		query := s.db.Rebind(fmt.Sprintf("INSERT INTO %s (name, executed_at) VALUES (?, ?)", seedsTable))
		if _, err := tx.ExecContext(ctx, query, name, s.now().UTC()); err != nil {
			return fmt.Errorf("failed to record seed: %w", err)
		}

		return nil
	})
}

// seedAdmin creates the configured administrator unless the email is taken.
func (s *Seeder) seedAdmin(ctx context.Context, tx *sql.Tx) error {
	email := strings.TrimSpace(s.admin.AdminEmail)

	var count int
	countQuery := s.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE LOWER(email) = LOWER(?)", constants.TableUsers))
	if err := tx.QueryRowContext(ctx, countQuery, email).Scan(&count); err != nil {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
	if count > 0 {
		log.Info().Str("email", utils.MaskEmail(email)).Msg("Admin user already exists")
		return nil
	}

	if s.admin.AdminPassword == "" {
		return ErrAdminPasswordMissing
	}
	hash, err := s.hasher.Hash(s.admin.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := s.admin.AdminName
	if name == "" {
		name = "Administrator"
	}
	now := s.now().UTC()
	query := fmt.Sprintf(
		"INSERT INTO %s (name, email, password_hash, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		constants.TableUsers,
	)
	id, err := s.db.InsertID(ctx, tx, query, name, email, hash, constants.PositionAdmin, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert admin user: %w", err)
	}

	log.Info().Int64("user_id", id).Str("email", utils.MaskEmail(email)).Msg("Admin user created")
	return nil
}
