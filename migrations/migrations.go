// Package migrations creates and tracks the TaskHub schema.
//
// Every migration is recorded in the schema_migrations table and runs at most
// once. A migration whose table already exists is recorded without touching
// the table, so pointing the service at a database created by hand is safe.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/database"
)

// Migration represents a single schema change.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// TableName is the table created by this migration, used for existence checks
	TableName string
	// Statements returns the DDL for the given dialect, executed in order
	Statements func(d database.Dialect) []string
}

// Migrator applies migrations against a connection pool.
type Migrator struct {
	db         *database.Pool
	migrations []Migration
	now        func() time.Time
}

// NewMigrator creates a migrator for the full TaskHub schema.
func NewMigrator(db *database.Pool) *Migrator {
	return &Migrator{
		db:         db,
		migrations: GetMigrations(),
		now:        time.Now,
	}
}

// RunMigrations runs all pending migrations and returns how many executed DDL.
func (m *Migrator) RunMigrations(ctx context.Context) (int, error) {
	log.Info().Str("dialect", m.db.Dialect.Name()).Msg("Running database migrations")
	startTime := m.now()

	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	executed, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get executed migrations: %w", err)
	}

	migrationsRun := 0
	for _, migration := range m.migrations {
		if executed[migration.Name] {
			continue
		}

		exists, err := m.tableExists(ctx, migration.TableName)
		if err != nil {
			return migrationsRun, fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
		}

		if exists {
			log.Info().
				Str("migration", migration.Name).
				Str("table", migration.TableName).
				Msg("Table already exists, recording migration as completed")
			if err := m.recordMigration(ctx, m.db, migration); err != nil {
				return migrationsRun, err
			}
			continue
		}

		log.Info().
			Str("migration", migration.Name).
			Str("table", migration.TableName).
			Msg("Running migration")
		if err := m.runMigration(ctx, migration); err != nil {
			return migrationsRun, err
		}
		migrationsRun++
	}

	log.Info().
		Int("migrations_run", migrationsRun).
		Int("total_migrations", len(m.migrations)).
		Dur("duration", m.now().Sub(startTime)).
		Msg("Database migrations completed")

	return migrationsRun, nil
}

// Pending lists the migrations that have not been recorded yet.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	executed, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get executed migrations: %w", err)
	}

	var pending []string
	for _, migration := range m.migrations {
		if !executed[migration.Name] {
			pending = append(pending, migration.Name)
		}
	}
	return pending, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name VARCHAR(255) PRIMARY KEY,
		description TEXT,
		executed_at %s NOT NULL
	)`, constants.TableSchemaMigrations, m.db.Dialect.TimestampType())
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) getExecutedMigrations(ctx context.Context) (map[string]bool, error) {
	query := fmt.Sprintf("SELECT name FROM %s", constants.TableSchemaMigrations)
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	executed := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		executed[name] = true
	}

	return executed, rows.Err()
}

// runMigration executes the DDL and records the migration in one transaction.
func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	return m.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range migration.Statements(m.db.Dialect) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Name, err)
			}
		}
		return m.recordMigration(ctx, tx, migration)
	})
}

func (m *Migrator) recordMigration(ctx context.Context, q database.Querier, migration Migration) error {
	query := m.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (name, description, executed_at) VALUES (?, ?, ?)",
		constants.TableSchemaMigrations,
	))
	if _, err := q.ExecContext(ctx, query, migration.Name, migration.Description, m.now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
	}
	return nil
}

func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, m.db.Rebind(m.db.Dialect.TableExistsQuery()), tableName).Scan(&exists)
	return exists, err
}

// GetMigrations returns all migrations in the order they must be applied.
func GetMigrations() []Migration {
	return []Migration{
		createUsersTable(),
		createPasswordResetTokensTable(),
		createProjectsTable(),
		createTasksTable(),
		createContactMessagesTable(),
	}
}
