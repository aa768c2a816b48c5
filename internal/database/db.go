package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
)

// Pool represents a database connection pool together with its SQL dialect.
type Pool struct {
	*sql.DB
	Dialect Dialect
}

var (
	// dbPool is the global database connection pool
	dbPool *Pool
)

// NewPool wraps an open *sql.DB. A nil dialect means PostgreSQL.
func NewPool(db *sql.DB, dialect Dialect) *Pool {
	if dialect == nil {
		dialect = Postgres{}
	}
	return &Pool{DB: db, Dialect: dialect}
}

// Connect creates a new database connection pool
func Connect(cfg *config.AppConfig) (*Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DBConnectionTimeout)
	defer cancel()

	dialect, err := DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("driver", dialect.Name()).
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Name).
		Str("user", cfg.Database.User).
		Msg("Connecting to database")

	if dialect.Name() == constants.DriverMySQL {
		if err := ensureMySQLDatabase(ctx, cfg); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(dialect.Name(), cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to database")

	dbPool = NewPool(db, dialect)
	return dbPool, nil
}

// ensureMySQLDatabase creates the schema on servers where it has to exist up front.
func ensureMySQLDatabase(ctx context.Context, cfg *config.AppConfig) error {
	password := cfg.Database.Password
	if password != "" {
		password = ":" + password
	}
	rootDSN := fmt.Sprintf("%s%s@tcp(%s:%d)/", cfg.Database.User, password, cfg.Database.Host, cfg.Database.Port)

	rootDB, err := sql.Open(constants.DriverMySQL, rootDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to root database: %w", err)
	}
	defer rootDB.Close()

	if _, err := rootDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Database.Name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	log.Info().Msgf("Ensured database '%s' exists", cfg.Database.Name)
	return nil
}

// Get returns the global database connection pool
func Get() *Pool {
	if dbPool == nil {
		log.Fatal().Msg("database connection pool not initialized")
	}
	return dbPool
}

// Close closes the database connection pool
func (p *Pool) Close() {
	if p != nil && p.DB != nil {
		log.Info().Msg("Closing database connection pool")
		p.DB.Close()
	}
}

// dialect falls back to PostgreSQL for pools built as struct literals.
func (p *Pool) dialect() Dialect {
	if p.Dialect == nil {
		return Postgres{}
	}
	return p.Dialect
}

// Rebind rewrites '?' placeholders for the pool's driver.
func (p *Pool) Rebind(query string) string {
	return p.dialect().Rebind(query)
}

// InsertID runs an INSERT on q and returns the generated id.
func (p *Pool) InsertID(ctx context.Context, q Querier, query string, args ...interface{}) (int64, error) {
	return p.dialect().InsertID(ctx, q, query, args...)
}

// IsUniqueViolation reports whether err came from a unique constraint.
func (p *Pool) IsUniqueViolation(err error) bool {
	return p.dialect().IsUniqueViolation(err)
}

// Transaction executes a function within a transaction
func (p *Pool) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the database connection
func (p *Pool) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBHealthCheckTimeout)
	defer cancel()

	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := p.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("database returned unexpected result: %d", result)
	}

	return nil
}
