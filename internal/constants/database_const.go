// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file names the tables and columns the repositories and
// migrations agree on, plus driver error codes the error mapper recognises.
package constants

// Table names.
const (
	// TableUsers stores user accounts and their credential hashes.
	TableUsers = "users"

	// TablePasswordResetTokens stores hashed, single-use password reset tokens.
	TablePasswordResetTokens = "password_reset_tokens"

	// TableProjects stores projects owned by a user.
	TableProjects = "projects"

	// TableTasks stores tasks that belong to a project.
	TableTasks = "tasks"

	// TableContactMessages stores messages submitted through the contact form.
	TableContactMessages = "contact_messages"

	// TableSchemaMigrations records which migrations have been applied.
	TableSchemaMigrations = "schema_migrations"
)

// Common column names.
const (
	ColumnID           = "id"
	ColumnUserID       = "user_id"
	ColumnEmail        = "email"
	ColumnPasswordHash = "password_hash"
	ColumnTokenHash    = "token_hash"
	ColumnExpiresAt    = "expires_at"
	ColumnCreatedAt    = "created_at"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	// DriverMemory keeps all data in process memory. Local runs only.
	DriverMemory = "memory"
)

// Driver error codes.
const (
	// PGErrorDuplicateConstraint is the PostgreSQL SQLSTATE for unique violations.
	PGErrorDuplicateConstraint = "23505"

	// PGErrorForeignKeyConstraint is the PostgreSQL SQLSTATE for foreign key violations.
	PGErrorForeignKeyConstraint = "23503"

	// MySQLErrorDuplicateEntry is the MySQL error number for unique violations.
	MySQLErrorDuplicateEntry = 1062

	// MySQLErrorForeignKey is the MySQL error number for a missing parent row.
	MySQLErrorForeignKey = 1452
)

// PostgreSQL connection parameters.
const (
	PostgresSSLDisable = "sslmode=disable connect_timeout=15"
	PostgresSSLRequire = "sslmode=require connect_timeout=15"
)
