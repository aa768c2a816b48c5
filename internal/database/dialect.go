package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/taskhub/backend/internal/constants"
)

// Dialect hides the differences between the supported SQL backends.
// Queries are written with '?' placeholders and rebound per driver.
type Dialect interface {
	// Name returns the database/sql driver name.
	Name() string

	// Rebind rewrites '?' placeholders into the driver's native form.
	Rebind(query string) string

	// InsertID runs an INSERT and returns the generated primary key.
	InsertID(ctx context.Context, q Querier, query string, args ...interface{}) (int64, error)

	// IsUniqueViolation reports whether err is a unique constraint violation.
	IsUniqueViolation(err error) bool

	// AutoIncrementPK is the column definition of a generated BIGINT primary key.
	AutoIncrementPK() string

	// TimestampType is the column type used for instants.
	TimestampType() string

	// TableExistsQuery returns a query with one '?' (table name) that yields a boolean.
	TableExistsQuery() string
}

// DialectFor returns the dialect registered for driver.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case constants.DriverPostgres, "":
		return Postgres{}, nil
	case constants.DriverMySQL:
		return MySQL{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Postgres is the lib/pq dialect.
type Postgres struct{}

func (Postgres) Name() string { return constants.DriverPostgres }

func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (p Postgres) InsertID(ctx context.Context, q Querier, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, p.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (Postgres) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == constants.PGErrorDuplicateConstraint
	}
	return false
}

func (Postgres) AutoIncrementPK() string { return "BIGSERIAL PRIMARY KEY" }

func (Postgres) TimestampType() string { return "TIMESTAMP WITH TIME ZONE" }

func (Postgres) TableExistsQuery() string {
	return `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ?
	)`
}

// MySQL is the go-sql-driver/mysql dialect.
type MySQL struct{}

func (MySQL) Name() string { return constants.DriverMySQL }

func (MySQL) Rebind(query string) string { return query }

func (MySQL) InsertID(ctx context.Context, q Querier, query string, args ...interface{}) (int64, error) {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (MySQL) IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == constants.MySQLErrorDuplicateEntry
	}
	return false
}

func (MySQL) AutoIncrementPK() string { return "BIGINT AUTO_INCREMENT PRIMARY KEY" }

func (MySQL) TimestampType() string { return "DATETIME(6)" }

func (MySQL) TableExistsQuery() string {
	return `SELECT COUNT(*) > 0 FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`
}
