package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrRecordNotFound is returned when a lookup, update or delete matches no row.
var ErrRecordNotFound = errors.New("record not found")

// Table represents a database table with common methods
type Table interface {
	TableName() string
}

// Conditions are equality filters ANDed together in List and Count.
type Conditions map[string]interface{}

// CRUD provides generic database operations for any model whose fields carry
// `db` tags. The column tagged "id" is the generated primary key.
type CRUD struct {
	DB *Pool
}

// NewCRUD creates a new CRUD instance with the given database pool
func NewCRUD(db *Pool) *CRUD {
	return &CRUD{DB: db}
}

type column struct {
	name  string
	index int
}

// columnsOf lists the tagged columns of a struct type in declaration order.
func columnsOf(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, column{name: tag, index: i})
	}
	return cols
}

func columnNames(cols []column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

func scanTargets(v reflect.Value, cols []column) []interface{} {
	targets := make([]interface{}, len(cols))
	for i, c := range cols {
		targets[i] = v.Field(c.index).Addr().Interface()
	}
	return targets
}

// where renders conditions in a stable order so queries are deterministic.
func where(conditions Conditions) (string, []interface{}) {
	if len(conditions) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(conditions))
	for k := range conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, len(keys))
	params := make([]interface{}, len(keys))
	for i, k := range keys {
		clauses[i] = k + " = ?"
		params[i] = conditions[k]
	}
	return " WHERE " + strings.Join(clauses, " AND "), params
}

// Create inserts a new record into the database and sets the ID field
func (c *CRUD) Create(ctx context.Context, model Table) error {
	modelValue := reflect.ValueOf(model).Elem()

	var fields, placeholders []string
	var values []interface{}
	var idField reflect.Value

	for _, col := range columnsOf(modelValue.Type()) {
		if col.name == "id" {
			idField = modelValue.Field(col.index)
			continue
		}
		fields = append(fields, col.name)
		placeholders = append(placeholders, "?")
		values = append(values, modelValue.Field(col.index).Interface())
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		model.TableName(),
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
	)

	log.Debug().
		Str("query", query).
		Str("table", model.TableName()).
		Msg("Creating database record")

	id, err := c.DB.InsertID(ctx, c.DB, query, values...)
	if err != nil {
		return fmt.Errorf("failed to create record in %s: %w", model.TableName(), err)
	}

	if idField.IsValid() {
		idField.Set(reflect.ValueOf(id).Convert(idField.Type()))
	}

	return nil
}

// GetByID retrieves a record by its ID
func (c *CRUD) GetByID(ctx context.Context, model Table, id interface{}) error {
	modelValue := reflect.ValueOf(model).Elem()
	cols := columnsOf(modelValue.Type())

	query := c.DB.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = ?",
		strings.Join(columnNames(cols), ", "),
		model.TableName(),
	))

	log.Debug().
		Str("query", query).
		Interface("id", id).
		Str("table", model.TableName()).
		Msg("Getting database record by ID")

	if err := c.DB.QueryRowContext(ctx, query, id).Scan(scanTargets(modelValue, cols)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %v: %w", model.TableName(), id, ErrRecordNotFound)
		}
		return fmt.Errorf("failed to get record from %s: %w", model.TableName(), err)
	}

	return nil
}

// Update writes every tagged column except id and created_at.
func (c *CRUD) Update(ctx context.Context, model Table) error {
	modelValue := reflect.ValueOf(model).Elem()

	var sets []string
	var values []interface{}
	var idValue interface{}

	for _, col := range columnsOf(modelValue.Type()) {
		switch col.name {
		case "id":
			idValue = modelValue.Field(col.index).Interface()
		case "created_at":
		default:
			sets = append(sets, col.name+" = ?")
			values = append(values, modelValue.Field(col.index).Interface())
		}
	}
	values = append(values, idValue)

	query := c.DB.Rebind(fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = ?",
		model.TableName(),
		strings.Join(sets, ", "),
	))

	log.Debug().
		Str("query", query).
		Str("table", model.TableName()).
		Msg("Updating database record")

	result, err := c.DB.ExecContext(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("failed to update record in %s: %w", model.TableName(), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %v: %w", model.TableName(), idValue, ErrRecordNotFound)
	}

	return nil
}

// Delete removes a record from the database
func (c *CRUD) Delete(ctx context.Context, model Table, id interface{}) error {
	query := c.DB.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", model.TableName()))

	log.Debug().
		Str("query", query).
		Interface("id", id).
		Str("table", model.TableName()).
		Msg("Deleting database record")

	result, err := c.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete record from %s: %w", model.TableName(), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %v: %w", model.TableName(), id, ErrRecordNotFound)
	}

	return nil
}

// List loads every record matching conditions into dest, a pointer to a
// slice of structs or struct pointers, ordered by id.
func (c *CRUD) List(ctx context.Context, model Table, dest interface{}, conditions Conditions) error {
	return c.list(ctx, model, dest, conditions, "")
}

// ListPage is List restricted to one page of limit rows starting at offset.
func (c *CRUD) ListPage(ctx context.Context, model Table, dest interface{}, conditions Conditions, limit, offset int) error {
	return c.list(ctx, model, dest, conditions, fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))
}

func (c *CRUD) list(ctx context.Context, model Table, dest interface{}, conditions Conditions, suffix string) error {
	destValue := reflect.ValueOf(dest).Elem()
	elemType := destValue.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}
	cols := columnsOf(elemType)

	clause, params := where(conditions)
	query := c.DB.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY id%s",
		strings.Join(columnNames(cols), ", "),
		model.TableName(),
		clause,
		suffix,
	))

	log.Debug().
		Str("query", query).
		Interface("params", params).
		Str("table", model.TableName()).
		Msg("Listing database records")

	rows, err := c.DB.QueryContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("failed to query records from %s: %w", model.TableName(), err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	for rows.Next() {
		elem := reflect.New(elemType)
		if err := rows.Scan(scanTargets(elem.Elem(), cols)...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if isPtr {
			destValue.Set(reflect.Append(destValue, elem))
		} else {
			destValue.Set(reflect.Append(destValue, elem.Elem()))
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	return nil
}

// Count gets the count of records in a table with optional conditions
func (c *CRUD) Count(ctx context.Context, model Table, conditions Conditions) (int64, error) {
	clause, params := where(conditions)
	query := c.DB.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s%s", model.TableName(), clause))

	log.Debug().
		Str("query", query).
		Interface("params", params).
		Str("table", model.TableName()).
		Msg("Counting database records")

	var count int64
	if err := c.DB.QueryRowContext(ctx, query, params...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records in %s: %w", model.TableName(), err)
	}

	return count, nil
}
