package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	CodeUniqueConstraint     = "23505"
	CodeMySQLDuplicateEntry  = 1062
	sqliteUniqueFailedPrefix = "UNIQUE constraint failed"
)

var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError reports which unique field a write collided on. Field is
// empty when the constraint could not be attributed.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("duplicate key: %v", e.Err)
	}
	return fmt.Sprintf("duplicate key on %s: %v", e.Field, e.Err)
}

func (e *DuplicateKeyError) Unwrap() []error {
	return []error{ErrDuplicateKey, e.Err}
}

// uniqueKey maps the names a driver may report for a unique constraint
// (index name for mysql and postgres, table.column for sqlite) to a field.
type uniqueKey struct {
	names []string
	field string
}

// classifyWriteError turns driver-specific unique violations into a
// *DuplicateKeyError and leaves every other error untouched.
func classifyWriteError(err error, keys []uniqueKey) error {
	detail, ok := duplicateDetail(err)
	if !ok {
		return err
	}
	for _, k := range keys {
		for _, name := range k.names {
			if strings.Contains(detail, name) {
				return &DuplicateKeyError{Field: k.field, Err: err}
			}
		}
	}
	return &DuplicateKeyError{Err: err}
}

func duplicateDetail(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName + " " + pgErr.Detail, pgErr.Code == CodeUniqueConstraint
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Message, myErr.Number == CodeMySQLDuplicateEntry
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return err.Error(), true
	}

	if msg := err.Error(); strings.Contains(msg, sqliteUniqueFailedPrefix) {
		return msg, true
	}
	return "", false
}
