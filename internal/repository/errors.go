// Package repository implements store.Store on MySQL.  Every repo method
// accepts a querier so the same SQL runs against the pool or inside a
// transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as a duplicate unique key.
var ErrConflict = errors.New("conflict")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// isDuplicate reports a MySQL 1062 duplicate-key error.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
