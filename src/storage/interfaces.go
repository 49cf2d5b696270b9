package storage

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// Execer executes SQL statements. Satisfied by *sql.DB and *sql.Tx alike,
// so storage functions run inside or outside a transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ExecQuerier combines Execer with sqlscan's query side for operations that
// both read and write, like get-or-create.
type ExecQuerier interface {
	Execer
	sqlscan.Querier
}