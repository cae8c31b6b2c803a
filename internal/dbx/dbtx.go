// Package dbx is the database/sql glue under the local store. Repositories
// take a DBTX so the same code runs on the pool or inside a transaction.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is what a repository needs from *sql.DB or *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxStarter opens transactions. *sql.DB and *sql.Conn implement it.
type TxStarter interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx hands fn a transaction and commits it if fn succeeds. An error or
// panic from fn rolls it back; the panic then continues.
//
// Store.Reset clears every table through it, so a failure halfway leaves
// the queue as it was:
//
//	dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := images.NewSQLiteRepository(tx).Clear(ctx); err != nil {
//	        return err
//	    }
//	    return samples.NewSQLiteRepository(tx).Clear(ctx)
//	})
func WithTx(ctx context.Context, db TxStarter, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
