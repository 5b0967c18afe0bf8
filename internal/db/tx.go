package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithTx starts a transaction, runs fn, and commits if fn returns nil.
// If fn returns an error (or panics) the transaction is rolled back.
//
//	err := db.WithTx(ctx, h, nil, func(tx *sql.Tx) error {
//	    // use tx.ExecContext / tx.QueryRowContext ...
//	    return nil
//	})
func WithTx(ctx context.Context, h *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) error) (err error) {
	if h == nil {
		return errors.New("db: handle is nil")
	}
	tx, err := h.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("db: commit: %w", e)
		}
	}()
	err = fn(tx)
	return
}
