package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sellerhub/internal/domain"
)

// Atomic runs fn inside a single transaction. fn must route every read and
// write through tx (repositories expose WithTx for that). Any error or panic
// from fn rolls the transaction back before Atomic returns; a nil error
// commits. External calls that must not be undone belong before Atomic.
func Atomic[T any](ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) (T, error)) (out T, err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return out, classify(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	out, err = fn(tx)
	if err != nil {
		// Rollback completes before the error is handed back, so a caller
		// never sees the error while writes are still pending.
		_ = tx.Rollback()
		var zero T
		return zero, expired(ctx, classify(err))
	}
	if err := tx.Commit(); err != nil {
		var zero T
		return zero, expired(ctx, classify(fmt.Errorf("commit tx: %w", err)))
	}
	return out, nil
}

// expired reports err as a timeout when the deadline ran out mid-transaction.
// database/sql rolls the transaction back on its own then and Commit answers
// sql.ErrTxDone rather than the context error.
func expired(ctx context.Context, err error) error {
	if ctx.Err() == nil || isDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
}

// Exec is Atomic for units of work that produce no value.
func Exec(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	_, err := Atomic(ctx, db, func(tx *sqlx.Tx) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}
