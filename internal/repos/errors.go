package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"sellerhub/internal/domain"
)

// classify maps driver and context errors onto the domain error kinds while
// keeping the original error in the chain. Already classified errors pass
// through untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isDomain(err):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	case isBusy(err):
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	case isConflict(err):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	}
	return err
}

func isDomain(err error) bool {
	for _, k := range []error{
		domain.ErrNotFound, domain.ErrValidation, domain.ErrUnauthorized,
		domain.ErrConflict, domain.ErrUpstream, domain.ErrTimeout,
	} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return true
		}
		return false
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		switch pe.Code {
		case "23505", "23503", "40001": // unique, foreign key, serialization failure
			return true
		}
	}
	return false
}

// isBusy matches a lock wait that outlasted the busy timeout.
func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		primary := se.Code() & 0xff
		return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "55P03" // lock_not_available
	}
	return false
}

func mustAffect(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
