package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrStaleWrite is returned by compare-and-set updates whose expected
	// value no longer matches the stored one.
	ErrStaleWrite = errors.New("store: stale write")
)

// ErrTransient wraps an infrastructure failure that is safe to retry:
// a busy database, a lost connection, a deadline.
type ErrTransient struct {
	Op  string
	Err error
}

func (e *ErrTransient) Error() string {
	return fmt.Sprintf("store: %s: transient: %v", e.Op, e.Err)
}

func (e *ErrTransient) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable infrastructure failure.
func IsTransient(err error) bool {
	var te *ErrTransient
	return errors.As(err, &te)
}

// classify wraps err as *ErrTransient when it is retryable and otherwise
// annotates it with op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrStaleWrite) {
		return err
	}
	if transient(err) {
		return &ErrTransient{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case "40001", "40P01", "57P03", "53300":
			// serialization_failure, deadlock_detected,
			// cannot_connect_now, too_many_connections
			return true
		}
		return false
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "database is locked")
}
