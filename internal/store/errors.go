package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned by getters when no row matches.
var ErrNotFound = errors.New("not found")

// Kind classifies a statement failure.
type Kind int

const (
	// Permanent failures (constraint violations, schema or syntax errors,
	// authentication) abort the run.
	Permanent Kind = iota
	// Transient failures (dropped connections, lock contention) are retried.
	Transient
)

func (k Kind) String() string {
	if k == Transient {
		return "transient"
	}
	return "permanent"
}

// Error is returned for every failed statement.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a store failure worth retrying.
func IsTransient(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == Transient
	}
	return classify(err) == Transient
}

// MySQL server error numbers that clear up on their own.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

var transientMessages = []string{
	"driver: bad connection",
	"invalid connection",
	"broken pipe",
	"connection reset",
	"connection refused",
	"lost connection",
	"gone away",
	"i/o timeout",
	"database is locked",
	"sqlite_busy",
}

func classify(err error) Kind {
	if err == nil {
		return Permanent
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Permanent
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return Transient
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlLockWaitTimeout || myErr.Number == mysqlDeadlock {
			return Transient
		}
		return Permanent
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return Transient
		}
	}
	return Permanent
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
