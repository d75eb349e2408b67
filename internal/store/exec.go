package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cenkalti/backoff/v4"
)

func (d *DB) newBackoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = d.retryWindow
	return backoff.WithContext(bo, ctx)
}

// withRetry runs op, retrying transient failures until the retry window
// closes. The returned error is always a *Error.
func (d *DB) withRetry(ctx context.Context, opName string, op func() error) error {
	if d.retryWindow <= 0 {
		if err := op(); err != nil {
			return &Error{Op: opName, Kind: classify(err), Err: err}
		}
		return nil
	}

	var last error
	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		last = err
		if classify(err) == Transient {
			return err
		}
		return backoff.Permanent(err)
	}, d.newBackoff(ctx))
	if err == nil {
		return nil
	}
	if last == nil {
		last = err
	}
	// Cancellation wins over the last statement error.
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return &Error{Op: opName, Kind: Permanent, Err: ctxErr}
	}
	return &Error{Op: opName, Kind: classify(last), Err: last}
}

// Exec runs a mutating statement.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := d.withRetry(ctx, "exec", func() error {
		var err error
		result, err = d.db.ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}

// Query runs a statement returning rows. The caller closes the rows.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := d.withRetry(ctx, "query", func() error {
		var err error
		rows, err = d.db.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// QueryRow runs a single-row statement and hands the row to scan.
// sql.ErrNoRows from scan is returned unchanged and never retried.
func (d *DB) QueryRow(ctx context.Context, scan func(*sql.Row) error, query string, args ...any) error {
	var noRows bool
	err := d.withRetry(ctx, "query row", func() error {
		err := scan(d.db.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			noRows = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if noRows {
		return sql.ErrNoRows
	}
	return nil
}

// LookupID runs a query selecting a single id column. found is false when no
// row matches.
func (d *DB) LookupID(ctx context.Context, query string, args ...any) (id int64, found bool, err error) {
	err = d.QueryRow(ctx, func(row *sql.Row) error {
		return row.Scan(&id)
	}, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// insert runs an INSERT and returns the generated id.
func (d *DB) insert(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := d.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, &Error{Op: "last insert id", Kind: Permanent, Err: err}
	}
	return id, nil
}
