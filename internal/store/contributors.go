package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Contributor is a GitHub account referenced by a commit, issue or comment.
type Contributor struct {
	ID    int64
	Login string
	Name  string
	Email string
}

// InsertContributor stores a contributor seen for the first time.
func (d *DB) InsertContributor(ctx context.Context, c Contributor) (int64, error) {
	id, err := d.insert(ctx,
		`INSERT INTO contributors (login, name, email) VALUES (?, ?, ?)`,
		c.Login, nullStr(c.Name), nullStr(c.Email),
	)
	if err != nil {
		return 0, fmt.Errorf("creating contributor %s: %w", c.Login, err)
	}
	return id, nil
}

// ContributorID looks a contributor up by login.
func (d *DB) ContributorID(ctx context.Context, login string) (int64, bool, error) {
	id, found, err := d.LookupID(ctx, `SELECT id FROM contributors WHERE login = ?`, login)
	if err != nil {
		return 0, false, fmt.Errorf("looking up contributor %s: %w", login, err)
	}
	return id, found, nil
}

// GetContributor retrieves a contributor by login.
func (d *DB) GetContributor(ctx context.Context, login string) (*Contributor, error) {
	var (
		c           Contributor
		name, email sql.NullString
	)
	err := d.QueryRow(ctx, func(row *sql.Row) error {
		return row.Scan(&c.ID, &c.Login, &name, &email)
	}, `SELECT id, login, name, email FROM contributors WHERE login = ?`, login)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting contributor %s: %w", login, err)
	}
	c.Name = name.String
	c.Email = email.String
	return &c, nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
