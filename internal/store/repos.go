package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Repo is a repository of the synced organization.
type Repo struct {
	ID       int64
	Name     string
	FullName string
}

// InsertRepo stores a newly observed repository.
func (d *DB) InsertRepo(ctx context.Context, name, fullName string) (int64, error) {
	id, err := d.insert(ctx,
		`INSERT INTO repos (name, full_name) VALUES (?, ?)`,
		name, fullName,
	)
	if err != nil {
		return 0, fmt.Errorf("creating repo %s: %w", name, err)
	}
	return id, nil
}

// RepoID looks a repository up by name.
func (d *DB) RepoID(ctx context.Context, name string) (int64, bool, error) {
	id, found, err := d.LookupID(ctx, `SELECT id FROM repos WHERE name = ?`, name)
	if err != nil {
		return 0, false, fmt.Errorf("looking up repo %s: %w", name, err)
	}
	return id, found, nil
}

// GetRepo retrieves a repository by name.
func (d *DB) GetRepo(ctx context.Context, name string) (*Repo, error) {
	var r Repo
	err := d.QueryRow(ctx, func(row *sql.Row) error {
		return row.Scan(&r.ID, &r.Name, &r.FullName)
	}, `SELECT id, name, full_name FROM repos WHERE name = ?`, name)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting repo %s: %w", name, err)
	}
	return &r, nil
}

// ListRepos returns all stored repositories ordered by name.
func (d *DB) ListRepos(ctx context.Context) ([]Repo, error) {
	rows, err := d.Query(ctx, `SELECT id, name, full_name FROM repos ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing repos: %w", err)
	}
	defer rows.Close()

	var repos []Repo
	for rows.Next() {
		var r Repo
		if err := rows.Scan(&r.ID, &r.Name, &r.FullName); err != nil {
			return nil, fmt.Errorf("scanning repo: %w", err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}
