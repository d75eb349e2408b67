package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tag is a git tag. CommitID is nil when the tagged commit was never synced.
type Tag struct {
	ID       int64
	RepoID   int64
	Name     string
	Tarball  bool
	CommitID *int64
}

// InsertTag stores a tag seen for the first time. Tags are never updated.
func (d *DB) InsertTag(ctx context.Context, t *Tag) (int64, error) {
	id, err := d.insert(ctx,
		`INSERT INTO tags (repo_id, name, tarball, commit_id) VALUES (?, ?, ?, ?)`,
		t.RepoID, t.Name, t.Tarball, nullID(t.CommitID),
	)
	if err != nil {
		return 0, fmt.Errorf("creating tag %s: %w", t.Name, err)
	}
	t.ID = id
	return id, nil
}

// TagID looks a tag up by name within a repository.
func (d *DB) TagID(ctx context.Context, repoID int64, name string) (int64, bool, error) {
	id, found, err := d.LookupID(ctx,
		`SELECT id FROM tags WHERE repo_id = ? AND name = ?`, repoID, name)
	if err != nil {
		return 0, false, fmt.Errorf("looking up tag %s: %w", name, err)
	}
	return id, found, nil
}

// GetTag retrieves a tag by name within a repository.
func (d *DB) GetTag(ctx context.Context, repoID int64, name string) (*Tag, error) {
	var (
		t      Tag
		commit sql.NullInt64
	)
	err := d.QueryRow(ctx, func(row *sql.Row) error {
		return row.Scan(&t.ID, &t.RepoID, &t.Name, &t.Tarball, &commit)
	}, `SELECT id, repo_id, name, tarball, commit_id FROM tags WHERE repo_id = ? AND name = ?`, repoID, name)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag %s: %w", name, err)
	}
	t.CommitID = idPtr(commit)
	return &t, nil
}
