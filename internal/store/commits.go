package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Commit is a commit reachable from a synced branch.
type Commit struct {
	ID          int64
	SHA         string
	AuthorID    *int64
	RepoID      int64
	CommittedAt time.Time
	BranchID    *int64
}

// InsertCommit stores a commit seen for the first time.
func (d *DB) InsertCommit(ctx context.Context, c *Commit) (int64, error) {
	id, err := d.insert(ctx,
		`INSERT INTO commits (sha, author_id, repo_id, ts, branch_id) VALUES (?, ?, ?, ?, ?)`,
		c.SHA, nullID(c.AuthorID), c.RepoID, formatTime(c.CommittedAt), nullID(c.BranchID),
	)
	if err != nil {
		return 0, fmt.Errorf("creating commit %s: %w", c.SHA, err)
	}
	c.ID = id
	return id, nil
}

// CommitID looks a commit up by sha.
func (d *DB) CommitID(ctx context.Context, sha string) (int64, bool, error) {
	id, found, err := d.LookupID(ctx, `SELECT id FROM commits WHERE sha = ?`, sha)
	if err != nil {
		return 0, false, fmt.Errorf("looking up commit %s: %w", sha, err)
	}
	return id, found, nil
}

// GetCommit retrieves a commit by sha.
func (d *DB) GetCommit(ctx context.Context, sha string) (*Commit, error) {
	var (
		c              Commit
		author, branch sql.NullInt64
		ts             string
	)
	err := d.QueryRow(ctx, func(row *sql.Row) error {
		return row.Scan(&c.ID, &c.SHA, &author, &c.RepoID, &ts, &branch)
	}, `SELECT id, sha, author_id, repo_id, ts, branch_id FROM commits WHERE sha = ?`, sha)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting commit %s: %w", sha, err)
	}
	c.AuthorID = idPtr(author)
	c.BranchID = idPtr(branch)
	c.CommittedAt, _ = time.Parse(time.RFC3339, ts)
	return &c, nil
}
