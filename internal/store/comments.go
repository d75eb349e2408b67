package store

import (
	"context"
	"fmt"
	"time"
)

// Comment is a comment on an issue or pull request. ID is GitHub's own id.
type Comment struct {
	ID        int64
	RepoID    int64
	IssueID   int64
	AuthorID  *int64
	CreatedAt time.Time
}

// InsertComment stores a comment seen for the first time.
func (d *DB) InsertComment(ctx context.Context, c *Comment) error {
	_, err := d.Exec(ctx,
		`INSERT INTO comments (id, repo_id, issue_id, author_id, ts_created) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.RepoID, c.IssueID, nullID(c.AuthorID), formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("creating comment %d: %w", c.ID, err)
	}
	return nil
}

// CommentExists reports whether a comment id is already stored.
func (d *DB) CommentExists(ctx context.Context, id int64) (bool, error) {
	_, found, err := d.LookupID(ctx, `SELECT id FROM comments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("looking up comment %d: %w", id, err)
	}
	return found, nil
}

// CountComments returns how many comments are stored for an issue.
func (d *DB) CountComments(ctx context.Context, issueID int64) (int, error) {
	rows, err := d.Query(ctx, `SELECT COUNT(*) FROM comments WHERE issue_id = ?`, issueID)
	if err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scanning comment count: %w", err)
		}
	}
	return n, rows.Err()
}
