package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Issue is an issue or pull request. ID is GitHub's own id.
type Issue struct {
	ID           int64
	RepoID       int64
	Number       int
	IsIssue      bool
	State        string
	AuthorID     *int64
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
	CommentCount int
}

// IssueState holds the fields of an issue that change after creation.
type IssueState struct {
	State        string
	Title        string
	UpdatedAt    time.Time
	ClosedAt     *time.Time
	CommentCount int
}

// Mutable returns the re-synced part of the issue.
func (i *Issue) Mutable() IssueState {
	return IssueState{
		State:        i.State,
		Title:        i.Title,
		UpdatedAt:    i.UpdatedAt,
		ClosedAt:     i.ClosedAt,
		CommentCount: i.CommentCount,
	}
}

// Equal compares two states at the stored (second) precision.
func (s IssueState) Equal(o IssueState) bool {
	if s.State != o.State || s.Title != o.Title || s.CommentCount != o.CommentCount {
		return false
	}
	if formatTime(s.UpdatedAt) != formatTime(o.UpdatedAt) {
		return false
	}
	return nullTime(s.ClosedAt) == nullTime(o.ClosedAt)
}

// InsertIssue stores an issue seen for the first time.
func (d *DB) InsertIssue(ctx context.Context, issue *Issue) error {
	_, err := d.Exec(ctx,
		`INSERT INTO issues (id, repo_id, number, is_issue, state, author_id, title,
			ts_created, ts_updated, ts_closed, comment_cnt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.RepoID, issue.Number, issue.IsIssue, issue.State,
		nullID(issue.AuthorID), issue.Title,
		formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt), nullTime(issue.ClosedAt),
		issue.CommentCount,
	)
	if err != nil {
		return fmt.Errorf("creating issue #%d: %w", issue.Number, err)
	}
	return nil
}

// UpdateIssueState overwrites the mutable fields of a stored issue.
func (d *DB) UpdateIssueState(ctx context.Context, id int64, s IssueState) error {
	_, err := d.Exec(ctx,
		`UPDATE issues SET state = ?, title = ?, ts_updated = ?, ts_closed = ?, comment_cnt = ?
		WHERE id = ?`,
		s.State, s.Title, formatTime(s.UpdatedAt), nullTime(s.ClosedAt), s.CommentCount, id,
	)
	if err != nil {
		return fmt.Errorf("updating issue %d: %w", id, err)
	}
	return nil
}

// GetIssue retrieves an issue by its GitHub id.
func (d *DB) GetIssue(ctx context.Context, id int64) (*Issue, error) {
	var (
		issue            Issue
		author           sql.NullInt64
		created, updated string
		closed           sql.NullString
	)
	err := d.QueryRow(ctx, func(row *sql.Row) error {
		return row.Scan(&issue.ID, &issue.RepoID, &issue.Number, &issue.IsIssue, &issue.State,
			&author, &issue.Title, &created, &updated, &closed, &issue.CommentCount)
	}, `SELECT id, repo_id, number, is_issue, state, author_id, title,
			ts_created, ts_updated, ts_closed, comment_cnt
		FROM issues WHERE id = ?`, id)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting issue %d: %w", id, err)
	}
	issue.AuthorID = idPtr(author)
	issue.CreatedAt, _ = time.Parse(time.RFC3339, created)
	issue.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	issue.ClosedAt = parseNullTime(closed)
	return &issue, nil
}
