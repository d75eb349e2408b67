package store

import (
	"context"
	"time"
)

// Store defines the write-side operations used by the entity handlers.
// It is satisfied by *DB and can be replaced with a mock for testing.
type Store interface {
	RepoID(ctx context.Context, name string) (int64, bool, error)
	InsertRepo(ctx context.Context, name, fullName string) (int64, error)

	BranchID(ctx context.Context, repoID int64, name string) (int64, bool, error)
	InsertBranch(ctx context.Context, repoID int64, name string) (int64, error)
	BranchesForRepo(ctx context.Context, repoID int64) (map[string]int64, error)
	DeleteBranch(ctx context.Context, id int64) error

	ContributorID(ctx context.Context, login string) (int64, bool, error)
	InsertContributor(ctx context.Context, c Contributor) (int64, error)

	CommitID(ctx context.Context, sha string) (int64, bool, error)
	InsertCommit(ctx context.Context, c *Commit) (int64, error)

	TagID(ctx context.Context, repoID int64, name string) (int64, bool, error)
	InsertTag(ctx context.Context, t *Tag) (int64, error)

	GetIssue(ctx context.Context, id int64) (*Issue, error)
	InsertIssue(ctx context.Context, issue *Issue) error
	UpdateIssueState(ctx context.Context, id int64, s IssueState) error

	CommentExists(ctx context.Context, id int64) (bool, error)
	CountComments(ctx context.Context, issueID int64) (int, error)
	InsertComment(ctx context.Context, c *Comment) error
}

// Reader defines the read-only aggregate queries behind the explorer and
// the dashboard.
type Reader interface {
	RepoNames(ctx context.Context) ([]string, error)
	Branches(ctx context.Context, repo string) ([]string, error)
	Contributors(ctx context.Context, repo string) ([]ContributorStat, error)
	GlobalReleases(ctx context.Context, olderThan time.Time) ([]ReleaseStat, error)
	RepoReleases(ctx context.Context, repo string) ([]TagStat, error)
}

// Compile-time checks that *DB satisfies both interfaces.
var (
	_ Store  = (*DB)(nil)
	_ Reader = (*DB)(nil)
)
