package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreated(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"repos", "branches", "contributors", "commits", "tags", "issues", "comments"} {
		var name string
		err := db.Conn().QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// Ensuring the schema twice is a no-op.
	if err := db.ensureSchema(context.Background()); err != nil {
		t.Fatalf("second ensureSchema: %v", err)
	}
}

func TestReposCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.InsertRepo(ctx, "hello-world", "octocat/hello-world")
	if err != nil {
		t.Fatalf("InsertRepo failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero repo ID")
	}

	got, found, err := db.RepoID(ctx, "hello-world")
	if err != nil {
		t.Fatalf("RepoID failed: %v", err)
	}
	if !found || got != id {
		t.Errorf("expected id %d found, got %d found=%v", id, got, found)
	}

	_, found, err = db.RepoID(ctx, "missing")
	if err != nil {
		t.Fatalf("RepoID failed: %v", err)
	}
	if found {
		t.Error("expected missing repo not to be found")
	}

	repo, err := db.GetRepo(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetRepo failed: %v", err)
	}
	if repo.FullName != "octocat/hello-world" {
		t.Errorf("expected full name 'octocat/hello-world', got %q", repo.FullName)
	}

	if _, err := db.GetRepo(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Duplicate name violates the unique constraint and is permanent.
	_, err = db.InsertRepo(ctx, "hello-world", "octocat/hello-world")
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if IsTransient(err) {
		t.Error("expected unique violation to be permanent")
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Errorf("expected *store.Error in chain, got %T", err)
	}

	if _, err := db.InsertRepo(ctx, "alpha", "octocat/alpha"); err != nil {
		t.Fatalf("InsertRepo failed: %v", err)
	}
	repos, err := db.ListRepos(ctx)
	if err != nil {
		t.Fatalf("ListRepos failed: %v", err)
	}
	if len(repos) != 2 || repos[0].Name != "alpha" {
		t.Errorf("expected [alpha hello-world], got %+v", repos)
	}
}

func TestBranchDeleteKeepsCommits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repoID, _ := db.InsertRepo(ctx, "r1", "org/r1")
	branchID, err := db.InsertBranch(ctx, repoID, "feature")
	if err != nil {
		t.Fatalf("InsertBranch failed: %v", err)
	}
	if _, err := db.InsertBranch(ctx, repoID, "feature"); err == nil {
		t.Error("expected duplicate branch to fail")
	}

	c := &Commit{SHA: "abc", RepoID: repoID, CommittedAt: time.Now(), BranchID: &branchID}
	if _, err := db.InsertCommit(ctx, c); err != nil {
		t.Fatalf("InsertCommit failed: %v", err)
	}

	branches, err := db.BranchesForRepo(ctx, repoID)
	if err != nil {
		t.Fatalf("BranchesForRepo failed: %v", err)
	}
	if branches["feature"] != branchID {
		t.Errorf("expected feature -> %d, got %v", branchID, branches)
	}

	if err := db.DeleteBranch(ctx, branchID); err != nil {
		t.Fatalf("DeleteBranch failed: %v", err)
	}

	got, err := db.GetCommit(ctx, "abc")
	if err != nil {
		t.Fatalf("GetCommit failed: %v", err)
	}
	if got.BranchID != nil {
		t.Errorf("expected branch reference to be cleared, got %d", *got.BranchID)
	}
	if _, found, _ := db.BranchID(ctx, repoID, "feature"); found {
		t.Error("expected branch to be deleted")
	}
}

func TestContributorNullableFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertContributor(ctx, Contributor{Login: "alice"}); err != nil {
		t.Fatalf("InsertContributor failed: %v", err)
	}
	c, err := db.GetContributor(ctx, "alice")
	if err != nil {
		t.Fatalf("GetContributor failed: %v", err)
	}
	if c.Name != "" || c.Email != "" {
		t.Errorf("expected empty name and email, got %+v", c)
	}
}

func TestTagWithoutCommit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repoID, _ := db.InsertRepo(ctx, "r1", "org/r1")
	if _, err := db.InsertTag(ctx, &Tag{RepoID: repoID, Name: "v1.0.0", Tarball: true}); err != nil {
		t.Fatalf("InsertTag failed: %v", err)
	}

	tag, err := db.GetTag(ctx, repoID, "v1.0.0")
	if err != nil {
		t.Fatalf("GetTag failed: %v", err)
	}
	if tag.CommitID != nil {
		t.Errorf("expected nil commit id, got %d", *tag.CommitID)
	}
	if !tag.Tarball {
		t.Error("expected tarball flag to be stored")
	}
}

func TestIssueStateRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repoID, _ := db.InsertRepo(ctx, "r1", "org/r1")
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	issue := &Issue{
		ID: 9001, RepoID: repoID, Number: 7, IsIssue: true, State: "open",
		Title: "Crash on start", CreatedAt: created, UpdatedAt: created, CommentCount: 1,
	}
	if err := db.InsertIssue(ctx, issue); err != nil {
		t.Fatalf("InsertIssue failed: %v", err)
	}

	closed := created.Add(48 * time.Hour)
	next := IssueState{State: "closed", Title: "Crash on start", UpdatedAt: closed, ClosedAt: &closed, CommentCount: 3}
	if err := db.UpdateIssueState(ctx, 9001, next); err != nil {
		t.Fatalf("UpdateIssueState failed: %v", err)
	}

	got, err := db.GetIssue(ctx, 9001)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if !got.Mutable().Equal(next) {
		t.Errorf("stored state %+v does not match %+v", got.Mutable(), next)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("expected created %v, got %v", created, got.CreatedAt)
	}

	if _, err := db.GetIssue(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIssueStateEqual(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	closed := ts.Add(time.Hour)
	base := IssueState{State: "open", Title: "t", UpdatedAt: ts, CommentCount: 2}

	tests := []struct {
		name  string
		other IssueState
		want  bool
	}{
		{"identical", base, true},
		{"sub-second difference ignored", IssueState{State: "open", Title: "t", UpdatedAt: ts.Add(300 * time.Millisecond), CommentCount: 2}, true},
		{"state changed", IssueState{State: "closed", Title: "t", UpdatedAt: ts, CommentCount: 2}, false},
		{"title changed", IssueState{State: "open", Title: "u", UpdatedAt: ts, CommentCount: 2}, false},
		{"comments changed", IssueState{State: "open", Title: "t", UpdatedAt: ts, CommentCount: 3}, false},
		{"closed set", IssueState{State: "open", Title: "t", UpdatedAt: ts, ClosedAt: &closed, CommentCount: 2}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Equal(tc.other); got != tc.want {
				t.Errorf("Equal() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repoID, _ := db.InsertRepo(ctx, "r1", "org/r1")
	now := time.Now()
	if err := db.InsertIssue(ctx, &Issue{ID: 1, RepoID: repoID, Number: 1, IsIssue: true, State: "open", Title: "x", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("InsertIssue failed: %v", err)
	}
	if err := db.InsertComment(ctx, &Comment{ID: 55, RepoID: repoID, IssueID: 1, CreatedAt: now}); err != nil {
		t.Fatalf("InsertComment failed: %v", err)
	}

	exists, err := db.CommentExists(ctx, 55)
	if err != nil || !exists {
		t.Fatalf("expected comment 55 to exist, got %v, %v", exists, err)
	}
	n, err := db.CountComments(ctx, 1)
	if err != nil {
		t.Fatalf("CountComments failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 comment, got %d", n)
	}

	// Comments must reference a stored issue.
	if err := db.InsertComment(ctx, &Comment{ID: 56, RepoID: repoID, IssueID: 404, CreatedAt: now}); err == nil {
		t.Error("expected foreign key violation for unknown issue")
	}
}
