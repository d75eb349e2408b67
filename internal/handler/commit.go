package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacklau/ghstats/internal/store"
)

// Commit handles commit rows of one branch at a time.
type Commit struct {
	st             store.Store
	remote         Remote
	branches       *Branch
	contributors   *Contributor
	logger         *slog.Logger
	tally          *Tally
	keepUnauthored bool
}

// Lookup returns the id of the commit with the given sha.
func (h *Commit) Lookup(ctx context.Context, sha string) (int64, bool, error) {
	return h.st.CommitID(ctx, sha)
}

// Insert creates a commit row.
func (h *Commit) Insert(ctx context.Context, c *store.Commit) (int64, error) {
	id, err := h.st.InsertCommit(ctx, c)
	if err != nil {
		return 0, err
	}
	h.tally.Inserted++
	return id, nil
}

// Handle makes sure branch exists for repo and, unless branchesOnly is set,
// stores every commit reachable from it that is not stored yet.
//
// A commit already stored under another branch keeps its first branch.
func (h *Commit) Handle(ctx context.Context, repo RepoRef, branch string, branchesOnly bool) error {
	branchID, err := h.branches.Ensure(ctx, branch, repo.ID)
	if err != nil {
		return err
	}
	if branchesOnly {
		return nil
	}

	commits, err := h.remote.ListCommits(ctx, repo.Name, branch)
	if err != nil {
		return fmt.Errorf("syncing commits of %s@%s: %w", repo.Name, branch, err)
	}

	logger := h.logger.With("repo", repo.Name, "branch", branch)
	for _, rc := range commits {
		_, found, err := h.Lookup(ctx, rc.SHA)
		if err != nil {
			return fmt.Errorf("syncing commit %s: %w", rc.SHA, err)
		}
		if found {
			continue
		}

		authorID, err := h.contributors.ensureRef(ctx, rc.Author)
		if err != nil {
			return fmt.Errorf("syncing commit %s: %w", rc.SHA, err)
		}
		if authorID == nil && !h.keepUnauthored {
			logger.Debug("skipping commit without author account", "sha", rc.SHA, "email", rc.Author.Email)
			h.tally.Skipped++
			continue
		}

		c := &store.Commit{
			SHA:         rc.SHA,
			AuthorID:    authorID,
			RepoID:      repo.ID,
			CommittedAt: rc.CommittedAt,
			BranchID:    &branchID,
		}
		if _, err := h.Insert(ctx, c); err != nil {
			return fmt.Errorf("syncing commit %s: %w", rc.SHA, err)
		}
	}
	return nil
}
