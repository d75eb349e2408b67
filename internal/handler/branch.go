package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jacklau/ghstats/internal/store"
)

// Branch handles branch rows. Branches are the only rows ever deleted.
type Branch struct {
	st     store.Store
	logger *slog.Logger
	tally  *Tally
}

// Lookup returns the id of branch name in repoID.
func (h *Branch) Lookup(ctx context.Context, name string, repoID int64) (int64, bool, error) {
	return h.st.BranchID(ctx, repoID, name)
}

// Insert creates a branch row.
func (h *Branch) Insert(ctx context.Context, name string, repoID int64) (int64, error) {
	id, err := h.st.InsertBranch(ctx, repoID, name)
	if err != nil {
		return 0, err
	}
	h.tally.Inserted++
	return id, nil
}

// ListForRepo maps the stored branch names of repoID to their ids.
func (h *Branch) ListForRepo(ctx context.Context, repoID int64) (map[string]int64, error) {
	return h.st.BranchesForRepo(ctx, repoID)
}

// Delete removes a branch. Commits that pointed at it keep a null branch.
func (h *Branch) Delete(ctx context.Context, branchID int64) error {
	if err := h.st.DeleteBranch(ctx, branchID); err != nil {
		return err
	}
	h.tally.Deleted++
	return nil
}

// Ensure returns the id of branch name in repoID, creating it if absent.
func (h *Branch) Ensure(ctx context.Context, name string, repoID int64) (int64, error) {
	id, found, err := h.Lookup(ctx, name, repoID)
	if err != nil {
		return 0, fmt.Errorf("ensuring branch %s: %w", name, err)
	}
	if found {
		return id, nil
	}
	id, err = h.Insert(ctx, name, repoID)
	if err != nil {
		return 0, fmt.Errorf("ensuring branch %s: %w", name, err)
	}
	return id, nil
}

// Reconcile deletes the stored branches of repoID that are missing from
// remote. New branches are created later by the commit handler.
func (h *Branch) Reconcile(ctx context.Context, repoID int64, remote []string) error {
	local, err := h.ListForRepo(ctx, repoID)
	if err != nil {
		return fmt.Errorf("reconciling branches: %w", err)
	}

	keep := make(map[string]bool, len(remote))
	for _, name := range remote {
		keep[name] = true
	}

	var stale []string
	for name := range local {
		if !keep[name] {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)

	for _, name := range stale {
		h.logger.Info("deleting stale branch", "repo_id", repoID, "branch", name)
		if err := h.Delete(ctx, local[name]); err != nil {
			return fmt.Errorf("reconciling branches: %w", err)
		}
	}
	return nil
}
