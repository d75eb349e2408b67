package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacklau/ghstats/internal/github"
	"github.com/jacklau/ghstats/internal/store"
)

// Issue handles issue and pull request rows. Unlike the other entities an
// issue is re-synced every run: state, title, timestamps and comment count
// follow GitHub.
type Issue struct {
	st           store.Store
	remote       Remote
	contributors *Contributor
	comments     *Comment
	logger       *slog.Logger
	tally        *Tally
}

// Lookup returns the stored issue with GitHub id, or nil.
func (h *Issue) Lookup(ctx context.Context, id int64) (*store.Issue, error) {
	issue, err := h.st.GetIssue(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return issue, err
}

// Insert creates an issue row.
func (h *Issue) Insert(ctx context.Context, issue *store.Issue) error {
	if err := h.st.InsertIssue(ctx, issue); err != nil {
		return err
	}
	h.tally.Inserted++
	return nil
}

// Handle syncs every issue and pull request of repo, then the comments of
// those that have more comments on GitHub than in the store.
func (h *Issue) Handle(ctx context.Context, repo RepoRef) error {
	issues, err := h.remote.ListIssues(ctx, repo.Name)
	if err != nil {
		return fmt.Errorf("syncing issues of %s: %w", repo.Name, err)
	}

	logger := h.logger.With("repo", repo.Name)
	for _, ri := range issues {
		if err := h.sync(ctx, repo, ri, logger); err != nil {
			return fmt.Errorf("syncing issue #%d: %w", ri.Number, err)
		}

		missing, err := h.missingComments(ctx, ri)
		if err != nil {
			return fmt.Errorf("syncing comments of #%d: %w", ri.Number, err)
		}
		if !missing {
			continue
		}

		comments, err := h.remote.ListComments(ctx, repo.Name, ri.Number)
		if err != nil {
			return fmt.Errorf("syncing comments of #%d: %w", ri.Number, err)
		}
		if err := h.comments.Handle(ctx, repo.ID, ri.ID, comments); err != nil {
			return fmt.Errorf("syncing comments of #%d: %w", ri.Number, err)
		}
	}
	return nil
}

// missingComments compares the comment count GitHub reports with the
// comments already stored. The issue row alone can't tell: it is written
// before its comments, so a failed fetch leaves it looking up to date.
func (h *Issue) missingComments(ctx context.Context, ri github.Issue) (bool, error) {
	if ri.Comments == 0 {
		return false, nil
	}
	stored, err := h.st.CountComments(ctx, ri.ID)
	if err != nil {
		return false, err
	}
	return stored < ri.Comments, nil
}

// sync writes one issue row.
func (h *Issue) sync(ctx context.Context, repo RepoRef, ri github.Issue, logger *slog.Logger) error {
	authorID, err := h.contributors.ensureRef(ctx, ri.Author)
	if err != nil {
		return err
	}

	remote := &store.Issue{
		ID:           ri.ID,
		RepoID:       repo.ID,
		Number:       ri.Number,
		IsIssue:      !ri.IsPullRequest,
		State:        ri.State,
		AuthorID:     authorID,
		Title:        ri.Title,
		CreatedAt:    ri.CreatedAt,
		UpdatedAt:    ri.UpdatedAt,
		ClosedAt:     ri.ClosedAt,
		CommentCount: ri.Comments,
	}

	local, err := h.Lookup(ctx, ri.ID)
	if err != nil {
		return err
	}
	if local == nil {
		return h.Insert(ctx, remote)
	}

	state := remote.Mutable()
	if local.Mutable().Equal(state) {
		return nil
	}
	logger.Debug("issue changed", "number", ri.Number, "state", ri.State)
	if err := h.st.UpdateIssueState(ctx, ri.ID, state); err != nil {
		return err
	}
	h.tally.Updated++
	return nil
}
