package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacklau/ghstats/internal/store"
)

// Tag handles tag rows. A stored tag is never updated, even when the tag is
// later moved on GitHub.
type Tag struct {
	st     store.Store
	remote Remote
	logger *slog.Logger
	tally  *Tally
}

// Lookup returns the id of tag name in repoID.
func (h *Tag) Lookup(ctx context.Context, name string, repoID int64) (int64, bool, error) {
	return h.st.TagID(ctx, repoID, name)
}

// Insert creates a tag row.
func (h *Tag) Insert(ctx context.Context, t *store.Tag) (int64, error) {
	id, err := h.st.InsertTag(ctx, t)
	if err != nil {
		return 0, err
	}
	h.tally.Inserted++
	return id, nil
}

// Handle stores the tags of repo that are not stored yet. The commit
// reference stays null when the tagged commit was never synced.
func (h *Tag) Handle(ctx context.Context, repo RepoRef) error {
	tags, err := h.remote.ListTags(ctx, repo.Name)
	if err != nil {
		return fmt.Errorf("syncing tags of %s: %w", repo.Name, err)
	}

	for _, rt := range tags {
		_, found, err := h.Lookup(ctx, rt.Name, repo.ID)
		if err != nil {
			return fmt.Errorf("syncing tag %s: %w", rt.Name, err)
		}
		if found {
			continue
		}

		t := &store.Tag{RepoID: repo.ID, Name: rt.Name, Tarball: rt.HasTarball}
		commitID, ok, err := h.st.CommitID(ctx, rt.CommitSHA)
		if err != nil {
			return fmt.Errorf("syncing tag %s: %w", rt.Name, err)
		}
		if ok {
			t.CommitID = &commitID
		} else {
			h.logger.Debug("tagged commit not synced", "repo", repo.Name, "tag", rt.Name, "sha", rt.CommitSHA)
		}

		if _, err := h.Insert(ctx, t); err != nil {
			return fmt.Errorf("syncing tag %s: %w", rt.Name, err)
		}
	}
	return nil
}
