package handler

import (
	"context"
	"fmt"

	"github.com/jacklau/ghstats/internal/github"
	"github.com/jacklau/ghstats/internal/store"
)

// Comment handles comment rows.
type Comment struct {
	st           store.Store
	contributors *Contributor
	tally        *Tally
}

// Lookup reports whether the comment with GitHub id is stored.
func (h *Comment) Lookup(ctx context.Context, id int64) (bool, error) {
	return h.st.CommentExists(ctx, id)
}

// Insert creates a comment row.
func (h *Comment) Insert(ctx context.Context, c *store.Comment) error {
	if err := h.st.InsertComment(ctx, c); err != nil {
		return err
	}
	h.tally.Inserted++
	return nil
}

// Handle stores the comments of issueID that are not stored yet.
func (h *Comment) Handle(ctx context.Context, repoID, issueID int64, comments []github.Comment) error {
	for _, rc := range comments {
		found, err := h.Lookup(ctx, rc.ID)
		if err != nil {
			return fmt.Errorf("syncing comment %d: %w", rc.ID, err)
		}
		if found {
			continue
		}

		authorID, err := h.contributors.ensureRef(ctx, rc.Author)
		if err != nil {
			return fmt.Errorf("syncing comment %d: %w", rc.ID, err)
		}
		c := &store.Comment{
			ID:        rc.ID,
			RepoID:    repoID,
			IssueID:   issueID,
			AuthorID:  authorID,
			CreatedAt: rc.CreatedAt,
		}
		if err := h.Insert(ctx, c); err != nil {
			return fmt.Errorf("syncing comment %d: %w", rc.ID, err)
		}
	}
	return nil
}
