package handler

import (
	"context"
	"fmt"

	"github.com/jacklau/ghstats/internal/github"
	"github.com/jacklau/ghstats/internal/store"
)

// Repo handles repository rows.
type Repo struct {
	st    store.Store
	tally *Tally
}

// Lookup returns the id of the repository called name.
func (h *Repo) Lookup(ctx context.Context, name string) (int64, bool, error) {
	return h.st.RepoID(ctx, name)
}

// Insert creates a repository row.
func (h *Repo) Insert(ctx context.Context, name, fullName string) (int64, error) {
	id, err := h.st.InsertRepo(ctx, name, fullName)
	if err != nil {
		return 0, err
	}
	h.tally.Inserted++
	return id, nil
}

// Ensure returns the stored repository for r, creating it on first sight.
func (h *Repo) Ensure(ctx context.Context, r github.Repo) (RepoRef, error) {
	id, found, err := h.Lookup(ctx, r.Name)
	if err != nil {
		return RepoRef{}, fmt.Errorf("ensuring repo %s: %w", r.Name, err)
	}
	if !found {
		if id, err = h.Insert(ctx, r.Name, r.FullName); err != nil {
			return RepoRef{}, fmt.Errorf("ensuring repo %s: %w", r.Name, err)
		}
	}
	return RepoRef{ID: id, Name: r.Name}, nil
}
