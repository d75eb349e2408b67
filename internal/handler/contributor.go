package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacklau/ghstats/internal/github"
	"github.com/jacklau/ghstats/internal/store"
)

// Contributor handles contributor rows. Contributors are created lazily the
// first time a commit, issue or comment references them, and never change.
type Contributor struct {
	st       store.Store
	remote   Remote
	logger   *slog.Logger
	tally    *Tally
	profiles bool
}

// Lookup returns the id of login.
func (h *Contributor) Lookup(ctx context.Context, login string) (int64, bool, error) {
	return h.st.ContributorID(ctx, login)
}

// Insert creates a contributor row.
func (h *Contributor) Insert(ctx context.Context, login, name, email string) (int64, error) {
	id, err := h.st.InsertContributor(ctx, store.Contributor{Login: login, Name: name, Email: email})
	if err != nil {
		return 0, err
	}
	h.tally.Inserted++
	return id, nil
}

// Ensure returns the contributor id of u, creating the row on first sight.
// found is false when u has no login; no row is created for such users.
func (h *Contributor) Ensure(ctx context.Context, u github.User) (id int64, found bool, err error) {
	if u.Login == "" {
		return 0, false, nil
	}

	id, found, err = h.Lookup(ctx, u.Login)
	if err != nil {
		return 0, false, fmt.Errorf("ensuring contributor %s: %w", u.Login, err)
	}
	if found {
		return id, true, nil
	}

	if h.profiles && u.Name == "" {
		u = h.completeProfile(ctx, u)
	}
	id, err = h.Insert(ctx, u.Login, u.Name, u.Email)
	if err != nil {
		return 0, false, fmt.Errorf("ensuring contributor %s: %w", u.Login, err)
	}
	return id, true, nil
}

// ensureRef is Ensure for nullable author columns.
func (h *Contributor) ensureRef(ctx context.Context, u github.User) (*int64, error) {
	id, found, err := h.Ensure(ctx, u)
	if err != nil || !found {
		return nil, err
	}
	return &id, nil
}

func (h *Contributor) completeProfile(ctx context.Context, u github.User) github.User {
	profile, err := h.remote.GetUser(ctx, u.Login)
	if err != nil {
		h.logger.Warn("fetching contributor profile failed", "login", u.Login, "error", err)
		return u
	}
	u.Name = profile.Name
	if u.Email == "" {
		u.Email = profile.Email
	}
	return u
}
