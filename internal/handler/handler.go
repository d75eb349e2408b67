// Package handler reconciles GitHub collections against the store, one
// entity type per handler.
package handler

import (
	"context"
	"log/slog"

	"github.com/jacklau/ghstats/internal/github"
	"github.com/jacklau/ghstats/internal/store"
)

// Remote is the part of the GitHub client the handlers read from.
type Remote interface {
	ListCommits(ctx context.Context, repo, branch string) ([]github.Commit, error)
	ListTags(ctx context.Context, repo string) ([]github.Tag, error)
	ListIssues(ctx context.Context, repo string) ([]github.Issue, error)
	ListComments(ctx context.Context, repo string, number int) ([]github.Comment, error)
	GetUser(ctx context.Context, login string) (github.User, error)
}

var _ Remote = (*github.Client)(nil)

// RepoRef identifies a stored repository together with its GitHub name.
type RepoRef struct {
	ID   int64
	Name string
}

// Tally counts what one run did to one entity type.
type Tally struct {
	Inserted int
	Updated  int
	Deleted  int
	Skipped  int
}

// Changed reports whether any row was written.
func (t Tally) Changed() bool {
	return t.Inserted+t.Updated+t.Deleted > 0
}

// Counts is the per-entity tally of a run.
type Counts struct {
	Repos        Tally
	Branches     Tally
	Contributors Tally
	Commits      Tally
	Tags         Tally
	Issues       Tally
	Comments     Tally
}

// Writes returns the number of rows inserted, updated or deleted.
func (c Counts) Writes() int {
	n := 0
	for _, t := range c.Entities() {
		n += t.Tally.Inserted + t.Tally.Updated + t.Tally.Deleted
	}
	return n
}

// NamedTally pairs a tally with its entity name.
type NamedTally struct {
	Entity string
	Tally  Tally
}

// Entities lists the tallies in dependency order.
func (c Counts) Entities() []NamedTally {
	return []NamedTally{
		{"repos", c.Repos},
		{"branches", c.Branches},
		{"contributors", c.Contributors},
		{"commits", c.Commits},
		{"tags", c.Tags},
		{"issues", c.Issues},
		{"comments", c.Comments},
	}
}

// Options tunes handler policy.
type Options struct {
	// KeepUnauthored stores commits without a GitHub account using a null
	// author instead of skipping them.
	KeepUnauthored bool

	// ResolveProfiles fetches the user profile of new contributors whose
	// payload carries no display name.
	ResolveProfiles bool
}

// Set wires every handler around one store, one remote and one tally.
type Set struct {
	Repos        *Repo
	Branches     *Branch
	Contributors *Contributor
	Commits      *Commit
	Tags         *Tag
	Issues       *Issue
	Comments     *Comment

	counts *Counts
}

// New builds the handler set.
func New(st store.Store, remote Remote, logger *slog.Logger, opts Options) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	counts := &Counts{}

	s := &Set{counts: counts}
	s.Repos = &Repo{st: st, tally: &counts.Repos}
	s.Branches = &Branch{st: st, logger: logger, tally: &counts.Branches}
	s.Contributors = &Contributor{
		st:       st,
		remote:   remote,
		logger:   logger,
		tally:    &counts.Contributors,
		profiles: opts.ResolveProfiles,
	}
	s.Commits = &Commit{
		st:             st,
		remote:         remote,
		branches:       s.Branches,
		contributors:   s.Contributors,
		logger:         logger,
		tally:          &counts.Commits,
		keepUnauthored: opts.KeepUnauthored,
	}
	s.Tags = &Tag{st: st, remote: remote, logger: logger, tally: &counts.Tags}
	s.Comments = &Comment{st: st, contributors: s.Contributors, tally: &counts.Comments}
	s.Issues = &Issue{
		st:           st,
		remote:       remote,
		contributors: s.Contributors,
		comments:     s.Comments,
		logger:       logger,
		tally:        &counts.Issues,
	}
	return s
}

// Counts returns a snapshot of the tally so far.
func (s *Set) Counts() Counts {
	return *s.counts
}
