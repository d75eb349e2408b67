// Package syncer drives one synchronization run over an organization.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jacklau/ghstats/internal/github"
	"github.com/jacklau/ghstats/internal/handler"
	"github.com/jacklau/ghstats/internal/store"
)

// Remote is the GitHub client seen by the driver.
type Remote interface {
	handler.Remote
	ListRepos(ctx context.Context) ([]github.Repo, error)
	ListBranches(ctx context.Context, repo string) ([]string, error)
}

var _ Remote = (*github.Client)(nil)

// Mode selects how far each repository is synced.
type Mode int

const (
	// ModeFull syncs issues, branches, commits and tags.
	ModeFull Mode = iota
	// ModeReposOnly records the repositories and stops.
	ModeReposOnly
	// ModeIssuesOnly syncs issues and their comments.
	ModeIssuesOnly
	// ModeBranchesOnly syncs issues and branch membership, without commits
	// or tags.
	ModeBranchesOnly
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeReposOnly:
		return "repos-only"
	case ModeIssuesOnly:
		return "issues-only"
	case ModeBranchesOnly:
		return "branches-only"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options configures a run.
type Options struct {
	Include []string
	Exclude []string
	Mode    Mode

	// Delay pauses after every synced repository.
	Delay time.Duration

	KeepUnauthored  bool
	ResolveProfiles bool

	// Progress, when set, is called after every synced repository.
	Progress func(done, total int, repo string)
}

// Summary describes a finished or aborted run.
type Summary struct {
	Org      string
	Mode     Mode
	Repos    []string
	Skipped  []string
	Counts   handler.Counts
	Started  time.Time
	Finished time.Time
}

// Duration is the wall time of the run.
func (s Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Driver walks the repositories of one organization and hands every
// collection to its entity handler.
type Driver struct {
	remote   Remote
	handlers *handler.Set
	org      string
	opts     Options
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// New creates a driver writing to st.
func New(st store.Store, remote Remote, org string, logger *slog.Logger, opts Options) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	handlers := handler.New(st, remote, logger, handler.Options{
		KeepUnauthored:  opts.KeepUnauthored,
		ResolveProfiles: opts.ResolveProfiles,
	})
	return &Driver{
		remote:   remote,
		handlers: handlers,
		org:      org,
		opts:     opts,
		logger:   logger.With("org", org),
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// Run performs one pass over the organization. The run stops at the first
// error; the summary still reports what was written until then.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Org: d.org, Mode: d.opts.Mode, Started: d.now()}
	finish := func(err error) (Summary, error) {
		sum.Counts = d.handlers.Counts()
		sum.Finished = d.now()
		return sum, err
	}

	remote, err := d.remote.ListRepos(ctx)
	if err != nil {
		return finish(fmt.Errorf("listing repositories: %w", err))
	}
	repos, skipped := d.selectRepos(remote)
	sum.Skipped = skipped
	d.logger.Info("sync started", "mode", d.opts.Mode.String(), "repos", len(repos), "skipped", len(skipped))

	for i, r := range repos {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		start := time.Now()
		logger := d.logger.With("repo", r.Name)
		logger.Info("syncing repository", "n", i+1, "of", len(repos))
		if err := d.syncRepo(ctx, r); err != nil {
			return finish(fmt.Errorf("syncing %s: %w", r.Name, err))
		}
		logger.Info("repository synced", "duration", time.Since(start))
		sum.Repos = append(sum.Repos, r.Name)

		if d.opts.Progress != nil {
			d.opts.Progress(i+1, len(repos), r.Name)
		}
		if d.opts.Delay > 0 && i < len(repos)-1 {
			if err := d.sleep(ctx, d.opts.Delay); err != nil {
				return finish(err)
			}
		}
	}

	sum, _ = finish(nil)
	d.logger.Info("sync finished", "repos", len(sum.Repos), "writes", sum.Counts.Writes(), "duration", sum.Duration())
	return sum, nil
}

// selectRepos applies the exclusion list, then the inclusion list, in the
// order GitHub listed the repositories.
func (d *Driver) selectRepos(remote []github.Repo) (selected []github.Repo, skipped []string) {
	exclude := toSet(d.opts.Exclude)
	include := toSet(d.opts.Include)

	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		seen[r.Name] = true
		switch {
		case exclude[r.Name]:
			skipped = append(skipped, r.Name)
		case len(include) > 0 && !include[r.Name]:
			skipped = append(skipped, r.Name)
		default:
			selected = append(selected, r)
		}
	}

	for _, name := range d.opts.Include {
		if !seen[name] {
			d.logger.Warn("included repository not found", "repo", name)
		}
	}
	return selected, skipped
}

// syncRepo runs the per-repository state machine:
// repo, issues, branch reconciliation, commits per branch, tags.
func (d *Driver) syncRepo(ctx context.Context, r github.Repo) error {
	h := d.handlers

	ref, err := h.Repos.Ensure(ctx, r)
	if err != nil {
		return err
	}
	if d.opts.Mode == ModeReposOnly {
		return nil
	}

	if err := h.Issues.Handle(ctx, ref); err != nil {
		return err
	}
	if d.opts.Mode == ModeIssuesOnly {
		return nil
	}

	branches, err := d.remote.ListBranches(ctx, r.Name)
	if err != nil {
		return fmt.Errorf("listing branches: %w", err)
	}
	if err := h.Branches.Reconcile(ctx, ref.ID, branches); err != nil {
		return err
	}
	branchesOnly := d.opts.Mode == ModeBranchesOnly
	for _, b := range branches {
		if err := h.Commits.Handle(ctx, ref, b, branchesOnly); err != nil {
			return err
		}
	}
	if branchesOnly {
		return nil
	}

	return h.Tags.Handle(ctx, ref)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
