package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gogithub "github.com/google/go-github/v60/github"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jacklau/ghstats/internal/config"
	"github.com/jacklau/ghstats/internal/github"
	"github.com/jacklau/ghstats/internal/notify"
	"github.com/jacklau/ghstats/internal/syncer"
)

// notifyTimeout bounds webhook delivery after the run, which may have been
// interrupted.
const notifyTimeout = 2 * time.Minute

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Collect an organization's GitHub metadata into the store",
	Long: `Sync lists every repository of the organization and records its issues,
comments, branches, commits and tags. Rows already stored are left alone,
so a sync can be rerun at any time to pick up what changed.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	addSyncFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}

func addSyncFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("token", "t", "", "GitHub personal access token")
	flags.StringP("org", "o", "", "GitHub organization")
	flags.StringSliceP("repo", "r", nil, "only sync these repositories (comma separated)")
	flags.StringSlice("skip", nil, "never sync these repositories (comma separated)")
	flags.Bool("repos-only", false, "record repositories and stop")
	flags.BoolP("branches-only", "b", false, "sync issues and branches, without commits and tags")
	flags.BoolP("issues-only", "i", false, "sync issues and comments only")
	flags.Duration("delay", 0, "pause after each repository, e.g. 2s")
	flags.Bool("keep-unauthored", false, "store commits without a GitHub author")
	flags.Bool("progress", false, "show a progress bar on stderr")
	cmd.MarkFlagsMutuallyExclusive("repos-only", "branches-only", "issues-only")
}

// applySyncFlags lays the sync flags that were set over the file's [github]
// and [sync] values.
func applySyncFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("token") {
		cfg.GitHub.Token, _ = flags.GetString("token")
	}
	if flags.Changed("org") {
		cfg.GitHub.Organization, _ = flags.GetString("org")
	}
	if flags.Changed("repo") {
		cfg.Sync.Repos, _ = flags.GetStringSlice("repo")
	}
	if flags.Changed("skip") {
		cfg.Sync.Skip, _ = flags.GetStringSlice("skip")
	}
	if flags.Changed("delay") {
		d, _ := flags.GetDuration("delay")
		cfg.Sync.DelayRaw = d.String()
	}
	if flags.Changed("keep-unauthored") {
		cfg.Sync.KeepUnauthoredCommits, _ = flags.GetBool("keep-unauthored")
	}
}

func syncMode(flags *pflag.FlagSet) syncer.Mode {
	for _, m := range []syncer.Mode{syncer.ModeReposOnly, syncer.ModeBranchesOnly, syncer.ModeIssuesOnly} {
		if on, _ := flags.GetBool(m.String()); on {
			return m
		}
	}
	return syncer.ModeFull
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	applySyncFlags(cmd.Flags(), cfg)
	if err := config.RequireSync(cfg); err != nil {
		return usageError(cmd, err)
	}
	delay, err := cfg.Sync.Delay()
	if err != nil {
		return fmt.Errorf("invalid delay: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	gh, err := newGitHubClient(ctx, cfg.GitHub)
	if err != nil {
		return fmt.Errorf("creating GitHub client: %w", err)
	}
	org := cfg.GitHub.Organization
	remote := github.New(gh, org, logger)

	opts := syncer.Options{
		Include:         cfg.Sync.Repos,
		Exclude:         cfg.Sync.Skip,
		Mode:            syncMode(cmd.Flags()),
		Delay:           delay,
		KeepUnauthored:  cfg.Sync.KeepUnauthoredCommits,
		ResolveProfiles: cfg.Sync.ProfileLookup(),
	}
	var bar *progressBar
	if on, _ := cmd.Flags().GetBool("progress"); on {
		opts.Progress = func(done, total int, repo string) {
			if bar == nil {
				bar = newProgressBar(total, "Syncing", cmd.ErrOrStderr())
			}
			bar.Set(done, repo)
		}
	}

	logger.Debug("store opened", "driver", db.Driver())
	summary, runErr := syncer.New(db, remote, org, logger, opts).Run(ctx)
	if bar != nil {
		bar.Finish()
	}
	printSummary(cmd.OutOrStdout(), summary)

	if n := notify.NewNotifier(cfg.Notify.SlackWebhook, cfg.Notify.DiscordWebhook); n != nil {
		report := notify.Report{Summary: summary, Err: runErr}
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := n.Notify(nctx, report); err != nil {
			logger.Warn("sending sync notification", "error", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) && ctx.Err() != nil {
			logger.Warn("sync interrupted", "org", org, "repos", len(summary.Repos))
			return nil
		}
		return fmt.Errorf("sync of %s: %w", org, runErr)
	}
	return nil
}

// newGitHubClient authenticates with a token, or as an App installation
// when [github] auth = "app".
func newGitHubClient(ctx context.Context, g config.GitHubConfig) (*gogithub.Client, error) {
	if !g.UsesApp() {
		return github.NewTokenClient(ctx, g.Token, g.APIURL)
	}
	appID, err := strconv.ParseInt(g.AppID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing app_id: %w", err)
	}
	installID, err := strconv.ParseInt(g.InstallationID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing installation_id: %w", err)
	}
	return github.NewAppClient(appID, installID, []byte(g.PrivateKey), config.ExpandHome(g.PrivateKeyPath), g.APIURL)
}

// printSummary writes the per-entity tally of a run.
func printSummary(w io.Writer, s syncer.Summary) {
	fmt.Fprintf(w, "Synced %d repositories of %s in %s (%s)\n",
		len(s.Repos), s.Org, notify.FormatDuration(s.Duration()), s.Mode)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Entity", "Inserted", "Updated", "Deleted", "Skipped"})
	for _, e := range s.Counts.Entities() {
		t.AppendRow(table.Row{e.Entity, e.Tally.Inserted, e.Tally.Updated, e.Tally.Deleted, e.Tally.Skipped})
	}
	t.Render()

	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped: %s\n", notify.FormatSkipped(s.Skipped, 20))
	}
}
