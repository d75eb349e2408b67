package cmd

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jacklau/ghstats/internal/config"
	"github.com/jacklau/ghstats/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the store holds per repository",
	Long: `Display row counts for every synced repository: branches, commits,
tags, issues, pull requests and comments, followed by the store location.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := config.RequireConnection(cfg); err != nil {
		return usageError(cmd, err)
	}

	ctx := cmd.Context()
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := db.AllRepoCounts(ctx)
	if err != nil {
		return fmt.Errorf("querying counts: %w", err)
	}

	out := cmd.OutOrStdout()
	renderStatus(out, counts)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Store: %s\n", describeStore(cfg.Connection))
	return nil
}

// renderStatus prints one row per repository and, for more than one, a
// totals footer.
func renderStatus(w io.Writer, counts []store.RepoCounts) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "No repositories synced yet.")
		fmt.Fprintln(w, "Run 'ghstats sync -o <org>' to get started.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Repository", "Branches", "Commits", "Tags", "Issues", "Pull requests", "Comments"})

	var total store.RepoCounts
	for _, c := range counts {
		t.AppendRow(table.Row{c.Repo, c.Branches, c.Commits, c.Tags, c.Issues, c.PullRequests, c.Comments})
		total.Branches += c.Branches
		total.Commits += c.Commits
		total.Tags += c.Tags
		total.Issues += c.Issues
		total.PullRequests += c.PullRequests
		total.Comments += c.Comments
	}
	if len(counts) > 1 {
		t.AppendFooter(table.Row{"Total", total.Branches, total.Commits, total.Tags, total.Issues, total.PullRequests, total.Comments})
	}
	t.Render()
}

// describeStore names the store, with the file size for SQLite.
func describeStore(c config.ConnectionConfig) string {
	if c.Driver == "mysql" {
		return fmt.Sprintf("mysql %s@%s/%s", c.User, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)
	}
	path := config.ExpandHome(c.Database)
	size, err := dbFileSize(path)
	if err != nil {
		return fmt.Sprintf("%s (size unknown)", path)
	}
	return fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(size)))
}

// dbFileSize returns the size in bytes of the database file.
func dbFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
