package explorer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jacklau/ghstats/internal/store"
)

const (
	dateLayout      = "02-01-2006"
	timestampLayout = time.DateTime
)

var commands = [][2]string{
	{"ls", "show repo list"},
	{"use REPONAME", "select a repo, \"use root\" to go back"},
	{"r [MONTHS]", "show release stats"},
	{"c", "show contributors"},
	{"b", "print branches"},
	{"CTRL+D", "exit"},
	{"exit / quit", "exit"},
	{"? / help", "show this message"},
}

func newTable(out io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(header)
	return t
}

func (e *Explorer) printHelp() {
	t := newTable(e.out, table.Row{"Command", "Description"})
	for _, c := range commands {
		t.AppendRow(table.Row{c[0], c[1]})
	}
	t.Render()
}

func printNumbered(out io.Writer, items []string) {
	for i, item := range items {
		fmt.Fprintf(out, "[%d] %s\n", i+1, item)
	}
}

func renderGlobalReleases(out io.Writer, stats []store.ReleaseStat) {
	t := newTable(out, table.Row{"Repo", "Release", "Tag", "Commit", "Lag"})
	for _, s := range stats {
		commit, lag := "", ""
		if s.LastCommitAt != nil {
			commit = s.LastCommitAt.Format(dateLayout)
			lag = since(s.TagCommitAt, *s.LastCommitAt)
		}
		t.AppendRow(table.Row{s.Repo, s.Tag, s.TagCommitAt.Format(dateLayout), commit, lag})
	}
	t.Render()
}

// renderRepoReleases shows each release with the gap from the previous
// one and its age at now.
func renderRepoReleases(out io.Writer, stats []store.TagStat, now time.Time) {
	t := newTable(out, table.Row{"Release version", "Date", "Engineer", "Elapsed", "Age"})
	for _, s := range stats {
		date, elapsed, age := "", "", ""
		if s.CommitAt != nil {
			date = s.CommitAt.Format(dateLayout)
			age = since(*s.CommitAt, now)
		}
		if s.HasElapsed {
			elapsed = since(s.CommitAt.Add(-s.Elapsed), *s.CommitAt)
		}
		t.AppendRow(table.Row{s.Name, date, s.Author, elapsed, age})
	}
	t.Render()
}

func renderContributors(out io.Writer, stats []store.ContributorStat) {
	t := newTable(out, table.Row{"Author", "Email", "Commit number", "Last commit TS"})
	for _, s := range stats {
		t.AppendRow(table.Row{s.Login, s.Email, s.Commits, s.LastCommit.Format(timestampLayout)})
	}
	t.Render()
}

// since renders the gap between two instants, "0s" when they coincide.
func since(from, to time.Time) string {
	if !to.After(from) {
		return "0s"
	}
	return strings.TrimSpace(humanize.RelTime(from, to, "", ""))
}
