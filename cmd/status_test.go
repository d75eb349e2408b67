package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jacklau/ghstats/internal/config"
	"github.com/jacklau/ghstats/internal/store"
)

func TestRenderStatus(t *testing.T) {
	counts := []store.RepoCounts{
		{Repo: "api", Branches: 2, Commits: 40, Tags: 3, Issues: 7, PullRequests: 5, Comments: 11},
		{Repo: "web", Branches: 1, Commits: 2, Tags: 0, Issues: 1, PullRequests: 0, Comments: 0},
	}

	var buf bytes.Buffer
	renderStatus(&buf, counts)
	out := buf.String()

	for _, want := range []string{"api", "web", "40", "42", "11"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatusSingleRepoHasNoTotals(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, []store.RepoCounts{{Repo: "api", Commits: 40}})

	if strings.Contains(strings.ToLower(buf.String()), "total") {
		t.Errorf("expected no totals footer for one repository:\n%s", buf.String())
	}
}

func TestRenderStatusEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, nil)

	if !strings.Contains(buf.String(), "No repositories synced yet.") {
		t.Errorf("unexpected output for an empty store: %q", buf.String())
	}
}

func TestDescribeStore(t *testing.T) {
	db := writeFile(t, "ghstats.db", strings.Repeat("x", 2048))

	tests := []struct {
		name string
		conn config.ConnectionConfig
		want string
	}{
		{
			name: "sqlite",
			conn: config.ConnectionConfig{Driver: "sqlite", Database: db},
			want: db + " (2.0 kB)",
		},
		{
			name: "sqlite missing file",
			conn: config.ConnectionConfig{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "none.db")},
			want: "(size unknown)",
		},
		{
			name: "mysql",
			conn: config.ConnectionConfig{Driver: "mysql", Host: "db", Port: 3306, Database: "stats", User: "bob"},
			want: "mysql bob@db:3306/stats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeStore(tt.conn); !strings.HasSuffix(got, tt.want) {
				t.Errorf("describeStore() = %q, want suffix %q", got, tt.want)
			}
		})
	}
}
