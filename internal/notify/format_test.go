package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/jacklau/ghstats/internal/handler"
)

func TestFormatCounts(t *testing.T) {
	tests := []struct {
		name   string
		counts handler.Counts
		want   string
	}{
		{
			name: "no changes",
			want: "No changes",
		},
		{
			name:   "skipped only",
			counts: handler.Counts{Commits: handler.Tally{Skipped: 4}},
			want:   "No changes",
		},
		{
			name: "mixed",
			counts: handler.Counts{
				Branches: handler.Tally{Inserted: 1, Deleted: 2},
				Commits:  handler.Tally{Inserted: 12},
				Issues:   handler.Tally{Inserted: 3, Updated: 1},
			},
			want: "`branches` +1 -2, `commits` +12, `issues` +3 ~1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCounts(tt.counts); got != tt.want {
				t.Errorf("FormatCounts() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1234567 * time.Microsecond, "1s"},
		{250400 * time.Microsecond, "250ms"},
		{95*time.Second + 400*time.Millisecond, "1m35s"},
		{2*time.Hour + 10*time.Minute + 40*time.Second, "2h11m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	r := testReport()
	if got, want := Title(r), "Sync of acme finished"; got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
	r.Err = errors.New("boom")
	if got, want := Title(r), "Sync of acme failed"; got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}

func TestFormatSkipped(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"empty", nil, "None"},
		{"within limit", []string{"a", "b"}, "a, b"},
		{"truncated", []string{"a", "b", "c", "d"}, "a, b and 2 more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSkipped(tt.names, 2); got != tt.want {
				t.Errorf("FormatSkipped() = %q, want %q", got, tt.want)
			}
		})
	}
}
