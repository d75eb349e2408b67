package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/jacklau/ghstats/internal/handler"
)

// FormatCounts lists the entities a run changed.
// Example: "`commits` +12, `issues` +3 ~1, `branches` -1"
func FormatCounts(c handler.Counts) string {
	var parts []string
	for _, e := range c.Entities() {
		if !e.Tally.Changed() {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "`%s`", e.Entity)
		if n := e.Tally.Inserted; n > 0 {
			fmt.Fprintf(&b, " +%d", n)
		}
		if n := e.Tally.Updated; n > 0 {
			fmt.Fprintf(&b, " ~%d", n)
		}
		if n := e.Tally.Deleted; n > 0 {
			fmt.Fprintf(&b, " -%d", n)
		}
		parts = append(parts, b.String())
	}
	if len(parts) == 0 {
		return "No changes"
	}
	return strings.Join(parts, ", ")
}

// FormatDuration rounds d for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Hour:
		return d.Round(time.Second).String()
	default:
		return d.Round(time.Minute).String()
	}
}

// Title is the one-line headline of a report.
func Title(r Report) string {
	if r.Failed() {
		return fmt.Sprintf("Sync of %s failed", r.Summary.Org)
	}
	return fmt.Sprintf("Sync of %s finished", r.Summary.Org)
}

// FormatSkipped lists skipped repositories, truncated after limit names.
func FormatSkipped(names []string, limit int) string {
	if len(names) == 0 {
		return "None"
	}
	if len(names) <= limit {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:limit], ", "), len(names)-limit)
}
