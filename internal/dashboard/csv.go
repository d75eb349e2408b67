package dashboard

import (
	"encoding/csv"
	"io"

	"github.com/jacklau/ghstats/internal/store"
)

var csvHeader = []string{"Repo name", "Latest release", "Latest commit"}

// writeReleasesCSV writes one row per repository: its name, the date of
// the latest release and the date of the latest commit.
func writeReleasesCSV(w io.Writer, stats []store.ReleaseStat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range stats {
		last := ""
		if s.LastCommitAt != nil {
			last = s.LastCommitAt.Format(dateLayout)
		}
		if err := cw.Write([]string{s.Repo, s.TagCommitAt.Format(dateLayout), last}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
