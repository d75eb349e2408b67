package store

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// ContributorStat is one row of a repository's contributor ranking.
type ContributorStat struct {
	Login      string
	Name       string
	Email      string
	Commits    int
	LastCommit time.Time
}

// ReleaseStat pairs a repository's latest release with its latest commit.
type ReleaseStat struct {
	Repo         string
	Tag          string
	TagCommitAt  time.Time
	LastCommitAt *time.Time
}

// TagStat is one release of a single repository.
type TagStat struct {
	Name       string
	CommitAt   *time.Time
	Author     string
	Elapsed    time.Duration // since the previous release, zero for the oldest
	HasElapsed bool
}

// RepoCounts holds per-repository row counts.
type RepoCounts struct {
	Repo         string
	Branches     int
	Commits      int
	Tags         int
	Issues       int
	PullRequests int
	Comments     int
}

// RepoNames returns the names of all stored repositories, sorted.
func (d *DB) RepoNames(ctx context.Context) ([]string, error) {
	rows, err := d.Query(ctx, `SELECT name FROM repos ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing repo names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// Branches returns the branch names stored for repo, sorted.
func (d *DB) Branches(ctx context.Context, repo string) ([]string, error) {
	rows, err := d.Query(ctx,
		`SELECT b.name FROM branches b
		JOIN repos r ON r.id = b.repo_id
		WHERE r.name = ?
		ORDER BY b.name`, repo)
	if err != nil {
		return nil, fmt.Errorf("listing branches of %s: %w", repo, err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// Contributors ranks the authors of repo by commit count.
func (d *DB) Contributors(ctx context.Context, repo string) ([]ContributorStat, error) {
	rows, err := d.Query(ctx,
		`SELECT c.login, COALESCE(c.name, ''), COALESCE(c.email, ''), COUNT(*) AS n, MAX(m.ts)
		FROM commits m
		JOIN contributors c ON c.id = m.author_id
		JOIN repos r ON r.id = m.repo_id
		WHERE r.name = ?
		GROUP BY c.login, c.name, c.email
		ORDER BY n DESC, c.login`, repo)
	if err != nil {
		return nil, fmt.Errorf("ranking contributors of %s: %w", repo, err)
	}
	defer rows.Close()

	var stats []ContributorStat
	for rows.Next() {
		var (
			s    ContributorStat
			last string
		)
		if err := rows.Scan(&s.Login, &s.Name, &s.Email, &s.Commits, &last); err != nil {
			return nil, fmt.Errorf("scanning contributor stat: %w", err)
		}
		s.LastCommit, _ = time.Parse(time.RFC3339, last)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// MonthsAgo returns the instant months calendar months before now, or the
// zero time (no cutoff) when months is not positive.
func MonthsAgo(now time.Time, months int) time.Time {
	if months <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, -months, 0)
}

const globalReleasesQuery = `SELECT r.name, MAX(t.name), lt.ts, lc.ts
	FROM repos r
	JOIN (
		SELECT t.repo_id, MAX(m.ts) AS ts
		FROM tags t JOIN commits m ON m.id = t.commit_id
		GROUP BY t.repo_id
	) lt ON lt.repo_id = r.id
	JOIN tags t ON t.repo_id = r.id
	JOIN commits tc ON tc.id = t.commit_id AND tc.ts = lt.ts
	LEFT JOIN (
		SELECT repo_id, MAX(ts) AS ts FROM commits GROUP BY repo_id
	) lc ON lc.repo_id = r.id`

// GlobalReleases returns, per repository, the latest release (by tagged
// commit time) and the latest commit, newest release first. A non-zero
// olderThan keeps only repositories whose latest release predates it.
func (d *DB) GlobalReleases(ctx context.Context, olderThan time.Time) ([]ReleaseStat, error) {
	var (
		q    strings.Builder
		args []any
	)
	q.WriteString(globalReleasesQuery)
	if !olderThan.IsZero() {
		q.WriteString(` WHERE lt.ts < ?`)
		args = append(args, formatTime(olderThan))
	}
	q.WriteString(` GROUP BY r.name, lt.ts, lc.ts ORDER BY lt.ts DESC, r.name`)

	rows, err := d.Query(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("collecting release stats: %w", err)
	}
	defer rows.Close()

	var stats []ReleaseStat
	for rows.Next() {
		var (
			s      ReleaseStat
			tagTS  string
			lastTS sql.NullString
		)
		if err := rows.Scan(&s.Repo, &s.Tag, &tagTS, &lastTS); err != nil {
			return nil, fmt.Errorf("scanning release stat: %w", err)
		}
		s.TagCommitAt, _ = time.Parse(time.RFC3339, tagTS)
		s.LastCommitAt = parseNullTime(lastTS)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// RepoReleases lists the tags of repo, newest version first, with the
// time elapsed between consecutive releases.
func (d *DB) RepoReleases(ctx context.Context, repo string) ([]TagStat, error) {
	rows, err := d.Query(ctx,
		`SELECT t.name, m.ts, COALESCE(c.login, '')
		FROM tags t
		JOIN repos r ON r.id = t.repo_id
		LEFT JOIN commits m ON m.id = t.commit_id
		LEFT JOIN contributors c ON c.id = m.author_id
		WHERE r.name = ?`, repo)
	if err != nil {
		return nil, fmt.Errorf("listing releases of %s: %w", repo, err)
	}
	defer rows.Close()

	var stats []TagStat
	for rows.Next() {
		var (
			s  TagStat
			ts sql.NullString
		)
		if err := rows.Scan(&s.Name, &ts, &s.Author); err != nil {
			return nil, fmt.Errorf("scanning release: %w", err)
		}
		s.CommitAt = parseNullTime(ts)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortReleases(stats)
	for i := 0; i+1 < len(stats); i++ {
		cur, prev := stats[i].CommitAt, stats[i+1].CommitAt
		if cur != nil && prev != nil {
			stats[i].Elapsed = cur.Sub(*prev)
			stats[i].HasElapsed = true
		}
	}
	return stats, nil
}

// sortReleases orders semantic versions descending first, then any other
// tags by commit time descending.
func sortReleases(stats []TagStat) {
	versions := make(map[string]*semver.Version, len(stats))
	for _, s := range stats {
		if v, err := semver.NewVersion(s.Name); err == nil {
			versions[s.Name] = v
		}
	}
	slices.SortStableFunc(stats, func(a, b TagStat) int {
		va, vb := versions[a.Name], versions[b.Name]
		switch {
		case va != nil && vb != nil:
			return vb.Compare(va)
		case va != nil:
			return -1
		case vb != nil:
			return 1
		}
		switch {
		case a.CommitAt != nil && b.CommitAt != nil:
			if c := b.CommitAt.Compare(*a.CommitAt); c != 0 {
				return c
			}
		case a.CommitAt != nil:
			return -1
		case b.CommitAt != nil:
			return 1
		}
		return cmp.Compare(b.Name, a.Name)
	})
}

// AllRepoCounts returns row counts for every stored repository.
func (d *DB) AllRepoCounts(ctx context.Context) ([]RepoCounts, error) {
	rows, err := d.Query(ctx,
		`SELECT r.name,
			(SELECT COUNT(*) FROM branches b WHERE b.repo_id = r.id),
			(SELECT COUNT(*) FROM commits c WHERE c.repo_id = r.id),
			(SELECT COUNT(*) FROM tags t WHERE t.repo_id = r.id),
			(SELECT COUNT(*) FROM issues i WHERE i.repo_id = r.id AND i.is_issue = 1),
			(SELECT COUNT(*) FROM issues p WHERE p.repo_id = r.id AND p.is_issue = 0),
			(SELECT COUNT(*) FROM comments m WHERE m.repo_id = r.id)
		FROM repos r
		ORDER BY r.name`)
	if err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}
	defer rows.Close()

	var results []RepoCounts
	for rows.Next() {
		var c RepoCounts
		if err := rows.Scan(&c.Repo, &c.Branches, &c.Commits, &c.Tags, &c.Issues, &c.PullRequests, &c.Comments); err != nil {
			return nil, fmt.Errorf("scanning counts: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
