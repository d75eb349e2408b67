// Package dashboard serves read-only HTML views and a CSV export of the
// collected statistics.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/jacklau/ghstats/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

const dateLayout = "2006-01-02"

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	},
	"datep": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(dateLayout)
	},
	"days": days,
	"age": func(t *time.Time, now time.Time) string {
		if t == nil {
			return ""
		}
		return days(now.Sub(*t))
	},
}

func days(d time.Duration) string {
	n := int(d.Hours() / 24)
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// page is the data every template receives.
type page struct {
	Title  string
	Months int
	Data   any
}

type repoBranches struct {
	Repo     string
	Branches []string
}

type repoDetail struct {
	Releases     []store.TagStat
	Branches     []string
	Contributors []store.ContributorStat
	Now          time.Time
}

// Server renders the dashboard pages.
type Server struct {
	db     store.Reader
	logger *slog.Logger
	now    func() time.Time
	pages  map[string]*template.Template
}

// New parses the embedded templates.
func New(db store.Reader, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{db: db, logger: logger, now: time.Now, pages: make(map[string]*template.Template)}
	for _, name := range []string{"index.html", "repos.html", "repos-branches.html", "latest-releases.html", "repo.html"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		s.pages[name] = t
	}
	return s, nil
}

// Handler returns the routes of the dashboard.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /repos", s.handleRepos)
	mux.HandleFunc("GET /repos-branches", s.handleReposBranches)
	mux.HandleFunc("GET /latest-releases", s.handleLatestReleases)
	mux.HandleFunc("GET /latest-releases.csv", s.handleLatestReleasesCSV)
	mux.HandleFunc("GET /repos/{name}", s.handleRepo)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving dashboard: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down dashboard: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving dashboard: %w", err)
	}
	return nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, p page) {
	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("dashboard request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", page{Title: "ghstats"})
}

func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.db.RepoNames(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "repos.html", page{Title: "Repositories", Data: repos})
}

func (s *Server) handleReposBranches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	repos, err := s.db.RepoNames(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows := make([]repoBranches, 0, len(repos))
	for _, repo := range repos {
		branches, err := s.db.Branches(ctx, repo)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		rows = append(rows, repoBranches{Repo: repo, Branches: branches})
	}
	s.render(w, r, "repos-branches.html", page{Title: "Repositories and branches", Data: rows})
}

// monthsParam reads the optional ?months= filter.
func monthsParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("months")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("months must be a non-negative number, got %q", v)
	}
	return n, nil
}

func (s *Server) latestReleases(w http.ResponseWriter, r *http.Request) ([]store.ReleaseStat, int, bool) {
	months, err := monthsParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, 0, false
	}
	stats, err := s.db.GlobalReleases(r.Context(), store.MonthsAgo(s.now(), months))
	if err != nil {
		s.fail(w, r, err)
		return nil, 0, false
	}
	return stats, months, true
}

func (s *Server) handleLatestReleases(w http.ResponseWriter, r *http.Request) {
	stats, months, ok := s.latestReleases(w, r)
	if !ok {
		return
	}
	s.render(w, r, "latest-releases.html", page{Title: "Latest releases", Months: months, Data: stats})
}

func (s *Server) handleLatestReleasesCSV(w http.ResponseWriter, r *http.Request) {
	stats, _, ok := s.latestReleases(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="releases.csv"`)
	if err := writeReleasesCSV(w, stats); err != nil {
		s.logger.Error("writing releases csv", "error", err)
	}
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	repos, err := s.db.RepoNames(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !slices.Contains(repos, name) {
		http.NotFound(w, r)
		return
	}

	detail := repoDetail{Now: s.now()}
	if detail.Releases, err = s.db.RepoReleases(ctx, name); err != nil {
		s.fail(w, r, err)
		return
	}
	if detail.Branches, err = s.db.Branches(ctx, name); err != nil {
		s.fail(w, r, err)
		return
	}
	if detail.Contributors, err = s.db.Contributors(ctx, name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "repo.html", page{Title: name, Data: detail})
}
