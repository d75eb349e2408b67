// Package explorer implements the interactive read-only shell over the
// collected statistics.
package explorer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jacklau/ghstats/internal/store"
)

// RootScope is the name of the unscoped session.
const RootScope = "root"

// errQuit ends the loop without an error.
var errQuit = errors.New("quit")

// Session is the state of one explorer run: the known repositories and the
// repository subsequent commands are scoped to.
type Session struct {
	repos   map[string]bool
	current string
}

// NewSession starts at the root scope with the given repositories.
func NewSession(repos []string) *Session {
	s := &Session{repos: make(map[string]bool, len(repos)), current: RootScope}
	for _, r := range repos {
		s.repos[r] = true
	}
	return s
}

// Current returns the scoped repository, or RootScope.
func (s *Session) Current() string {
	return s.current
}

// IsRoot reports whether no repository is selected.
func (s *Session) IsRoot() bool {
	return s.current == RootScope
}

// Use scopes the session to repo. It reports false for unknown names.
func (s *Session) Use(repo string) bool {
	if repo != RootScope && !s.repos[repo] {
		return false
	}
	s.current = repo
	return true
}

// Prompt is printed before every command.
func (s *Session) Prompt() string {
	return s.current + "> "
}

// Explorer evaluates commands against a store.
type Explorer struct {
	db     store.Reader
	out    io.Writer
	now    func() time.Time
	prompt lipgloss.Style
	notice lipgloss.Style
}

// New creates an explorer that prints to out.
func New(db store.Reader, out io.Writer) *Explorer {
	r := lipgloss.NewRenderer(out)
	return &Explorer{
		db:     db,
		out:    out,
		now:    time.Now,
		prompt: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		notice: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// NewSession loads the repository list into a fresh session.
func (e *Explorer) NewSession(ctx context.Context) (*Session, error) {
	repos, err := e.db.RepoNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading repositories: %w", err)
	}
	return NewSession(repos), nil
}

// Run reads commands from in until exit, quit, end of input or ctx is
// done. Unknown commands are reported and the loop continues; store errors
// end it.
func (e *Explorer) Run(ctx context.Context, in io.Reader) error {
	s, err := e.NewSession(ctx)
	if err != nil {
		return err
	}

	// The reader may block on a terminal that never answers, so it runs
	// apart from the loop and is abandoned on cancellation.
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	var readErr error
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readCtx.Done():
				return
			}
		}
		readErr = scanner.Err()
	}()

	fmt.Fprintln(e.out, `Type "help" or "?" to list commands.`)
loop:
	for {
		fmt.Fprint(e.out, e.prompt.Render(s.Prompt()))
		select {
		case <-ctx.Done():
			fmt.Fprintln(e.out)
			break loop
		case line, ok := <-lines:
			if !ok {
				if readErr != nil {
					return fmt.Errorf("reading input: %w", readErr)
				}
				break loop
			}
			if err := e.Execute(ctx, s, line); err != nil {
				if errors.Is(err, errQuit) {
					break loop
				}
				return err
			}
		}
	}
	fmt.Fprintln(e.out, "bye")
	return nil
}

// Execute runs one command line in session s.
func (e *Explorer) Execute(ctx context.Context, s *Session, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "exit", "quit":
		return errQuit
	case "help", "?":
		e.printHelp()
	case "ls":
		return e.listRepos(ctx)
	case "use":
		e.use(s, args)
	case "b":
		return e.branches(ctx, s)
	case "c":
		return e.contributors(ctx, s)
	case "r":
		return e.releases(ctx, s, args)
	default:
		e.warn("unrecognized command %q", cmd)
	}
	return nil
}

func (e *Explorer) warn(format string, args ...any) {
	fmt.Fprintln(e.out, e.notice.Render(fmt.Sprintf(format, args...)))
}

func (e *Explorer) listRepos(ctx context.Context) error {
	repos, err := e.db.RepoNames(ctx)
	if err != nil {
		return err
	}
	printNumbered(e.out, repos)
	return nil
}

func (e *Explorer) use(s *Session, args []string) {
	if len(args) != 1 {
		e.warn("usage: use <name|%s>", RootScope)
		return
	}
	if !s.Use(args[0]) {
		e.warn(`"%s" repo does not exist, run "ls" to see all available repos and try again`, args[0])
	}
}

func (e *Explorer) branches(ctx context.Context, s *Session) error {
	if s.IsRoot() {
		e.warn(`repo is not set, run "use <name>" to choose`)
		return nil
	}
	branches, err := e.db.Branches(ctx, s.Current())
	if err != nil {
		return err
	}
	printNumbered(e.out, branches)
	return nil
}

func (e *Explorer) contributors(ctx context.Context, s *Session) error {
	if s.IsRoot() {
		e.warn(`repo is not set, run "use <name>" to choose`)
		return nil
	}
	stats, err := e.db.Contributors(ctx, s.Current())
	if err != nil {
		return err
	}
	renderContributors(e.out, stats)
	return nil
}

// releases prints the release lag of every repository at the root scope,
// optionally limited to releases older than the given number of months,
// and the release history of the scoped repository otherwise.
func (e *Explorer) releases(ctx context.Context, s *Session, args []string) error {
	if !s.IsRoot() {
		stats, err := e.db.RepoReleases(ctx, s.Current())
		if err != nil {
			return err
		}
		renderRepoReleases(e.out, stats, e.now())
		return nil
	}

	months := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			e.warn("months must be a non-negative number, got %q", args[0])
			return nil
		}
		months = n
	}

	stats, err := e.db.GlobalReleases(ctx, store.MonthsAgo(e.now(), months))
	if err != nil {
		return err
	}
	renderGlobalReleases(e.out, stats)
	return nil
}
