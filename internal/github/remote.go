package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v60/github"
)

// ListRepos returns every repository of the organization.
func (c *Client) ListRepos(ctx context.Context) ([]Repo, error) {
	raw, err := paginate(ctx, c, "repositories", func(lo gogithub.ListOptions) ([]*gogithub.Repository, *gogithub.Response, error) {
		return c.gh.Repositories.ListByOrg(ctx, c.org, &gogithub.RepositoryListByOrgOptions{
			Type:        "all",
			ListOptions: lo,
		})
	})
	if err != nil {
		return nil, err
	}

	repos := make([]Repo, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, Repo{
			Name:     r.GetName(),
			FullName: r.GetFullName(),
		})
	}
	return repos, nil
}

// ListBranches returns the branch names of repo.
func (c *Client) ListBranches(ctx context.Context, repo string) ([]string, error) {
	raw, err := paginate(ctx, c, repo+" branches", func(lo gogithub.ListOptions) ([]*gogithub.Branch, *gogithub.Response, error) {
		return c.gh.Repositories.ListBranches(ctx, c.org, repo, &gogithub.BranchListOptions{ListOptions: lo})
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raw))
	for _, b := range raw {
		names = append(names, b.GetName())
	}
	return names, nil
}

// ListCommits returns the commits reachable from branch, newest first.
// An empty repository yields no commits.
func (c *Client) ListCommits(ctx context.Context, repo, branch string) ([]Commit, error) {
	raw, err := paginate(ctx, c, repo+"@"+branch+" commits", func(lo gogithub.ListOptions) ([]*gogithub.RepositoryCommit, *gogithub.Response, error) {
		return c.gh.Repositories.ListCommits(ctx, c.org, repo, &gogithub.CommitsListOptions{
			SHA:         branch,
			ListOptions: lo,
		})
	})
	if isEmptyRepository(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(raw))
	for _, rc := range raw {
		commits = append(commits, convertCommit(rc))
	}
	return commits, nil
}

// ListTags returns the tags of repo.
func (c *Client) ListTags(ctx context.Context, repo string) ([]Tag, error) {
	raw, err := paginate(ctx, c, repo+" tags", func(lo gogithub.ListOptions) ([]*gogithub.RepositoryTag, *gogithub.Response, error) {
		return c.gh.Repositories.ListTags(ctx, c.org, repo, &lo)
	})
	if err != nil {
		return nil, err
	}

	tags := make([]Tag, 0, len(raw))
	for _, t := range raw {
		tags = append(tags, Tag{
			Name:       t.GetName(),
			CommitSHA:  t.GetCommit().GetSHA(),
			HasTarball: t.GetTarballURL() != "",
		})
	}
	return tags, nil
}

// ListIssues returns every issue and pull request of repo, open or closed.
func (c *Client) ListIssues(ctx context.Context, repo string) ([]Issue, error) {
	raw, err := paginate(ctx, c, repo+" issues", func(lo gogithub.ListOptions) ([]*gogithub.Issue, *gogithub.Response, error) {
		return c.gh.Issues.ListByRepo(ctx, c.org, repo, &gogithub.IssueListByRepoOptions{
			State:       "all",
			ListOptions: lo,
		})
	})
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(raw))
	for _, gi := range raw {
		issues = append(issues, convertIssue(gi))
	}
	return issues, nil
}

// ListComments returns the comments of issue or pull request number.
func (c *Client) ListComments(ctx context.Context, repo string, number int) ([]Comment, error) {
	what := fmt.Sprintf("%s#%d comments", repo, number)
	raw, err := paginate(ctx, c, what, func(lo gogithub.ListOptions) ([]*gogithub.IssueComment, *gogithub.Response, error) {
		return c.gh.Issues.ListComments(ctx, c.org, repo, number, &gogithub.IssueListCommentsOptions{ListOptions: lo})
	})
	if err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(raw))
	for _, ic := range raw {
		comments = append(comments, Comment{
			ID:        ic.GetID(),
			Author:    convertUser(ic.GetUser()),
			CreatedAt: ic.GetCreatedAt().Time,
		})
	}
	return comments, nil
}

// GetUser returns the public profile of login.
func (c *Client) GetUser(ctx context.Context, login string) (User, error) {
	var u *gogithub.User
	err := c.call(ctx, "user "+login, func() (*gogithub.Response, error) {
		var (
			resp *gogithub.Response
			err  error
		)
		u, resp, err = c.gh.Users.Get(ctx, login)
		return resp, err
	})
	if err != nil {
		return User{}, fmt.Errorf("getting user %s: %w", login, err)
	}
	return convertUser(u), nil
}

func convertCommit(rc *gogithub.RepositoryCommit) Commit {
	gc := rc.GetCommit()
	return Commit{
		SHA: rc.GetSHA(),
		Author: User{
			Login: rc.GetAuthor().GetLogin(),
			Name:  gc.GetAuthor().GetName(),
			Email: gc.GetAuthor().GetEmail(),
		},
		CommittedAt: gc.GetCommitter().GetDate().Time,
	}
}

// convertUser keeps whatever profile fields the payload carries. Most
// listing payloads carry only the login.
func convertUser(u *gogithub.User) User {
	return User{Login: u.GetLogin(), Name: u.GetName(), Email: u.GetEmail()}
}

func convertIssue(gi *gogithub.Issue) Issue {
	issue := Issue{
		ID:            gi.GetID(),
		Number:        gi.GetNumber(),
		Title:         gi.GetTitle(),
		State:         gi.GetState(),
		IsPullRequest: isPullRequest(gi),
		Author:        convertUser(gi.GetUser()),
		CreatedAt:     gi.GetCreatedAt().Time,
		UpdatedAt:     gi.GetUpdatedAt().Time,
		Comments:      gi.GetComments(),
		HTMLURL:       gi.GetHTMLURL(),
	}
	if gi.ClosedAt != nil {
		closed := gi.ClosedAt.Time
		issue.ClosedAt = &closed
	}
	return issue
}

// isPullRequest uses the pull_request object GitHub attaches to pull
// requests. Payloads without it fall back to the /pull/ URL shape.
func isPullRequest(gi *gogithub.Issue) bool {
	if gi.IsPullRequest() {
		return true
	}
	return strings.Contains(gi.GetHTMLURL(), "/pull/")
}

// isEmptyRepository matches the 409 GitHub returns when listing commits of
// a repository without any.
func isEmptyRepository(err error) bool {
	var er *gogithub.ErrorResponse
	return errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusConflict
}
