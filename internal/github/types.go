package github

import "time"

// Repo is a repository of the organization.
type Repo struct {
	Name     string
	FullName string
}

// User is a GitHub account as referenced by a payload. Login is empty when
// the payload names no account (for example a commit by an unknown email).
type User struct {
	Login string
	Name  string
	Email string
}

// Commit is a commit listed from a branch.
type Commit struct {
	SHA         string
	Author      User
	CommittedAt time.Time
}

// Tag is a repository tag.
type Tag struct {
	Name       string
	CommitSHA  string
	HasTarball bool
}

// Issue is an issue or a pull request.
type Issue struct {
	ID            int64
	Number        int
	Title         string
	State         string
	IsPullRequest bool
	Author        User
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
	Comments      int
	HTMLURL       string
}

// Comment is a comment on an issue or pull request.
type Comment struct {
	ID        int64
	Author    User
	CreatedAt time.Time
}
