// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// UnknownAuthor is the author name used for pull requests without a user.
const UnknownAuthor = "unknown"

// Organization is a GitHub organization the authenticated user belongs to.
type Organization struct {
	Login       string `json:"login"`
	ID          int64  `json:"id"`
	Description string `json:"description,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Repository is a repository owned by an organization.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description,omitempty"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url,omitempty"`
	DefaultBranch string `json:"default_branch,omitempty"`
}

// User is the author of a pull request.
type User struct {
	Login string `json:"login"`
}

// PullRequest is a single pull request of a repository.
// FileTypeStats is filled in once the changed files have been fetched.
type PullRequest struct {
	Number        int           `json:"number"`
	Title         string        `json:"title"`
	State         string        `json:"state"`
	User          *User         `json:"user"`
	CreatedAt     time.Time     `json:"created_at"`
	HTMLURL       string        `json:"html_url,omitempty"`
	FileTypeStats FileTypeStats `json:"file_type_stats,omitempty"`
}

// Author returns the login of the pull request's user, or UnknownAuthor.
func (pr PullRequest) Author() string {
	if pr.User == nil || pr.User.Login == "" {
		return UnknownAuthor
	}
	return pr.User.Login
}

// IsOpen reports whether the pull request is open. Every other state counts as closed.
func (pr PullRequest) IsOpen() bool {
	return pr.State == "open"
}

// FileDiff is one changed file of a pull request.
type FileDiff struct {
	Filename  string `json:"filename"`
	Status    string `json:"status,omitempty"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// PullRequestListOptions are the caller supplied query options for listing pull requests.
// Empty fields are left out of the query.
type PullRequestListOptions struct {
	State     string `json:"state,omitempty" validate:"omitempty,oneof=open closed all"`
	Sort      string `json:"sort,omitempty" validate:"omitempty,oneof=created updated popularity long-running"`
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=asc desc"`
	Base      string `json:"base,omitempty"`
	Head      string `json:"head,omitempty"`
}
