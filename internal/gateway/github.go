// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/github-pr-dashboard/internal/domain"
	"github.com/shurcooL/githubv4"
)

const (
	// DefaultBaseURL is the REST endpoint of github.com.
	DefaultBaseURL = "https://api.github.com/"
	perPage        = 100
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchUserOrganizations(ctx context.Context) ([]domain.Organization, error)
	FetchOrganizationRepositories(ctx context.Context, org string) ([]domain.Repository, error)
	FetchRepositoryPullRequests(ctx context.Context, org, repo string, opts domain.PullRequestListOptions) ([]domain.PullRequest, error)
	FetchPullRequestFiles(ctx context.Context, org, repo string, number int) ([]domain.FileDiff, error)
	FetchViewerLogin(ctx context.Context) (string, error)
}

// Options configures a GitHubGateway.
type Options struct {
	Token string
	// BaseURL of the REST API. Defaults to DefaultBaseURL.
	BaseURL string
	// GraphQLURL defaults to BaseURL + "graphql".
	GraphQLURL string
	// Timeout bounds every request. Zero means no timeout.
	Timeout time.Duration
	// RequestsPerMinute paces outgoing requests. Zero disables pacing.
	RequestsPerMinute int
	// Transport is the base round tripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *log.Logger) (*GitHubGateway, error) {
	if opts.Token == "" {
		return nil, errors.New("a GitHub token is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GitHub API URL: %w", err)
	}
	graphqlURL := opts.GraphQLURL
	if graphqlURL == "" {
		graphqlURL = baseURL + "graphql"
	}

	httpClient := newHTTPClient(opts)
	restClient := github.NewClient(httpClient)
	restClient.BaseURL = parsed

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(graphqlURL, httpClient),
		logger:        logger,
	}, nil
}

// FetchUserOrganizations lists the organizations of the authenticated user,
// following the Link header until the last page.
func (g *GitHubGateway) FetchUserOrganizations(ctx context.Context) ([]domain.Organization, error) {
	g.logger.Println("Fetching organizations of the authenticated user...")
	opts := &github.ListOptions{PerPage: perPage}
	orgs := make([]domain.Organization, 0)
	for {
		page, resp, err := g.restClient.Organizations.List(ctx, "", opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list organizations: %w", asAPIError(err))
		}
		for _, o := range page {
			orgs = append(orgs, domain.Organization{
				Login:       o.GetLogin(),
				ID:          o.GetID(),
				Description: o.GetDescription(),
				AvatarURL:   o.GetAvatarURL(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of organizations...")
	}
	g.logger.Printf("Completed fetching %d organizations.\n", len(orgs))
	return orgs, nil
}

// FetchOrganizationRepositories lists the repositories of an organization.
// Pages are requested with an increasing page number until one comes back short.
// A 403 is reported as *AccessDeniedError.
func (g *GitHubGateway) FetchOrganizationRepositories(ctx context.Context, org string) ([]domain.Repository, error) {
	g.logger.Printf("Fetching repositories of %s...\n", org)
	opts := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: perPage, Page: 1}}
	repos := make([]domain.Repository, 0)
	for {
		page, _, err := g.restClient.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			apiErr := asAPIError(err)
			var e *APIError
			if errors.As(apiErr, &e) && e.Status == http.StatusForbidden {
				return nil, &AccessDeniedError{Organization: org, Err: e}
			}
			return nil, fmt.Errorf("failed to list repositories of %s: %w", org, apiErr)
		}
		for _, r := range page {
			repos = append(repos, domain.Repository{
				Name:          r.GetName(),
				FullName:      r.GetFullName(),
				Description:   r.GetDescription(),
				Private:       r.GetPrivate(),
				HTMLURL:       r.GetHTMLURL(),
				DefaultBranch: r.GetDefaultBranch(),
			})
		}
		if len(page) < perPage {
			break
		}
		opts.Page++
		g.logger.Printf("  Fetching page %d of repositories...\n", opts.Page)
	}
	g.logger.Printf("Completed fetching %d repositories.\n", len(repos))
	return repos, nil
}

// FetchRepositoryPullRequests lists the pull requests of a repository,
// following the Link header until the last page.
func (g *GitHubGateway) FetchRepositoryPullRequests(ctx context.Context, org, repo string, listOpts domain.PullRequestListOptions) ([]domain.PullRequest, error) {
	g.logger.Printf("Fetching pull requests of %s/%s...\n", org, repo)
	opts := &github.PullRequestListOptions{
		State:       listOpts.State,
		Head:        listOpts.Head,
		Base:        listOpts.Base,
		Sort:        listOpts.Sort,
		Direction:   listOpts.Direction,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	prs := make([]domain.PullRequest, 0)
	for {
		page, resp, err := g.restClient.PullRequests.List(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests of %s/%s: %w", org, repo, asAPIError(err))
		}
		for _, pr := range page {
			prs = append(prs, toPullRequest(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of pull requests...")
	}
	g.logger.Printf("Completed fetching %d pull requests.\n", len(prs))
	return prs, nil
}

// FetchPullRequestFiles lists the changed files of a pull request.
func (g *GitHubGateway) FetchPullRequestFiles(ctx context.Context, org, repo string, number int) ([]domain.FileDiff, error) {
	opts := &github.ListOptions{PerPage: perPage}
	files := make([]domain.FileDiff, 0)
	for {
		page, resp, err := g.restClient.PullRequests.ListFiles(ctx, org, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list files of %s/%s#%d: %w", org, repo, number, asAPIError(err))
		}
		for _, f := range page {
			files = append(files, domain.FileDiff{
				Filename:  f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// viewerQuery fetches the login of the token's owner.
type viewerQuery struct {
	Viewer struct {
		Login githubv4.String
	}
}

// FetchViewerLogin returns the login of the user the token belongs to.
func (g *GitHubGateway) FetchViewerLogin(ctx context.Context) (string, error) {
	var q viewerQuery
	if err := g.graphqlClient.Query(ctx, &q, nil); err != nil {
		return "", fmt.Errorf("failed to execute GraphQL query for viewer: %w", err)
	}
	return string(q.Viewer.Login), nil
}

func toPullRequest(pr *github.PullRequest) domain.PullRequest {
	out := domain.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		State:     pr.GetState(),
		CreatedAt: pr.GetCreatedAt().Time,
		HTMLURL:   pr.GetHTMLURL(),
	}
	if u := pr.GetUser(); u != nil && u.GetLogin() != "" {
		out.User = &domain.User{Login: u.GetLogin()}
	}
	return out
}
