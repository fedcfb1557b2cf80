package dashboard

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/naka-gawa/github-pr-dashboard/internal/domain"
	"github.com/naka-gawa/github-pr-dashboard/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned data; repositories of an organization listed in
// block wait until its channel is closed or the context is cancelled.
type fakeFetcher struct {
	viewer  string
	orgs    []domain.Organization
	repos   map[string][]domain.Repository
	repoErr map[string]error
	prs     []domain.PullRequest
	files   map[int][]domain.FileDiff
	started chan string
	block   map[string]chan struct{}

	mu      sync.Mutex
	reports []string
}

func (f *fakeFetcher) FetchUserOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return f.orgs, nil
}

func (f *fakeFetcher) FetchOrganizationRepositories(ctx context.Context, org string) ([]domain.Repository, error) {
	if f.started != nil {
		f.started <- org
	}
	if ch, ok := f.block[org]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.repoErr[org]; err != nil {
		return nil, err
	}
	return f.repos[org], nil
}

func (f *fakeFetcher) FetchRepositoryPullRequests(ctx context.Context, org, repo string, opts domain.PullRequestListOptions) ([]domain.PullRequest, error) {
	if opts.State != "all" {
		return nil, errors.New("expected state=all")
	}
	f.mu.Lock()
	f.reports = append(f.reports, org+"/"+repo)
	f.mu.Unlock()
	return append([]domain.PullRequest(nil), f.prs...), nil
}

func (f *fakeFetcher) FetchPullRequestFiles(ctx context.Context, org, repo string, number int) ([]domain.FileDiff, error) {
	files, ok := f.files[number]
	if !ok {
		return nil, errors.New("files unavailable")
	}
	return files, nil
}

func (f *fakeFetcher) FetchViewerLogin(ctx context.Context) (string, error) {
	return f.viewer, nil
}

func newTestSession(t *testing.T, fetcher *fakeFetcher, opts Options) *Session {
	t.Helper()
	factory := func(token string) (gateway.Fetcher, error) {
		if token == "bad" {
			return nil, errors.New("bad token")
		}
		return fetcher, nil
	}
	return NewSession(factory, opts, log.New(io.Discard, "", 0))
}

func sampleFetcher() *fakeFetcher {
	return &fakeFetcher{
		viewer: "octocat",
		orgs:   []domain.Organization{{Login: "acme"}, {Login: "globex"}},
		repos: map[string][]domain.Repository{
			"acme":   {{Name: "api"}, {Name: "web"}},
			"globex": {{Name: "infra"}},
		},
		repoErr: map[string]error{
			"secret": &gateway.AccessDeniedError{Organization: "secret", Err: &gateway.APIError{Status: 403, StatusText: "Forbidden"}},
		},
		prs: []domain.PullRequest{
			{Number: 1, State: "open", User: &domain.User{Login: "alice"}, CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
			{Number: 2, State: "closed", User: &domain.User{Login: "bob"}, CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		},
		files: map[int][]domain.FileDiff{
			1: {{Filename: "a.js", Additions: 3, Deletions: 1}},
		},
	}
}

func TestSession_SelectionFlow(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t, sampleFetcher(), Options{})

	require.NoError(t, session.SetToken(ctx, "token"))
	state := session.Snapshot()
	assert.Equal(t, "octocat", state.Username)
	assert.Len(t, state.Organizations, 2)
	assert.Empty(t, state.Repositories)

	require.NoError(t, session.SelectOrganization(ctx, "acme"))
	state = session.Snapshot()
	assert.Equal(t, "acme", state.SelectedOrganization)
	assert.Equal(t, []domain.Repository{{Name: "api"}, {Name: "web"}}, state.Repositories)

	require.NoError(t, session.SelectRepository(ctx, "api"))
	state = session.Snapshot()
	assert.Equal(t, "api", state.SelectedRepository)
	require.NotNil(t, state.Report)
	assert.Equal(t, []string{"alice", "bob"}, state.Report.Authors)
	assert.Equal(t, []int{2}, state.Report.FailedFileFetches)
	assert.Equal(t, []domain.AuthorCount{{User: "bob", Count: 1}}, state.Report.ClosedCounts)

	// Selecting another organization replaces everything below it.
	require.NoError(t, session.SelectOrganization(ctx, "globex"))
	state = session.Snapshot()
	assert.Equal(t, []domain.Repository{{Name: "infra"}}, state.Repositories)
	assert.Empty(t, state.SelectedRepository)
	assert.Nil(t, state.Report)
	assert.Equal(t, uint64(4), state.Generation)
}

func TestSession_DefaultUsernameSkipsViewerLookup(t *testing.T) {
	fetcher := sampleFetcher()
	fetcher.viewer = "someone-else"
	session := newTestSession(t, fetcher, Options{DefaultUsername: "configured"})

	require.NoError(t, session.SetToken(context.Background(), "token"))

	assert.Equal(t, "configured", session.Snapshot().Username)
}

func TestSession_StaleResultIsDiscarded(t *testing.T) {
	ctx := context.Background()
	fetcher := sampleFetcher()
	fetcher.started = make(chan string, 2)
	fetcher.block = map[string]chan struct{}{"acme": make(chan struct{})}
	session := newTestSession(t, fetcher, Options{})
	require.NoError(t, session.SetToken(ctx, "token"))

	slow := make(chan error, 1)
	go func() {
		slow <- session.SelectOrganization(ctx, "acme")
	}()
	require.Equal(t, "acme", <-fetcher.started)

	require.NoError(t, session.SelectOrganization(ctx, "globex"))
	<-fetcher.started

	err := <-slow
	assert.ErrorIs(t, err, ErrStale)

	state := session.Snapshot()
	assert.Equal(t, "globex", state.SelectedOrganization)
	assert.Equal(t, []domain.Repository{{Name: "infra"}}, state.Repositories)
	assert.Empty(t, state.Error)
}

func TestSession_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		session := newTestSession(t, sampleFetcher(), Options{})
		assert.ErrorIs(t, session.SetToken(ctx, ""), ErrNoToken)
		assert.ErrorIs(t, session.SelectOrganization(ctx, "acme"), ErrNoToken)
		assert.ErrorIs(t, session.Refresh(ctx), ErrNoToken)
		assert.Equal(t, ErrNoToken.Error(), session.Snapshot().Error)
	})

	t.Run("gateway construction fails", func(t *testing.T) {
		session := newTestSession(t, sampleFetcher(), Options{})
		err := session.SetToken(ctx, "bad")
		assert.ErrorContains(t, err, "failed to create GitHub gateway")
	})

	t.Run("repository before organization", func(t *testing.T) {
		session := newTestSession(t, sampleFetcher(), Options{})
		require.NoError(t, session.SetToken(ctx, "token"))
		assert.ErrorIs(t, session.SelectRepository(ctx, "api"), ErrNoOrganization)
	})

	t.Run("access denied is recorded", func(t *testing.T) {
		session := newTestSession(t, sampleFetcher(), Options{})
		require.NoError(t, session.SetToken(ctx, "token"))

		err := session.SelectOrganization(ctx, "secret")

		var denied *gateway.AccessDeniedError
		require.True(t, errors.As(err, &denied))
		state := session.Snapshot()
		assert.Contains(t, state.Error, "Access denied")
		assert.Empty(t, state.Repositories)

		require.NoError(t, session.SelectOrganization(ctx, "acme"))
		assert.Empty(t, session.Snapshot().Error, "a new selection clears the error")
	})
}

func TestSession_Refresh(t *testing.T) {
	ctx := context.Background()
	fetcher := sampleFetcher()
	session := newTestSession(t, fetcher, Options{})
	require.NoError(t, session.SetToken(ctx, "token"))

	fetcher.orgs = append(fetcher.orgs, domain.Organization{Login: "initech"})
	require.NoError(t, session.Refresh(ctx))
	assert.Len(t, session.Snapshot().Organizations, 3)

	require.NoError(t, session.SelectOrganization(ctx, "acme"))
	require.NoError(t, session.SelectRepository(ctx, "api"))
	fetcher.files[2] = []domain.FileDiff{{Filename: "b.go", Additions: 7}}
	require.NoError(t, session.Refresh(ctx))

	state := session.Snapshot()
	assert.Equal(t, "api", state.SelectedRepository)
	require.NotNil(t, state.Report)
	assert.Empty(t, state.Report.FailedFileFetches)
	assert.Equal(t, domain.FileTypeStat{Additions: 7, Count: 1}, state.Report.FileTypes["bob"]["go"])
}

func TestSession_RefreshKeepsSelectionConsistent(t *testing.T) {
	ctx := context.Background()
	fetcher := sampleFetcher()
	fetcher.files[2] = []domain.FileDiff{{Filename: "b.go", Additions: 7}}
	session := newTestSession(t, fetcher, Options{})
	require.NoError(t, session.SetToken(ctx, "token"))

	for i := 0; i < 200; i++ {
		require.NoError(t, session.SelectOrganization(ctx, "acme"))
		require.NoError(t, session.SelectRepository(ctx, "api"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := session.Refresh(ctx); err != nil {
				assert.ErrorIs(t, err, ErrStale)
			}
		}()
		go func() {
			defer wg.Done()
			if err := session.SelectOrganization(ctx, "globex"); err != nil {
				assert.ErrorIs(t, err, ErrStale)
			}
		}()
		wg.Wait()
	}

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	for _, r := range fetcher.reports {
		require.Equal(t, "acme/api", r, "a refresh must report on the repository of its own organization")
	}
}

func TestSession_RefreshSupersededBySelection(t *testing.T) {
	ctx := context.Background()
	fetcher := sampleFetcher()
	session := newTestSession(t, fetcher, Options{})
	require.NoError(t, session.SetToken(ctx, "token"))
	require.NoError(t, session.SelectOrganization(ctx, "acme"))

	fetcher.started = make(chan string, 2)
	fetcher.block = map[string]chan struct{}{"acme": make(chan struct{})}
	refreshed := make(chan error, 1)
	go func() {
		refreshed <- session.Refresh(ctx)
	}()
	require.Equal(t, "acme", <-fetcher.started)

	require.NoError(t, session.SelectOrganization(ctx, "globex"))
	<-fetcher.started

	assert.ErrorIs(t, <-refreshed, ErrStale)
	state := session.Snapshot()
	assert.Equal(t, "globex", state.SelectedOrganization)
	assert.Equal(t, []domain.Repository{{Name: "infra"}}, state.Repositories)
}
