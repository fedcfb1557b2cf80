// Package dashboard holds the selection state behind the dashboard views.
//
// A Session is the single writer of that state. Every selection change starts
// a new generation and cancels the load of the previous one; a load whose
// generation is no longer current when it finishes is discarded.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/naka-gawa/github-pr-dashboard/internal/domain"
	"github.com/naka-gawa/github-pr-dashboard/internal/gateway"
	"github.com/naka-gawa/github-pr-dashboard/internal/usecase"
)

var (
	// ErrStale is returned when a newer selection superseded the load.
	ErrStale = errors.New("selection changed while loading")
	// ErrNoToken is returned when no token has been configured.
	ErrNoToken = errors.New("no GitHub token configured")
	// ErrNoOrganization is returned when a repository is selected before an organization.
	ErrNoOrganization = errors.New("no organization selected")
)

// FetcherFactory builds a gateway for a token.
type FetcherFactory func(token string) (gateway.Fetcher, error)

// Options configures a Session.
type Options struct {
	DefaultUsername      string
	FileFetchConcurrency int
	PullRequestOptions   domain.PullRequestListOptions
}

// State is a snapshot of the dashboard.
type State struct {
	Generation           uint64                `json:"generation"`
	Username             string                `json:"username,omitempty"`
	Organizations        []domain.Organization `json:"organizations"`
	SelectedOrganization string                `json:"selected_organization,omitempty"`
	Repositories         []domain.Repository   `json:"repositories"`
	SelectedRepository   string                `json:"selected_repository,omitempty"`
	Report               *usecase.Report       `json:"report,omitempty"`
	Error                string                `json:"error,omitempty"`
}

// Session is the selection state store.
type Session struct {
	newFetcher FetcherFactory
	opts       Options
	logger     *log.Logger

	mu         sync.Mutex
	fetcher    gateway.Fetcher
	generation uint64
	cancel     context.CancelFunc
	state      State
}

// NewSession creates a Session without a token.
func NewSession(newFetcher FetcherFactory, opts Options, logger *log.Logger) *Session {
	if opts.PullRequestOptions.State == "" {
		opts.PullRequestOptions.State = "all"
	}
	return &Session{
		newFetcher: newFetcher,
		opts:       opts,
		logger:     logger,
		state:      State{Username: opts.DefaultUsername},
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Generation = s.generation
	st.Organizations = append([]domain.Organization(nil), s.state.Organizations...)
	st.Repositories = append([]domain.Repository(nil), s.state.Repositories...)
	return st
}

// begin starts a new generation: it cancels the previous load, lets mutate
// reset the state and returns the generation with its context.
func (s *Session) begin(ctx context.Context, mutate func(st *State)) (uint64, context.Context, gateway.Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.Error = ""
	mutate(&s.state)
	return s.generation, loadCtx, s.fetcher
}

// commit applies the result of a load when gen is still current.
func (s *Session) commit(gen uint64, loadErr error, apply func(st *State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Printf("Dashboard: discarding result of stale generation %d (current %d)\n", gen, s.generation)
		return ErrStale
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if loadErr != nil {
		s.state.Error = loadErr.Error()
		return loadErr
	}
	apply(&s.state)
	return nil
}

// SetToken replaces the token, clears every selection and loads the organizations.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	fetcher, err := s.newFetcher(token)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	s.mu.Lock()
	s.fetcher = fetcher
	s.mu.Unlock()

	gen, loadCtx, f := s.begin(ctx, func(st *State) {
		*st = State{Username: s.opts.DefaultUsername}
	})
	return s.loadOrganizations(loadCtx, gen, f)
}

func (s *Session) loadOrganizations(ctx context.Context, gen uint64, f gateway.Fetcher) error {
	username := s.opts.DefaultUsername
	if username == "" {
		login, err := f.FetchViewerLogin(ctx)
		if err != nil {
			s.logger.Printf("Dashboard: could not resolve viewer login: %v\n", err)
		}
		username = login
	}
	orgs, err := f.FetchUserOrganizations(ctx)
	return s.commit(gen, err, func(st *State) {
		st.Username = username
		st.Organizations = orgs
	})
}

// SelectOrganization selects an organization and loads its repositories.
func (s *Session) SelectOrganization(ctx context.Context, login string) error {
	gen, loadCtx, f := s.begin(ctx, func(st *State) {
		st.SelectedOrganization = login
		st.Repositories = nil
		st.SelectedRepository = ""
		st.Report = nil
	})
	return s.loadRepositories(loadCtx, gen, f, login)
}

func (s *Session) loadRepositories(ctx context.Context, gen uint64, f gateway.Fetcher, org string) error {
	if f == nil {
		return s.commit(gen, ErrNoToken, nil)
	}
	repos, err := f.FetchOrganizationRepositories(ctx, org)
	return s.commit(gen, err, func(st *State) {
		st.Repositories = repos
	})
}

// SelectRepository selects a repository of the selected organization and builds its report.
func (s *Session) SelectRepository(ctx context.Context, name string) error {
	var org string
	gen, loadCtx, f := s.begin(ctx, func(st *State) {
		org = st.SelectedOrganization
		st.SelectedRepository = name
		st.Report = nil
	})
	return s.loadReport(loadCtx, gen, f, org, name)
}

func (s *Session) loadReport(ctx context.Context, gen uint64, f gateway.Fetcher, org, repo string) error {
	switch {
	case f == nil:
		return s.commit(gen, ErrNoToken, nil)
	case org == "":
		return s.commit(gen, ErrNoOrganization, nil)
	}
	report, err := usecase.NewAggregator(f, s.logger, s.opts.FileFetchConcurrency).
		BuildReport(ctx, org, repo, s.opts.PullRequestOptions)
	return s.commit(gen, err, func(st *State) {
		st.Report = report
	})
}

// Refresh reloads the deepest level of the current selection. The selection
// is read in the same critical section that starts the new generation.
func (s *Session) Refresh(ctx context.Context) error {
	var org, repo string
	gen, loadCtx, f := s.begin(ctx, func(st *State) {
		org, repo = st.SelectedOrganization, st.SelectedRepository
		switch {
		case repo != "":
			st.Report = nil
		case org != "":
			st.Repositories = nil
		}
	})

	switch {
	case f == nil:
		return s.commit(gen, ErrNoToken, nil)
	case repo != "":
		return s.loadReport(loadCtx, gen, f, org, repo)
	case org != "":
		return s.loadRepositories(loadCtx, gen, f, org)
	default:
		return s.loadOrganizations(loadCtx, gen, f)
	}
}
