// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/naka-gawa/github-pr-dashboard/internal/domain"
	"github.com/naka-gawa/github-pr-dashboard/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// DefaultFileFetchConcurrency bounds the number of concurrent file-list requests.
const DefaultFileFetchConcurrency = 8

// Report is the pull request list of one repository with every derived view.
type Report struct {
	Organization      string                          `json:"organization"`
	Repository        string                          `json:"repository"`
	PullRequests      []domain.PullRequest            `json:"pull_requests"`
	Authors           []string                        `json:"authors"`
	Groups            domain.StateGroups              `json:"groups"`
	ClosedCounts      []domain.AuthorCount            `json:"closed_counts"`
	Weekly            map[string][]domain.WeeklyCount `json:"weekly"`
	FileTypes         map[string]domain.FileTypeStats `json:"file_types"`
	Size              domain.SizeSummary              `json:"size"`
	SizeByAuthor      map[string]domain.SizeSummary   `json:"size_by_author"`
	FailedFileFetches []int                           `json:"failed_file_fetches,omitempty"`
}

// Aggregator is the use case for building pull request reports.
// It orchestrates the fetching and aggregation of data.
type Aggregator struct {
	fetcher     gateway.Fetcher
	logger      *log.Logger
	concurrency int
}

// NewAggregator creates a new Aggregator instance.
// A concurrency below one falls back to DefaultFileFetchConcurrency.
func NewAggregator(fetcher gateway.Fetcher, logger *log.Logger, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = DefaultFileFetchConcurrency
	}
	return &Aggregator{
		fetcher:     fetcher,
		logger:      logger,
		concurrency: concurrency,
	}
}

// BuildReport fetches the pull requests of a repository, annotates each with
// file type stats and computes the derived views.
//
// A failed file-list fetch leaves that pull request with empty stats; only a
// failure to list the pull requests themselves, or cancellation, aborts.
func (a *Aggregator) BuildReport(ctx context.Context, org, repo string, opts domain.PullRequestListOptions) (*Report, error) {
	a.logger.Println("[1/3] Fetching pull requests...")
	prs, err := a.fetcher.FetchRepositoryPullRequests(ctx, org, repo, opts)
	if err != nil {
		return nil, err
	}

	a.logger.Printf("[2/3] Fetching changed files of %d pull requests...\n", len(prs))
	failed, err := a.attachFileTypeStats(ctx, org, repo, prs)
	if err != nil {
		return nil, err
	}

	a.logger.Println("[3/3] Aggregating...")
	report, err := Aggregate(prs)
	if err != nil {
		return nil, err
	}
	report.Organization = org
	report.Repository = repo
	report.FailedFileFetches = failed

	a.logger.Println("Usecase: Aggregation complete.")
	return report, nil
}

// attachFileTypeStats fills in FileTypeStats for every pull request in place
// and returns the numbers of the pull requests whose files could not be fetched.
func (a *Aggregator) attachFileTypeStats(ctx context.Context, org, repo string, prs []domain.PullRequest) ([]int, error) {
	fetchFailed := make([]bool, len(prs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i := range prs {
		i := i
		eg.Go(func() error {
			files, err := a.fetcher.FetchPullRequestFiles(egCtx, org, repo, prs[i].Number)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				a.logger.Printf("  Could not fetch files of #%d, continuing with empty stats: %v\n", prs[i].Number, err)
				fetchFailed[i] = true
				files = nil
			}
			prs[i].FileTypeStats = domain.FileTypeStatsForPR(files)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("fetching pull request files was interrupted: %w", err)
	}

	var failed []int
	for i, f := range fetchFailed {
		if f {
			failed = append(failed, prs[i].Number)
		}
	}
	return failed, nil
}

// Aggregate runs every derived view over an already annotated pull request list.
func Aggregate(prs []domain.PullRequest) (*Report, error) {
	if prs == nil {
		prs = []domain.PullRequest{}
	}
	size, err := domain.SummarizeSizes(prs)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize pull request sizes: %w", err)
	}
	sizeByAuthor, err := domain.SizeSummaryByAuthor(prs)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize pull request sizes by author: %w", err)
	}
	return &Report{
		PullRequests: prs,
		Authors:      domain.UniqueAuthors(prs),
		Groups:       domain.GroupByStateAndAuthor(prs),
		ClosedCounts: domain.ClosedCountsByAuthor(prs),
		Weekly:       domain.WeeklySeries(prs),
		FileTypes:    domain.FileTypeStatsByAuthor(prs),
		Size:         size,
		SizeByAuthor: sizeByAuthor,
	}, nil
}
