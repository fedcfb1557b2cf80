package domain

import (
	"github.com/montanaflynn/stats"
)

// SizeSummary describes the distribution of lines changed (additions plus
// deletions) per pull request. P90 is the nearest-rank 90th percentile, so it
// is always one of the observed sizes.
type SizeSummary struct {
	PullRequests int     `json:"pull_requests"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	P90          float64 `json:"p90"`
}

// LinesChanged returns the additions plus deletions recorded for the pull request.
func (pr PullRequest) LinesChanged() int {
	total := pr.FileTypeStats.Totals()
	return total.Additions + total.Deletions
}

// SummarizeSizes computes the size distribution of the given pull requests.
// An empty list yields a zero summary.
func SummarizeSizes(prs []PullRequest) (SizeSummary, error) {
	if len(prs) == 0 {
		return SizeSummary{}, nil
	}
	data := make(stats.Float64Data, 0, len(prs))
	for _, pr := range prs {
		data = append(data, float64(pr.LinesChanged()))
	}

	mean, err := data.Mean()
	if err != nil {
		return SizeSummary{}, err
	}
	median, err := data.Median()
	if err != nil {
		return SizeSummary{}, err
	}
	p90, err := data.PercentileNearestRank(90)
	if err != nil {
		return SizeSummary{}, err
	}
	mean, err = stats.Round(mean, 2)
	if err != nil {
		return SizeSummary{}, err
	}

	return SizeSummary{
		PullRequests: len(prs),
		Mean:         mean,
		Median:       median,
		P90:          p90,
	}, nil
}

// SizeSummaryByAuthor computes a size summary for every author.
func SizeSummaryByAuthor(prs []PullRequest) (map[string]SizeSummary, error) {
	byAuthor := make(map[string][]PullRequest)
	for _, pr := range prs {
		byAuthor[pr.Author()] = append(byAuthor[pr.Author()], pr)
	}
	summaries := make(map[string]SizeSummary, len(byAuthor))
	for author, list := range byAuthor {
		summary, err := SummarizeSizes(list)
		if err != nil {
			return nil, err
		}
		summaries[author] = summary
	}
	return summaries, nil
}
