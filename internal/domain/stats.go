package domain

import (
	"path"
	"sort"
	"strings"
)

// OtherFileType is the bucket for files without an extension.
const OtherFileType = "other"

// FileTypeStat holds the line changes and file count for one file extension.
type FileTypeStat struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Count     int `json:"count"`
}

// FileTypeStats maps a file extension (or OtherFileType) to its totals.
type FileTypeStats map[string]FileTypeStat

// Merge adds every entry of other into s.
func (s FileTypeStats) Merge(other FileTypeStats) {
	for ext, stat := range other {
		cur := s[ext]
		cur.Additions += stat.Additions
		cur.Deletions += stat.Deletions
		cur.Count += stat.Count
		s[ext] = cur
	}
}

// Totals sums all extensions into a single FileTypeStat.
func (s FileTypeStats) Totals() FileTypeStat {
	var total FileTypeStat
	for _, stat := range s {
		total.Additions += stat.Additions
		total.Deletions += stat.Deletions
		total.Count += stat.Count
	}
	return total
}

// AuthorCount is the number of pull requests attributed to one author.
type AuthorCount struct {
	User  string `json:"user"`
	Count int    `json:"count"`
}

// AuthorGroups maps an author to their pull requests in encounter order.
type AuthorGroups map[string][]PullRequest

// StateGroups partitions pull requests by state and then by author.
type StateGroups struct {
	Open   AuthorGroups `json:"open"`
	Closed AuthorGroups `json:"closed"`
}

// FileType returns the extension bucket of a file name: the text after the
// last dot of its base name, or OtherFileType when there is none.
// Dots in directory names are ignored ("conf.d/Makefile" is OtherFileType),
// and so is a trailing dot ("weird." is OtherFileType).
func FileType(filename string) string {
	base := path.Base(filename)
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return OtherFileType
	}
	return base[idx+1:]
}

// FileTypeStatsForPR buckets a pull request's changed files by extension.
func FileTypeStatsForPR(files []FileDiff) FileTypeStats {
	stats := make(FileTypeStats)
	for _, f := range files {
		ext := FileType(f.Filename)
		cur := stats[ext]
		cur.Additions += f.Additions
		cur.Deletions += f.Deletions
		cur.Count++
		stats[ext] = cur
	}
	return stats
}

// FileTypeStatsByAuthor sums the per-PR file type stats of every author.
func FileTypeStatsByAuthor(prs []PullRequest) map[string]FileTypeStats {
	byAuthor := make(map[string]FileTypeStats)
	for _, pr := range prs {
		author := pr.Author()
		if _, ok := byAuthor[author]; !ok {
			byAuthor[author] = make(FileTypeStats)
		}
		byAuthor[author].Merge(pr.FileTypeStats)
	}
	return byAuthor
}

// GroupByStateAndAuthor partitions pull requests into open and closed, then by author.
func GroupByStateAndAuthor(prs []PullRequest) StateGroups {
	groups := StateGroups{
		Open:   make(AuthorGroups),
		Closed: make(AuthorGroups),
	}
	for _, pr := range prs {
		target := groups.Closed
		if pr.IsOpen() {
			target = groups.Open
		}
		author := pr.Author()
		target[author] = append(target[author], pr)
	}
	return groups
}

// ClosedCountsByAuthor counts closed pull requests per author.
// The result is sorted by count descending, ties by author ascending.
func ClosedCountsByAuthor(prs []PullRequest) []AuthorCount {
	closed := GroupByStateAndAuthor(prs).Closed
	counts := make([]AuthorCount, 0, len(closed))
	for author, list := range closed {
		counts = append(counts, AuthorCount{User: author, Count: len(list)})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].User < counts[j].User
	})
	return counts
}

// UniqueAuthors returns the distinct authors of the pull requests in ascending order.
func UniqueAuthors(prs []PullRequest) []string {
	seen := make(map[string]struct{})
	authors := make([]string, 0)
	for _, pr := range prs {
		author := pr.Author()
		if _, ok := seen[author]; ok {
			continue
		}
		seen[author] = struct{}{}
		authors = append(authors, author)
	}
	sort.Strings(authors)
	return authors
}
