package domain

import (
	"fmt"
	"time"
)

// WeeklyCount is the number of pull requests created in one ISO week.
type WeeklyCount struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

// ISOWeekLabel formats the ISO-8601 week of t (in UTC) as "YYYY-Www".
func ISOWeekLabel(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// WeekStart returns midnight UTC of the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// weekRange lists the ISO week labels from the week of from through the week of to.
func weekRange(from, to time.Time) []string {
	var weeks []string
	for cur, end := WeekStart(from), WeekStart(to); !cur.After(end); cur = cur.AddDate(0, 0, 7) {
		weeks = append(weeks, ISOWeekLabel(cur))
	}
	return weeks
}

// WeeklySeries counts pull requests per author and ISO week.
//
// The week range is global: it runs from the week of the earliest created_at
// to the week of the latest one across all authors, so every author gets the
// same contiguous list of weeks with zero for weeks without pull requests.
func WeeklySeries(prs []PullRequest) map[string][]WeeklyCount {
	series := make(map[string][]WeeklyCount)
	if len(prs) == 0 {
		return series
	}

	minDate, maxDate := prs[0].CreatedAt, prs[0].CreatedAt
	counts := make(map[string]map[string]int)
	for _, pr := range prs {
		if pr.CreatedAt.Before(minDate) {
			minDate = pr.CreatedAt
		}
		if pr.CreatedAt.After(maxDate) {
			maxDate = pr.CreatedAt
		}
		author := pr.Author()
		if counts[author] == nil {
			counts[author] = make(map[string]int)
		}
		counts[author][ISOWeekLabel(pr.CreatedAt)]++
	}

	weeks := weekRange(minDate, maxDate)
	for author, byWeek := range counts {
		entries := make([]WeeklyCount, 0, len(weeks))
		for _, week := range weeks {
			entries = append(entries, WeeklyCount{Week: week, Count: byWeek[week]})
		}
		series[author] = entries
	}
	return series
}
