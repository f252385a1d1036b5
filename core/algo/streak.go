package algo

import (
	"slices"
	"time"
)

// LongestStreak returns the longest run of consecutive calendar days in days.
// Each entry is a date at midnight UTC; duplicates are ignored.
func LongestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	sorted := slices.Clone(days)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })
	sorted = slices.Compact(sorted)

	longest, current := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].AddDate(0, 0, 1).Equal(sorted[i]) {
			current++
		} else {
			current = 1
		}
		longest = max(longest, current)
	}
	return longest
}

// CivilDate truncates t to its calendar date in t's own location, returned as midnight UTC.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
