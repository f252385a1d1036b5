package algo

import (
	"slices"
	"time"
)

// Hours estimation constants.
const (
	MaxCommitGap      = 2 * time.Hour // gaps above this start a new session
	FirstCommitCredit = 2 * time.Hour // time credited before the first commit of a session
)

// TimeOfDayBucket maps an hour in 0..23 onto one of bins equal-width buckets.
func TimeOfDayBucket(hour, bins int) int {
	return hour * bins / 24
}

// EstimateHours estimates working hours from commit times in unix seconds.
// The first commit is credited FirstCommitCredit; every later commit is
// credited the gap to its predecessor when shorter than MaxCommitGap, and
// FirstCommitCredit otherwise.
func EstimateHours(times []int64) float64 {
	if len(times) == 0 {
		return 0
	}
	sorted := slices.Clone(times)
	slices.Sort(sorted)

	total := FirstCommitCredit
	for i := 1; i < len(sorted); i++ {
		gap := time.Duration(sorted[i]-sorted[i-1]) * time.Second
		if gap < MaxCommitGap {
			total += gap
		} else {
			total += FirstCommitCredit
		}
	}
	return total.Hours()
}
