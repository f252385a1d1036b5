package algo

import (
	"math"
	"slices"

	"github.com/huangsam/gitpulse/schema"
)

// Median returns the middle value of sorted, or the mean of the two middle
// values for an even length. An empty slice yields 0.
func Median(sorted []int) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
}

// Percentile interpolates linearly between the samples bracketing rank
// p/100*(n-1) and rounds to the nearest integer. p == 100 and single-sample
// inputs return the last value. sorted must be ascending and p in [0, 100].
func Percentile(sorted []int, p float64) int {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p == 100 || n == 1 {
		return sorted[n-1]
	}
	rank := p / 100 * float64(n-1)
	lower := math.Floor(rank)
	i := int(lower)
	lo, hi := float64(sorted[i]), float64(sorted[i+1])
	return int(math.Round(lo + (hi-lo)*(rank-lower)))
}

// Summarize returns min, max, mean and median of values. values is not modified.
func Summarize(values []int) schema.Distribution {
	if len(values) == 0 {
		return schema.Distribution{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	sum := 0
	for _, v := range sorted {
		sum += v
	}
	return schema.Distribution{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   float64(sum) / float64(len(sorted)),
		Median: Median(sorted),
	}
}
