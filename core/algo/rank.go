// Package algo has the numeric building blocks of the analyzers.
package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/gitpulse/schema"
)

// RankScores sorts scores by value, descending unless ascending is set.
// Exactly equal scores are ordered by path so the result is deterministic.
func RankScores(scores []schema.FrecencyScore, ascending bool) {
	slices.SortStableFunc(scores, func(a, b schema.FrecencyScore) int {
		c := cmp.Compare(b.Score, a.Score)
		if ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
}
