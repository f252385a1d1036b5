package agg

import (
	"context"
	"time"

	"github.com/huangsam/gitpulse/core/algo"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// Streaks finds the longest run of consecutive author-local commit days per author.
type Streaks struct {
	days map[string]map[time.Time]struct{}
}

var _ contract.Aggregator = &Streaks{} // Compile-time check

// NewStreaks returns an empty Streaks aggregator.
func NewStreaks() *Streaks {
	return &Streaks{days: make(map[string]map[time.Time]struct{})}
}

// Kind implements contract.Aggregator.
func (s *Streaks) Kind() schema.AnalyzerKind { return schema.StreaksAnalyzer }

// Policy implements contract.Aggregator.
func (s *Streaks) Policy() contract.ChangePolicy { return contract.NoChanges }

// Update implements contract.Aggregator.
func (s *Streaks) Update(_ context.Context, commit *contract.Commit, _ []contract.Change) error {
	author := commit.Author.Identity()
	set, ok := s.days[author]
	if !ok {
		set = make(map[time.Time]struct{})
		s.days[author] = set
	}
	set[algo.CivilDate(commit.Author.Local())] = struct{}{}
	return nil
}

// Finish implements contract.Aggregator.
func (s *Streaks) Finish() schema.Report {
	longest := make(map[string]int, len(s.days))
	for author, set := range s.days {
		days := make([]time.Time, 0, len(set))
		for d := range set {
			days = append(days, d)
		}
		longest[author] = algo.LongestStreak(days)
	}
	return &schema.StreaksReport{Longest: longest}
}
