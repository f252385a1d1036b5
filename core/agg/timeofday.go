package agg

import (
	"context"

	"github.com/huangsam/gitpulse/core/algo"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// TimeOfDay histograms commits by author-local hour.
type TimeOfDay struct {
	bins []int
}

var _ contract.Aggregator = &TimeOfDay{} // Compile-time check

// NewTimeOfDay validates the bin count and returns an empty aggregator.
func NewTimeOfDay(opts contract.TimeOfDayOptions) (*TimeOfDay, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &TimeOfDay{bins: make([]int, opts.Bins)}, nil
}

// Kind implements contract.Aggregator.
func (t *TimeOfDay) Kind() schema.AnalyzerKind { return schema.TimeOfDayAnalyzer }

// Policy implements contract.Aggregator.
func (t *TimeOfDay) Policy() contract.ChangePolicy { return contract.NoChanges }

// Update implements contract.Aggregator.
func (t *TimeOfDay) Update(_ context.Context, commit *contract.Commit, _ []contract.Change) error {
	t.bins[algo.TimeOfDayBucket(commit.Author.Local().Hour(), len(t.bins))]++
	return nil
}

// Finish implements contract.Aggregator.
func (t *TimeOfDay) Finish() schema.Report {
	return &schema.TimeOfDayReport{Bins: t.bins}
}
