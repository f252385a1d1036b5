package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// RunOptions bounds and filters one walk.
type RunOptions struct {
	StartSpec string
	SinceSpec string
	Author    string
	Filter    *contract.PathFilter
}

// RunStats describes what a walk did.
type RunStats struct {
	CommitsWalked  int  // commits read from history
	CommitsMatched int  // commits that passed the author filter
	Empty          bool // the repository had no commits
}

// Run feeds every aggregator from a single history walk and returns their
// reports in argument order. An empty repository yields empty reports. When ctx
// is cancelled the partial reports are returned together with the context error.
func Run(ctx context.Context, backend contract.Backend, opts RunOptions, aggs ...contract.Aggregator) ([]schema.Report, RunStats, error) {
	var stats RunStats

	r, err := ResolveRange(backend, opts.StartSpec, opts.SinceSpec)
	if errors.Is(err, contract.ErrEmptyRepository) {
		stats.Empty = true
		return finishAll(aggs), stats, nil
	}
	if err != nil {
		return nil, stats, err
	}
	if len(aggs) == 0 {
		return nil, stats, nil
	}

	author := NewAuthorFilter(opts.Author)
	extractor := NewExtractor(backend, opts.Filter)
	done := make([]bool, len(aggs))
	remaining := len(aggs)

	visit := func(commit *contract.Commit) error {
		if !author.Match(commit.Author) {
			return nil
		}
		stats.CommitsMatched++

		for i, agg := range aggs {
			if done[i] {
				continue
			}
			err := deliver(ctx, extractor, agg, commit)
			if errors.Is(err, contract.ErrStopWalk) {
				slog.Debug("aggregator finished early", "analyzer", agg.Kind(), "commit", commit.ID.String())
				done[i] = true
				remaining--
				continue
			}
			if err != nil {
				return err
			}
		}
		if remaining == 0 {
			return contract.ErrStopWalk
		}
		return nil
	}

	stats.CommitsWalked, err = Walk(ctx, backend, r, visit)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return finishAll(aggs), stats, err
		}
		return nil, stats, err
	}
	return finishAll(aggs), stats, nil
}

// deliver hands one commit to agg according to its change policy.
func deliver(ctx context.Context, extractor *Extractor, agg contract.Aggregator, commit *contract.Commit) error {
	switch agg.Policy() {
	case contract.NoChanges:
		return agg.Update(ctx, commit, nil)
	case contract.SkipMergeChanges:
		if commit.IsMerge() {
			return nil
		}
	}
	changes, err := extractor.Changes(ctx, commit)
	if err != nil {
		return err
	}
	return agg.Update(ctx, commit, changes)
}

func finishAll(aggs []contract.Aggregator) []schema.Report {
	reports := make([]schema.Report, len(aggs))
	for i, agg := range aggs {
		reports[i] = agg.Finish()
	}
	return reports
}
