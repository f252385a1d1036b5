package agg

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/huangsam/gitpulse/core/algo"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// CommitSize records files changed and lines changed per commit, using the
// backend's whole-commit diff statistics against the first parent.
type CommitSize struct {
	backend     contract.Backend
	filter      *contract.PathFilter
	percentiles []float64
	files       []int
	lines       []int
}

var _ contract.Aggregator = &CommitSize{} // Compile-time check

// NewCommitSize validates the requested percentiles and returns an empty aggregator.
// Only files passing filter are measured; nil measures every file.
func NewCommitSize(backend contract.Backend, filter *contract.PathFilter, opts contract.CommitSizeOptions) (*CommitSize, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &CommitSize{backend: backend, filter: filter, percentiles: slices.Clone(opts.Percentiles)}, nil
}

// Kind implements contract.Aggregator.
func (s *CommitSize) Kind() schema.AnalyzerKind { return schema.CommitSizeAnalyzer }

// Policy implements contract.Aggregator.
func (s *CommitSize) Policy() contract.ChangePolicy { return contract.NoChanges }

// Update implements contract.Aggregator.
func (s *CommitSize) Update(ctx context.Context, commit *contract.Commit, _ []contract.Change) error {
	stats, err := s.backend.DiffStats(ctx, commit, commit.FirstParent(), s.filter)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, contract.ErrCorruptHistory) {
			return err
		}
		slog.Warn("diff stats unavailable, skipping commit", "commit", commit.ID.String(), "error", err)
		return nil
	}
	s.files = append(s.files, stats.FilesChanged)
	s.lines = append(s.lines, stats.LinesAdded+stats.LinesRemoved)
	return nil
}

// Finish implements contract.Aggregator.
func (s *CommitSize) Finish() schema.Report {
	report := &schema.CommitSizeReport{
		Commits:      len(s.lines),
		FilesChanged: algo.Summarize(s.files),
		Lines:        algo.Summarize(s.lines),
	}
	if len(s.lines) == 0 {
		return report
	}
	sorted := slices.Clone(s.lines)
	slices.Sort(sorted)
	for _, p := range s.percentiles {
		report.LinePercentiles = append(report.LinePercentiles, schema.Percentile{P: p, Value: algo.Percentile(sorted, p)})
	}
	return report
}
