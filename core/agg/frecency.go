package agg

import (
	"context"

	"github.com/huangsam/gitpulse/core/algo"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// Frecency scores paths by how recently and how often they changed.
// Every added or modified blob adds weight(commit age) * size_penalty(blob size)
// to its path. Merge commits are never delivered.
type Frecency struct {
	backend contract.Backend
	opts    contract.FrecencyOptions
	now     int64
	allow   map[string]struct{}

	sizes      map[contract.ObjectID]int64
	scores     map[string]float64
	considered int
}

var _ contract.Aggregator = &Frecency{} // Compile-time check

// NewFrecency validates the options and returns an empty aggregator.
func NewFrecency(backend contract.Backend, opts contract.FrecencyOptions) (*Frecency, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f := &Frecency{
		backend: backend,
		opts:    opts,
		now:     opts.Now.Unix(),
		sizes:   make(map[contract.ObjectID]int64),
		scores:  make(map[string]float64),
	}
	if len(opts.Paths) > 0 {
		f.allow = make(map[string]struct{}, len(opts.Paths))
		for _, p := range opts.Paths {
			f.allow[p] = struct{}{}
		}
	}
	return f, nil
}

// Kind implements contract.Aggregator.
func (f *Frecency) Kind() schema.AnalyzerKind { return schema.FrecencyAnalyzer }

// Policy implements contract.Aggregator.
func (f *Frecency) Policy() contract.ChangePolicy { return contract.SkipMergeChanges }

// Update implements contract.Aggregator. It returns contract.ErrStopWalk once
// MaxCommits commits have been considered.
func (f *Frecency) Update(_ context.Context, commit *contract.Commit, changes []contract.Change) error {
	weight := algo.AgeWeight(algo.AgeDays(f.now, commit.Committer.Time), f.opts.AgeExponent)
	for _, ch := range changes {
		if ch.Kind != contract.Addition && ch.Kind != contract.Modification {
			continue
		}
		if f.allow != nil {
			if _, ok := f.allow[ch.Path]; !ok {
				continue
			}
		}
		f.scores[ch.Path] += weight * algo.SizePenalty(f.blobSize(ch.NewID), f.opts.SizeRef)
	}

	f.considered++
	if f.opts.MaxCommits > 0 && f.considered >= f.opts.MaxCommits {
		return contract.ErrStopWalk
	}
	return nil
}

// blobSize reads a blob size once per run. Failures count as size 0.
func (f *Frecency) blobSize(id contract.ObjectID) int64 {
	if size, ok := f.sizes[id]; ok {
		return size
	}
	size, err := f.backend.BlobSize(id)
	if err != nil {
		warnBlob("size", id, err)
		size = 0
	}
	f.sizes[id] = size
	return size
}

// Finish implements contract.Aggregator.
func (f *Frecency) Finish() schema.Report {
	scores := make([]schema.FrecencyScore, 0, len(f.scores))
	for path, score := range f.scores {
		scores = append(scores, schema.FrecencyScore{Path: path, Score: score, Language: contract.Language(path)})
	}
	algo.RankScores(scores, f.opts.Ascending)
	return &schema.FrecencyReport{Scores: scores, PathsOnly: f.opts.PathsOnly}
}
