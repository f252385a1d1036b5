package agg

import (
	"context"
	"strings"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// RootBucket collects top-level files and every path at depth 0.
const RootBucket = "."

// Ownership counts blob touches per directory bucket and author.
// Merge commits are never delivered.
type Ownership struct {
	depth   int
	glob    *contract.PathGlob
	touches map[string]map[string]int
}

var _ contract.Aggregator = &Ownership{} // Compile-time check

// NewOwnership validates the options and returns an empty aggregator.
func NewOwnership(opts contract.OwnershipOptions) (*Ownership, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Ownership{
		depth:   opts.Depth,
		glob:    contract.NewPathGlob(opts.Path),
		touches: make(map[string]map[string]int),
	}, nil
}

// Kind implements contract.Aggregator.
func (o *Ownership) Kind() schema.AnalyzerKind { return schema.OwnershipAnalyzer }

// Policy implements contract.Aggregator.
func (o *Ownership) Policy() contract.ChangePolicy { return contract.SkipMergeChanges }

// Update implements contract.Aggregator. Every change kind counts as one touch.
func (o *Ownership) Update(_ context.Context, commit *contract.Commit, changes []contract.Change) error {
	author := commit.Author.Identity()
	for _, ch := range changes {
		if !o.glob.Match(ch.Path) {
			continue
		}
		bucket := Bucket(ch.Path, o.depth)
		byAuthor, ok := o.touches[bucket]
		if !ok {
			byAuthor = make(map[string]int)
			o.touches[bucket] = byAuthor
		}
		byAuthor[author]++
	}
	return nil
}

// Finish implements contract.Aggregator.
func (o *Ownership) Finish() schema.Report {
	shares := make(map[string]map[string]float64, len(o.touches))
	for bucket, byAuthor := range o.touches {
		total := 0
		for _, n := range byAuthor {
			total += n
		}
		pct := make(map[string]float64, len(byAuthor))
		if total > 0 {
			for author, n := range byAuthor {
				pct[author] = float64(n) * 100 / float64(total)
			}
		}
		shares[bucket] = pct
	}
	return &schema.OwnershipReport{Depth: o.depth, Touches: o.touches, Shares: shares}
}

// Bucket keeps the first depth segments of path. Depth 0 and top-level files
// fall into RootBucket; a path with fewer segments than depth is kept whole.
func Bucket(path string, depth int) string {
	if depth == 0 || !strings.Contains(path, "/") {
		return RootBucket
	}
	segments := strings.Split(path, "/")
	if len(segments) > depth {
		segments = segments[:depth]
	}
	return strings.Join(segments, "/")
}
