package agg

import (
	"context"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// Churn sums added and removed lines per author identity, or per path.
// Rewrites carry no line delta and are ignored.
type Churn struct {
	backend contract.Backend
	perFile bool
	totals  map[string]schema.LineCounts
	langs   map[string]string
}

var _ contract.Aggregator = &Churn{} // Compile-time check

// NewChurn returns an empty Churn aggregator.
func NewChurn(backend contract.Backend, opts contract.ChurnOptions) *Churn {
	return &Churn{
		backend: backend,
		perFile: opts.PerFile,
		totals:  make(map[string]schema.LineCounts),
		langs:   make(map[string]string),
	}
}

// Kind implements contract.Aggregator.
func (c *Churn) Kind() schema.AnalyzerKind { return schema.ChurnAnalyzer }

// Policy implements contract.Aggregator.
func (c *Churn) Policy() contract.ChangePolicy { return contract.FirstParentChanges }

// Update implements contract.Aggregator.
func (c *Churn) Update(_ context.Context, commit *contract.Commit, changes []contract.Change) error {
	for _, ch := range changes {
		var delta schema.LineCounts
		switch ch.Kind {
		case contract.Addition:
			delta.Added = c.blobLines(ch.NewID)
		case contract.Deletion:
			delta.Removed = c.blobLines(ch.OldID)
		case contract.Modification:
			stats, err := c.backend.LineDiffStats(ch.OldID, ch.NewID)
			if err != nil {
				warnBlob("line-diff", ch.NewID, err)
				continue
			}
			delta = schema.LineCounts{Added: stats.Insertions, Removed: stats.Removals}
		default:
			continue
		}

		key := commit.Author.Identity()
		if c.perFile {
			key = ch.Path
			if _, ok := c.langs[key]; !ok {
				c.langs[key] = contract.Language(key)
			}
		}
		total := c.totals[key]
		total.Added += delta.Added
		total.Removed += delta.Removed
		c.totals[key] = total
	}
	return nil
}

func (c *Churn) blobLines(id contract.ObjectID) int {
	n, err := c.backend.BlobLines(id)
	if err != nil {
		warnBlob("line-count", id, err)
		return 0
	}
	return n
}

// Finish implements contract.Aggregator.
func (c *Churn) Finish() schema.Report {
	report := &schema.ChurnReport{PerFile: c.perFile, Totals: c.totals}
	if c.perFile {
		report.Languages = c.langs
	}
	return report
}
