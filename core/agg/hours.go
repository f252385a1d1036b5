package agg

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/huangsam/gitpulse/core/algo"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// botMarker identifies automation accounts such as "dependabot[bot]".
const botMarker = "[bot]"

// Hours estimates working time from commit timestamps per author.
type Hours struct {
	backend contract.Backend
	filter  *contract.PathFilter
	opts    contract.HoursOptions

	times   map[string][]int64
	names   map[string]string
	commits int
	files   schema.FileCounts
	lines   schema.LineCounts
}

var _ contract.Aggregator = &Hours{} // Compile-time check

// NewHours returns an empty Hours aggregator. Line stats only count files
// passing filter; nil counts every file.
func NewHours(backend contract.Backend, filter *contract.PathFilter, opts contract.HoursOptions) *Hours {
	return &Hours{
		backend: backend,
		filter:  filter,
		opts:    opts,
		times:   make(map[string][]int64),
		names:   make(map[string]string),
	}
}

// Kind implements contract.Aggregator.
func (h *Hours) Kind() schema.AnalyzerKind { return schema.HoursAnalyzer }

// Policy implements contract.Aggregator. Change lists are only needed for file stats.
func (h *Hours) Policy() contract.ChangePolicy {
	if h.opts.FileStats {
		return contract.FirstParentChanges
	}
	return contract.NoChanges
}

// Update implements contract.Aggregator.
func (h *Hours) Update(ctx context.Context, commit *contract.Commit, changes []contract.Change) error {
	if h.opts.NoBots && strings.Contains(commit.Author.Name, botMarker) {
		return nil
	}

	key := h.identityKey(commit.Author)
	if _, ok := h.names[key]; !ok {
		h.names[key] = commit.Author.Identity()
	}
	h.times[key] = append(h.times[key], commit.Author.Time)
	h.commits++

	if h.opts.FileStats {
		for _, ch := range changes {
			switch ch.Kind {
			case contract.Addition:
				h.files.Added++
			case contract.Deletion:
				h.files.Removed++
			default:
				h.files.Modified++
			}
		}
	}

	if h.opts.LineStats {
		stats, err := h.backend.DiffStats(ctx, commit, commit.FirstParent(), h.filter)
		switch {
		case err == nil:
			h.lines.Added += stats.LinesAdded
			h.lines.Removed += stats.LinesRemoved
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, contract.ErrCorruptHistory):
			return err
		default:
			slog.Warn("diff stats unavailable", "commit", commit.ID.String(), "error", err)
		}
	}
	return nil
}

// identityKey unifies identities by email unless disabled.
func (h *Hours) identityKey(sig contract.Signature) string {
	if h.opts.OmitUnifyIdentities {
		return sig.Identity()
	}
	if sig.Email != "" {
		return strings.ToLower(sig.Email)
	}
	return strings.ToLower(sig.Name)
}

// Finish implements contract.Aggregator.
func (h *Hours) Finish() schema.Report {
	report := &schema.HoursReport{
		TotalCommits: h.commits,
		TotalAuthors: len(h.times),
	}
	authors := make([]schema.AuthorHours, 0, len(h.times))
	for _, key := range schema.SortedKeys(h.times) {
		times := h.times[key]
		hours := algo.EstimateHours(times)
		report.TotalHours += hours
		authors = append(authors, schema.AuthorHours{Author: h.names[key], Hours: hours, Commits: len(times)})
	}
	report.Total8hDays = report.TotalHours / 8

	if h.opts.ShowPII {
		slices.SortFunc(authors, func(a, b schema.AuthorHours) int {
			if c := cmp.Compare(b.Hours, a.Hours); c != 0 {
				return c
			}
			return cmp.Compare(a.Author, b.Author)
		})
		report.Authors = authors
	}
	if h.opts.FileStats {
		files := h.files
		report.Files = &files
	}
	if h.opts.LineStats {
		lines := h.lines
		report.Lines = &lines
	}
	return report
}
