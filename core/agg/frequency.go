package agg

import (
	"context"
	"fmt"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// DayLayout formats author-local calendar dates.
const DayLayout = "2006-01-02"

// CommitFrequency counts commits per author-local day and ISO week, and the
// distinct active days of every author.
type CommitFrequency struct {
	perDay     map[string]int
	perWeek    map[string]int
	activeDays map[string]map[string]struct{}
}

var _ contract.Aggregator = &CommitFrequency{} // Compile-time check

// NewCommitFrequency returns an empty CommitFrequency aggregator.
func NewCommitFrequency() *CommitFrequency {
	return &CommitFrequency{
		perDay:     make(map[string]int),
		perWeek:    make(map[string]int),
		activeDays: make(map[string]map[string]struct{}),
	}
}

// Kind implements contract.Aggregator.
func (f *CommitFrequency) Kind() schema.AnalyzerKind { return schema.CommitFrequencyAnalyzer }

// Policy implements contract.Aggregator.
func (f *CommitFrequency) Policy() contract.ChangePolicy { return contract.NoChanges }

// Update implements contract.Aggregator.
func (f *CommitFrequency) Update(_ context.Context, commit *contract.Commit, _ []contract.Change) error {
	local := commit.Author.Local()
	day := local.Format(DayLayout)
	f.perDay[day]++
	f.perWeek[ISOWeekKey(local.ISOWeek())]++

	author := commit.Author.Identity()
	days, ok := f.activeDays[author]
	if !ok {
		days = make(map[string]struct{})
		f.activeDays[author] = days
	}
	days[day] = struct{}{}
	return nil
}

// Finish implements contract.Aggregator.
func (f *CommitFrequency) Finish() schema.Report {
	active := make(map[string]int, len(f.activeDays))
	for author, days := range f.activeDays {
		active[author] = len(days)
	}
	return &schema.CommitFrequencyReport{
		CommitsPerDay:       f.perDay,
		CommitsPerWeek:      f.perWeek,
		ActiveDaysPerAuthor: active,
	}
}

// ISOWeekKey formats an ISO year and week as "YYYY-Www".
func ISOWeekKey(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}
