package cmd

import (
	"context"
	"fmt"

	"github.com/huangsam/gitpulse/core"
	"github.com/huangsam/gitpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runContext returns the context analyzer commands run with.
func runContext() context.Context {
	if viper.GetBool("quiet") {
		return core.WithSuppressHeader(rootCtx)
	}
	return rootCtx
}

// newAnalyzerCmd builds the command that runs a single analyzer.
func newAnalyzerCmd(kind schema.AnalyzerKind, short, long string) *cobra.Command {
	run := core.ExecuteAnalyzer(kind)
	return &cobra.Command{
		Use:     fmt.Sprintf("%s [repo-path]", kind),
		Short:   short,
		Long:    long,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: sharedSetupWrapper,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(runContext(), cfg, cacheManager)
		},
	}
}

var churnCmd = newAnalyzerCmd(schema.ChurnAnalyzer,
	"Show lines added and removed per author or per file.",
	`Sum the lines added and removed by every commit in range.

Merges are diffed against their first parent. Binary files count their
whole line content.

Examples:
  # Churn per author since the last release
  gitpulse churn --since v1.2.0

  # Churn per file, excluding vendored code
  gitpulse churn --per-file --skip-vendor`)

var commitFrequencyCmd = newAnalyzerCmd(schema.CommitFrequencyAnalyzer,
	"Count commits per day, ISO week, weekday and hour.",
	`Count commits by author-local calendar day, ISO week, weekday and hour.

Examples:
  # Commit cadence for one author
  gitpulse commit-frequency --author alice@example.com`)

var commitSizeCmd = newAnalyzerCmd(schema.CommitSizeAnalyzer,
	"Summarize commit sizes in changed lines.",
	`Report the mean, min, max and percentiles of lines changed per commit.

Examples:
  # Median and tail commit sizes
  gitpulse commit-size --percentiles 50,90,99`)

var frecencyCmd = newAnalyzerCmd(schema.FrecencyAnalyzer,
	"Rank files by how often and how recently they change.",
	`Score every file by the commits that touched it, weighting recent
commits higher. Merges are skipped.

Examples:
  # Files that matter right now
  gitpulse frecency --max-commits 500

  # Reproducible scores against a fixed reference time
  gitpulse frecency --now 2024-06-01T00:00:00Z --output json`)

var ownershipCmd = newAnalyzerCmd(schema.OwnershipAnalyzer,
	"Show each author's share of touches per directory.",
	`Group touched paths by their leading directories and report the
percentage of touches each author made. Merges are skipped.

Examples:
  # Ownership of top-level directories
  gitpulse ownership --depth 1

  # Ownership of Go sources two levels deep
  gitpulse ownership --depth 2 --path '*.go'`)

var streaksCmd = newAnalyzerCmd(schema.StreaksAnalyzer,
	"Show each author's longest run of consecutive commit days.",
	`Report the longest run of consecutive author-local days with at least
one commit, per author.

Examples:
  gitpulse streaks --since v1.0.0`)

var timeOfDayCmd = newAnalyzerCmd(schema.TimeOfDayAnalyzer,
	"Histogram of commits by author-local time of day.",
	`Split the day into equal bins and count commits per bin by author-local
hour.

Examples:
  # Morning, afternoon and night
  gitpulse time-of-day --bins 3`)

var hoursCmd = newAnalyzerCmd(schema.HoursAnalyzer,
	"Estimate hours worked from commit timestamps.",
	`Estimate hours worked per author. Each session starts with two hours and
grows by the gap between commits that are less than two hours apart.

Examples:
  # Team estimate without bots, with per-author detail
  gitpulse hours --no-bots --show-pii --line-stats`)

// analyzerCmds lists every single-analyzer command in report order.
var analyzerCmds = []*cobra.Command{
	churnCmd,
	commitFrequencyCmd,
	commitSizeCmd,
	frecencyCmd,
	ownershipCmd,
	streaksCmd,
	timeOfDayCmd,
	hoursCmd,
}

// reportCmd runs every analyzer over one walk.
var reportCmd = &cobra.Command{
	Use:   "report [repo-path]",
	Short: "Run every analyzer in a single pass over history.",
	Long: `Walk history once and feed every commit to all analyzers.

Analyzer options are read from .gitpulse.yaml and GITPULSE_ environment
variables (e.g. GITPULSE_BINS=4).

Examples:
  # Everything since the last tag, as JSON
  gitpulse report --since v1.2.0 --output json --output-file pulse.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteReport(runContext(), cfg, cacheManager)
	},
}
