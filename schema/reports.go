package schema

import (
	"fmt"
	"strconv"
)

// LineCounts holds added and removed line totals.
type LineCounts struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// ChurnReport holds line totals keyed by author identity or by file path.
type ChurnReport struct {
	PerFile   bool                  `json:"per_file"`
	Totals    map[string]LineCounts `json:"totals"`
	Languages map[string]string     `json:"languages,omitempty"`
}

// Kind implements Report.
func (r *ChurnReport) Kind() AnalyzerKind { return ChurnAnalyzer }

// Rows implements Report.
func (r *ChurnReport) Rows() []MetricRow {
	rows := make([]MetricRow, 0, 2*len(r.Totals))
	for _, key := range SortedKeys(r.Totals) {
		c := r.Totals[key]
		rows = append(rows,
			MetricRow{Analyzer: ChurnAnalyzer, Key: key, Metric: "added", Value: float64(c.Added)},
			MetricRow{Analyzer: ChurnAnalyzer, Key: key, Metric: "removed", Value: float64(c.Removed)},
		)
	}
	return rows
}

// CommitFrequencyReport holds commit counts per day and ISO week and active days per author.
type CommitFrequencyReport struct {
	CommitsPerDay       map[string]int `json:"commits_per_day"`
	CommitsPerWeek      map[string]int `json:"commits_per_week"`
	ActiveDaysPerAuthor map[string]int `json:"active_days_per_author"`
}

// Kind implements Report.
func (r *CommitFrequencyReport) Kind() AnalyzerKind { return CommitFrequencyAnalyzer }

// Rows implements Report.
func (r *CommitFrequencyReport) Rows() []MetricRow {
	var rows []MetricRow
	for _, day := range SortedKeys(r.CommitsPerDay) {
		rows = append(rows, MetricRow{Analyzer: CommitFrequencyAnalyzer, Key: day, Metric: "commits_per_day", Value: float64(r.CommitsPerDay[day])})
	}
	for _, week := range SortedKeys(r.CommitsPerWeek) {
		rows = append(rows, MetricRow{Analyzer: CommitFrequencyAnalyzer, Key: week, Metric: "commits_per_week", Value: float64(r.CommitsPerWeek[week])})
	}
	for _, author := range SortedKeys(r.ActiveDaysPerAuthor) {
		rows = append(rows, MetricRow{Analyzer: CommitFrequencyAnalyzer, Key: author, Metric: "active_days", Value: float64(r.ActiveDaysPerAuthor[author])})
	}
	return rows
}

// Distribution summarizes a list of per-commit values.
type Distribution struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Percentile is one requested percentile of the line-count distribution.
type Percentile struct {
	P     float64 `json:"p"`
	Value int     `json:"value"`
}

// CommitSizeReport summarizes files changed and lines changed per commit.
type CommitSizeReport struct {
	Commits         int          `json:"commits"`
	FilesChanged    Distribution `json:"files_changed"`
	Lines           Distribution `json:"lines"`
	LinePercentiles []Percentile `json:"line_percentiles,omitempty"`
}

// Kind implements Report.
func (r *CommitSizeReport) Kind() AnalyzerKind { return CommitSizeAnalyzer }

// Rows implements Report.
func (r *CommitSizeReport) Rows() []MetricRow {
	rows := []MetricRow{{Analyzer: CommitSizeAnalyzer, Key: "commits", Metric: "count", Value: float64(r.Commits)}}
	for _, d := range []struct {
		key  string
		dist Distribution
	}{{"files_changed", r.FilesChanged}, {"lines", r.Lines}} {
		rows = append(rows,
			MetricRow{Analyzer: CommitSizeAnalyzer, Key: d.key, Metric: "min", Value: float64(d.dist.Min)},
			MetricRow{Analyzer: CommitSizeAnalyzer, Key: d.key, Metric: "max", Value: float64(d.dist.Max)},
			MetricRow{Analyzer: CommitSizeAnalyzer, Key: d.key, Metric: "mean", Value: d.dist.Mean},
			MetricRow{Analyzer: CommitSizeAnalyzer, Key: d.key, Metric: "median", Value: d.dist.Median},
		)
	}
	for _, p := range r.LinePercentiles {
		rows = append(rows, MetricRow{
			Analyzer: CommitSizeAnalyzer,
			Key:      "lines",
			Metric:   "p" + strconv.FormatFloat(p.P, 'f', -1, 64),
			Value:    float64(p.Value),
		})
	}
	return rows
}

// FrecencyScore is the accumulated score of one path.
type FrecencyScore struct {
	Path     string  `json:"path"`
	Score    float64 `json:"score"`
	Language string  `json:"language,omitempty"`
}

// FrecencyReport holds path scores in their final sort order.
type FrecencyReport struct {
	Scores    []FrecencyScore `json:"scores"`
	PathsOnly bool            `json:"paths_only,omitempty"`
}

// Kind implements Report.
func (r *FrecencyReport) Kind() AnalyzerKind { return FrecencyAnalyzer }

// Rows implements Report.
func (r *FrecencyReport) Rows() []MetricRow {
	rows := make([]MetricRow, 0, len(r.Scores))
	for _, s := range r.Scores {
		rows = append(rows, MetricRow{Analyzer: FrecencyAnalyzer, Key: s.Path, Metric: "score", Value: s.Score})
	}
	return rows
}

// Paths returns the scored paths in report order.
func (r *FrecencyReport) Paths() []string {
	paths := make([]string, len(r.Scores))
	for i, s := range r.Scores {
		paths[i] = s.Path
	}
	return paths
}

// OwnershipReport holds per-bucket touch counts and the derived percentage shares.
type OwnershipReport struct {
	Depth   int                           `json:"depth"`
	Touches map[string]map[string]int     `json:"touches"`
	Shares  map[string]map[string]float64 `json:"shares"`
}

// Kind implements Report.
func (r *OwnershipReport) Kind() AnalyzerKind { return OwnershipAnalyzer }

// Rows implements Report.
func (r *OwnershipReport) Rows() []MetricRow {
	var rows []MetricRow
	for _, bucket := range SortedKeys(r.Shares) {
		for _, author := range SortedKeys(r.Shares[bucket]) {
			rows = append(rows,
				MetricRow{Analyzer: OwnershipAnalyzer, Key: bucket, SubKey: author, Metric: "touches", Value: float64(r.Touches[bucket][author])},
				MetricRow{Analyzer: OwnershipAnalyzer, Key: bucket, SubKey: author, Metric: "share_pct", Value: r.Shares[bucket][author]},
			)
		}
	}
	return rows
}

// StreaksReport holds the longest run of consecutive commit days per author.
type StreaksReport struct {
	Longest map[string]int `json:"longest_streaks"`
}

// Kind implements Report.
func (r *StreaksReport) Kind() AnalyzerKind { return StreaksAnalyzer }

// Rows implements Report.
func (r *StreaksReport) Rows() []MetricRow {
	rows := make([]MetricRow, 0, len(r.Longest))
	for _, author := range SortedKeys(r.Longest) {
		rows = append(rows, MetricRow{Analyzer: StreaksAnalyzer, Key: author, Metric: "longest_streak_days", Value: float64(r.Longest[author])})
	}
	return rows
}

// TimeOfDayReport holds commit counts per equal-width hour bucket.
type TimeOfDayReport struct {
	Bins []int `json:"bins"`
}

// Kind implements Report.
func (r *TimeOfDayReport) Kind() AnalyzerKind { return TimeOfDayAnalyzer }

// Rows implements Report.
func (r *TimeOfDayReport) Rows() []MetricRow {
	rows := make([]MetricRow, 0, len(r.Bins))
	for i, n := range r.Bins {
		rows = append(rows, MetricRow{Analyzer: TimeOfDayAnalyzer, Key: r.Label(i), Metric: "commits", Value: float64(n)})
	}
	return rows
}

// BinRange returns the first and last hour covered by bucket i.
// The bounds invert hour*bins/24 with ceiling division so they agree with bucket membership.
func (r *TimeOfDayReport) BinRange(i int) (start, end int) {
	bins := len(r.Bins)
	start = ceilDiv(i*24, bins)
	end = ceilDiv((i+1)*24, bins) - 1
	if i == bins-1 {
		end = 23
	}
	return start, end
}

// Label formats bucket i as "HH-HH".
func (r *TimeOfDayReport) Label(i int) string {
	start, end := r.BinRange(i)
	return fmt.Sprintf("%02d-%02d", start, end)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// AuthorHours is the estimated effort of one author.
type AuthorHours struct {
	Author  string  `json:"author"`
	Hours   float64 `json:"hours"`
	Commits int     `json:"commits"`
}

// FileCounts holds blob changes by kind.
type FileCounts struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

// HoursReport estimates time spent from commit timestamps.
type HoursReport struct {
	TotalHours   float64       `json:"total_hours"`
	Total8hDays  float64       `json:"total_8h_days"`
	TotalCommits int           `json:"total_commits"`
	TotalAuthors int           `json:"total_authors"`
	Authors      []AuthorHours `json:"authors,omitempty"`
	Files        *FileCounts   `json:"total_files,omitempty"`
	Lines        *LineCounts   `json:"total_lines,omitempty"`
}

// Kind implements Report.
func (r *HoursReport) Kind() AnalyzerKind { return HoursAnalyzer }

// Rows implements Report.
func (r *HoursReport) Rows() []MetricRow {
	rows := []MetricRow{
		{Analyzer: HoursAnalyzer, Key: "total", Metric: "hours", Value: r.TotalHours},
		{Analyzer: HoursAnalyzer, Key: "total", Metric: "8h_days", Value: r.Total8hDays},
		{Analyzer: HoursAnalyzer, Key: "total", Metric: "commits", Value: float64(r.TotalCommits)},
		{Analyzer: HoursAnalyzer, Key: "total", Metric: "authors", Value: float64(r.TotalAuthors)},
	}
	for _, a := range r.Authors {
		rows = append(rows,
			MetricRow{Analyzer: HoursAnalyzer, Key: a.Author, Metric: "hours", Value: a.Hours},
			MetricRow{Analyzer: HoursAnalyzer, Key: a.Author, Metric: "commits", Value: float64(a.Commits)},
		)
	}
	if r.Files != nil {
		rows = append(rows,
			MetricRow{Analyzer: HoursAnalyzer, Key: "files", Metric: "added", Value: float64(r.Files.Added)},
			MetricRow{Analyzer: HoursAnalyzer, Key: "files", Metric: "removed", Value: float64(r.Files.Removed)},
			MetricRow{Analyzer: HoursAnalyzer, Key: "files", Metric: "modified", Value: float64(r.Files.Modified)},
		)
	}
	if r.Lines != nil {
		rows = append(rows,
			MetricRow{Analyzer: HoursAnalyzer, Key: "lines", Metric: "added", Value: float64(r.Lines.Added)},
			MetricRow{Analyzer: HoursAnalyzer, Key: "lines", Metric: "removed", Value: float64(r.Lines.Removed)},
		)
	}
	return rows
}
