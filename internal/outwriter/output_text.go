package outwriter

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// histogramWidth is the longest bar drawn in the time-of-day table.
const histogramWidth = 30

// textWriter renders reports as titled tables.
type textWriter struct {
	w        io.Writer
	cfg      *contract.Config
	fmtFloat func(float64) string
}

// writeTextReports prints every report followed by a one-line run summary.
func writeTextReports(w io.Writer, reports []schema.Report, cfg *contract.Config, summary Summary) error {
	tx := &textWriter{w: w, cfg: cfg, fmtFloat: createFloatFormatter(cfg.Precision)}
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := tx.writeReport(r); err != nil {
			return fmt.Errorf("error writing %s table: %w", r.Kind(), err)
		}
	}
	_, err := fmt.Fprintf(w, "Walked %s commits (%s matched) in %v. Cache hits: %d\n",
		humanize.Comma(int64(summary.CommitsWalked)), humanize.Comma(int64(summary.CommitsMatched)),
		summary.Duration, summary.CacheHits)
	return err
}

func (t *textWriter) writeReport(r schema.Report) error {
	switch r := r.(type) {
	case *schema.ChurnReport:
		return t.writeChurn(r)
	case *schema.CommitFrequencyReport:
		return t.writeCommitFrequency(r)
	case *schema.CommitSizeReport:
		return t.writeCommitSize(r)
	case *schema.FrecencyReport:
		return t.writeFrecency(r)
	case *schema.OwnershipReport:
		return t.writeOwnership(r)
	case *schema.StreaksReport:
		return t.writeStreaks(r)
	case *schema.TimeOfDayReport:
		return t.writeTimeOfDay(r)
	case *schema.HoursReport:
		return t.writeHours(r)
	default:
		return fmt.Errorf("no text layout for %T", r)
	}
}

// table prints a colored title and renders rows below it.
func (t *textWriter) table(title string, headers []string, rows [][]string) error {
	if _, err := contract.HeaderColor.Fprintln(t.w, title); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(t.w, "(no data)")
		return err
	}
	table := tablewriter.NewWriter(t.w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func (t *textWriter) path(p string, fixedWidth int) string {
	return contract.TruncatePath(p, GetMaxTablePathWidth(t.cfg, fixedWidth))
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

// sortedByValue returns the keys of m ordered by value descending, then key.
func sortedByValue[V cmp.Ordered](m map[string]V) []string {
	keys := schema.SortedKeys(m)
	slices.SortStableFunc(keys, func(a, b string) int {
		return cmp.Compare(m[b], m[a])
	})
	return keys
}

func (t *textWriter) writeChurn(r *schema.ChurnReport) error {
	volume := make(map[string]int, len(r.Totals))
	for k, c := range r.Totals {
		volume[k] = c.Added + c.Removed
	}

	var rows [][]string
	for _, key := range sortedByValue(volume) {
		c := r.Totals[key]
		row := []string{key}
		if r.PerFile {
			row = []string{t.path(key, 45), r.Languages[key]}
		}
		rows = append(rows, append(row, comma(c.Added), comma(c.Removed), comma(c.Added-c.Removed)))
	}
	if r.PerFile {
		return t.table("Churn by file", []string{"Path", "Language", "Added", "Removed", "Net"}, rows)
	}
	return t.table("Churn by author", []string{"Author", "Added", "Removed", "Net"}, rows)
}

func (t *textWriter) writeCommitFrequency(r *schema.CommitFrequencyReport) error {
	countRows := func(m map[string]int) [][]string {
		rows := make([][]string, 0, len(m))
		for _, k := range schema.SortedKeys(m) {
			rows = append(rows, []string{k, comma(m[k])})
		}
		return rows
	}
	if err := t.table("Commits per day", []string{"Day", "Commits"}, countRows(r.CommitsPerDay)); err != nil {
		return err
	}
	if err := t.table("Commits per ISO week", []string{"Week", "Commits"}, countRows(r.CommitsPerWeek)); err != nil {
		return err
	}

	var rows [][]string
	for _, author := range sortedByValue(r.ActiveDaysPerAuthor) {
		rows = append(rows, []string{author, comma(r.ActiveDaysPerAuthor[author])})
	}
	return t.table("Active days per author", []string{"Author", "Days"}, rows)
}

func (t *textWriter) writeCommitSize(r *schema.CommitSizeReport) error {
	dist := func(name string, d schema.Distribution) []string {
		return []string{name, comma(d.Min), comma(d.Max), t.fmtFloat(d.Mean), t.fmtFloat(d.Median)}
	}
	title := fmt.Sprintf("Commit size (%s commits)", comma(r.Commits))
	if r.Commits == 0 {
		return t.table(title, nil, nil)
	}
	rows := [][]string{dist("Files changed", r.FilesChanged), dist("Lines changed", r.Lines)}
	if err := t.table(title, []string{"Measure", "Min", "Max", "Mean", "Median"}, rows); err != nil {
		return err
	}
	if len(r.LinePercentiles) == 0 {
		return nil
	}

	var pct [][]string
	for _, p := range r.LinePercentiles {
		pct = append(pct, []string{"p" + strconv.FormatFloat(p.P, 'f', -1, 64), comma(p.Value)})
	}
	return t.table("Lines changed percentiles", []string{"Percentile", "Lines"}, pct)
}

func (t *textWriter) writeFrecency(r *schema.FrecencyReport) error {
	if r.PathsOnly {
		for _, p := range r.Paths() {
			if _, err := fmt.Fprintln(t.w, p); err != nil {
				return err
			}
		}
		return nil
	}
	rows := make([][]string, 0, len(r.Scores))
	for i, s := range r.Scores {
		rows = append(rows, []string{strconv.Itoa(i + 1), t.path(s.Path, 35), t.fmtFloat(s.Score), s.Language})
	}
	return t.table("Frecency", []string{"Rank", "Path", "Score", "Language"}, rows)
}

func (t *textWriter) writeOwnership(r *schema.OwnershipReport) error {
	var rows [][]string
	for _, bucket := range schema.SortedKeys(r.Shares) {
		for _, author := range sortedByValue(r.Shares[bucket]) {
			rows = append(rows, []string{
				t.path(bucket, 55),
				author,
				comma(r.Touches[bucket][author]),
				t.fmtFloat(r.Shares[bucket][author]) + "%",
			})
		}
	}
	return t.table(fmt.Sprintf("Ownership (depth %d)", r.Depth), []string{"Bucket", "Author", "Touches", "Share"}, rows)
}

func (t *textWriter) writeStreaks(r *schema.StreaksReport) error {
	var rows [][]string
	for _, author := range sortedByValue(r.Longest) {
		rows = append(rows, []string{author, comma(r.Longest[author])})
	}
	return t.table("Longest commit streaks", []string{"Author", "Days"}, rows)
}

func (t *textWriter) writeTimeOfDay(r *schema.TimeOfDayReport) error {
	peak := 0
	for _, n := range r.Bins {
		peak = max(peak, n)
	}
	rows := make([][]string, 0, len(r.Bins))
	for i, n := range r.Bins {
		rows = append(rows, []string{r.Label(i), comma(n), histogramBar(n, peak)})
	}
	return t.table("Commits by hour of day (author local time)", []string{"Hours", "Commits", ""}, rows)
}

// histogramBar scales n against peak into at most histogramWidth blocks.
func histogramBar(n, peak int) string {
	if peak == 0 || n == 0 {
		return ""
	}
	return strings.Repeat("█", max(1, n*histogramWidth/peak))
}

func (t *textWriter) writeHours(r *schema.HoursReport) error {
	rows := [][]string{
		{"Total hours", t.fmtFloat(r.TotalHours)},
		{"Total 8h days", t.fmtFloat(r.Total8hDays)},
		{"Commits", comma(r.TotalCommits)},
		{"Authors", comma(r.TotalAuthors)},
	}
	if r.Files != nil {
		rows = append(rows,
			[]string{"Files added", comma(r.Files.Added)},
			[]string{"Files removed", comma(r.Files.Removed)},
			[]string{"Files modified", comma(r.Files.Modified)},
		)
	}
	if r.Lines != nil {
		rows = append(rows,
			[]string{"Lines added", comma(r.Lines.Added)},
			[]string{"Lines removed", comma(r.Lines.Removed)},
		)
	}
	if err := t.table("Estimated hours", []string{"Measure", "Value"}, rows); err != nil {
		return err
	}
	if len(r.Authors) == 0 {
		return nil
	}

	authors := make([][]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		authors = append(authors, []string{a.Author, t.fmtFloat(a.Hours), comma(a.Commits)})
	}
	return t.table("Hours by author", []string{"Author", "Hours", "Commits"}, authors)
}
