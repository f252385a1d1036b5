// Package outwriter renders reports as text tables, JSON, CSV or Parquet.
package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/parquet"
	"github.com/huangsam/gitpulse/schema"
)

// Summary describes the run that produced a set of reports.
type Summary struct {
	Duration       time.Duration
	CommitsWalked  int
	CommitsMatched int
	CacheHits      int
	AnalysisID     int64
}

// WriteReports outputs reports, dispatching based on the output format configured.
func WriteReports(reports []schema.Report, cfg *contract.Config, summary Summary) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteJSONReports(w, reports)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVReports(w, reports, cfg.Precision)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetReports(reports, cfg.OutputFile, summary.AnalysisID)
	default:
		// Default to human-readable tables
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTextReports(w, reports, cfg, summary)
		}, "Wrote tables")
	}
}

// LogAnalysisHeader prints a concise, 2-line header for an analysis.
func LogAnalysisHeader(w io.Writer, cfg *contract.Config, kinds []schema.AnalyzerKind) {
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	// Line 1: The analysis summary (Repo and Analyzers)
	_, _ = fmt.Fprintf(w, "🔎 Repo: %s (Analyzers: %s)\n", repoName, strings.Join(names, ", "))

	// Line 2: The revision range being walked
	since := cfg.Since
	if since == "" {
		since = "root"
	}
	_, _ = fmt.Fprintf(w, "📅 Range: %s → %s\n", since, cfg.StartSpec())
}

// WriteJSONReports writes a single report as itself and several reports as an
// object keyed by analyzer. A paths-only frecency report becomes a path list.
func WriteJSONReports(w io.Writer, reports []schema.Report) error {
	if len(reports) == 1 {
		return writeJSON(w, jsonValue(reports[0]))
	}
	byKind := make(map[schema.AnalyzerKind]any, len(reports))
	for _, r := range reports {
		byKind[r.Kind()] = jsonValue(r)
	}
	return writeJSON(w, byKind)
}

func jsonValue(r schema.Report) any {
	if f, ok := r.(*schema.FrecencyReport); ok && f.PathsOnly {
		return f.Paths()
	}
	return r
}

// writeCSVReports writes the metric rows of every report under one header.
// A lone paths-only frecency report is written as a single path column.
func writeCSVReports(w io.Writer, reports []schema.Report, precision int) error {
	if len(reports) == 1 {
		if f, ok := reports[0].(*schema.FrecencyReport); ok && f.PathsOnly {
			return writeCSVWithHeader(w, []string{"path"}, func(cw *csv.Writer) error {
				for _, p := range f.Paths() {
					if err := cw.Write([]string{p}); err != nil {
						return err
					}
				}
				return nil
			})
		}
	}

	fmtFloat := createFloatFormatter(precision)
	header := []string{"analyzer", "key", "sub_key", "metric", "value"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			for _, row := range r.Rows() {
				rec := []string{
					string(row.Analyzer),
					row.Key,
					row.SubKey,
					row.Metric,
					formatMetricValue(row.Value, fmtFloat),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeParquetReports writes the metric rows of every report to a Parquet file.
func writeParquetReports(reports []schema.Report, outputFile string, analysisID int64) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	rows := parquet.ConvertReportRows(analysisID, reports)
	if err := parquet.WriteMetricRowsParquet(rows, outputFile); err != nil {
		return fmt.Errorf("error writing Parquet output: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet (%d rows) to %s\n", len(rows), outputFile)
	return nil
}
