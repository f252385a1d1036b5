package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/parquet"
)

// ExportAnalysis writes every stored run and metric row of store to two
// Parquet files prefixed by outputFile, and reports progress to w.
func ExportAnalysis(w io.Writer, store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is disabled")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total analysis runs: %s\n", humanize.Comma(int64(status.TotalRuns)))
	_, _ = fmt.Fprintf(w, "Total metric rows: %s\n", humanize.Comma(status.TableSizes[reportMetricsTable]))

	runs, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	metrics, err := store.GetAllMetrics()
	if err != nil {
		return fmt.Errorf("failed to retrieve report metrics: %w", err)
	}

	runsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(parquet.ConvertAnalysisRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d analysis runs to: %s\n", len(runs), runsFile)

	metricsFile := outputFile + ".report_metrics.parquet"
	if err := parquet.WriteMetricRowsParquet(parquet.ConvertMetricRecords(metrics), metricsFile); err != nil {
		return fmt.Errorf("failed to write report metrics: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d metric rows to: %s\n", len(metrics), metricsFile)
	return nil
}
