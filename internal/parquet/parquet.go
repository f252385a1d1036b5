// Package parquet exports gitpulse analysis data to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/gitpulse/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun is one tracked analysis run.
// This struct maps to the gitpulse_analysis_runs database table.
type AnalysisRun struct {
	AnalysisID int64  `parquet:"analysis_id,snappy"`
	RunUUID    string `parquet:"run_uuid,snappy"`
	RepoPath   string `parquet:"repo_path,snappy"`
	Analyzers  string `parquet:"analyzers,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	CommitsWalked int32      `parquet:"commits_walked,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// MetricRow is one flattened report measurement of a run.
// This struct maps to the gitpulse_report_metrics database table.
type MetricRow struct {
	AnalysisID int64   `parquet:"analysis_id,snappy"`
	Analyzer   string  `parquet:"analyzer,dict,snappy"`
	MetricKey  string  `parquet:"metric_key,snappy"`
	SubKey     string  `parquet:"sub_key,snappy"`
	Metric     string  `parquet:"metric,dict,snappy"`
	Value      float64 `parquet:"value,snappy"`
}

// WriteAnalysisRunsParquet writes runs to a Parquet file at outputPath.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteMetricRowsParquet writes metric rows to a Parquet file at outputPath.
func WriteMetricRowsParquet(data []MetricRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet infers the schema from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAnalysisRunRecords converts stored run records to their Parquet shape.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	out := make([]AnalysisRun, len(records))
	for i, r := range records {
		out[i] = AnalysisRun{
			AnalysisID:    r.AnalysisID,
			RunUUID:       r.RunUUID,
			RepoPath:      r.RepoPath,
			Analyzers:     r.Analyzers,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			CommitsWalked: r.CommitsWalked,
			ConfigParams:  r.ConfigParams,
		}
	}
	return out
}

// ConvertMetricRecords converts stored metric records to their Parquet shape.
func ConvertMetricRecords(records []schema.MetricRecord) []MetricRow {
	out := make([]MetricRow, len(records))
	for i, r := range records {
		out[i] = MetricRow{
			AnalysisID: r.AnalysisID,
			Analyzer:   r.Analyzer,
			MetricKey:  r.MetricKey,
			SubKey:     r.SubKey,
			Metric:     r.Metric,
			Value:      r.Value,
		}
	}
	return out
}

// ConvertReportRows converts the rows of live reports, tagged with analysisID.
func ConvertReportRows(analysisID int64, reports []schema.Report) []MetricRow {
	var out []MetricRow
	for _, report := range reports {
		for _, row := range report.Rows() {
			out = append(out, MetricRow{
				AnalysisID: analysisID,
				Analyzer:   string(row.Analyzer),
				MetricKey:  row.Key,
				SubKey:     row.SubKey,
				Metric:     row.Metric,
				Value:      row.Value,
			})
		}
	}
	return out
}
