package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/gitpulse/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestSchemaColumns(t *testing.T) {
	for name, tc := range map[string]struct {
		model   any
		columns []string
	}{
		"runs": {new(AnalysisRun), []string{
			"analysis_id", "run_uuid", "repo_path", "analyzers", "start_time",
			"end_time", "run_duration_ms", "commits_walked", "config_params",
		}},
		"metrics": {new(MetricRow), []string{
			"analysis_id", "analyzer", "metric_key", "sub_key", "metric", "value",
		}},
	} {
		s := parquet.SchemaOf(tc.model)
		for _, col := range tc.columns {
			_, ok := s.Lookup(col)
			assert.True(t, ok, "%s: column %s should exist", name, col)
		}
	}
}

func TestWriteAnalysisRunsParquet(t *testing.T) {
	now := time.Now()
	end := now.Add(90 * time.Second)
	duration := int32(90000)
	params := `{"analyzers":["churn"]}`
	data := []AnalysisRun{
		{AnalysisID: 1, RunUUID: "3f0c", RepoPath: "/src/app", Analyzers: "churn", StartTime: now,
			EndTime: &end, RunDurationMs: &duration, CommitsWalked: 412, ConfigParams: &params},
		{AnalysisID: 2, RunUUID: "9a1d", RepoPath: "/src/app", Analyzers: "streaks,hours", StartTime: now},
	}

	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteAnalysisRunsParquet(data, path))

	got := readAll[AnalysisRun](t, path)
	require.Len(t, got, 2)
	assert.Equal(t, "3f0c", got[0].RunUUID)
	assert.Equal(t, int32(412), got[0].CommitsWalked)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, end, *got[0].EndTime, time.Nanosecond)
	assert.Equal(t, params, *got[0].ConfigParams)
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].RunDurationMs)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteMetricRowsParquet(t *testing.T) {
	reports := []schema.Report{
		&schema.StreaksReport{Longest: map[string]int{"A <a>": 3}},
		&schema.OwnershipReport{
			Touches: map[string]map[string]int{"src": {"A <a>": 2}},
			Shares:  map[string]map[string]float64{"src": {"A <a>": 100}},
		},
	}
	rows := ConvertReportRows(7, reports)
	require.Len(t, rows, 3)

	path := filepath.Join(t.TempDir(), "metrics.parquet")
	require.NoError(t, WriteMetricRowsParquet(rows, path))

	got := readAll[MetricRow](t, path)
	assert.Equal(t, rows, got)
	assert.Equal(t, MetricRow{AnalysisID: 7, Analyzer: "ownership", MetricKey: "src", SubKey: "A <a>", Metric: "share_pct", Value: 100}, got[2])
}

func TestWriteParquet_EmptyAndInvalidPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteMetricRowsParquet(nil, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size(), "an empty file still carries the schema")

	assert.Error(t, WriteAnalysisRunsParquet(nil, "/nonexistent/directory/out.parquet"))
}

func TestConvertRecords(t *testing.T) {
	end := time.Unix(1700000100, 0)
	runs := ConvertAnalysisRunRecords([]schema.AnalysisRunRecord{
		{AnalysisID: 4, RunUUID: "u", RepoPath: "/r", Analyzers: "churn", StartTime: time.Unix(1700000000, 0), EndTime: &end, CommitsWalked: 9},
	})
	require.Len(t, runs, 1)
	assert.Equal(t, int64(4), runs[0].AnalysisID)
	assert.Equal(t, &end, runs[0].EndTime)

	metrics := ConvertMetricRecords([]schema.MetricRecord{
		{AnalysisID: 4, Analyzer: "churn", MetricKey: "a.go", Metric: "added", Value: 12},
	})
	assert.Equal(t, []MetricRow{{AnalysisID: 4, Analyzer: "churn", MetricKey: "a.go", Metric: "added", Value: 12}}, metrics)
}
