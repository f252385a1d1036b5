package schema

import "time"

// AnalysisRunRecord represents a row from the gitpulse_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	RepoPath      string
	Analyzers     string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	CommitsWalked int32
	ConfigParams  *string
}

// MetricRecord represents a row from the gitpulse_report_metrics table.
type MetricRecord struct {
	AnalysisID int64
	Analyzer   string
	MetricKey  string
	SubKey     string
	Metric     string
	Value      float64
}
