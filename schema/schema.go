// Package schema defines the report shapes, enums and persisted records shared by gitpulse.
package schema

import (
	"cmp"
	"maps"
	"slices"
)

// Report is the final, serializable output of one analyzer run.
type Report interface {
	// Kind identifies the analyzer that produced the report.
	Kind() AnalyzerKind

	// Rows flattens the report into metric rows for CSV, persistence and export.
	Rows() []MetricRow
}

// MetricRow is one flattened measurement of a report.
// Key is the primary grouping (author, path, day, bucket) and SubKey an optional
// secondary one (author within an ownership bucket).
type MetricRow struct {
	Analyzer AnalyzerKind `json:"analyzer"`
	Key      string       `json:"key"`
	SubKey   string       `json:"sub_key,omitempty"`
	Metric   string       `json:"metric"`
	Value    float64      `json:"value"`
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
