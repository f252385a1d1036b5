package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// AnalyzerKind names one of the history analyzers.
	AnalyzerKind string

	// DatabaseBackend represents the database backend for caching and analysis tracking.
	DatabaseBackend string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All analyzers supported.
const (
	ChurnAnalyzer           AnalyzerKind = "churn"
	CommitFrequencyAnalyzer AnalyzerKind = "commit-frequency"
	CommitSizeAnalyzer      AnalyzerKind = "commit-size"
	FrecencyAnalyzer        AnalyzerKind = "frecency"
	OwnershipAnalyzer       AnalyzerKind = "ownership"
	StreaksAnalyzer         AnalyzerKind = "streaks"
	TimeOfDayAnalyzer       AnalyzerKind = "time-of-day"
	HoursAnalyzer           AnalyzerKind = "hours"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// AllAnalyzers lists every analyzer in report order.
var AllAnalyzers = []AnalyzerKind{
	ChurnAnalyzer,
	CommitFrequencyAnalyzer,
	CommitSizeAnalyzer,
	FrecencyAnalyzer,
	OwnershipAnalyzer,
	StreaksAnalyzer,
	TimeOfDayAnalyzer,
	HoursAnalyzer,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidAnalyzers lists all valid analyzer kinds.
var ValidAnalyzers = map[AnalyzerKind]struct{}{
	ChurnAnalyzer:           {},
	CommitFrequencyAnalyzer: {},
	CommitSizeAnalyzer:      {},
	FrecencyAnalyzer:        {},
	OwnershipAnalyzer:       {},
	StreaksAnalyzer:         {},
	TimeOfDayAnalyzer:       {},
	HoursAnalyzer:           {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
