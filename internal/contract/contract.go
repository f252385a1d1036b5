// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/gitpulse/schema"
)

// Backend defines the version-control operations the analysis engine needs.
// This allows the core walk and aggregation logic to be tested without a real repository.
type Backend interface {
	// --- Revision Resolution ---

	// ResolveRevision resolves a branch, tag, hash or symbolic ref to a commit id.
	// Failures wrap ErrUnresolvableRevision.
	ResolveRevision(spec string) (ObjectID, error)

	// HasCommits reports whether HEAD points at a commit (false for an unborn HEAD).
	HasCommits() (bool, error)

	// --- History ---

	// Ancestors returns a lazy iterator over start and its ancestors, most recent first.
	Ancestors(ctx context.Context, start ObjectID) (AncestorIter, error)

	// LoadCommit reads the metadata of one commit. Failures wrap ErrCorruptHistory.
	LoadCommit(id ObjectID) (*Commit, error)

	// --- Diffs ---

	// TreeDiff lists path-level changes between the tree of base (nil means the empty
	// tree) and the tree of commit, with rename detection enabled.
	TreeDiff(ctx context.Context, commit *Commit, base *ObjectID) ([]Change, error)

	// LineDiffStats counts inserted and removed lines between two blobs.
	LineDiffStats(oldID, newID ObjectID) (LineStats, error)

	// DiffStats summarizes the whole-commit diff between base (nil means the empty tree) and commit.
	// Only blob entries whose path passes filter are counted; a nil filter keeps every path.
	DiffStats(ctx context.Context, commit *Commit, base *ObjectID, filter *PathFilter) (DiffStats, error)

	// --- Blobs ---

	// BlobSize returns the byte length of a blob without reading its content.
	BlobSize(id ObjectID) (int64, error)

	// BlobLines returns the number of lines of a blob.
	BlobLines(id ObjectID) (int, error)
}

// AncestorIter yields commit ids in walk order. Next returns io.EOF when exhausted.
type AncestorIter interface {
	Next() (ObjectID, error)
	Close()
}

// ChangePolicy tells the engine which change list an aggregator needs for each commit.
type ChangePolicy int

// Change policies.
const (
	// NoChanges skips diff extraction entirely.
	NoChanges ChangePolicy = iota
	// FirstParentChanges diffs every commit against its first parent (or the empty tree).
	FirstParentChanges
	// SkipMergeChanges behaves like FirstParentChanges but never delivers merge commits.
	SkipMergeChanges
)

// Aggregator folds a stream of commits into a single report.
type Aggregator interface {
	// Kind identifies the analyzer.
	Kind() schema.AnalyzerKind

	// Policy selects the change list delivered to Update.
	Policy() ChangePolicy

	// Update consumes one commit in walk order. Returning ErrStopWalk marks the
	// aggregator as done after this commit.
	Update(ctx context.Context, commit *Commit, changes []Change) error

	// Finish converts the accumulated state into a report.
	Finish() schema.Report
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetReportStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking analysis runs and storing report metrics.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its unique ID
	BeginAnalysis(run AnalysisRun) (int64, error)

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, commitsWalked int) error

	// RecordMetrics stores the flattened rows of a report
	RecordMetrics(analysisID int64, rows []schema.MetricRow) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every stored run ordered by ID
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllMetrics returns every stored metric row ordered by run
	GetAllMetrics() ([]schema.MetricRecord, error)

	// Close closes the underlying connection
	Close() error
}

// AnalysisRun describes a run at the moment it starts.
type AnalysisRun struct {
	RunUUID      string
	RepoPath     string
	Analyzers    []schema.AnalyzerKind
	StartTime    time.Time
	ConfigParams map[string]any
}
