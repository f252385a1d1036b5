package core

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// runTracker records one analysis run in the analysis store.
// A nil tracker ignores every call.
type runTracker struct {
	store contract.AnalysisStore
	id    int64
}

// beginAnalysis opens a run record. Tracking failures never fail the analysis.
func beginAnalysis(store contract.AnalysisStore, cfg *contract.Config, kinds []schema.AnalyzerKind) *runTracker {
	if store == nil {
		return nil
	}
	run := contract.AnalysisRun{
		RunUUID:      uuid.NewString(),
		RepoPath:     cfg.RepoPath,
		Analyzers:    kinds,
		StartTime:    time.Now(),
		ConfigParams: analysisParams(cfg, kinds),
	}
	id, err := store.BeginAnalysis(run)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return nil
	}
	if id == 0 {
		return nil
	}
	return &runTracker{store: store, id: id}
}

func (t *runTracker) analysisID() int64 {
	if t == nil {
		return 0
	}
	return t.id
}

// finish stores the metric rows of complete reports and closes the run.
// Reports of a failed or interrupted walk are not recorded.
func (t *runTracker) finish(reports []schema.Report, stats RunStats, runErr error) {
	if t == nil {
		return
	}
	if runErr == nil {
		for _, r := range reports {
			if err := t.store.RecordMetrics(t.id, r.Rows()); err != nil {
				logTrackingError("record metrics", r.Kind(), err)
			}
		}
	}
	if err := t.store.EndAnalysis(t.id, time.Now(), stats.CommitsWalked); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// analysisParams captures the configuration that shaped a run.
func analysisParams(cfg *contract.Config, kinds []schema.AnalyzerKind) map[string]any {
	params := map[string]any{
		"rev_spec":    cfg.RevSpec,
		"since":       cfg.Since,
		"until":       cfg.Until,
		"author":      cfg.Author,
		"excludes":    cfg.Excludes,
		"skip_vendor": cfg.SkipVendor,
	}
	for _, kind := range kinds {
		if opts := analyzerOptions(kind, cfg); opts != nil {
			params[string(kind)] = opts
		}
	}
	return params
}

// logTrackingError logs database tracking errors to stderr without disrupting analysis.
func logTrackingError(operation string, kind schema.AnalyzerKind, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s analysis tracking failed to %s for %s: %v\n", contract.WarnColor.Sprint("Warn"), operation, kind, err)
}
