// Package core runs aggregators over a repository's history and wires the
// results into caching, run tracking and output.
package core

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/huangsam/gitpulse/core/agg"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/outwriter"
	"github.com/huangsam/gitpulse/schema"
)

// ExecutorFunc defines the function signature for executing an analysis command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// openBackend opens the repository at path.
var openBackend = func(path string) (contract.Backend, error) {
	return contract.OpenLocalBackend(path)
}

// Result is the outcome of analyzing one repository.
type Result struct {
	Reports    []schema.Report
	Stats      RunStats
	CacheHits  int   // reports served from the report cache
	AnalysisID int64 // 0 when run tracking is disabled
}

// ExecuteAnalyzer returns the executor of a single-analyzer command.
func ExecuteAnalyzer(kind schema.AnalyzerKind) ExecutorFunc {
	return func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
		return executeAnalyzers(ctx, cfg, mgr, []schema.AnalyzerKind{kind})
	}
}

// ExecuteReport runs every analyzer in one history walk and prints all reports.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return executeAnalyzers(ctx, cfg, mgr, schema.AllAnalyzers)
}

func executeAnalyzers(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, kinds []schema.AnalyzerKind) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		outwriter.LogAnalysisHeader(os.Stderr, cfg, kinds)
	}

	result, err := Analyze(ctx, cfg, mgr, kinds)
	if result == nil {
		return err
	}
	if err != nil {
		contract.LogWarn("Analysis interrupted, printing partial reports", err)
	}

	summary := outwriter.Summary{
		Duration:       time.Since(start),
		CommitsWalked:  result.Stats.CommitsWalked,
		CommitsMatched: result.Stats.CommitsMatched,
		CacheHits:      result.CacheHits,
		AnalysisID:     result.AnalysisID,
	}
	if werr := outwriter.WriteReports(result.Reports, cfg, summary); werr != nil {
		return errors.Join(err, werr)
	}
	return err
}

// Analyze opens the repository of cfg and runs the analyzers named by kinds.
func Analyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, kinds []schema.AnalyzerKind) (*Result, error) {
	backend, err := openBackend(cfg.RepoPath)
	if err != nil {
		return nil, err
	}
	return AnalyzeBackend(ctx, backend, cfg, mgr, kinds)
}

// AnalyzeBackend builds one aggregator per kind, serves what it can from the
// report cache and computes the rest in a single walk. Reports are returned in
// the order of kinds. When ctx is cancelled the partial result is returned
// together with the context error.
func AnalyzeBackend(ctx context.Context, backend contract.Backend, cfg *contract.Config, mgr contract.CacheManager, kinds []schema.AnalyzerKind) (*Result, error) {
	aggs, err := agg.NewAll(kinds, cfg, backend)
	if err != nil {
		return nil, err
	}

	var (
		reportStore   contract.CacheStore
		analysisStore contract.AnalysisStore
	)
	if mgr != nil {
		reportStore, analysisStore = mgr.GetReportStore(), mgr.GetAnalysisStore()
	}

	cache := newReportCache(reportStore, cfg, backend)
	result := &Result{Reports: make([]schema.Report, len(kinds))}
	var pending []int
	for i, kind := range kinds {
		if r := cache.lookup(kind); r != nil {
			result.Reports[i] = r
			result.CacheHits++
			continue
		}
		pending = append(pending, i)
	}

	tracker := beginAnalysis(analysisStore, cfg, kinds)
	result.AnalysisID = tracker.analysisID()

	var runErr error
	if len(pending) > 0 {
		todo := make([]contract.Aggregator, len(pending))
		for j, i := range pending {
			todo[j] = aggs[i]
		}
		var fresh []schema.Report
		fresh, result.Stats, runErr = Run(ctx, backend, RunOptions{
			StartSpec: cfg.StartSpec(),
			SinceSpec: cfg.Since,
			Author:    cfg.Author,
			Filter:    contract.NewPathFilter(cfg.Excludes, cfg.SkipVendor),
		}, todo...)
		if fresh == nil && runErr != nil {
			tracker.finish(nil, result.Stats, runErr)
			return nil, runErr
		}
		for j, i := range pending {
			result.Reports[i] = fresh[j]
			if runErr == nil {
				cache.save(kinds[i], fresh[j])
			}
		}
	}

	tracker.finish(result.Reports, result.Stats, runErr)
	return result, runErr
}
