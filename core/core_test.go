package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/iocache"
	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *contract.Config {
	return &contract.Config{
		RepoPath:   "/test/repo",
		RevSpec:    contract.DefaultRevSpec,
		Output:     schema.JSONOut,
		Precision:  contract.DefaultPrecision,
		CommitSize: contract.CommitSizeOptions{Percentiles: []float64{50}},
		Frecency: contract.FrecencyOptions{
			AgeExponent: contract.DefaultAgeExponent,
			SizeRef:     contract.DefaultSizeRef,
			Now:         contract.TestEpoch.AddDate(0, 0, 1),
		},
		Ownership: contract.OwnershipOptions{Depth: contract.DefaultOwnershipDepth},
		TimeOfDay: contract.TimeOfDayOptions{Bins: contract.DefaultTimeBins},
	}
}

// storesManager serves the given stores through a mocked manager.
func storesManager(reports contract.CacheStore, analysis contract.AnalysisStore) *iocache.MockCacheManager {
	mgr := new(iocache.MockCacheManager)
	mgr.On("GetReportStore").Return(reports)
	mgr.On("GetAnalysisStore").Return(analysis)
	return mgr
}

func sqliteCache(t *testing.T) contract.CacheStore {
	t.Helper()
	store, err := iocache.NewCacheStore("reports", schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAnalyzeBackend_WithoutStores(t *testing.T) {
	repo, _ := mergeRepo(t)
	kinds := []schema.AnalyzerKind{schema.StreaksAnalyzer, schema.ChurnAnalyzer}

	result, err := AnalyzeBackend(context.Background(), repo.Backend(), testConfig(), nil, kinds)
	require.NoError(t, err)
	require.Len(t, result.Reports, 2)
	assert.Equal(t, schema.StreaksAnalyzer, result.Reports[0].Kind())
	assert.Equal(t, schema.ChurnAnalyzer, result.Reports[1].Kind())
	assert.Equal(t, 3, result.Stats.CommitsWalked)
	assert.Zero(t, result.CacheHits)
	assert.Zero(t, result.AnalysisID)
}

func TestAnalyzeBackend_ReportCache(t *testing.T) {
	repo, _ := mergeRepo(t)
	mgr := storesManager(sqliteCache(t), nil)
	cfg := testConfig()
	kinds := []schema.AnalyzerKind{schema.ChurnAnalyzer, schema.StreaksAnalyzer, schema.FrecencyAnalyzer}

	first, err := AnalyzeBackend(context.Background(), repo.Backend(), cfg, mgr, kinds)
	require.NoError(t, err)
	assert.Zero(t, first.CacheHits)

	second, err := AnalyzeBackend(context.Background(), repo.Backend(), cfg, mgr, kinds)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits, "frecency depends on the wall clock and is recomputed")
	assert.Equal(t, 3, second.Stats.CommitsWalked)
	for i := range kinds {
		assert.Equal(t, first.Reports[i].Rows(), second.Reports[i].Rows(), kinds[i])
	}

	cfg.Frecency.NowExplicit = true
	_, err = AnalyzeBackend(context.Background(), repo.Backend(), cfg, mgr, kinds)
	require.NoError(t, err)
	third, err := AnalyzeBackend(context.Background(), repo.Backend(), cfg, mgr, kinds)
	require.NoError(t, err)
	assert.Equal(t, 3, third.CacheHits)
	assert.Equal(t, RunStats{}, third.Stats, "a fully cached request does not walk")
}

func TestAnalyzeBackend_CacheKeyFollowsOptions(t *testing.T) {
	repo, _ := mergeRepo(t)
	mgr := storesManager(sqliteCache(t), nil)
	cfg := testConfig()
	kinds := []schema.AnalyzerKind{schema.ChurnAnalyzer}

	_, err := AnalyzeBackend(context.Background(), repo.Backend(), cfg, mgr, kinds)
	require.NoError(t, err)

	perFile := testConfig()
	perFile.Churn.PerFile = true
	result, err := AnalyzeBackend(context.Background(), repo.Backend(), perFile, mgr, kinds)
	require.NoError(t, err)
	assert.Zero(t, result.CacheHits)
	assert.True(t, result.Reports[0].(*schema.ChurnReport).PerFile)

	byAuthor := testConfig()
	byAuthor.Author = "bob"
	result, err = AnalyzeBackend(context.Background(), repo.Backend(), byAuthor, mgr, kinds)
	require.NoError(t, err)
	assert.Zero(t, result.CacheHits)
	assert.Equal(t, map[string]schema.LineCounts{"Bob <bob@x.io>": {Added: 2}},
		result.Reports[0].(*schema.ChurnReport).Totals)
}

func TestAnalyzeBackend_TracksRun(t *testing.T) {
	repo, _ := mergeRepo(t)
	store := new(iocache.MockAnalysisStore)
	store.On("BeginAnalysis", mock.MatchedBy(func(run contract.AnalysisRun) bool {
		return uuid.Validate(run.RunUUID) == nil &&
			run.RepoPath == "/test/repo" &&
			assert.ObjectsAreEqual([]schema.AnalyzerKind{schema.StreaksAnalyzer}, run.Analyzers) &&
			run.ConfigParams["rev_spec"] == contract.DefaultRevSpec
	})).Return(int64(7), nil)
	store.On("RecordMetrics", int64(7), []schema.MetricRow{
		{Analyzer: schema.StreaksAnalyzer, Key: "Alice <alice@x.io>", Metric: "longest_streak_days", Value: 1},
		{Analyzer: schema.StreaksAnalyzer, Key: "Bob <bob@x.io>", Metric: "longest_streak_days", Value: 1},
	}).Return(nil).Once()
	store.On("EndAnalysis", int64(7), mock.Anything, 3).Return(nil).Once()

	result, err := AnalyzeBackend(context.Background(), repo.Backend(), testConfig(), storesManager(nil, store),
		[]schema.AnalyzerKind{schema.StreaksAnalyzer})
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.AnalysisID)
	store.AssertExpectations(t)
}

func TestAnalyzeBackend_TrackingFailureIsNotFatal(t *testing.T) {
	repo, _ := mergeRepo(t)
	store := new(iocache.MockAnalysisStore)
	store.On("BeginAnalysis", mock.Anything).Return(int64(0), assert.AnError)

	result, err := AnalyzeBackend(context.Background(), repo.Backend(), testConfig(), storesManager(nil, store),
		[]schema.AnalyzerKind{schema.StreaksAnalyzer})
	require.NoError(t, err)
	assert.Zero(t, result.AnalysisID)
	store.AssertNotCalled(t, "EndAnalysis", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeBackend_FailedWalkClosesRun(t *testing.T) {
	repo, _ := mergeRepo(t)
	store := new(iocache.MockAnalysisStore)
	store.On("BeginAnalysis", mock.Anything).Return(int64(3), nil)
	store.On("EndAnalysis", int64(3), mock.Anything, 0).Return(nil).Once()

	cfg := testConfig()
	cfg.RevSpec = "no-such-branch"
	_, err := AnalyzeBackend(context.Background(), repo.Backend(), cfg, storesManager(sqliteCache(t), store),
		[]schema.AnalyzerKind{schema.StreaksAnalyzer})
	assert.ErrorIs(t, err, contract.ErrUnresolvableRevision)
	store.AssertNotCalled(t, "RecordMetrics", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestAnalyzeBackend_InvalidOptionsFailBeforeStores(t *testing.T) {
	repo, _ := mergeRepo(t)
	cfg := testConfig()
	cfg.TimeOfDay.Bins = 25
	mgr := new(iocache.MockCacheManager)

	_, err := AnalyzeBackend(context.Background(), repo.Backend(), cfg, mgr, schema.AllAnalyzers)
	assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)
	mgr.AssertNotCalled(t, "GetReportStore")
}

func TestAnalyzeBackend_AllAnalyzersOneWalk(t *testing.T) {
	repo, _ := mergeRepo(t)
	result, err := AnalyzeBackend(context.Background(), repo.Backend(), testConfig(), nil, schema.AllAnalyzers)
	require.NoError(t, err)
	require.Len(t, result.Reports, len(schema.AllAnalyzers))
	for i, kind := range schema.AllAnalyzers {
		assert.Equal(t, kind, result.Reports[i].Kind())
	}
	assert.Equal(t, 3, result.Stats.CommitsWalked)
}

func TestExecuteAnalyzer_WritesReport(t *testing.T) {
	repo, _ := mergeRepo(t)
	orig := openBackend
	openBackend = func(string) (contract.Backend, error) { return repo.Backend(), nil }
	t.Cleanup(func() { openBackend = orig })

	cfg := testConfig()
	cfg.OutputFile = filepath.Join(t.TempDir(), "streaks.json")
	ctx := WithSuppressHeader(context.Background())

	require.NoError(t, ExecuteAnalyzer(schema.StreaksAnalyzer)(ctx, cfg, nil))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"longest_streaks": {"Alice <alice@x.io>": 1, "Bob <bob@x.io>": 1}}`, string(data))
}

func TestExecuteReport_OpenFailure(t *testing.T) {
	orig := openBackend
	openBackend = func(string) (contract.Backend, error) { return nil, assert.AnError }
	t.Cleanup(func() { openBackend = orig })

	err := ExecuteReport(WithSuppressHeader(context.Background()), testConfig(), nil)
	assert.ErrorIs(t, err, assert.AnError)
}
