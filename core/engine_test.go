package core

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/gitpulse/core/agg"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mergeRepo builds root -> bob -> merge(bob, root), all on 2024-01-15.
func mergeRepo(t *testing.T) (*contract.TestRepo, []contract.ObjectID) {
	t.Helper()
	repo, err := contract.NewTestRepo()
	require.NoError(t, err)

	root, err := repo.Commit(contract.TestCommit{
		Name: "Alice", Email: "alice@x.io",
		Files: map[string]string{"src/a.go": "a\nb\n", "README.md": "hi\n"},
	})
	require.NoError(t, err)
	bob, err := repo.Commit(contract.TestCommit{
		Name: "Bob", Email: "bob@x.io", When: contract.TestEpoch.Add(time.Hour),
		Files: map[string]string{"src/a.go": "a\nb\nc\n", "vendor/lib.js": "x\n"},
	})
	require.NoError(t, err)
	merge, err := repo.Commit(contract.TestCommit{
		Name: "Alice", Email: "alice@x.io", When: contract.TestEpoch.Add(2 * time.Hour),
		Files:   map[string]string{"merge.txt": "m\n"},
		Parents: []contract.ObjectID{bob, root},
	})
	require.NoError(t, err)
	return repo, []contract.ObjectID{root, bob, merge}
}

func TestRun_SingleWalkFeedsEveryAggregator(t *testing.T) {
	repo, _ := mergeRepo(t)
	churn := agg.NewChurn(repo.Backend(), contract.ChurnOptions{})
	owners, err := agg.NewOwnership(contract.OwnershipOptions{Depth: 1})
	require.NoError(t, err)
	freq := agg.NewCommitFrequency()

	reports, stats, err := Run(context.Background(), repo.Backend(), RunOptions{
		StartSpec: contract.DefaultRevSpec,
		Filter:    contract.NewPathFilter(nil, true),
	}, churn, owners, freq)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, RunStats{CommitsWalked: 3, CommitsMatched: 3}, stats)

	assert.Equal(t, map[string]schema.LineCounts{
		"Alice <alice@x.io>": {Added: 4},
		"Bob <bob@x.io>":     {Added: 1},
	}, reports[0].(*schema.ChurnReport).Totals, "vendored files are skipped and merges diff against the first parent")

	assert.Equal(t, map[string]map[string]int{
		"src": {"Alice <alice@x.io>": 1, "Bob <bob@x.io>": 1},
		".":   {"Alice <alice@x.io>": 1},
	}, reports[1].(*schema.OwnershipReport).Touches, "merge commits are not attributed")

	assert.Equal(t, map[string]int{"2024-01-15": 3}, reports[2].(*schema.CommitFrequencyReport).CommitsPerDay)
}

func TestRun_AuthorAndSince(t *testing.T) {
	repo, ids := mergeRepo(t)

	freq := agg.NewCommitFrequency()
	_, stats, err := Run(context.Background(), repo.Backend(), RunOptions{StartSpec: "HEAD", Author: "BOB"}, freq)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CommitsWalked)
	assert.Equal(t, 1, stats.CommitsMatched)
	assert.Equal(t, map[string]int{"Bob <bob@x.io>": 1}, freq.Finish().(*schema.CommitFrequencyReport).ActiveDaysPerAuthor)

	_, stats, err = Run(context.Background(), repo.Backend(), RunOptions{StartSpec: "HEAD", SinceSpec: ids[1].String()}, agg.NewStreaks())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CommitsWalked)
}

func TestRun_EmptyRepository(t *testing.T) {
	repo, err := contract.NewTestRepo()
	require.NoError(t, err)

	aggs, err := agg.NewAll(schema.AllAnalyzers, &contract.Config{
		Frecency:  contract.FrecencyOptions{AgeExponent: 2, SizeRef: 1024, Now: contract.TestEpoch},
		TimeOfDay: contract.TimeOfDayOptions{Bins: 24},
	}, repo.Backend())
	require.NoError(t, err)

	reports, stats, err := Run(context.Background(), repo.Backend(), RunOptions{StartSpec: "HEAD"}, aggs...)
	require.NoError(t, err)
	assert.True(t, stats.Empty)
	require.Len(t, reports, len(schema.AllAnalyzers))
	for i, r := range reports {
		assert.Equal(t, schema.AllAnalyzers[i], r.Kind())
	}
	assert.Empty(t, reports[0].(*schema.ChurnReport).Totals)
}

func TestRun_Unresolvable(t *testing.T) {
	repo, _ := mergeRepo(t)
	reports, _, err := Run(context.Background(), repo.Backend(), RunOptions{StartSpec: "no-such-branch"}, agg.NewStreaks())
	assert.ErrorIs(t, err, contract.ErrUnresolvableRevision)
	assert.Nil(t, reports)
}

func TestRun_CancelledReturnsPartialReports(t *testing.T) {
	repo, _ := mergeRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, stats, err := Run(ctx, repo.Backend(), RunOptions{StartSpec: "HEAD"}, agg.NewStreaks())
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, reports, 1)
	assert.Zero(t, stats.CommitsWalked)
}

func TestRun_StopsWhenEveryAggregatorIsDone(t *testing.T) {
	repo, _ := mergeRepo(t)
	f, err := agg.NewFrecency(repo.Backend(), contract.FrecencyOptions{
		MaxCommits: 1, AgeExponent: 2, SizeRef: 1024, Now: contract.TestEpoch,
	})
	require.NoError(t, err)

	reports, stats, err := Run(context.Background(), repo.Backend(), RunOptions{StartSpec: "HEAD"}, f)
	require.NoError(t, err)
	// The merge is walked but not considered; the walk ends on the commit that follows it.
	assert.Equal(t, 2, stats.CommitsWalked)
	assert.ElementsMatch(t, []string{"src/a.go", "vendor/lib.js"}, reports[0].(*schema.FrecencyReport).Paths())
}

func TestRun_SharesOneDiffPerCommit(t *testing.T) {
	m := new(contract.MockBackend)
	m.On("HasCommits").Return(true, nil)
	m.On("ResolveRevision", "HEAD").Return(id(2), nil)
	m.On("Ancestors", mock.Anything, id(2)).Return(&contract.SliceIter{IDs: []contract.ObjectID{id(2), id(1)}}, nil)
	m.On("LoadCommit", id(2)).Return(&contract.Commit{ID: id(2), Parents: []contract.ObjectID{id(1)}}, nil)
	m.On("LoadCommit", id(1)).Return(&contract.Commit{ID: id(1)}, nil)
	m.On("TreeDiff", mock.Anything, mock.Anything, mock.Anything).Return([]contract.Change{}, nil)

	owners, err := agg.NewOwnership(contract.OwnershipOptions{})
	require.NoError(t, err)
	tod, err := agg.NewTimeOfDay(contract.TimeOfDayOptions{Bins: contract.DefaultTimeBins})
	require.NoError(t, err)
	_, stats, err := Run(context.Background(), m, RunOptions{StartSpec: "HEAD"},
		agg.NewChurn(m, contract.ChurnOptions{}), owners, tod)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CommitsWalked)
	m.AssertNumberOfCalls(t, "Ancestors", 1)
	m.AssertNumberOfCalls(t, "TreeDiff", 2)
}
