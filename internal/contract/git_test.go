package contract

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLinearRepo builds c0 (adds a.txt), c1 (modifies a.txt), c2 (adds dir/b.go).
func newLinearRepo(t *testing.T) (*TestRepo, []ObjectID) {
	t.Helper()
	repo, err := NewTestRepo()
	require.NoError(t, err)

	c0, err := repo.Commit(TestCommit{
		Name: "Alice", Email: "alice@example.com",
		When:  TestEpoch,
		Files: map[string]string{"a.txt": "a\nb\nc\n"},
	})
	require.NoError(t, err)
	c1, err := repo.Commit(TestCommit{
		Name: "Bob", Email: "bob@example.com",
		When:  TestEpoch.Add(time.Hour),
		Files: map[string]string{"a.txt": "a\nB\nc\nd\n"},
	})
	require.NoError(t, err)
	c2, err := repo.Commit(TestCommit{
		Name: "Alice", Email: "alice@example.com",
		When:  TestEpoch.Add(2 * time.Hour),
		Files: map[string]string{"dir/b.go": "package dir"},
	})
	require.NoError(t, err)
	return repo, []ObjectID{c0, c1, c2}
}

func TestLocalBackend_HasCommits(t *testing.T) {
	repo, err := NewTestRepo()
	require.NoError(t, err)
	backend := repo.Backend()

	ok, err := backend.HasCommits()
	require.NoError(t, err)
	assert.False(t, ok, "fresh repository has an unborn HEAD")

	_, err = repo.Commit(TestCommit{Files: map[string]string{"x": "x"}})
	require.NoError(t, err)

	ok, err = backend.HasCommits()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalBackend_ResolveRevision(t *testing.T) {
	repo, ids := newLinearRepo(t)
	backend := repo.Backend()
	require.NoError(t, repo.Tag("v1", ids[0], ""))
	require.NoError(t, repo.Tag("v1-annotated", ids[1], "release"))
	require.NoError(t, repo.Branch("feature", ids[1]))

	tests := []struct {
		name string
		spec string
		want ObjectID
	}{
		{"head", "HEAD", ids[2]},
		{"full hash", ids[0].String(), ids[0]},
		{"lightweight tag", "v1", ids[0]},
		{"annotated tag peels to commit", "v1-annotated", ids[1]},
		{"branch", "feature", ids[1]},
		{"parent suffix", "HEAD~1", ids[1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := backend.ResolveRevision(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown spec", func(t *testing.T) {
		_, err := backend.ResolveRevision("does-not-exist")
		assert.ErrorIs(t, err, ErrUnresolvableRevision)
	})
}

func TestLocalBackend_Ancestors(t *testing.T) {
	repo, ids := newLinearRepo(t)
	backend := repo.Backend()

	iter, err := backend.Ancestors(context.Background(), ids[2])
	require.NoError(t, err)
	defer iter.Close()

	var got []ObjectID
	for {
		id, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, []ObjectID{ids[2], ids[1], ids[0]}, got)
}

func TestLocalBackend_AncestorsMergeVisitsEachCommitOnce(t *testing.T) {
	repo, ids := newLinearRepo(t)
	merge, err := repo.Commit(TestCommit{
		When:    TestEpoch.Add(3 * time.Hour),
		Parents: []ObjectID{ids[2], ids[0]},
	})
	require.NoError(t, err)

	iter, err := repo.Backend().Ancestors(context.Background(), merge)
	require.NoError(t, err)
	defer iter.Close()

	var got []ObjectID
	for {
		id, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, []ObjectID{merge, ids[2], ids[1], ids[0]}, got)
}

func TestLocalBackend_AncestorsLoadParentsLazily(t *testing.T) {
	repo, ids := newLinearRepo(t)
	require.NoError(t, repo.DropObject(ids[0]))

	iter, err := repo.Backend().Ancestors(context.Background(), ids[2])
	require.NoError(t, err)
	defer iter.Close()

	id, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, ids[2], id)
	id, err = iter.Next()
	require.NoError(t, err, "returning c1 must not read its missing parent")
	assert.Equal(t, ids[1], id)

	_, err = iter.Next()
	assert.ErrorIs(t, err, ErrCorruptHistory)
}

func TestLocalBackend_LoadCommit(t *testing.T) {
	repo, err := NewTestRepo()
	require.NoError(t, err)
	when := time.Date(2024, time.March, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	id, err := repo.Commit(TestCommit{Name: "Carol", Email: "carol@example.com", When: when, Files: map[string]string{"f": "1"}})
	require.NoError(t, err)

	c, err := repo.Backend().LoadCommit(id)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.Empty(t, c.Parents)
	assert.Nil(t, c.FirstParent())
	assert.Equal(t, "Carol <carol@example.com>", c.Author.Identity())
	assert.Equal(t, when.Unix(), c.Author.Time)
	assert.Equal(t, -5*3600, c.Author.Offset)
	assert.Equal(t, 23, c.Author.Local().Hour(), "local hour keeps the recorded offset")
	assert.Equal(t, c.Author, c.Committer)

	rebased := when.Add(72 * time.Hour).In(time.UTC)
	id, err = repo.Commit(TestCommit{Name: "Carol", Email: "carol@example.com", When: when, CommitterWhen: rebased})
	require.NoError(t, err)
	c, err = repo.Backend().LoadCommit(id)
	require.NoError(t, err)
	assert.Equal(t, when.Unix(), c.Author.Time)
	assert.Equal(t, rebased.Unix(), c.Committer.Time)
	assert.Equal(t, 0, c.Committer.Offset)

	_, err = repo.Backend().LoadCommit(ZeroID)
	assert.ErrorIs(t, err, ErrCorruptHistory)
}

func TestLocalBackend_TreeDiff(t *testing.T) {
	repo, ids := newLinearRepo(t)
	backend := repo.Backend()
	ctx := context.Background()

	t.Run("root commit diffs against the empty tree", func(t *testing.T) {
		c0, err := backend.LoadCommit(ids[0])
		require.NoError(t, err)
		changes, err := backend.TreeDiff(ctx, c0, nil)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, Addition, changes[0].Kind)
		assert.Equal(t, "a.txt", changes[0].Path)
		assert.True(t, IsBlobMode(changes[0].NewMode))
	})

	t.Run("modification against first parent", func(t *testing.T) {
		c1, err := backend.LoadCommit(ids[1])
		require.NoError(t, err)
		changes, err := backend.TreeDiff(ctx, c1, c1.FirstParent())
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, Modification, changes[0].Kind)
		assert.NotEqual(t, changes[0].OldID, changes[0].NewID)
	})

	t.Run("pure move is a rewrite", func(t *testing.T) {
		moved, err := repo.Commit(TestCommit{
			When:    TestEpoch.Add(3 * time.Hour),
			Renames: map[string]string{"dir/b.go": "dir/c.go"},
		})
		require.NoError(t, err)
		c, err := backend.LoadCommit(moved)
		require.NoError(t, err)
		changes, err := backend.TreeDiff(ctx, c, c.FirstParent())
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, Rewrite, changes[0].Kind)
		assert.Equal(t, "dir/b.go", changes[0].OldPath)
		assert.Equal(t, "dir/c.go", changes[0].Path)
	})

	t.Run("deletion", func(t *testing.T) {
		deleted, err := repo.Commit(TestCommit{
			When:    TestEpoch.Add(4 * time.Hour),
			Deletes: []string{"a.txt"},
		})
		require.NoError(t, err)
		c, err := backend.LoadCommit(deleted)
		require.NoError(t, err)
		changes, err := backend.TreeDiff(ctx, c, c.FirstParent())
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, Deletion, changes[0].Kind)
		assert.Equal(t, "a.txt", changes[0].Path)
	})
}

func TestLocalBackend_LineAndDiffStats(t *testing.T) {
	repo, ids := newLinearRepo(t)
	backend := repo.Backend()
	ctx := context.Background()

	c1, err := backend.LoadCommit(ids[1])
	require.NoError(t, err)
	changes, err := backend.TreeDiff(ctx, c1, c1.FirstParent())
	require.NoError(t, err)
	require.Len(t, changes, 1)

	stats, err := backend.LineDiffStats(changes[0].OldID, changes[0].NewID)
	require.NoError(t, err)
	assert.Equal(t, LineStats{Insertions: 2, Removals: 1}, stats)

	diffStats, err := backend.DiffStats(ctx, c1, c1.FirstParent(), nil)
	require.NoError(t, err)
	assert.Equal(t, DiffStats{FilesChanged: 1, LinesAdded: 2, LinesRemoved: 1}, diffStats)

	size, err := backend.BlobSize(changes[0].NewID)
	require.NoError(t, err)
	assert.Equal(t, int64(len("a\nB\nc\nd\n")), size)

	lines, err := backend.BlobLines(changes[0].NewID)
	require.NoError(t, err)
	assert.Equal(t, 4, lines)

	_, err = backend.BlobSize(ZeroID)
	assert.Error(t, err)
}

func TestLocalBackend_DiffStatsRootCommit(t *testing.T) {
	repo, ids := newLinearRepo(t)
	backend := repo.Backend()

	c0, err := backend.LoadCommit(ids[0])
	require.NoError(t, err)
	stats, err := backend.DiffStats(context.Background(), c0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DiffStats{FilesChanged: 1, LinesAdded: 3}, stats)
}

func TestLocalBackend_DiffStatsHonoursFilter(t *testing.T) {
	repo, err := NewTestRepo()
	require.NoError(t, err)
	id, err := repo.Commit(TestCommit{Files: map[string]string{
		"main.go":       "package main\n",
		"notes.md":      "one\ntwo\n",
		"vendor/lib.js": "x\ny\nz\n",
	}})
	require.NoError(t, err)
	backend := repo.Backend()
	c, err := backend.LoadCommit(id)
	require.NoError(t, err)

	all, err := backend.DiffStats(context.Background(), c, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DiffStats{FilesChanged: 3, LinesAdded: 6}, all)

	filtered, err := backend.DiffStats(context.Background(), c, nil, NewPathFilter([]string{"*.md"}, true))
	require.NoError(t, err)
	assert.Equal(t, DiffStats{FilesChanged: 1, LinesAdded: 1}, filtered)

	none, err := backend.DiffStats(context.Background(), c, nil, NewPathFilter([]string{"*"}, false))
	require.NoError(t, err)
	assert.Equal(t, DiffStats{}, none)
}

func TestCountsAsFile(t *testing.T) {
	entry := func(name string, mode filemode.FileMode) object.ChangeEntry {
		return object.ChangeEntry{Name: name, TreeEntry: object.TreeEntry{Name: name, Mode: mode}}
	}
	assert.True(t, countsAsFile(entry("a.go", filemode.Regular), nil))
	assert.True(t, countsAsFile(entry("run.sh", filemode.Executable), nil))
	assert.False(t, countsAsFile(entry("lib", filemode.Submodule), nil))
	assert.False(t, countsAsFile(object.ChangeEntry{}, nil), "missing side of an addition")
	assert.False(t, countsAsFile(entry("vendor/x.js", filemode.Regular), NewPathFilter(nil, true)))
}

func TestMockBackend(t *testing.T) {
	m := new(MockBackend)
	m.On("ResolveRevision", "main").Return(ObjectID{1}, nil).Once()
	m.On("BlobSize", ObjectID{2}).Return(int64(0), errors.New("boom")).Once()

	id, err := m.ResolveRevision("main")
	require.NoError(t, err)
	assert.Equal(t, ObjectID{1}, id)

	_, err = m.BlobSize(ObjectID{2})
	assert.EqualError(t, err, "boom")
	m.AssertExpectations(t)
}

func TestSliceIter(t *testing.T) {
	it := &SliceIter{IDs: []ObjectID{{1}, {2}}}
	id, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, ObjectID{1}, id)
	_, _ = it.Next()
	_, err = it.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, it.Served)
	it.Close()
	assert.True(t, it.Closed)
}
