package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func id(b byte) contract.ObjectID {
	return contract.ObjectID{b}
}

// linearBackend serves the history 3 -> 2 -> 1 from a mock.
func linearBackend() (*contract.MockBackend, *contract.SliceIter) {
	m := new(contract.MockBackend)
	iter := &contract.SliceIter{IDs: []contract.ObjectID{id(3), id(2), id(1)}}
	m.On("Ancestors", mock.Anything, id(3)).Return(iter, nil)
	for _, b := range []byte{3, 2, 1} {
		c := &contract.Commit{ID: id(b), Author: contract.Signature{Name: "A", Email: "a"}}
		if b > 1 {
			c.Parents = []contract.ObjectID{id(b - 1)}
		}
		m.On("LoadCommit", id(b)).Return(c, nil)
	}
	return m, iter
}

func collect(visited *[]contract.ObjectID) VisitFunc {
	return func(c *contract.Commit) error {
		*visited = append(*visited, c.ID)
		return nil
	}
}

func TestWalk_Full(t *testing.T) {
	m, iter := linearBackend()
	var visited []contract.ObjectID

	n, err := Walk(context.Background(), m, contract.WalkRange{Start: id(3)}, collect(&visited))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []contract.ObjectID{id(3), id(2), id(1)}, visited)
	assert.True(t, iter.Closed)
}

func TestWalk_SinceIsInclusiveAndLazy(t *testing.T) {
	m, iter := linearBackend()
	since := id(2)
	var visited []contract.ObjectID

	n, err := Walk(context.Background(), m, contract.WalkRange{Start: id(3), Since: &since}, collect(&visited))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []contract.ObjectID{id(3), id(2)}, visited)
	assert.Equal(t, 2, iter.Served, "the parent of since is never requested")
	m.AssertNotCalled(t, "LoadCommit", id(1))
}

func TestWalk_SinceStopsBeforeMissingParent(t *testing.T) {
	repo, err := contract.NewTestRepo()
	require.NoError(t, err)
	var ids []contract.ObjectID
	for i, content := range []string{"a\n", "a\nb\n", "a\nb\nc\n"} {
		c, err := repo.Commit(contract.TestCommit{
			When:  contract.TestEpoch.Add(time.Duration(i) * time.Hour),
			Files: map[string]string{"a.txt": content},
		})
		require.NoError(t, err)
		ids = append(ids, c)
	}
	require.NoError(t, repo.DropObject(ids[0]))

	since := ids[1]
	var visited []contract.ObjectID
	n, err := Walk(context.Background(), repo.Backend(), contract.WalkRange{Start: ids[2], Since: &since}, collect(&visited))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []contract.ObjectID{ids[2], ids[1]}, visited)
}

func TestWalk_UnreachedSinceWalksToRoot(t *testing.T) {
	m, _ := linearBackend()
	since := id(42)
	n, err := Walk(context.Background(), m, contract.WalkRange{Start: id(3), Since: &since}, func(*contract.Commit) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWalk_StopWalk(t *testing.T) {
	m, iter := linearBackend()
	n, err := Walk(context.Background(), m, contract.WalkRange{Start: id(3)}, func(*contract.Commit) error {
		return contract.ErrStopWalk
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, iter.Served)
}

func TestWalk_Errors(t *testing.T) {
	t.Run("corrupt commit", func(t *testing.T) {
		m := new(contract.MockBackend)
		m.On("Ancestors", mock.Anything, id(3)).Return(&contract.SliceIter{IDs: []contract.ObjectID{id(3)}}, nil)
		m.On("LoadCommit", id(3)).Return(nil, errors.New("zlib: invalid header"))

		_, err := Walk(context.Background(), m, contract.WalkRange{Start: id(3)}, func(*contract.Commit) error { return nil })
		assert.ErrorIs(t, err, contract.ErrCorruptHistory)
	})

	t.Run("iterator failure", func(t *testing.T) {
		m := new(contract.MockBackend)
		m.On("Ancestors", mock.Anything, id(3)).Return(nil, errors.New("object not found"))

		_, err := Walk(context.Background(), m, contract.WalkRange{Start: id(3)}, func(*contract.Commit) error { return nil })
		assert.ErrorIs(t, err, contract.ErrCorruptHistory)
	})

	t.Run("visitor failure", func(t *testing.T) {
		m, _ := linearBackend()
		boom := errors.New("boom")
		_, err := Walk(context.Background(), m, contract.WalkRange{Start: id(3)}, func(*contract.Commit) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		m, _ := linearBackend()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		n, err := Walk(ctx, m, contract.WalkRange{Start: id(3)}, func(*contract.Commit) error {
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, n)
	})
}

func TestResolveRange(t *testing.T) {
	t.Run("empty repository", func(t *testing.T) {
		m := new(contract.MockBackend)
		m.On("HasCommits").Return(false, nil)
		_, err := ResolveRange(m, "HEAD", "")
		assert.ErrorIs(t, err, contract.ErrEmptyRepository)
	})

	t.Run("start and since", func(t *testing.T) {
		m := new(contract.MockBackend)
		m.On("HasCommits").Return(true, nil)
		m.On("ResolveRevision", "HEAD").Return(id(3), nil)
		m.On("ResolveRevision", "v1.0").Return(id(1), nil)

		r, err := ResolveRange(m, "HEAD", "v1.0")
		require.NoError(t, err)
		assert.Equal(t, id(3), r.Start)
		require.NotNil(t, r.Since)
		assert.True(t, r.IsSince(id(1)))
	})

	t.Run("unresolvable", func(t *testing.T) {
		m := new(contract.MockBackend)
		m.On("HasCommits").Return(true, nil)
		m.On("ResolveRevision", "HEAD").Return(id(3), nil)
		m.On("ResolveRevision", "nope").Return(nil, errors.New("reference not found"))

		_, err := ResolveRange(m, "nope", "")
		assert.ErrorIs(t, err, contract.ErrUnresolvableRevision)
		_, err = ResolveRange(m, "HEAD", "nope")
		assert.ErrorIs(t, err, contract.ErrUnresolvableRevision)
	})
}
