package contract

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a testify mock of Backend.
type MockBackend struct {
	mock.Mock
}

var _ Backend = &MockBackend{} // Compile-time check

// ResolveRevision implements the Backend interface.
func (m *MockBackend) ResolveRevision(spec string) (ObjectID, error) {
	ret := m.Called(spec)
	id, _ := ret.Get(0).(ObjectID)
	return id, ret.Error(1)
}

// HasCommits implements the Backend interface.
func (m *MockBackend) HasCommits() (bool, error) {
	ret := m.Called()
	return ret.Bool(0), ret.Error(1)
}

// Ancestors implements the Backend interface.
func (m *MockBackend) Ancestors(ctx context.Context, start ObjectID) (AncestorIter, error) {
	ret := m.Called(ctx, start)
	iter, _ := ret.Get(0).(AncestorIter)
	return iter, ret.Error(1)
}

// LoadCommit implements the Backend interface.
func (m *MockBackend) LoadCommit(id ObjectID) (*Commit, error) {
	ret := m.Called(id)
	c, _ := ret.Get(0).(*Commit)
	return c, ret.Error(1)
}

// TreeDiff implements the Backend interface.
func (m *MockBackend) TreeDiff(ctx context.Context, commit *Commit, base *ObjectID) ([]Change, error) {
	ret := m.Called(ctx, commit, base)
	changes, _ := ret.Get(0).([]Change)
	return changes, ret.Error(1)
}

// LineDiffStats implements the Backend interface.
func (m *MockBackend) LineDiffStats(oldID, newID ObjectID) (LineStats, error) {
	ret := m.Called(oldID, newID)
	stats, _ := ret.Get(0).(LineStats)
	return stats, ret.Error(1)
}

// DiffStats implements the Backend interface.
func (m *MockBackend) DiffStats(ctx context.Context, commit *Commit, base *ObjectID, filter *PathFilter) (DiffStats, error) {
	ret := m.Called(ctx, commit, base, filter)
	stats, _ := ret.Get(0).(DiffStats)
	return stats, ret.Error(1)
}

// BlobSize implements the Backend interface.
func (m *MockBackend) BlobSize(id ObjectID) (int64, error) {
	ret := m.Called(id)
	size, _ := ret.Get(0).(int64)
	return size, ret.Error(1)
}

// BlobLines implements the Backend interface.
func (m *MockBackend) BlobLines(id ObjectID) (int, error) {
	ret := m.Called(id)
	return ret.Int(0), ret.Error(1)
}

// SliceIter is an AncestorIter over a fixed list of ids. It records how
// many ids were handed out.
type SliceIter struct {
	IDs    []ObjectID
	Served int
	Closed bool
}

// Next implements the AncestorIter interface.
func (it *SliceIter) Next() (ObjectID, error) {
	if it.Served >= len(it.IDs) {
		return ZeroID, io.EOF
	}
	id := it.IDs[it.Served]
	it.Served++
	return id, nil
}

// Close implements the AncestorIter interface.
func (it *SliceIter) Close() {
	it.Closed = true
}
