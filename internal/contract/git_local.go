package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LocalBackend implements Backend on top of go-git.
type LocalBackend struct {
	repo *git.Repository
}

var _ Backend = &LocalBackend{} // Compile-time check

// NewLocalBackend wraps an already opened repository.
func NewLocalBackend(repo *git.Repository) *LocalBackend {
	return &LocalBackend{repo: repo}
}

// OpenLocalBackend opens the repository containing path.
func OpenLocalBackend(path string) (*LocalBackend, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return NewLocalBackend(repo), nil
}

// ResolveRepoRoot returns the worktree root of the repository containing path.
// Bare repositories resolve to the absolute path itself.
func ResolveRepoRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s: %w", abs, err)
	}
	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return abs, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// ResolveRevision resolves spec to a commit id, peeling annotated tags.
func (b *LocalBackend) ResolveRevision(spec string) (ObjectID, error) {
	hash, err := b.repo.ResolveRevision(plumbing.Revision(spec))
	if err != nil {
		return ZeroID, fmt.Errorf("%w: %q: %v", ErrUnresolvableRevision, spec, err)
	}
	if _, err := b.repo.CommitObject(*hash); err == nil {
		return *hash, nil
	}
	tag, err := b.repo.TagObject(*hash)
	if err != nil {
		return ZeroID, fmt.Errorf("%w: %q does not name a commit", ErrUnresolvableRevision, spec)
	}
	commit, err := tag.Commit()
	if err != nil {
		return ZeroID, fmt.Errorf("%w: tag %q does not point at a commit: %v", ErrUnresolvableRevision, spec, err)
	}
	return commit.Hash, nil
}

// HasCommits reports whether HEAD resolves.
func (b *LocalBackend) HasCommits() (bool, error) {
	_, err := b.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read HEAD: %w", err)
	}
	return true, nil
}

// Ancestors walks history by committer time, newest first. The parents of a
// commit are read only when the caller asks for the next commit, so a walk
// that stops at a boundary never touches the objects behind it.
func (b *LocalBackend) Ancestors(_ context.Context, start ObjectID) (AncestorIter, error) {
	commit, err := b.repo.CommitObject(start)
	if err != nil {
		return nil, fmt.Errorf("%w: load start commit %s: %v", ErrCorruptHistory, start, err)
	}
	it := &ancestorIter{
		repo: b.repo,
		heap: binaryheap.NewWith(newerFirst),
		seen: map[ObjectID]struct{}{start: {}},
	}
	it.heap.Push(commit)
	return it, nil
}

// LoadCommit reads the metadata of a commit.
func (b *LocalBackend) LoadCommit(id ObjectID) (*Commit, error) {
	c, err := b.repo.CommitObject(id)
	if err != nil {
		return nil, fmt.Errorf("%w: load commit %s: %v", ErrCorruptHistory, id, err)
	}
	return &Commit{
		ID:        c.Hash,
		Parents:   append([]ObjectID(nil), c.ParentHashes...),
		Author:    toSignature(c.Author),
		Committer: toSignature(c.Committer),
	}, nil
}

func toSignature(s object.Signature) Signature {
	_, offset := s.When.Zone()
	return Signature{Name: s.Name, Email: s.Email, Time: s.When.Unix(), Offset: offset}
}

// TreeDiff lists changes between base and commit with rename detection.
func (b *LocalBackend) TreeDiff(ctx context.Context, commit *Commit, base *ObjectID) ([]Change, error) {
	changes, err := b.diffTrees(ctx, commit, base)
	if err != nil {
		return nil, err
	}

	out := make([]Change, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, fmt.Errorf("failed to classify change in %s: %w", commit.ID, err)
		}
		switch action {
		case merkletrie.Insert:
			out = append(out, Change{Kind: Addition, Path: ch.To.Name, NewID: ch.To.TreeEntry.Hash, NewMode: ch.To.TreeEntry.Mode})
		case merkletrie.Delete:
			out = append(out, Change{Kind: Deletion, Path: ch.From.Name, OldID: ch.From.TreeEntry.Hash, OldMode: ch.From.TreeEntry.Mode})
		case merkletrie.Modify:
			c := Change{
				Kind:    Modification,
				Path:    ch.To.Name,
				OldID:   ch.From.TreeEntry.Hash,
				NewID:   ch.To.TreeEntry.Hash,
				OldMode: ch.From.TreeEntry.Mode,
				NewMode: ch.To.TreeEntry.Mode,
			}
			if ch.From.Name != ch.To.Name {
				c.Kind = Rewrite
				c.OldPath = ch.From.Name
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// LineDiffStats diffs two blobs line by line.
func (b *LocalBackend) LineDiffStats(oldID, newID ObjectID) (LineStats, error) {
	oldData, err := b.blobData(oldID)
	if err != nil {
		return LineStats{}, err
	}
	newData, err := b.blobData(newID)
	if err != nil {
		return LineStats{}, err
	}

	var stats LineStats
	for _, d := range diff.Do(string(oldData), string(newData)) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Insertions += CountLines([]byte(d.Text))
		case diffmatchpatch.DiffDelete:
			stats.Removals += CountLines([]byte(d.Text))
		}
	}
	return stats, nil
}

// DiffStats computes file and line totals of the commit's patch, restricted
// to blob entries that pass filter.
func (b *LocalBackend) DiffStats(ctx context.Context, commit *Commit, base *ObjectID, filter *PathFilter) (DiffStats, error) {
	changes, err := b.diffTrees(ctx, commit, base)
	if err != nil {
		return DiffStats{}, err
	}
	kept := make(object.Changes, 0, len(changes))
	for _, ch := range changes {
		if countsAsFile(ch.From, filter) || countsAsFile(ch.To, filter) {
			kept = append(kept, ch)
		}
	}
	if len(kept) == 0 {
		return DiffStats{}, nil
	}
	patch, err := kept.PatchContext(ctx)
	if err != nil {
		return DiffStats{}, fmt.Errorf("failed to build patch for %s: %w", commit.ID, err)
	}

	stats := DiffStats{FilesChanged: len(kept)}
	for _, fs := range patch.Stats() {
		stats.LinesAdded += fs.Addition
		stats.LinesRemoved += fs.Deletion
	}
	return stats, nil
}

// countsAsFile reports whether one side of a tree change is a file kept by filter.
func countsAsFile(e object.ChangeEntry, filter *PathFilter) bool {
	return e.Name != "" && IsBlobMode(e.TreeEntry.Mode) && filter.Allow(e.Name)
}

// BlobSize reads the blob header only.
func (b *LocalBackend) BlobSize(id ObjectID) (int64, error) {
	blob, err := b.repo.BlobObject(id)
	if err != nil {
		return 0, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return blob.Size, nil
}

// BlobLines counts the lines of a blob.
func (b *LocalBackend) BlobLines(id ObjectID) (int, error) {
	data, err := b.blobData(id)
	if err != nil {
		return 0, err
	}
	return CountLines(data), nil
}

func (b *LocalBackend) blobData(id ObjectID) ([]byte, error) {
	blob, err := b.repo.BlobObject(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", id, err)
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

func (b *LocalBackend) diffTrees(ctx context.Context, commit *Commit, base *ObjectID) (object.Changes, error) {
	to, err := b.treeOf(&commit.ID)
	if err != nil {
		return nil, err
	}
	from, err := b.treeOf(base)
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees of %s: %w", commit.ID, err)
	}
	return changes, nil
}

// treeOf returns the root tree of a commit, or the empty tree for nil.
func (b *LocalBackend) treeOf(id *ObjectID) (*object.Tree, error) {
	if id == nil {
		return &object.Tree{}, nil
	}
	c, err := b.repo.CommitObject(*id)
	if err != nil {
		return nil, fmt.Errorf("%w: load commit %s: %v", ErrCorruptHistory, *id, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: load tree of %s: %v", ErrCorruptHistory, *id, err)
	}
	return tree, nil
}

// ancestorIter is a committer-time ordered walk over the commit graph.
// last is the commit returned by the previous Next; its parents are queued
// on the following call.
type ancestorIter struct {
	repo *git.Repository
	heap *binaryheap.Heap
	seen map[ObjectID]struct{}
	last *object.Commit
}

// newerFirst orders commits by committer time descending, then by id.
func newerFirst(a, b any) int {
	ca, cb := a.(*object.Commit), b.(*object.Commit)
	if c := cb.Committer.When.Compare(ca.Committer.When); c != 0 {
		return c
	}
	return bytes.Compare(ca.Hash[:], cb.Hash[:])
}

func (it *ancestorIter) Next() (ObjectID, error) {
	if it.last != nil {
		for _, parent := range it.last.ParentHashes {
			if _, ok := it.seen[parent]; ok {
				continue
			}
			it.seen[parent] = struct{}{}
			c, err := it.repo.CommitObject(parent)
			if err != nil {
				return ZeroID, fmt.Errorf("%w: load parent %s of %s: %v", ErrCorruptHistory, parent, it.last.Hash, err)
			}
			it.heap.Push(c)
		}
		it.last = nil
	}

	v, ok := it.heap.Pop()
	if !ok {
		return ZeroID, io.EOF
	}
	it.last = v.(*object.Commit)
	return it.last.Hash, nil
}

func (it *ancestorIter) Close() {
	it.heap.Clear()
	it.last = nil
}
