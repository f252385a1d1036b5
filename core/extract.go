package core

import (
	"context"

	"github.com/huangsam/gitpulse/internal/contract"
)

// Extractor produces the normalized change list of a commit against its first
// parent, or the empty tree for a root commit. The last result is memoized so
// several aggregators can share one diff per commit.
type Extractor struct {
	backend contract.Backend
	filter  *contract.PathFilter

	lastID  contract.ObjectID
	last    []contract.Change
	hasLast bool
}

// NewExtractor returns an Extractor. A nil filter keeps every path.
func NewExtractor(backend contract.Backend, filter *contract.PathFilter) *Extractor {
	return &Extractor{backend: backend, filter: filter}
}

// Changes returns the blob-level changes of commit.
func (e *Extractor) Changes(ctx context.Context, commit *contract.Commit) ([]contract.Change, error) {
	if e.hasLast && e.lastID == commit.ID {
		return e.last, nil
	}
	raw, err := e.backend.TreeDiff(ctx, commit, commit.FirstParent())
	if err != nil {
		return nil, corrupt(err)
	}
	changes := normalize(raw, e.filter)
	e.lastID, e.last, e.hasLast = commit.ID, changes, true
	return changes, nil
}

// normalize drops non-blob entries and filtered paths. A modification that
// turns a file into a submodule (or back) is reported as the blob side's
// deletion (or addition).
func normalize(raw []contract.Change, filter *contract.PathFilter) []contract.Change {
	out := make([]contract.Change, 0, len(raw))
	for _, ch := range raw {
		oldBlob, newBlob := contract.IsBlobMode(ch.OldMode), contract.IsBlobMode(ch.NewMode)
		switch ch.Kind {
		case contract.Addition:
			if !newBlob {
				continue
			}
		case contract.Deletion:
			if !oldBlob {
				continue
			}
		case contract.Modification:
			switch {
			case oldBlob && newBlob:
			case oldBlob:
				ch = contract.Change{Kind: contract.Deletion, Path: ch.Path, OldID: ch.OldID, OldMode: ch.OldMode}
			case newBlob:
				ch = contract.Change{Kind: contract.Addition, Path: ch.Path, NewID: ch.NewID, NewMode: ch.NewMode}
			default:
				continue
			}
		case contract.Rewrite:
			if !oldBlob || !newBlob {
				continue
			}
		}
		if !filter.Allow(ch.Path) {
			continue
		}
		out = append(out, ch)
	}
	return out
}
