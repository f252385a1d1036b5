package agg

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// testEpoch is the reference time of synthetic commits.
var testEpoch = time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)

// commitScenario describes one synthetic commit for aggregator tests.
type commitScenario struct {
	id        byte
	parents   []byte
	name      string
	email     string
	when      time.Time
	committed time.Time // zero means when
	changes   []contract.Change
}

func (s commitScenario) commit() *contract.Commit {
	c := &contract.Commit{
		ID: contract.ObjectID{s.id},
		Author: contract.Signature{
			Name:  s.name,
			Email: s.email,
			Time:  s.when.Unix(),
		},
	}
	_, c.Author.Offset = s.when.Zone()
	committed := s.committed
	if committed.IsZero() {
		committed = s.when
	}
	c.Committer = contract.Signature{Name: s.name, Email: s.email, Time: committed.Unix()}
	_, c.Committer.Offset = committed.Zone()
	for _, p := range s.parents {
		c.Parents = append(c.Parents, contract.ObjectID{p})
	}
	return c
}

// feed delivers scenarios to a in walk order, honouring its policy the way the
// engine does. It stops early when a returns contract.ErrStopWalk.
func feed(a contract.Aggregator, scenarios ...commitScenario) error {
	for _, s := range scenarios {
		c := s.commit()
		var changes []contract.Change
		switch a.Policy() {
		case contract.NoChanges:
		case contract.SkipMergeChanges:
			if c.IsMerge() {
				continue
			}
			changes = s.changes
		default:
			changes = s.changes
		}
		if err := a.Update(context.Background(), c, changes); err != nil {
			if errors.Is(err, contract.ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}

func blobID(b byte) contract.ObjectID {
	return contract.ObjectID{0xb0, b}
}

func added(path string, blob byte) contract.Change {
	return contract.Change{Kind: contract.Addition, Path: path, NewID: blobID(blob)}
}

func deleted(path string, blob byte) contract.Change {
	return contract.Change{Kind: contract.Deletion, Path: path, OldID: blobID(blob)}
}

func modified(path string, oldBlob, newBlob byte) contract.Change {
	return contract.Change{Kind: contract.Modification, Path: path, OldID: blobID(oldBlob), NewID: blobID(newBlob)}
}

func renamed(from, to string, blob byte) contract.Change {
	return contract.Change{Kind: contract.Rewrite, Path: to, OldPath: from, OldID: blobID(blob), NewID: blobID(blob)}
}

// finishAs asserts the report type of a finished aggregator.
func finishAs[T schema.Report](a contract.Aggregator) T {
	return a.Finish().(T)
}
