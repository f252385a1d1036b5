package contract

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// ObjectID identifies a commit or blob. Equality is binary-exact.
type ObjectID = plumbing.Hash

// ZeroID is the zero object id.
var ZeroID = plumbing.ZeroHash

// Signature is the author or committer of a commit.
type Signature struct {
	Name   string
	Email  string
	Time   int64 // seconds since epoch
	Offset int   // UTC offset in seconds
}

// Identity returns the grouping key used by every aggregator.
func (s Signature) Identity() string {
	return fmt.Sprintf("%s <%s>", s.Name, s.Email)
}

// Local returns the signature time in its recorded time zone.
func (s Signature) Local() time.Time {
	return time.Unix(s.Time, 0).In(time.FixedZone("", s.Offset))
}

// Commit is the immutable metadata of one commit.
type Commit struct {
	ID        ObjectID
	Parents   []ObjectID
	Author    Signature
	Committer Signature
}

// IsMerge reports whether the commit has two or more parents.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// FirstParent returns the first parent or nil for a root commit.
func (c *Commit) FirstParent() *ObjectID {
	if len(c.Parents) == 0 {
		return nil
	}
	p := c.Parents[0]
	return &p
}

// ChangeKind tags a Change.
type ChangeKind int

// Change kinds.
const (
	Addition ChangeKind = iota
	Deletion
	Modification
	Rewrite
)

func (k ChangeKind) String() string {
	switch k {
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	case Modification:
		return "modification"
	case Rewrite:
		return "rewrite"
	default:
		return "unknown"
	}
}

// Change is one path-level change of a commit.
// Path is the new location (the old one for a Deletion); OldPath is set for a Rewrite.
type Change struct {
	Kind    ChangeKind
	Path    string
	OldPath string
	OldID   ObjectID
	NewID   ObjectID
	OldMode filemode.FileMode
	NewMode filemode.FileMode
}

// WalkRange bounds one history walk. Since is inclusive.
type WalkRange struct {
	Start ObjectID
	Since *ObjectID
}

// IsSince reports whether id is the inclusive lower bound of the walk.
func (r WalkRange) IsSince(id ObjectID) bool {
	return r.Since != nil && *r.Since == id
}

// LineStats holds line insert/delete counts of a blob diff.
type LineStats struct {
	Insertions int
	Removals   int
}

// DiffStats summarizes a whole-commit diff.
type DiffStats struct {
	FilesChanged int
	LinesAdded   int
	LinesRemoved int
}

// IsBlobMode reports whether a tree entry mode carries file content.
func IsBlobMode(m filemode.FileMode) bool {
	return m.IsFile()
}

// CountLines counts newline-terminated lines plus a trailing unterminated one.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
