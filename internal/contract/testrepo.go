package contract

import (
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// TestEpoch is the default author time of commits built by TestRepo.
var TestEpoch = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

// TestCommit describes one commit created by TestRepo.Commit.
type TestCommit struct {
	Name          string
	Email         string
	When          time.Time         // zero means TestEpoch
	CommitterWhen time.Time         // zero means When
	Files         map[string]string // path -> content, written and staged
	Deletes       []string
	Renames       map[string]string // old path -> new path
	Parents       []ObjectID        // overrides HEAD as the parent list when set
	Message       string
}

// TestRepo is an in-memory repository for tests.
type TestRepo struct {
	Repo *git.Repository
	fs   billy.Filesystem
	wt   *git.Worktree
}

// NewTestRepo initializes an empty repository with an unborn HEAD.
func NewTestRepo() (*TestRepo, error) {
	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	return &TestRepo{Repo: repo, fs: fs, wt: wt}, nil
}

// Backend returns a LocalBackend over the repository.
func (r *TestRepo) Backend() *LocalBackend {
	return NewLocalBackend(r.Repo)
}

// Commit applies the file operations of c and records a commit.
func (r *TestRepo) Commit(c TestCommit) (ObjectID, error) {
	for path, content := range c.Files {
		if err := util.WriteFile(r.fs, path, []byte(content), 0o644); err != nil {
			return ZeroID, fmt.Errorf("failed to write %s: %w", path, err)
		}
		if _, err := r.wt.Add(path); err != nil {
			return ZeroID, fmt.Errorf("failed to stage %s: %w", path, err)
		}
	}
	for from, to := range c.Renames {
		if _, err := r.wt.Move(from, to); err != nil {
			return ZeroID, fmt.Errorf("failed to move %s: %w", from, err)
		}
	}
	for _, path := range c.Deletes {
		if _, err := r.wt.Remove(path); err != nil {
			return ZeroID, fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	when := c.When
	if when.IsZero() {
		when = TestEpoch
	}
	name, email := c.Name, c.Email
	if name == "" {
		name, email = "Test Author", "test@example.com"
	}
	msg := c.Message
	if msg == "" {
		msg = "commit"
	}
	committed := c.CommitterWhen
	if committed.IsZero() {
		committed = when
	}

	hash, err := r.wt.Commit(msg, &git.CommitOptions{
		Author:            &object.Signature{Name: name, Email: email, When: when},
		Committer:         &object.Signature{Name: name, Email: email, When: committed},
		Parents:           c.Parents,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return ZeroID, fmt.Errorf("failed to commit: %w", err)
	}
	return hash, nil
}

// Tag creates a lightweight tag, or an annotated one when message is not empty.
func (r *TestRepo) Tag(name string, id ObjectID, message string) error {
	var opts *git.CreateTagOptions
	if message != "" {
		opts = &git.CreateTagOptions{
			Tagger:  &object.Signature{Name: "Tagger", Email: "tagger@example.com", When: TestEpoch},
			Message: message,
		}
	}
	_, err := r.Repo.CreateTag(name, id, opts)
	return err
}

// Branch points a branch at id.
func (r *TestRepo) Branch(name string, id ObjectID) error {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), id)
	return r.Repo.Storer.SetReference(ref)
}

// DropObject deletes an object from the store, leaving a hole in the history
// the way a shallow clone does.
func (r *TestRepo) DropObject(id ObjectID) error {
	st, ok := r.Repo.Storer.(*memory.Storage)
	if !ok {
		return fmt.Errorf("storage %T cannot drop objects", r.Repo.Storer)
	}
	delete(st.Objects, id)
	delete(st.Commits, id)
	return nil
}
