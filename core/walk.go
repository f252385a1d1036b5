package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/gitpulse/internal/contract"
)

// VisitFunc receives each commit of a walk. Returning contract.ErrStopWalk ends
// the walk after the current commit without error.
type VisitFunc func(commit *contract.Commit) error

// ResolveRange turns the start and optional since specs into a WalkRange.
// An unborn HEAD yields contract.ErrEmptyRepository.
func ResolveRange(backend contract.Backend, startSpec, sinceSpec string) (contract.WalkRange, error) {
	ok, err := backend.HasCommits()
	if err != nil {
		return contract.WalkRange{}, err
	}
	if !ok {
		return contract.WalkRange{}, contract.ErrEmptyRepository
	}

	start, err := backend.ResolveRevision(startSpec)
	if err != nil {
		return contract.WalkRange{}, unresolvable(startSpec, err)
	}
	r := contract.WalkRange{Start: start}
	if sinceSpec != "" {
		since, err := backend.ResolveRevision(sinceSpec)
		if err != nil {
			return contract.WalkRange{}, unresolvable(sinceSpec, err)
		}
		r.Since = &since
	}
	return r, nil
}

// Walk visits the ancestry of r.Start newest first. The since commit is
// visited and then the walk stops; a since that is never reached lets the
// walk run to the root. It returns the number of commits visited.
func Walk(ctx context.Context, backend contract.Backend, r contract.WalkRange, visit VisitFunc) (int, error) {
	iter, err := backend.Ancestors(ctx, r.Start)
	if err != nil {
		return 0, corrupt(err)
	}
	defer iter.Close()

	visited := 0
	for {
		if err := ctx.Err(); err != nil {
			return visited, err
		}
		id, err := iter.Next()
		if errors.Is(err, io.EOF) {
			return visited, nil
		}
		if err != nil {
			return visited, corrupt(err)
		}
		commit, err := backend.LoadCommit(id)
		if err != nil {
			return visited, corrupt(err)
		}

		visited++
		if err := visit(commit); err != nil {
			if errors.Is(err, contract.ErrStopWalk) {
				return visited, nil
			}
			return visited, err
		}
		if r.IsSince(id) {
			return visited, nil
		}
	}
}

func unresolvable(spec string, err error) error {
	if errors.Is(err, contract.ErrUnresolvableRevision) {
		return err
	}
	return fmt.Errorf("%w: %q: %v", contract.ErrUnresolvableRevision, spec, err)
}

func corrupt(err error) error {
	if errors.Is(err, contract.ErrCorruptHistory) {
		return err
	}
	return fmt.Errorf("%w: %v", contract.ErrCorruptHistory, err)
}
