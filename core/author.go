package core

import (
	"strings"

	"github.com/huangsam/gitpulse/internal/contract"
)

// AuthorFilter matches commits whose author name or email contains a pattern,
// ignoring case. The zero value matches everything.
type AuthorFilter struct {
	pattern string
}

// NewAuthorFilter builds a filter for pattern. A blank pattern matches all authors.
func NewAuthorFilter(pattern string) AuthorFilter {
	return AuthorFilter{pattern: strings.ToLower(strings.TrimSpace(pattern))}
}

// Match reports whether sig passes the filter.
func (f AuthorFilter) Match(sig contract.Signature) bool {
	if f.pattern == "" {
		return true
	}
	return strings.Contains(strings.ToLower(sig.Name), f.pattern) ||
		strings.Contains(strings.ToLower(sig.Email), f.pattern)
}
