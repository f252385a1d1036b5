package contract

import (
	"path"
	"strings"

	"github.com/go-enry/go-enry/v2"
	gitignore "github.com/sabhiram/go-gitignore"
)

// PathFilter decides which changed paths reach the path-attributing aggregators.
// Patterns use gitignore syntax.
type PathFilter struct {
	excludes   *gitignore.GitIgnore
	skipVendor bool
}

// NewPathFilter compiles the exclude patterns. Blank patterns are ignored.
func NewPathFilter(excludes []string, skipVendor bool) *PathFilter {
	f := &PathFilter{skipVendor: skipVendor}
	if lines := compactPatterns(excludes); len(lines) > 0 {
		f.excludes = gitignore.CompileIgnoreLines(lines...)
	}
	return f
}

// Allow reports whether path passes the filter. A nil filter allows everything.
func (f *PathFilter) Allow(p string) bool {
	if f == nil {
		return true
	}
	if f.excludes != nil && f.excludes.MatchesPath(p) {
		return false
	}
	if f.skipVendor && enry.IsVendor(p) {
		return false
	}
	return true
}

// PathGlob is an allow-list of gitignore-syntax patterns.
type PathGlob struct {
	matcher *gitignore.GitIgnore
}

// NewPathGlob compiles a comma separated pattern list. It returns nil for an
// empty list, and a nil PathGlob matches every path.
func NewPathGlob(patterns string) *PathGlob {
	lines := compactPatterns(strings.Split(patterns, ","))
	if len(lines) == 0 {
		return nil
	}
	return &PathGlob{matcher: gitignore.CompileIgnoreLines(lines...)}
}

// Match reports whether p is selected by the glob.
func (g *PathGlob) Match(p string) bool {
	if g == nil {
		return true
	}
	return g.matcher.MatchesPath(p)
}

// Language guesses the language of a path from its file name.
func Language(p string) string {
	return enry.GetLanguage(path.Base(p), nil)
}

func compactPatterns(in []string) []string {
	var out []string
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
