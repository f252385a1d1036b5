package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// currentCacheVersion defines the version of the cached report encoding.
const currentCacheVersion = 1

// cacheTTL bounds the age of a usable cache entry.
const cacheTTL = 7 * 24 * time.Hour

// reportCache reads and writes finished reports keyed by the resolved walk
// range, the global filters and the options of each analyzer.
// A cache without a store or without a resolvable range misses every lookup.
type reportCache struct {
	store    contract.CacheStore
	cfg      *contract.Config
	rangeKey string
}

func newReportCache(store contract.CacheStore, cfg *contract.Config, backend contract.Backend) *reportCache {
	c := &reportCache{store: store, cfg: cfg}
	if store == nil {
		return c
	}
	r, err := ResolveRange(backend, cfg.StartSpec(), cfg.Since)
	if err != nil {
		return c // the walk reports it
	}
	c.rangeKey = r.Start.String()
	if r.Since != nil {
		c.rangeKey = r.Since.String() + ".." + c.rangeKey
	}
	return c
}

// cacheable reports whether a report of kind only depends on the history and
// the configuration. Frecency also depends on the wall clock unless --now is given.
func cacheable(kind schema.AnalyzerKind, cfg *contract.Config) bool {
	return kind != schema.FrecencyAnalyzer || cfg.Frecency.NowExplicit
}

func (c *reportCache) enabled(kind schema.AnalyzerKind) bool {
	return c.store != nil && c.rangeKey != "" && cacheable(kind, c.cfg)
}

// lookup returns the cached report of kind, or nil on a miss.
func (c *reportCache) lookup(kind schema.AnalyzerKind) schema.Report {
	if !c.enabled(kind) {
		return nil
	}
	data, version, ts, err := c.store.Get(c.key(kind))
	if err != nil {
		return nil // Cache miss
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil // Stale or version mismatch
	}
	reports, err := schema.DecodeReports(data)
	if err != nil || len(reports) != 1 || reports[0].Kind() != kind {
		slog.Debug("discarding unreadable cache entry", "analyzer", kind, "error", err)
		return nil
	}
	slog.Debug("report cache hit", "analyzer", kind)
	return reports[0]
}

// save stores report under the key of kind. Failures only cost a future miss.
func (c *reportCache) save(kind schema.AnalyzerKind, report schema.Report) {
	if !c.enabled(kind) {
		return
	}
	data, err := schema.EncodeReports([]schema.Report{report})
	if err == nil {
		err = c.store.Set(c.key(kind), data, currentCacheVersion, time.Now().Unix())
	}
	if err != nil {
		slog.Warn("failed to cache report", "analyzer", kind, "error", err)
	}
}

// key hashes everything a report of kind depends on.
func (c *reportCache) key(kind schema.AnalyzerKind) string {
	opts, _ := json.Marshal(analyzerOptions(kind, c.cfg))
	raw := fmt.Sprintf("%s:%s:%s:%s:%s:%t:%s",
		c.cfg.RepoPath,
		kind,
		c.rangeKey,
		NewAuthorFilter(c.cfg.Author).pattern,
		strings.Join(c.cfg.Excludes, ","),
		c.cfg.SkipVendor,
		opts,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// analyzerOptions returns the option struct that shapes a report of kind.
func analyzerOptions(kind schema.AnalyzerKind, cfg *contract.Config) any {
	switch kind {
	case schema.ChurnAnalyzer:
		return cfg.Churn
	case schema.CommitSizeAnalyzer:
		return cfg.CommitSize
	case schema.FrecencyAnalyzer:
		return cfg.Frecency
	case schema.OwnershipAnalyzer:
		return cfg.Ownership
	case schema.TimeOfDayAnalyzer:
		return cfg.TimeOfDay
	case schema.HoursAnalyzer:
		return cfg.Hours
	default:
		return nil
	}
}
