// Package agg has the history aggregators. Each one folds the commit stream
// of a single walk into one report.
package agg

import (
	"fmt"
	"log/slog"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// New builds the aggregator for kind from a validated config.
func New(kind schema.AnalyzerKind, cfg *contract.Config, backend contract.Backend) (contract.Aggregator, error) {
	switch kind {
	case schema.ChurnAnalyzer:
		return NewChurn(backend, cfg.Churn), nil
	case schema.CommitFrequencyAnalyzer:
		return NewCommitFrequency(), nil
	case schema.CommitSizeAnalyzer:
		return NewCommitSize(backend, contract.NewPathFilter(cfg.Excludes, cfg.SkipVendor), cfg.CommitSize)
	case schema.FrecencyAnalyzer:
		return NewFrecency(backend, cfg.Frecency)
	case schema.OwnershipAnalyzer:
		return NewOwnership(cfg.Ownership)
	case schema.StreaksAnalyzer:
		return NewStreaks(), nil
	case schema.TimeOfDayAnalyzer:
		return NewTimeOfDay(cfg.TimeOfDay)
	case schema.HoursAnalyzer:
		return NewHours(backend, contract.NewPathFilter(cfg.Excludes, cfg.SkipVendor), cfg.Hours), nil
	default:
		return nil, fmt.Errorf("%w: unknown analyzer %q", contract.ErrInvalidConfiguration, kind)
	}
}

// NewAll builds one aggregator per kind, validating every option up front.
func NewAll(kinds []schema.AnalyzerKind, cfg *contract.Config, backend contract.Backend) ([]contract.Aggregator, error) {
	aggs := make([]contract.Aggregator, 0, len(kinds))
	for _, kind := range kinds {
		a, err := New(kind, cfg, backend)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, a)
	}
	return aggs, nil
}

// warnBlob logs a per-blob backend failure that is degraded to a zero value.
func warnBlob(op string, id contract.ObjectID, err error) {
	slog.Warn("blob read failed, counting as zero", "op", op, "blob", id.String(), "error", err)
}
