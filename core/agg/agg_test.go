package agg

import (
	"testing"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *contract.Config {
	return &contract.Config{
		CommitSize: contract.CommitSizeOptions{Percentiles: []float64{50, 90}},
		Frecency:   frecencyOptions(),
		Ownership:  contract.OwnershipOptions{Depth: contract.DefaultOwnershipDepth},
		TimeOfDay:  contract.TimeOfDayOptions{Bins: contract.DefaultTimeBins},
	}
}

func TestNewAll(t *testing.T) {
	aggs, err := NewAll(schema.AllAnalyzers, validConfig(), new(contract.MockBackend))
	require.NoError(t, err)
	require.Len(t, aggs, len(schema.AllAnalyzers))
	for i, a := range aggs {
		assert.Equal(t, schema.AllAnalyzers[i], a.Kind())
		assert.Equal(t, a.Kind(), a.Finish().Kind())
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New("bus-factor", validConfig(), nil)
	assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)

	cfg := validConfig()
	cfg.TimeOfDay.Bins = 0
	_, err = NewAll([]schema.AnalyzerKind{schema.ChurnAnalyzer, schema.TimeOfDayAnalyzer}, cfg, nil)
	assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)

	cfg = validConfig()
	cfg.CommitSize.Percentiles = []float64{-1}
	_, err = New(schema.CommitSizeAnalyzer, cfg, nil)
	assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)
}

func TestNew_DiffStatsFollowGlobalFilter(t *testing.T) {
	cfg := validConfig()
	cfg.Excludes = []string{"*.lock"}
	cfg.SkipVendor = true

	size, err := New(schema.CommitSizeAnalyzer, cfg, nil)
	require.NoError(t, err)
	hours, err := New(schema.HoursAnalyzer, cfg, nil)
	require.NoError(t, err)

	for _, f := range []*contract.PathFilter{size.(*CommitSize).filter, hours.(*Hours).filter} {
		assert.False(t, f.Allow("go.lock"))
		assert.False(t, f.Allow("vendor/a.go"))
		assert.True(t, f.Allow("main.go"))
	}
}
