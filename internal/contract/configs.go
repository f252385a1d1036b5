package contract

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/gitpulse/schema"
)

// Default values for configuration.
const (
	DefaultRevSpec        = "HEAD"
	DefaultPrecision      = 2
	MaxPrecision          = 4
	DefaultAgeExponent    = 2.0
	DefaultSizeRef        = 1024.0
	DefaultOwnershipDepth = 1
	DefaultTimeBins       = 24
	MaxTimeBins           = 24
)

// nowFunc is the wall clock used when no reference time is configured.
var nowFunc = time.Now

// ChurnOptions configures the churn analyzer.
type ChurnOptions struct {
	PerFile bool // group by path instead of author
}

// CommitSizeOptions configures the commit-size analyzer.
type CommitSizeOptions struct {
	Percentiles []float64
}

// Validate rejects percentiles outside [0, 100].
func (o CommitSizeOptions) Validate() error {
	for _, p := range o.Percentiles {
		if math.IsNaN(p) || p < 0 || p > 100 {
			return fmt.Errorf("%w: percentile must be in [0, 100] (received %v)", ErrInvalidConfiguration, p)
		}
	}
	return nil
}

// FrecencyOptions configures the frecency analyzer.
type FrecencyOptions struct {
	Paths       []string // exact repo-relative allow-list; empty allows all
	MaxCommits  int      // 0 means unlimited
	Ascending   bool
	PathsOnly   bool
	AgeExponent float64
	SizeRef     float64
	Now         time.Time
	NowExplicit bool // Now came from the caller rather than the wall clock
}

// Validate checks the numeric parameters of the score formula.
func (o FrecencyOptions) Validate() error {
	if math.IsNaN(o.SizeRef) || o.SizeRef <= 0 {
		return fmt.Errorf("%w: size-ref must be positive (received %v)", ErrInvalidConfiguration, o.SizeRef)
	}
	if math.IsNaN(o.AgeExponent) || math.IsInf(o.AgeExponent, 0) || o.AgeExponent <= 0 {
		return fmt.Errorf("%w: age-exp must be a positive number (received %v)", ErrInvalidConfiguration, o.AgeExponent)
	}
	if o.MaxCommits < 0 {
		return fmt.Errorf("%w: max-commits cannot be negative (received %d)", ErrInvalidConfiguration, o.MaxCommits)
	}
	return nil
}

// OwnershipOptions configures the ownership analyzer.
type OwnershipOptions struct {
	Depth int
	Path  string // gitignore-style glob list, comma separated
}

// Validate rejects a negative depth.
func (o OwnershipOptions) Validate() error {
	if o.Depth < 0 {
		return fmt.Errorf("%w: depth cannot be negative (received %d)", ErrInvalidConfiguration, o.Depth)
	}
	return nil
}

// TimeOfDayOptions configures the time-of-day analyzer.
type TimeOfDayOptions struct {
	Bins int
}

// Validate requires bins in 1..24.
func (o TimeOfDayOptions) Validate() error {
	if o.Bins < 1 || o.Bins > MaxTimeBins {
		return fmt.Errorf("%w: bins must be in 1..=%d (received %d)", ErrInvalidConfiguration, MaxTimeBins, o.Bins)
	}
	return nil
}

// HoursOptions configures the hours estimate.
type HoursOptions struct {
	NoBots              bool
	ShowPII             bool
	FileStats           bool
	LineStats           bool
	OmitUnifyIdentities bool
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath   string
	RevSpec    string
	Since      string
	Until      string
	Author     string
	Excludes   []string
	SkipVendor bool

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	LogLevel   slog.Level

	Churn      ChurnOptions
	CommitSize CommitSizeOptions
	Frecency   FrecencyOptions
	Ownership  OwnershipOptions
	TimeOfDay  TimeOfDayOptions
	Hours      HoursOptions

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	RevSpec           string `mapstructure:"rev-spec"`
	Since             string `mapstructure:"since"`
	Until             string `mapstructure:"until"`
	Author            string `mapstructure:"author"`
	Exclude           string `mapstructure:"exclude"`
	SkipVendor        bool   `mapstructure:"skip-vendor"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Precision         int    `mapstructure:"precision"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	LogLevel          string `mapstructure:"log-level"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Fields from churnCmd.Flags() ---
	PerFile bool `mapstructure:"per-file"`

	// --- Fields from commitSizeCmd.Flags() ---
	Percentiles string `mapstructure:"percentiles"`

	// --- Fields from frecencyCmd.Flags() ---
	Paths      string  `mapstructure:"paths"`
	MaxCommits int     `mapstructure:"max-commits"`
	Ascending  bool    `mapstructure:"ascending"`
	PathsOnly  bool    `mapstructure:"paths-only"`
	AgeExp     float64 `mapstructure:"age-exp"`
	SizeRef    string  `mapstructure:"size-ref"`
	Now        string  `mapstructure:"now"`

	// --- Fields from ownershipCmd.Flags() ---
	Depth int    `mapstructure:"depth"`
	Path  string `mapstructure:"path"`

	// --- Fields from timeOfDayCmd.Flags() ---
	Bins int `mapstructure:"bins"`

	// --- Fields from hoursCmd.Flags() ---
	NoBots              bool `mapstructure:"no-bots"`
	ShowPII             bool `mapstructure:"show-pii"`
	FileStats           bool `mapstructure:"file-stats"`
	LineStats           bool `mapstructure:"line-stats"`
	OmitUnifyIdentities bool `mapstructure:"omit-unify-identities"`
}

// DefaultConfigRawInput returns the raw inputs every entry point starts from
// before flags, env vars or tool arguments are applied.
func DefaultConfigRawInput() ConfigRawInput {
	return ConfigRawInput{
		RevSpec:      DefaultRevSpec,
		Output:       string(schema.TextOut),
		Precision:    DefaultPrecision,
		LogLevel:     "info",
		CacheBackend: string(schema.SQLiteBackend),
		Depth:        DefaultOwnershipDepth,
		Bins:         DefaultTimeBins,
		AgeExp:       DefaultAgeExponent,
	}
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Excludes = slices.Clone(c.Excludes)
	clone.CommitSize.Percentiles = slices.Clone(c.CommitSize.Percentiles)
	clone.Frecency.Paths = slices.Clone(c.Frecency.Paths)
	return &clone
}

// StartSpec returns the revision the walk starts from. Until overrides RevSpec.
func (c *Config) StartSpec() string {
	if c.Until != "" {
		return c.Until
	}
	return c.RevSpec
}

// Validate runs every analyzer option check.
func (c *Config) Validate() error {
	if err := c.CommitSize.Validate(); err != nil {
		return err
	}
	if err := c.Frecency.Validate(); err != nil {
		return err
	}
	if err := c.Ownership.Validate(); err != nil {
		return err
	}
	return c.TimeOfDay.Validate()
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := resolveRepoPath(cfg, input); err != nil {
		return err
	}
	if err := processAnalyzerOptions(cfg, input); err != nil {
		return err
	}
	return cfg.Validate()
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// Cache and analysis storage must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-analyzer fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.RevSpec = strings.TrimSpace(input.RevSpec)
	if cfg.RevSpec == "" {
		cfg.RevSpec = DefaultRevSpec
	}
	cfg.Since = strings.TrimSpace(input.Since)
	cfg.Until = strings.TrimSpace(input.Until)
	cfg.Author = strings.TrimSpace(input.Author)
	cfg.SkipVendor = input.SkipVendor
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Excludes = splitList(input.Exclude)

	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	return validateBackendConfigs(cfg, input)
}

// processAnalyzerOptions parses every analyzer-specific flag into cfg.
func processAnalyzerOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.Churn = ChurnOptions{PerFile: input.PerFile}

	percentiles, err := parsePercentiles(input.Percentiles)
	if err != nil {
		return err
	}
	cfg.CommitSize = CommitSizeOptions{Percentiles: percentiles}

	frecency := FrecencyOptions{
		MaxCommits:  input.MaxCommits,
		Ascending:   input.Ascending,
		PathsOnly:   input.PathsOnly,
		AgeExponent: input.AgeExp,
		SizeRef:     DefaultSizeRef,
		Now:         nowFunc(),
	}
	if frecency.AgeExponent == 0 {
		frecency.AgeExponent = DefaultAgeExponent
	}
	if input.SizeRef != "" {
		frecency.SizeRef, err = parseSizeRef(input.SizeRef)
		if err != nil {
			return err
		}
	}
	if input.Now != "" {
		t, err := ParseReferenceTime(input.Now, frecency.Now)
		if err != nil {
			return fmt.Errorf("%w: invalid --now: %v", ErrInvalidConfiguration, err)
		}
		frecency.Now = t
		frecency.NowExplicit = true
	}
	for _, p := range splitList(input.Paths) {
		normalized, err := NormalizeRepoPath(cfg.RepoPath, p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		frecency.Paths = append(frecency.Paths, normalized)
	}
	cfg.Frecency = frecency

	cfg.Ownership = OwnershipOptions{Depth: input.Depth, Path: strings.TrimSpace(input.Path)}
	cfg.TimeOfDay = TimeOfDayOptions{Bins: input.Bins}
	cfg.Hours = HoursOptions{
		NoBots:              input.NoBots,
		ShowPII:             input.ShowPII,
		FileStats:           input.FileStats,
		LineStats:           input.LineStats,
		OmitUnifyIdentities: input.OmitUnifyIdentities,
	}
	return nil
}

// resolveRepoPath resolves the Git repository root from the positional argument.
func resolveRepoPath(cfg *Config, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	if info, statErr := os.Stat(absSearchPath); statErr == nil && !info.IsDir() {
		absSearchPath = filepath.Dir(absSearchPath)
	}

	root, err := ResolveRepoRoot(absSearchPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = root
	return nil
}

// parsePercentiles parses a comma separated list such as "50,90,99.5".
func parsePercentiles(s string) ([]float64, error) {
	var out []float64
	for _, part := range splitList(s) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid percentile %q", ErrInvalidConfiguration, part)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseSizeRef accepts plain byte counts and human sizes such as "4KiB".
func parseSizeRef(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid size-ref %q", ErrInvalidConfiguration, s)
	}
	return float64(v), nil
}

// splitList splits a comma separated value and drops blank items.
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
