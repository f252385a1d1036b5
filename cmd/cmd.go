// Package cmd defines the command-line interface for gitpulse.
package cmd

import (
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add one subcommand per analyzer plus the combined report
	for _, c := range analyzerCmds {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("rev-spec", contract.DefaultRevSpec, "Revision to start the walk from")
	rootCmd.PersistentFlags().String("since", "", "Revision whose ancestors are excluded from the walk")
	rootCmd.PersistentFlags().String("until", "", "Revision to start the walk from (overrides --rev-spec)")
	rootCmd.PersistentFlags().String("author", "", "Only count commits whose author matches this name or email")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	rootCmd.PersistentFlags().Bool("skip-vendor", false, "Ignore vendored, generated and documentation paths")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Do not print the analysis header")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of churnCmd to Viper
	churnCmd.Flags().Bool("per-file", false, "Group churn by path instead of author")
	if err := viper.BindPFlags(churnCmd.Flags()); err != nil {
		contract.LogFatal("Error binding churn flags", err)
	}

	// Bind all flags of commitSizeCmd to Viper
	commitSizeCmd.Flags().String("percentiles", "", "Comma-separated percentiles to report (e.g. 50,90,99)")
	if err := viper.BindPFlags(commitSizeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding commit-size flags", err)
	}

	// Bind all flags of frecencyCmd to Viper
	frecencyCmd.Flags().String("paths", "", "Comma-separated repo-relative paths to score (default: all)")
	frecencyCmd.Flags().Int("max-commits", 0, "Stop after this many commits (0 = unlimited)")
	frecencyCmd.Flags().Bool("ascending", false, "Sort from lowest to highest score")
	frecencyCmd.Flags().Bool("paths-only", false, "Print paths without scores")
	frecencyCmd.Flags().Float64("age-exp", contract.DefaultAgeExponent, "Exponent applied to commit age in days")
	frecencyCmd.Flags().String("size-ref", "", "Reference file size that scales scores, in bytes or human units like 4KiB (default 1024)")
	frecencyCmd.Flags().String("now", "", "Reference time: RFC3339, unix seconds or 'N units ago'")
	if err := viper.BindPFlags(frecencyCmd.Flags()); err != nil {
		contract.LogFatal("Error binding frecency flags", err)
	}

	// Bind all flags of ownershipCmd to Viper
	ownershipCmd.Flags().Int("depth", contract.DefaultOwnershipDepth, "Number of leading path components to group by (0 = whole repo)")
	ownershipCmd.Flags().String("path", "", "Glob limiting which paths are counted")
	if err := viper.BindPFlags(ownershipCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ownership flags", err)
	}

	// Bind all flags of timeOfDayCmd to Viper
	timeOfDayCmd.Flags().Int("bins", contract.DefaultTimeBins, "Number of buckets the day is split into (1-24)")
	if err := viper.BindPFlags(timeOfDayCmd.Flags()); err != nil {
		contract.LogFatal("Error binding time-of-day flags", err)
	}

	// Bind all flags of hoursCmd to Viper
	hoursCmd.Flags().Bool("no-bots", false, "Skip authors whose name contains [bot]")
	hoursCmd.Flags().Bool("show-pii", false, "Include the per-author breakdown")
	hoursCmd.Flags().Bool("file-stats", false, "Count added, removed and modified files")
	hoursCmd.Flags().Bool("line-stats", false, "Count lines added and removed")
	hoursCmd.Flags().Bool("omit-unify-identities", false, "Keep identities that share an email separate")
	if err := viper.BindPFlags(hoursCmd.Flags()); err != nil {
		contract.LogFatal("Error binding hours flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
