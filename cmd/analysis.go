package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/iocache"
	"github.com/huangsam/gitpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analysisSetup loads minimal configuration needed for analysis operations.
// This is a specialized setup that does NOT open stores or create tables,
// so migrations can run on a fresh database.
func analysisSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Handle empty backend as NoneBackend
	backend := schema.DatabaseBackend(viper.GetString("analysis-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("analysis-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// analysisSetupWrapper wraps analysisSetup to provide PreRunE for analysis commands.
func analysisSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisSetup()
}

// openAnalysisStore opens the configured analysis store through the global manager.
func openAnalysisStore() (contract.AnalysisStore, error) {
	if err := iocache.InitCaching("", "", cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return nil, fmt.Errorf("failed to initialize analysis: %w", err)
	}
	return cacheManager.GetAnalysisStore(), nil
}

// analysisCmd focused on analysis data management.
//
// Note: Analysis subcommands use minimal initialization (analysisSetup) instead of
// the full sharedSetup used by analyzer commands. This avoids Git repo validation
// and analyzer option processing for simple storage operations.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage historical analysis tracking and exports",
	Long: `Manage historical analysis data used for trend tracking and reporting.

When enabled with --analysis-backend, gitpulse records every run:
- Run metadata (uuid, analyzers, range, options, duration, commits walked)
- Every report flattened into metric rows

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show analysis tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  gitpulse analysis status --analysis-backend sqlite

  # Export for analysis in pandas/DuckDB
  gitpulse analysis export --analysis-backend sqlite --output-file pulse`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all historical analysis tracking data",
	Long: `Delete all stored analysis runs and their metric rows.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  gitpulse analysis export --analysis-backend sqlite --output-file backup
  gitpulse analysis clear --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, contract.GetAnalysisDBFilePath(), cfg.AnalysisDBConnect); err != nil {
			return fmt.Errorf("failed to clear analysis data: %w", err)
		}
		fmt.Println("Analysis data cleared successfully.")
		return nil
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display analysis tracking statistics and connection details",
	Long: `Show the backend, run count, newest and oldest run, total commits walked
and table sizes of the analysis store.

Examples:
  gitpulse analysis status --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := openAnalysisStore()
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("analysis tracking is disabled")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get analysis status: %w", err)
		}
		iocache.PrintAnalysisStatus(os.Stdout, status)
		return nil
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export historical data to Parquet for BI tools and analytics",
	Long: `Export all stored analysis data to Parquet.

Writes two files next to the --output-file prefix:
- <prefix>.analysis_runs.parquet  - one row per run
- <prefix>.report_metrics.parquet - one row per metric

Examples:
  gitpulse analysis export --analysis-backend sqlite --output-file pulse
  duckdb -c "SELECT * FROM read_parquet('pulse.report_metrics.parquet') LIMIT 10"`,
	PreRunE: analysisSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := openAnalysisStore()
		if err != nil {
			return err
		}
		if err := iocache.ExportAnalysis(os.Stdout, store, cfg.OutputFile); err != nil {
			return fmt.Errorf("failed to export analysis data: %w", err)
		}
		return nil
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the analysis tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  gitpulse analysis migrate --analysis-backend sqlite

  # Rollback everything
  gitpulse analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		result, err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, viper.GetInt("target-version"))
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Println(result)
		return nil
	},
}
