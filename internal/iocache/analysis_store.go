package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable  = "gitpulse_analysis_runs"
	reportMetricsTable = "gitpulse_report_metrics"
)

// analysisTables lists the tracking tables in creation order.
var analysisTables = []string{analysisRunsTable, reportMetricsTable}

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}
	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables creates the analysis tracking tables.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	queries := map[string]string{
		analysisRunsTable:  getCreateAnalysisRunsQuery(backend),
		reportMetricsTable: getCreateReportMetricsQuery(backend),
	}
	for _, table := range analysisTables {
		if _, err := db.Exec(queries[table]); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// getCreateAnalysisRunsQuery returns the CREATE TABLE query for gitpulse_analysis_runs.
func getCreateAnalysisRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(analysisRunsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				repo_path VARCHAR(1024) NOT NULL,
				analyzers VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				commits_walked INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				repo_path TEXT NOT NULL,
				analyzers TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				commits_walked INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				repo_path TEXT NOT NULL,
				analyzers TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				commits_walked INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)
	}
}

// getCreateReportMetricsQuery returns the CREATE TABLE query for gitpulse_report_metrics.
func getCreateReportMetricsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(reportMetricsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				analyzer VARCHAR(32) NOT NULL,
				metric_key VARCHAR(400) NOT NULL,
				sub_key VARCHAR(255) NOT NULL DEFAULT '',
				metric VARCHAR(64) NOT NULL,
				value DOUBLE NOT NULL,
				PRIMARY KEY (analysis_id, analyzer, metric_key, sub_key, metric)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				analyzer TEXT NOT NULL,
				metric_key TEXT NOT NULL,
				sub_key TEXT NOT NULL DEFAULT '',
				metric TEXT NOT NULL,
				value DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (analysis_id, analyzer, metric_key, sub_key, metric)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER NOT NULL,
				analyzer TEXT NOT NULL,
				metric_key TEXT NOT NULL,
				sub_key TEXT NOT NULL DEFAULT '',
				metric TEXT NOT NULL,
				value REAL NOT NULL,
				PRIMARY KEY (analysis_id, analyzer, metric_key, sub_key, metric)
			);
		`, quoted)
	}
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(run contract.AnalysisRun) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(run.ConfigParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}
	analyzers := make([]string, len(run.Analyzers))
	for i, a := range run.Analyzers {
		analyzers[i] = string(a)
	}

	quoted := quoteTableName(analysisRunsTable, as.backend)
	args := []any{run.RunUUID, run.RepoPath, strings.Join(analyzers, ","), formatTime(run.StartTime, as.backend), string(configJSON)}

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, repo_path, analyzers, start_time, config_params)
			VALUES ($1, $2, $3, $4, $5) RETURNING analysis_id`, quoted)
		err = as.db.QueryRow(query, args...).Scan(&analysisID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, repo_path, analyzers, start_time, config_params)
			VALUES (?, ?, ?, ?, ?)`, quoted)
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis updates the analysis run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, commitsWalked int) error {
	if as.db == nil {
		return nil
	}

	quoted := quoteTableName(analysisRunsTable, as.backend)
	row := as.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quoted, placeholder(as.backend, 1)), analysisID)
	startTime, err := scanTime(row, as.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	query := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, commits_walked = %s WHERE analysis_id = %s`,
		quoted, placeholder(as.backend, 1), placeholder(as.backend, 2), placeholder(as.backend, 3), placeholder(as.backend, 4))
	if _, err := as.db.Exec(query, formatTime(endTime, as.backend), durationMs, commitsWalked, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordMetrics stores the flattened rows of a report in one transaction.
func (as *AnalysisStoreImpl) RecordMetrics(analysisID int64, rows []schema.MetricRow) error {
	if as.db == nil || len(rows) == 0 {
		return nil
	}

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (analysis_id, analyzer, metric_key, sub_key, metric, value) VALUES (%s, %s, %s, %s, %s, %s)`,
		quoteTableName(reportMetricsTable, as.backend),
		placeholder(as.backend, 1), placeholder(as.backend, 2), placeholder(as.backend, 3),
		placeholder(as.backend, 4), placeholder(as.backend, 5), placeholder(as.backend, 6))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare metric insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		if _, err := stmt.Exec(analysisID, string(r.Analyzer), r.Key, r.SubKey, r.Metric, r.Value); err != nil {
			return fmt.Errorf("failed to insert metric %s/%s: %w", r.Key, r.Metric, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metrics: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	runs := quoteTableName(analysisRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := as.db.QueryRow(fmt.Sprintf("SELECT analysis_id FROM %s ORDER BY analysis_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		var err error
		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs))
		if status.LastRunTime, err = scanTime(row, as.backend); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs))
		if status.OldestRunTime, err = scanTime(row, as.backend); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		row = as.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(commits_walked), 0) FROM %s", runs))
		if err := row.Scan(&status.TotalCommitsWalked); err != nil {
			return status, fmt.Errorf("failed to get total commits walked: %w", err)
		}
	}

	for _, table := range analysisTables {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, run_uuid, repo_path, analyzers, start_time, end_time,
		run_duration_ms, commits_walked, config_params FROM %s ORDER BY analysis_id`, quoteTableName(analysisRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		dest := []any{&record.AnalysisID, &record.RunUUID, &record.RepoPath, &record.Analyzers}
		tail := []any{&record.RunDurationMs, &record.CommitsWalked, &record.ConfigParams}

		if as.backend == schema.SQLiteBackend {
			var startStr string
			var endStr *string
			if err := rows.Scan(append(append(dest, &startStr, &endStr), tail...)...); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
			if record.StartTime, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				end, err := time.Parse(time.RFC3339Nano, *endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &end
			}
		} else if err := rows.Scan(append(append(dest, &record.StartTime, &record.EndTime), tail...)...); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllMetrics retrieves all metric rows ordered by run.
func (as *AnalysisStoreImpl) GetAllMetrics() ([]schema.MetricRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, analyzer, metric_key, sub_key, metric, value FROM %s
		ORDER BY analysis_id, analyzer, metric_key, sub_key, metric`, quoteTableName(reportMetricsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MetricRecord
	for rows.Next() {
		var r schema.MetricRecord
		if err := rows.Scan(&r.AnalysisID, &r.Analyzer, &r.MetricKey, &r.SubKey, &r.Metric, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan report metric: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report metrics: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// scanTime reads one timestamp column written by formatTime.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}
