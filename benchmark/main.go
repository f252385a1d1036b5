// Package main benchmarks the gitpulse CLI across real repositories.
// Every command runs with the report cache disabled, then against a fresh
// SQLite cache where the first run is cold and the rest are warm.
//
// Prerequisites:
// - gitpulse binary installed and available in PATH
// - Test repositories cloned to the specified base directory
//
// Usage: go run benchmark/main.go [repo-base-dir] [repo...]
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
)

// defaultRepos are benchmarked when no repository names are given.
var defaultRepos = []string{"csv-parser", "fd", "git", "kubernetes"}

// benchCommand is one gitpulse invocation under test.
type benchCommand struct {
	name string
	args []string
}

// commands covers a cheap analyzer, a diffing one and the full single-pass report.
// Frecency pins --now so its reports are cacheable.
var commands = []benchCommand{
	{name: "streaks", args: []string{"streaks"}},
	{name: "churn", args: []string{"churn", "--per-file"}},
	{name: "frecency", args: []string{"frecency", "--now", "2025-01-01T00:00:00Z"}},
	{name: "report", args: []string{"report", "--now", "2025-01-01T00:00:00Z"}},
}

// BenchmarkResult holds the no-cache average, cold run and warm average of one command.
type BenchmarkResult struct {
	Repository  string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase    string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	TestRepos   []string
	CacheDir    string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s [repo-base-dir] [repo...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:    os.Args[1],
		Timeout:     5 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		TestRepos:   defaultRepos,
	}
	if len(os.Args) > 2 {
		config.TestRepos = os.Args[2:]
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	cacheDir, err := os.MkdirTemp("", "gitpulse-bench-*")
	if err != nil {
		fmt.Printf("Failed to create cache dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(cacheDir) }()
	config.CacheDir = cacheDir

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	if err := printSummary(results); err != nil {
		fmt.Printf("Failed to print summary: %v\n", err)
		os.Exit(1)
	}
}

// checkPrerequisites verifies that the gitpulse binary and test repositories exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("gitpulse"); err != nil {
		return errors.New("gitpulse binary not found in PATH")
	}
	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}
	return nil
}

// runBenchmarks executes every command against every configured repository
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.TestRepos), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)
		repoPath := filepath.Join(config.RepoBase, repo)
		for i, c := range commands {
			cacheFile := filepath.Join(config.CacheDir, fmt.Sprintf("%s-%d.db", repo, i))
			results = append(results, runBenchmarkSuite(config, repo, repoPath, c, cacheFile))
		}
	}
	return results
}

// runBenchmarkSuite runs the no-cache and cache phases for one command
func runBenchmarkSuite(config BenchmarkConfig, repo, repoPath string, c benchCommand, cacheFile string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", c.name, repo)

	noCache := runPhase(config, repoPath, c, []string{"--cache-backend", "none"}, config.NoCacheRuns)
	withCache := runPhase(config, repoPath, c, []string{"--cache-backend", "sqlite", "--cache-db-connect", cacheFile}, config.CacheRuns)

	result := BenchmarkResult{
		Repository:  repo,
		Command:     c.name,
		NoCacheTime: formatAverage(noCache),
		ColdTime:    "TIMEOUT",
		WarmTime:    "TIMEOUT",
	}
	if len(withCache) > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", withCache[0])
		result.WarmTime = formatAverage(withCache[1:])
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", result.NoCacheTime, result.ColdTime, result.WarmTime)
	return result
}

// runPhase runs a command numRuns times and returns the durations of the successful runs
func runPhase(config BenchmarkConfig, repoPath string, c benchCommand, cacheArgs []string, numRuns int) []float64 {
	args := append([]string{}, c.args...)
	args = append(args, cacheArgs...)
	args = append(args, "--quiet", "--output", "json")

	var times []float64
	for range numRuns {
		elapsed, err := runOnce(config.Timeout, repoPath, args)
		if err != nil {
			fmt.Printf("    run failed: %v\n", err)
			continue
		}
		times = append(times, elapsed.Seconds())
	}
	return times
}

// runOnce executes gitpulse once and fails on timeout, a non-zero exit or empty output
func runOnce(timeout time.Duration, repoPath string, args []string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "gitpulse", args...)
	cmd.Dir = repoPath

	start := time.Now()
	output, err := cmd.Output()
	elapsed := time.Since(start)
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err != nil {
		return 0, err
	}
	if len(output) == 0 {
		return 0, errors.New("no report written")
	}
	return elapsed, nil
}

func formatAverage(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("gitpulse_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"repo", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary renders all results as one table
func printSummary(results []BenchmarkResult) error {
	fmt.Printf("Benchmark complete\n")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Repo", "Command", "No-cache", "Cold", "Warm"})
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Repository, r.Command, r.NoCacheTime, r.ColdTime, r.WarmTime})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
