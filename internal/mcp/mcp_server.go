// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerVersion is reported to MCP clients during initialization.
const ServerVersion = "1.0.0"

// ToolNames lists every tool the server registers.
var ToolNames = []string{
	"get_churn",
	"get_commit_frequency",
	"get_commit_size",
	"get_frecency",
	"get_ownership",
	"get_streaks",
	"get_time_of_day",
	"get_hours",
	"get_report",
}

// historyOptions are the walk and filter arguments every tool accepts.
func historyOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to current directory if not specified).")),
		mcp.WithString("rev_spec", mcp.Description("Revision to start walking from. Defaults to HEAD.")),
		mcp.WithString("since", mcp.Description("Oldest revision to include (inclusive).")),
		mcp.WithString("until", mcp.Description("Revision to start from, overriding rev_spec.")),
		mcp.WithString("author", mcp.Description("Only count commits whose author name or email contains this text (case-insensitive).")),
		mcp.WithString("exclude", mcp.Description("Comma separated gitignore-style patterns of paths to ignore.")),
		mcp.WithBoolean("skip_vendor", mcp.Description("Ignore vendored and generated paths.")),
	}
}

// newTool builds a tool with the shared history arguments plus extra.
func newTool(name, description string, extra ...mcp.ToolOption) mcp.Tool {
	opts := append([]mcp.ToolOption{mcp.WithDescription(description)}, historyOptions()...)
	return mcp.NewTool(name, append(opts, extra...)...)
}

// NewMCPServer initializes and configures the gitpulse MCP server without starting it.
// Tool arguments are applied on top of base, which carries the flag, env and file defaults.
// This is exposed for unit testing.
func NewMCPServer(base contract.ConfigRawInput, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"gitpulse Analysis Server",
		ServerVersion,
		server.WithLogging(),
	)

	h := &toolHandler{base: base, mgr: mgr}

	s.AddTool(newTool("get_churn",
		"Lines added and removed per author, or per file with per_file.",
		mcp.WithBoolean("per_file", mcp.Description("Group by file path instead of author.")),
	), h.analyze(schema.ChurnAnalyzer))

	s.AddTool(newTool("get_commit_frequency",
		"Commits per day and ISO week, and active days per author.",
	), h.analyze(schema.CommitFrequencyAnalyzer))

	s.AddTool(newTool("get_commit_size",
		"Distribution of files and lines changed per commit.",
		mcp.WithString("percentiles", mcp.Description("Comma separated percentiles of lines changed, e.g. '50,90,99'.")),
	), h.analyze(schema.CommitSizeAnalyzer))

	s.AddTool(newTool("get_frecency",
		"Rank files by how often and how recently they changed, penalizing large files.",
		mcp.WithString("paths", mcp.Description("Comma separated repo-relative paths to score; all paths when empty.")),
		mcp.WithNumber("max_commits", mcp.Description("Stop after this many non-merge commits.")),
		mcp.WithBoolean("ascending", mcp.Description("Lowest scores first.")),
		mcp.WithBoolean("paths_only", mcp.Description("Return only the ranked paths.")),
		mcp.WithNumber("age_exp", mcp.Description("Exponent of the age decay. Defaults to 2.")),
		mcp.WithString("size_ref", mcp.Description("Reference blob size for the size penalty, e.g. '1024' or '4KiB'.")),
		mcp.WithString("now", mcp.Description("Reference time: RFC3339, unix seconds or 'N units ago'.")),
	), h.analyze(schema.FrecencyAnalyzer))

	s.AddTool(newTool("get_ownership",
		"Share of file touches per author for each directory bucket.",
		mcp.WithNumber("depth", mcp.Description("Number of directory segments per bucket. Defaults to 1.")),
		mcp.WithString("path", mcp.Description("Comma separated gitignore-style patterns of paths to include.")),
	), h.analyze(schema.OwnershipAnalyzer))

	s.AddTool(newTool("get_streaks",
		"Longest run of consecutive commit days per author.",
	), h.analyze(schema.StreaksAnalyzer))

	s.AddTool(newTool("get_time_of_day",
		"Commit counts per hour-of-day bucket in author local time.",
		mcp.WithNumber("bins", mcp.Description("Number of equal buckets in 1..24. Defaults to 24.")),
	), h.analyze(schema.TimeOfDayAnalyzer))

	s.AddTool(newTool("get_hours",
		"Estimate hours spent from commit timestamps.",
		mcp.WithBoolean("no_bots", mcp.Description("Skip authors whose name contains [bot].")),
		mcp.WithBoolean("show_pii", mcp.Description("Include the per-author breakdown.")),
		mcp.WithBoolean("file_stats", mcp.Description("Count files added, removed and modified.")),
		mcp.WithBoolean("line_stats", mcp.Description("Count lines added and removed.")),
		mcp.WithBoolean("omit_unify_identities", mcp.Description("Treat every name and email pair as its own author.")),
	), h.analyze(schema.HoursAnalyzer))

	s.AddTool(newTool("get_report",
		"Run every analyzer in a single history walk.",
	), h.analyze(schema.AllAnalyzers...))

	return s
}

// StartMCPServer starts the gitpulse MCP server on stdio.
func StartMCPServer(_ context.Context, base contract.ConfigRawInput, mgr contract.CacheManager) error {
	s := NewMCPServer(base, mgr)
	return server.ServeStdio(s)
}
