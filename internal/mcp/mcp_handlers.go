package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/huangsam/gitpulse/core"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/outwriter"
	"github.com/huangsam/gitpulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	base contract.ConfigRawInput
	mgr  contract.CacheManager
}

// analyze returns a handler running kinds in one walk and answering with JSON.
// Tool failures are reported as error results, never as protocol errors.
func (h *toolHandler) analyze(kinds ...schema.AnalyzerKind) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg, err := h.configFor(request)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
		}

		result, err := core.Analyze(ctx, cfg, h.mgr, kinds)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		var buf bytes.Buffer
		if err := outwriter.WriteJSONReports(&buf, result.Reports); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(buf.String()), nil
	}
}

// configFor applies the tool arguments to the base inputs and validates them
// the same way the CLI does.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	in := h.base
	in.RepoPathStr = request.GetString("repo_path", in.RepoPathStr)
	in.RevSpec = request.GetString("rev_spec", in.RevSpec)
	in.Since = request.GetString("since", in.Since)
	in.Until = request.GetString("until", in.Until)
	in.Author = request.GetString("author", in.Author)
	in.Exclude = request.GetString("exclude", in.Exclude)
	in.SkipVendor = request.GetBool("skip_vendor", in.SkipVendor)

	in.PerFile = request.GetBool("per_file", in.PerFile)
	in.Percentiles = request.GetString("percentiles", in.Percentiles)

	in.Paths = request.GetString("paths", in.Paths)
	in.MaxCommits = request.GetInt("max_commits", in.MaxCommits)
	in.Ascending = request.GetBool("ascending", in.Ascending)
	in.PathsOnly = request.GetBool("paths_only", in.PathsOnly)
	in.AgeExp = request.GetFloat("age_exp", in.AgeExp)
	in.SizeRef = request.GetString("size_ref", in.SizeRef)
	in.Now = request.GetString("now", in.Now)

	in.Depth = request.GetInt("depth", in.Depth)
	in.Path = request.GetString("path", in.Path)
	in.Bins = request.GetInt("bins", in.Bins)

	in.NoBots = request.GetBool("no_bots", in.NoBots)
	in.ShowPII = request.GetBool("show_pii", in.ShowPII)
	in.FileStats = request.GetBool("file_stats", in.FileStats)
	in.LineStats = request.GetBool("line_stats", in.LineStats)
	in.OmitUnifyIdentities = request.GetBool("omit_unify_identities", in.OmitUnifyIdentities)

	// Results always travel back as JSON in the tool response
	in.Output = string(schema.JSONOut)
	in.OutputFile = ""

	cfg := &contract.Config{}
	if err := contract.ProcessAndValidate(cfg, &in); err != nil {
		return nil, err
	}
	return cfg, nil
}
