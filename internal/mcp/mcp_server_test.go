package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/huangsam/gitpulse/internal/contract"
	mcp_internal "github.com/huangsam/gitpulse/internal/mcp"
	"github.com/huangsam/gitpulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diskRepo creates a repository with a single commit by Alice.
func diskRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	_, err = wt.Commit("init", &git.CommitOptions{Author: &object.Signature{
		Name: "Alice", Email: "alice@x.io", When: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	return dir
}

func newServer(t *testing.T, repoPath string) *server.MCPServer {
	t.Helper()
	base := contract.DefaultConfigRawInput()
	base.RepoPathStr = repoPath
	base.CacheBackend = string(schema.NoneBackend)
	return mcp_internal.NewMCPServer(base, nil)
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)
	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServer_RegistersTools(t *testing.T) {
	s := newServer(t, ".")
	for _, name := range mcp_internal.ToolNames {
		assert.NotNil(t, s.GetTool(name), name)
	}
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	repo := diskRepo(t)
	s := newServer(t, repo)

	t.Run("bins out of range", func(t *testing.T) {
		res := callTool(t, s, "get_time_of_day", map[string]any{"bins": 25.0})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, text(res), "bins must be in")
	})

	t.Run("negative percentile", func(t *testing.T) {
		res := callTool(t, s, "get_commit_size", map[string]any{"percentiles": "50,-1"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "percentile must be in [0, 100]")
	})

	t.Run("not a repository", func(t *testing.T) {
		res := callTool(t, s, "get_streaks", map[string]any{"repo_path": t.TempDir()})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "invalid parameters")
	})

	t.Run("unknown revision", func(t *testing.T) {
		res := callTool(t, s, "get_streaks", map[string]any{"rev_spec": "no-such-branch"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "analysis failed")
	})
}

func TestMCPServerHandlers_Reports(t *testing.T) {
	s := newServer(t, diskRepo(t))

	res := callTool(t, s, "get_streaks", nil)
	require.False(t, res.IsError, text(res))
	assert.JSONEq(t, `{"longest_streaks": {"Alice <alice@x.io>": 1}}`, text(res))

	res = callTool(t, s, "get_frecency", map[string]any{"paths_only": true, "now": "2024-06-04T09:00:00Z"})
	require.False(t, res.IsError, text(res))
	assert.JSONEq(t, `["main.go"]`, text(res))

	res = callTool(t, s, "get_churn", map[string]any{"author": "bob"})
	require.False(t, res.IsError, text(res))
	assert.JSONEq(t, `{"per_file": false, "totals": {}}`, text(res))

	res = callTool(t, s, "get_report", nil)
	require.False(t, res.IsError, text(res))
	var all map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(text(res)), &all))
	assert.Len(t, all, len(schema.AllAnalyzers))
}
