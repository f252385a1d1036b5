package cmd

import (
	"github.com/huangsam/gitpulse/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [repo-path]",
	Short: "Start the gitpulse MCP server",
	Long: `Launch an MCP server on stdio so AI agents can run the analyzers as tools.

Global flags become the defaults of every tool call; tool arguments override them.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, *input, cacheManager)
	},
}
