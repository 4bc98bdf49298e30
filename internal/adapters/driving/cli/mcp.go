package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask grounded
questions, upload documents and read them.

Tools:      ask, ingest, list_documents
Resources:  sercha-context://documents
            sercha-context://documents/{documentId}
            sercha-context://documents/{documentId}/stats

By default the server communicates over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  # Stdio mode (default)
  sercha-context mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  sercha-context mcp serve --port 8081

Client configuration:
  {
    "mcpServers": {
      "sercha-context": {
        "command": "/path/to/sercha-context",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Query:    queryService,
		Document: documentService,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		cmd.PrintErrf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
