package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/audit"
	mcpserver "github.com/lakshmanachimata/legal-mcp-platform/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio exposing legal.query,
legal.analyze_document, legal.generate_demand_letter and legal.get_case_context.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "legalmcp MCP server started on stdio (db=%s, llm=%s/%s)\n",
			a.cfg.DBPath(), a.cfg.LLM.Provider, a.cfg.LLM.Model)

		srv := mcpserver.NewServer(a.recorded(audit.TransportMCP), a.log.With("component", "mcp"))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
