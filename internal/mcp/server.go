// Package mcp exposes the legal.* methods as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Dispatcher routes one method call. *protocol.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, params map[string]any) (any, error)
}

// Server wraps an MCP server whose tools delegate to a Dispatcher.
type Server struct {
	dispatcher Dispatcher
	log        *slog.Logger
	mcp        *server.MCPServer
}

func NewServer(d Dispatcher, log *slog.Logger) *Server {
	s := &Server{
		dispatcher: d,
		log:        logging.OrDefault(log),
	}

	s.mcp = server.NewMCPServer(
		"legalmcp",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds one tool per legal.* method.
func (s *Server) registerTools() {
	for _, tool := range legalTools() {
		s.mcp.AddTool(tool, s.handlerFor(tool.Name))
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
