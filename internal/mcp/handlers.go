package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/letter"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
)

// handlerFor returns the tool handler for one method. Failures are tool
// errors, never protocol errors, so the client sees the message.
func (s *Server) handlerFor(method string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.dispatcher.Dispatch(ctx, method, request.GetArguments())
		if err != nil {
			s.log.Warn("tool call failed", "tool", method, "error", err)
			return mcp.NewToolResultError(formatError(err)), nil
		}
		text, err := formatResult(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// formatError renders err with its protocol code, and the sources that
// were retrieved when only generation failed.
func formatError(err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "error %d: %v", protocol.ErrorCode(err), err)
	var ge *domain.GenerationError
	if errors.As(err, &ge) && len(ge.Context.Retrieved) > 0 {
		sb.WriteString("\n\nRetrieved before the failure:\n")
		writeSources(&sb, rag.SourcesOf(ge.Context.Retrieved))
	}
	return sb.String()
}

// formatResult renders answers and letters as readable text for the agent
// and everything else as indented JSON.
func formatResult(result any) (string, error) {
	switch r := result.(type) {
	case *rag.Response:
		var sb strings.Builder
		sb.WriteString(r.Answer)
		sb.WriteString("\n")
		if len(r.Sources) > 0 {
			fmt.Fprintf(&sb, "\n--- Sources (%d) ---\n", len(r.Sources))
			writeSources(&sb, r.Sources)
		}
		return sb.String(), nil
	case *letter.Letter:
		var sb strings.Builder
		sb.WriteString(r.Content)
		if r.Degraded() {
			sb.WriteString("\n\n--- Sections drafted from boilerplate ---\n")
			for _, sec := range r.Sections {
				if sec.Fallback {
					fmt.Fprintf(&sb, "- %s: %s\n", sec.Title, sec.Error)
				}
			}
		}
		return sb.String(), nil
	default:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func writeSources(sb *strings.Builder, sources []rag.Source) {
	for i, src := range sources {
		fmt.Fprintf(sb, "%d. %s (chunk %d, score %.2f)\n", i+1, src.SourceName, src.ChunkIndex, src.Score)
		if src.Excerpt != "" {
			fmt.Fprintf(sb, "   %s\n", strings.ReplaceAll(src.Excerpt, "\n", " "))
		}
	}
}
