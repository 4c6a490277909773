package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
)

// toolFor builds the MCP tool definition for one dispatcher method.
func toolFor(m protocol.MethodInfo) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(m.Description)}
	for _, p := range m.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		if len(p.Enum) > 0 {
			props = append(props, mcp.Enum(p.Enum...))
		}
		switch p.Type {
		case protocol.TypeNumber:
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case protocol.TypeObject:
			opts = append(opts, mcp.WithObject(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(m.Name, opts...)
}

// legalTools returns one tool per dispatcher method.
func legalTools() []mcp.Tool {
	methods := protocol.Methods()
	tools := make([]mcp.Tool, len(methods))
	for i, m := range methods {
		tools[i] = toolFor(m)
	}
	return tools
}
