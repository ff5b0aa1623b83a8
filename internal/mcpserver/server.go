// Package mcpserver exposes the assistant functions as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "kimap-mcp-server"
	ServerVersion = "0.1.0"
)

// Server wraps an MCP server with one tool per registered function.
type Server struct {
	srv    *server.MCPServer
	logger *slog.Logger
}

// New registers every function of registry as a tool.
func New(registry *agent.Registry, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mcpserver")

	logger.Info("initializing MCP server", "name", ServerName, "version", ServerVersion)

	srv := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	for _, fd := range registry.Declarations() {
		schema, err := json.Marshal(fd.ParametersSchema)
		if err != nil {
			return nil, fmt.Errorf("mcpserver: schema of %s: %w", fd.Name, err)
		}

		srv.AddTool(mcp.NewToolWithRawSchema(fd.Name, fd.Description, schema), toolHandler(registry, fd.Name, logger))
	}

	return &Server{srv: srv, logger: logger}, nil
}

// Run serves MCP over stdin/stdout until stdin closes.
func (s *Server) Run() error {
	s.logger.Info("server initialized, waiting for requests")
	return server.ServeStdio(s.srv)
}

// toolHandler invokes a function and returns its JSON result as text.
// Function failures become tool errors so the client model can react.
func toolHandler(registry *agent.Registry, name string, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value, err := registry.Invoke(ctx, name, req.GetArguments())
		if err != nil {
			logger.Warn("tool failed", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(value)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}
