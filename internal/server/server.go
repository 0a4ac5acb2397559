// Package server hosts the tool registry as a stateless streamable-HTTP
// MCP server with a liveness endpoint alongside it.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dallenpyrah/parallel-ai-mcp/internal/adapter/tool"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/domain"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/infra/config"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/infra/middleware"
)

const (
	serverName    = "Parallel Search MCP"
	serverVersion = "1.0.0"
)

// Server exposes registered tools over MCP streamable HTTP.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
	path       string

	// Actual bound address (set after Start).
	boundAddr string
}

// New builds a Server from configuration and a tool registry.
func New(cfg config.ServerConfig, registry *tool.Registry, logger *slog.Logger) *Server {
	s := &Server{
		logger: logger,
		addr:   cfg.Addr,
		path:   cfg.Path,
	}

	mcpSrv := mcpserver.NewMCPServer(serverName, serverVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	for _, t := range registry.List() {
		mcpSrv.AddTool(toMCPTool(t), toolHandler(t))
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(cfg.Path),
		mcpserver.WithStateLess(true),
		mcpserver.WithHTTPContextFunc(forwardAPIKeyHeader),
	)

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, streamable)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
	return s
}

// Start begins serving. Non-blocking (serves in a goroutine).
func (s *Server) Start(ctx context.Context) error {
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.boundAddr = ln.Addr().String()

	go func() {
		s.logger.Info("mcp server started", "addr", s.boundAddr, "path", s.path)
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the actual bound address once Start has succeeded.
func (s *Server) Addr() string { return s.boundAddr }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"server": serverName,
	})
}

// toMCPTool converts a domain tool schema into the MCP wire form.
func toMCPTool(t domain.Tool) mcp.Tool {
	schema := t.Schema()
	return mcp.NewToolWithRawSchema(schema.Name, schema.Description, schema.Parameters)
}

// toolHandler adapts a domain tool to the MCP call surface. Tool results
// are always text; the IsError flag only covers malformed invocations.
// Search failures are part of the textual contract and travel as plain
// text with an "Error:" prefix.
func toolHandler(t domain.Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arguments := req.GetArguments()
		if arguments == nil {
			arguments = map[string]any{}
		}
		args, err := json.Marshal(arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode arguments: %v", err)), nil
		}

		result, err := t.Execute(ctx, args)
		if err != nil {
			return nil, err
		}
		if result.IsError {
			return mcp.NewToolResultError(result.Content), nil
		}
		return mcp.NewToolResultText(result.Content), nil
	}
}

// forwardAPIKeyHeader copies an inbound x-api-key header into the request
// context so the credential chain can fall back to it.
func forwardAPIKeyHeader(ctx context.Context, r *http.Request) context.Context {
	return domain.WithAPIKey(ctx, r.Header.Get("x-api-key"))
}
