// Package mcp exposes the health session as MCP tools over stdio.
package mcp

import (
	"context"

	"health_dashboard/internal/logger"
	"health_dashboard/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "health_dashboard"
	serverVersion = "1.0.0"
)

// Server wraps the MCP server with session access.
type Server struct {
	mcpServer *mcp.Server
	session   service.Session
	log       *logger.Logger
}

// NewServer creates an MCP server whose tools drive the given session.
func NewServer(session service.Session, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
		session:   session,
		log:       log,
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio until ctx ends or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Infow("mcp_serving", "transport", "stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
