package mcp

import (
	"context"
	"errors"
	"fmt"

	"health_dashboard/internal/healtherr"
	"health_dashboard/internal/models"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "initialize",
		Description: "Connect to the health data provider. Resets any previous session.",
	}, s.handleInitialize)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "request_permissions",
		Description: "Request read access for the given data types (steps, heartRate, sleep, weight) in one prompt",
	}, s.handleRequestPermissions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "refresh",
		Description: "Re-read today's steps and the latest heart rate",
	}, s.handleRefresh)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_state",
		Description: "Return the current health session snapshot",
	}, s.handleGetState)
}

type emptyInput struct{}

type requestPermissionsInput struct {
	DataTypes []string `json:"data_types" jsonschema:"data types to request, e.g. steps and heartRate"`
}

type stateOutput struct {
	Message string                 `json:"message,omitempty"`
	State   models.SessionSnapshot `json:"state"`
}

func (s *Server) handleInitialize(ctx context.Context, req *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	msg, err := s.session.Initialize(ctx)
	if err != nil {
		return nil, nil, s.toolError("initialize", err)
	}
	return nil, stateOutput{Message: msg, State: s.session.Snapshot()}, nil
}

func (s *Server) handleRequestPermissions(ctx context.Context, req *mcp.CallToolRequest, input requestPermissionsInput) (*mcp.CallToolResult, any, error) {
	if len(input.DataTypes) == 0 {
		return nil, nil, errors.New("data_types must list at least one type")
	}
	types, err := models.ParseDataTypeSet(input.DataTypes)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.session.RequestPermissions(ctx, types)
	if err != nil {
		return nil, nil, s.toolError("request_permissions", err)
	}
	return nil, stateOutput{Message: msg, State: s.session.Snapshot()}, nil
}

func (s *Server) handleRefresh(ctx context.Context, req *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	if err := s.session.Refresh(ctx); err != nil {
		return nil, nil, s.toolError("refresh", err)
	}
	return nil, stateOutput{Message: "metrics refreshed", State: s.session.Snapshot()}, nil
}

func (s *Server) handleGetState(ctx context.Context, req *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	return nil, stateOutput{State: s.session.Snapshot()}, nil
}

// toolError logs err and returns the user-facing message with its kind.
func (s *Server) toolError(tool string, err error) error {
	s.log.Warnw("mcp_tool_failed", "tool", tool, "err", err)
	var he *healtherr.Error
	if !errors.As(err, &he) {
		return fmt.Errorf("%s: %w", tool, err)
	}
	if denied := healtherr.DeniedTypes(err); len(denied) > 0 {
		return fmt.Errorf("%s: %s (denied: %v)", healtherr.KindOf(err), healtherr.UserMessage(err), denied)
	}
	return fmt.Errorf("%s: %s", healtherr.KindOf(err), healtherr.UserMessage(err))
}
