// Package mcp exposes the engine to automation clients as MCP tools
// over stdio. Every tool is a thin wrapper around the IPC client, so
// the daemon stays the single authority on window state.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hemebond/PyWO/internal/ipc"
)

const (
	ServerName    = "pywo"
	ServerVersion = "0.1.0"
)

// Server is the MCP server bridging tools to the daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer builds the MCP server. An empty socket path selects the
// default runtime socket. The daemon must already be running; tools
// fail per-call when it is not.
func NewServer(socketPath string) (*Server, error) {
	client, err := ipc.NewClient(socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create IPC client: %w", err)
	}

	s := &Server{client: client}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_action",
		Description: "Run a window action through the daemon: grid placement (put/grid), directional move/resize (move/resize/expand/shrink), focus cycling (cycle), state toggles (toggle) or centering (center). Returns the request id; the action itself runs asynchronously.",
	}, s.handleRunAction)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List all managed windows with title, class, type, desktop, geometry and states, topmost first.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Get daemon status: uptime, current desktop, window count, active grid and dispatch counters.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_viewport",
		Description: "Get the usable work area of the monitor holding the active window, with panels and docks subtracted. Grid placements land inside this rectangle.",
	}, s.handleGetViewport)
}

func (s *Server) handleRunAction(_ context.Context, _ *mcpsdk.CallToolRequest, args RunActionInput) (*mcpsdk.CallToolResult, RunActionOutput, error) {
	id, err := s.client.DoAction(args.Action)
	if err != nil {
		return nil, RunActionOutput{}, err
	}
	return nil, RunActionOutput{RequestID: id}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.client.Windows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	return nil, ListWindowsOutput{Windows: windows.Windows}, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	status, err := s.client.Status()
	if err != nil {
		return nil, ipc.StatusData{}, err
	}
	return nil, *status, nil
}

func (s *Server) handleGetViewport(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetViewportInput) (*mcpsdk.CallToolResult, ipc.ViewportData, error) {
	area, err := s.client.Viewport()
	if err != nil {
		return nil, ipc.ViewportData{}, err
	}
	return nil, *area, nil
}
