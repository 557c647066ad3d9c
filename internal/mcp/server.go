// Package mcp exposes the running meterdeck daemon to MCP clients over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/ipc"
)

const (
	ServerName    = "meterdeck"
	ServerVersion = "0.1.0"
)

// DaemonClient is the part of the IPC client the tools call.
// *ipc.Client satisfies it.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	SetSnap(enabled bool) (bool, error)
	ListMeters() ([]deck.MeterInfo, error)
	AddMeter(p ipc.AddMeterPayload) (*deck.MeterInfo, error)
	CloseMeter(id string) error
	ResetMeter(id string) error
	InvertMeter(id string) error
	SetStrike(id string, strike float64) error
}

// Server is the MCP server for meterdeck.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
	logger    *slog.Logger
}

// NewServer creates a new MCP server that forwards tool calls to the daemon.
func NewServer(client DaemonClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		client: client,
		logger: logger,
	}
	s.mcpServer = mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until ctx is done or the client hangs up.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report whether snapping is enabled, the snap distance in pixels and how many meters are open.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_meters",
		Description: "List every open meter with its strike, right, expiry, geometry, buy/sell tally and the meters it is snapped to.",
	}, s.handleListMeters)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_snap",
		Description: "Turn edge snapping on or off. Turning it off forgets all attachments; turning it on re-attaches meters that are already flush.",
	}, s.handleSetSnap)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_meter",
		Description: "Open a new meter window. Omitted fields take the daemon defaults; the meter is placed on the monitor under the pointer.",
	}, s.handleAddMeter)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_meter",
		Description: "Close a meter by id. A unique id prefix is accepted.",
	}, s.handleCloseMeter)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reset_meter",
		Description: "Zero the buy/sell tally of a meter.",
	}, s.handleResetMeter)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "invert_meter",
		Description: "Flip which side of a meter's bar the buy volume is drawn on.",
	}, s.handleInvertMeter)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_strike",
		Description: "Retarget a meter to a new strike. The tally is reset.",
	}, s.handleSetStrike)
}
