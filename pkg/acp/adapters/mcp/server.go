package mcp

import (
	"context"
	"encoding/json"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/conneroisu/acp/pkg/acp/ports"
)

// ServerAdapter hosts an in-process MCP server instance behind
// ports.MCPServer. Messages are dispatched by direct invocation, so no
// subprocess or network hop is involved.
type ServerAdapter struct {
	name   string
	server *mcpserver.MCPServer
}

var _ ports.MCPServer = (*ServerAdapter)(nil)

// NewServerAdapter wraps an in-process server instance.
func NewServerAdapter(name string, server *mcpserver.MCPServer) *ServerAdapter {
	return &ServerAdapter{
		name:   name,
		server: server,
	}
}

// Name returns the server identifier from the configuration.
func (a *ServerAdapter) Name() string {
	return a.name
}

// HandleMessage dispatches one raw JSON-RPC message to the in-process
// server. Notifications produce no response, reported as a nil payload.
func (a *ServerAdapter) HandleMessage(ctx context.Context, message []byte) ([]byte, error) {
	resp := a.server.HandleMessage(ctx, json.RawMessage(message))
	if resp == nil {
		return nil, nil
	}

	return json.Marshal(resp)
}

// Close is a no-op; the instance's lifecycle belongs to its owner.
func (*ServerAdapter) Close() error {
	return nil
}
