// Package ports defines the interfaces the acp packages need from
// infrastructure they do not own.
package ports

import "context"

// MCPServer is a connected MCP server as seen by an agent implementation.
// Session setup (session/new, session/load) names the servers; an adapter
// dials them and exposes this narrow proxy surface.
type MCPServer interface {
	// Name returns the identifier the session configuration used for this
	// server.
	Name() string
	// HandleMessage forwards one raw JSON-RPC message to the server and
	// returns its raw JSON-RPC response.
	HandleMessage(ctx context.Context, message []byte) ([]byte, error)
	// Close terminates the connection to the server.
	Close() error
}
