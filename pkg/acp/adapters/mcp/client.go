package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conneroisu/acp/pkg/acp"
	"github.com/conneroisu/acp/pkg/acp/ports"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ClientAdapter wraps a connected MCP client session and implements
// ports.MCPServer for servers configured through session/new or
// session/load.
type ClientAdapter struct {
	name    string
	session *mcpsdk.ClientSession
}

var _ ports.MCPServer = (*ClientAdapter)(nil)

// NewClientAdapter wraps an already-connected MCP session.
func NewClientAdapter(name string, session *mcpsdk.ClientSession) *ClientAdapter {
	return &ClientAdapter{
		name:    name,
		session: session,
	}
}

// Name returns the server identifier from the session configuration.
func (a *ClientAdapter) Name() string {
	return a.name
}

// HandleMessage forwards a raw JSON-RPC message to the server. The SDK
// session exposes typed calls rather than a generic request primitive, so
// the method is parsed and routed to the matching session call.
func (a *ClientAdapter) HandleMessage(ctx context.Context, message []byte) ([]byte, error) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(message, &req); err != nil {
		return errorResponse(req.ID, acp.CodeParseError, "Parse error")
	}

	switch req.Method {
	case "tools/list":
		result, err := a.session.ListTools(ctx, &mcpsdk.ListToolsParams{})
		if err != nil {
			return errorResponse(req.ID, acp.CodeInternalError, err.Error())
		}

		return successResponse(req.ID, result)
	case "tools/call":
		var params mcpsdk.CallToolParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return errorResponse(req.ID, acp.CodeInvalidParams, err.Error())
			}
		}
		result, err := a.session.CallTool(ctx, &params)
		if err != nil {
			return errorResponse(req.ID, acp.CodeInternalError, err.Error())
		}

		return successResponse(req.ID, result)
	default:
		return errorResponse(req.ID, acp.CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

// Close terminates the session.
func (a *ClientAdapter) Close() error {
	if a.session != nil {
		return a.session.Close()
	}

	return nil
}

func successResponse(id json.RawMessage, result any) ([]byte, error) {
	return json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func errorResponse(id json.RawMessage, code int, message string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
