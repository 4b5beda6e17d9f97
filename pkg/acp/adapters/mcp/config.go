package mcp

import (
	"context"
	"fmt"
	"os/exec"

	mcpserver "github.com/mark3labs/mcp-go/server"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/conneroisu/acp/pkg/acp/ports"
)

// ServerConfig is the interface for all MCP server configurations an
// application can hand to Dial. External servers run over stdio, HTTP, or
// SSE; SDK servers run in-process.
type ServerConfig interface {
	serverConfig()
	// GetName returns the server identifier used for routing.
	GetName() string
}

// StdioServerConfig runs an external MCP server as a subprocess speaking the
// stdio transport.
type StdioServerConfig struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
}

func (*StdioServerConfig) serverConfig() {}
func (c *StdioServerConfig) GetName() string { return c.Name }

// HTTPServerConfig reaches an external MCP server over streamable HTTP.
type HTTPServerConfig struct {
	Name string
	URL  string
}

func (*HTTPServerConfig) serverConfig() {}
func (c *HTTPServerConfig) GetName() string { return c.Name }

// SSEServerConfig reaches an external MCP server over Server-Sent Events.
type SSEServerConfig struct {
	Name string
	URL  string
}

func (*SSEServerConfig) serverConfig() {}
func (c *SSEServerConfig) GetName() string { return c.Name }

// SDKServerConfig hosts an in-process MCP server instance; messages are
// dispatched by direct invocation instead of IPC.
type SDKServerConfig struct {
	Name     string
	Instance *mcpserver.MCPServer
}

func (*SDKServerConfig) serverConfig() {}
func (c *SDKServerConfig) GetName() string { return c.Name }

// Dial connects one configured server and returns its proxy surface.
func Dial(ctx context.Context, cfg ServerConfig) (ports.MCPServer, error) {
	switch c := cfg.(type) {
	case *StdioServerConfig:
		cmd := exec.CommandContext(ctx, c.Command, c.Args...)
		for name, value := range c.Env {
			cmd.Env = append(cmd.Env, name+"="+value)
		}

		return dialTransport(ctx, c.Name, &mcpsdk.CommandTransport{Command: cmd})
	case *HTTPServerConfig:
		return dialTransport(ctx, c.Name, &mcpsdk.StreamableClientTransport{Endpoint: c.URL})
	case *SSEServerConfig:
		// SSE servers are reached through the same streamable transport.
		return dialTransport(ctx, c.Name, &mcpsdk.StreamableClientTransport{Endpoint: c.URL})
	case *SDKServerConfig:
		return NewServerAdapter(c.Name, c.Instance), nil
	default:
		return nil, fmt.Errorf("unknown MCP server config type: %T", cfg)
	}
}

func dialTransport(ctx context.Context, name string, transport mcpsdk.Transport) (ports.MCPServer, error) {
	client := mcpsdk.NewClient(Implementation, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, err
	}

	return NewClientAdapter(name, session), nil
}
