// Package mcp connects the MCP servers named in ACP session configuration
// and exposes them behind ports.MCPServer.
package mcp

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/conneroisu/acp/pkg/acp"
	"github.com/conneroisu/acp/pkg/acp/ports"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Implementation identifies this SDK to MCP servers during the handshake.
var Implementation = &mcpsdk.Implementation{
	Name:    "acp-go",
	Version: "1.0.0",
}

// Connect dials every server in the session configuration. On any failure
// the already-connected servers are closed and the error names the server
// that failed.
func Connect(ctx context.Context, configs []acp.McpServerConfig) (map[string]ports.MCPServer, error) {
	if len(configs) == 0 {
		return nil, nil
	}

	servers := make(map[string]ports.MCPServer, len(configs))
	for _, cfg := range configs {
		server, err := connectOne(ctx, cfg)
		if err != nil {
			for _, s := range servers {
				_ = s.Close()
			}

			return nil, fmt.Errorf("connect MCP server %q: %w", cfg.Name, err)
		}
		servers[cfg.Name] = server
	}

	return servers, nil
}

// connectOne spawns one configured server command and completes the MCP
// handshake over its stdio pipes.
func connectOne(ctx context.Context, cfg acp.McpServerConfig) (ports.MCPServer, error) {
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	for _, env := range cfg.Env {
		cmd.Env = append(cmd.Env, env.Name+"="+env.Value)
	}

	client := mcpsdk.NewClient(Implementation, nil)
	session, err := client.Connect(ctx, &mcpsdk.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, err
	}

	return NewClientAdapter(cfg.Name, session), nil
}
