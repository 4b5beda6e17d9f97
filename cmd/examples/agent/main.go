// Package main runs a minimal echo agent over stdio. A client spawns this
// binary, negotiates the protocol, and every prompt turn is streamed back as
// agent message chunks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/conneroisu/acp/pkg/acp"
	mcpadapter "github.com/conneroisu/acp/pkg/acp/adapters/mcp"
	"github.com/conneroisu/acp/pkg/acp/ports"
)

func main() {
	// Stdout carries protocol frames; diagnostics go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	agent := newEchoAgent(logger)
	conn := acp.NewAgentSideConnection(agent, os.Stdout, os.Stdin, acp.WithLogger(logger))
	agent.conn = conn

	<-conn.Done()
}

// echoAgent echoes each prompt back to the client, chunk by chunk.
type echoAgent struct {
	conn   *acp.AgentSideConnection
	logger *slog.Logger

	mu        sync.Mutex
	nextID    int
	cancelled map[string]context.CancelFunc
	servers   map[string]ports.MCPServer
}

func newEchoAgent(logger *slog.Logger) *echoAgent {
	return &echoAgent{
		logger:    logger,
		cancelled: make(map[string]context.CancelFunc),
		servers:   make(map[string]ports.MCPServer),
	}
}

func (a *echoAgent) Initialize(_ context.Context, params *acp.InitializeRequest) (*acp.InitializeResponse, error) {
	a.logger.Info("initialize", "clientVersion", params.ProtocolVersion)

	return &acp.InitializeResponse{
		ProtocolVersion: acp.ProtocolVersion,
		AgentCapabilities: acp.AgentCapabilities{
			PromptCapabilities: acp.PromptCapabilities{EmbeddedContext: true},
		},
	}, nil
}

func (a *echoAgent) Authenticate(context.Context, *acp.AuthenticateRequest) error {
	return nil
}

func (a *echoAgent) NewSession(ctx context.Context, params *acp.NewSessionRequest) (*acp.NewSessionResponse, error) {
	servers, err := mcpadapter.Connect(ctx, params.McpServers)
	if err != nil {
		a.logger.Warn("mcp servers unavailable", "err", err)
		servers = nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	id := fmt.Sprintf("sess-%d", a.nextID)
	for name, srv := range servers {
		a.servers[id+"/"+name] = srv
	}
	a.logger.Info("new session", "sessionId", id, "cwd", params.Cwd, "mcpServers", len(servers))

	return &acp.NewSessionResponse{SessionID: id}, nil
}

func (a *echoAgent) Prompt(ctx context.Context, params *acp.PromptRequest) (*acp.PromptResponse, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.cancelled[params.SessionID] = cancel
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.cancelled, params.SessionID)
		a.mu.Unlock()
	}()

	for _, block := range params.Prompt {
		if ctx.Err() != nil {
			return &acp.PromptResponse{StopReason: acp.StopReasonCancelled}, nil
		}
		if block.Text == nil {
			continue
		}

		err := a.conn.SessionUpdate(ctx, &acp.SessionNotification{
			SessionID: params.SessionID,
			Update:    acp.UpdateAgentMessageText("echo: " + block.Text.Text),
		})
		if err != nil {
			return nil, err
		}
	}

	return &acp.PromptResponse{StopReason: acp.StopReasonEndTurn}, nil
}

func (a *echoAgent) Cancel(_ context.Context, params *acp.CancelNotification) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cancel, ok := a.cancelled[params.SessionID]; ok {
		cancel()
	}

	return nil
}
