// Package main spawns the echo agent as a subprocess and drives one prompt
// turn, printing the streamed updates as they arrive.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/conneroisu/acp/pkg/acp"
	"github.com/conneroisu/acp/pkg/acp/adapters/proc"
)

func main() {
	agentCmd := "go"
	agentArgs := []string{"run", "github.com/conneroisu/acp/cmd/examples/agent"}
	if len(os.Args) > 1 {
		agentCmd = os.Args[1]
		agentArgs = os.Args[2:]
	}

	adapter := proc.New(agentCmd, agentArgs)
	if err := adapter.Start(); err != nil {
		log.Fatalf("start agent: %v", err)
	}
	defer adapter.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	conn := acp.NewClientSideConnection(&consoleClient{}, adapter, adapter, acp.WithLogger(logger))
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	initResp, err := conn.Initialize(ctx, &acp.InitializeRequest{
		ProtocolVersion: acp.ProtocolVersion,
		ClientCapabilities: acp.ClientCapabilities{
			Fs: acp.FileSystemCapability{ReadTextFile: true, WriteTextFile: true},
		},
	})
	if err != nil {
		log.Fatalf("initialize: %v", err)
	}
	fmt.Printf("agent speaks protocol v%d\n", initResp.ProtocolVersion)

	cwd, _ := os.Getwd()
	session, err := conn.NewSession(ctx, &acp.NewSessionRequest{Cwd: cwd})
	if err != nil {
		log.Fatalf("new session: %v", err)
	}
	fmt.Printf("session %s\n", session.SessionID)

	resp, err := conn.Prompt(ctx, &acp.PromptRequest{
		SessionID: session.SessionID,
		Prompt:    []acp.ContentBlock{acp.TextBlock("hello, agent")},
	})
	if err != nil {
		log.Fatalf("prompt: %v", err)
	}
	fmt.Printf("turn ended: %s\n", resp.StopReason)
}

// consoleClient prints session updates and approves nothing.
type consoleClient struct{}

func (c *consoleClient) ReadTextFile(_ context.Context, params *acp.ReadTextFileRequest) (*acp.ReadTextFileResponse, error) {
	data, err := os.ReadFile(params.Path)
	if err != nil {
		return nil, acp.NewInternalError(map[string]any{"error": err.Error()})
	}

	return &acp.ReadTextFileResponse{Content: string(data)}, nil
}

func (c *consoleClient) WriteTextFile(_ context.Context, params *acp.WriteTextFileRequest) error {
	if err := os.WriteFile(params.Path, []byte(params.Content), 0o644); err != nil {
		return acp.NewInternalError(map[string]any{"error": err.Error()})
	}

	return nil
}

func (c *consoleClient) RequestPermission(_ context.Context, params *acp.RequestPermissionRequest) (*acp.RequestPermissionResponse, error) {
	// Reject anything that needs approval; this client is non-interactive.
	for _, opt := range params.Options {
		if opt.Kind == acp.PermissionOptionKindRejectOnce {
			return &acp.RequestPermissionResponse{
				Outcome: acp.RequestPermissionOutcome{
					Selected: &acp.PermissionOutcomeSelected{OptionID: opt.OptionID},
				},
			}, nil
		}
	}

	return &acp.RequestPermissionResponse{
		Outcome: acp.RequestPermissionOutcome{Cancelled: &acp.PermissionOutcomeCancelled{}},
	}, nil
}

func (c *consoleClient) SessionUpdate(_ context.Context, params *acp.SessionNotification) error {
	switch {
	case params.Update.AgentMessageChunk != nil:
		if text := params.Update.AgentMessageChunk.Content.Text; text != nil {
			fmt.Println(text.Text)
		}
	case params.Update.AgentThoughtChunk != nil:
		if text := params.Update.AgentThoughtChunk.Content.Text; text != nil {
			fmt.Printf("[thinking] %s\n", text.Text)
		}
	case params.Update.ToolCall != nil:
		fmt.Printf("[tool] %s\n", params.Update.ToolCall.Title)
	case params.Update.Plan != nil:
		for _, entry := range params.Update.Plan.Entries {
			fmt.Printf("[plan:%s] %s\n", entry.Status, entry.Content)
		}
	}

	return nil
}
