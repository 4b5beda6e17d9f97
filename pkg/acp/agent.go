package acp

import (
	"context"
	"encoding/json"
	"io"
)

// Agent is the set of operations an agent must serve. Implementations run
// concurrently: the connection dispatches each inbound call on its own
// goroutine.
type Agent interface {
	// Initialize negotiates the protocol version and exchanges capabilities.
	Initialize(ctx context.Context, params *InitializeRequest) (*InitializeResponse, error)
	// Authenticate performs one of the auth methods advertised by Initialize.
	Authenticate(ctx context.Context, params *AuthenticateRequest) error
	// NewSession creates a session and returns its id.
	NewSession(ctx context.Context, params *NewSessionRequest) (*NewSessionResponse, error)
	// Prompt runs one user turn, streaming progress via session/update.
	Prompt(ctx context.Context, params *PromptRequest) (*PromptResponse, error)
	// Cancel stops the session's in-flight turn. Delivered as a
	// notification; the return error is logged, never sent to the peer.
	Cancel(ctx context.Context, params *CancelNotification) error
}

// AgentLoader is the optional session-resume capability. Agents that do not
// implement it still have session/load in their method table; calls are
// answered with a well-formed MethodNotFound error rather than a missing
// route.
type AgentLoader interface {
	LoadSession(ctx context.Context, params *LoadSessionRequest) error
}

// AgentSideConnection is the agent's end of an ACP connection: it routes
// inbound agent-table calls to your Agent implementation and exposes typed
// client-table calls for the agent to issue.
type AgentSideConnection struct {
	conn  *Connection
	agent Agent
}

// NewAgentSideConnection binds an Agent implementation to a duplex stream
// and starts serving. peerInput typically wraps os.Stdout and peerOutput
// os.Stdin when the agent is spawned as a subprocess.
func NewAgentSideConnection(agent Agent, peerInput io.Writer, peerOutput io.Reader, opts ...Option) *AgentSideConnection {
	asc := &AgentSideConnection{agent: agent}
	asc.conn = NewConnection(asc.handle, peerInput, peerOutput, opts...)

	return asc
}

// Done returns a channel closed when the connection is torn down.
func (c *AgentSideConnection) Done() <-chan struct{} { return c.conn.Done() }

// Close tears down the connection and cancels all in-flight calls.
func (c *AgentSideConnection) Close() error { return c.conn.Close() }

// handle routes one inbound wire method to the Agent implementation.
func (c *AgentSideConnection) handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case MethodInitialize:
		p, err := decodeParams[InitializeRequest](params)
		if err != nil {
			return nil, err
		}

		return c.agent.Initialize(ctx, p)
	case MethodAuthenticate:
		p, err := decodeParams[AuthenticateRequest](params)
		if err != nil {
			return nil, err
		}

		return nil, c.agent.Authenticate(ctx, p)
	case MethodSessionNew:
		p, err := decodeParams[NewSessionRequest](params)
		if err != nil {
			return nil, err
		}

		return c.agent.NewSession(ctx, p)
	case MethodSessionLoad:
		loader, ok := c.agent.(AgentLoader)
		if !ok {
			return nil, NewMethodNotFound(method)
		}
		p, err := decodeParams[LoadSessionRequest](params)
		if err != nil {
			return nil, err
		}

		return nil, loader.LoadSession(ctx, p)
	case MethodSessionPrompt:
		p, err := decodeParams[PromptRequest](params)
		if err != nil {
			return nil, err
		}

		return c.agent.Prompt(ctx, p)
	case MethodSessionCancel:
		p, err := decodeParams[CancelNotification](params)
		if err != nil {
			return nil, err
		}

		return nil, c.agent.Cancel(ctx, p)
	default:
		return nil, NewMethodNotFound(method)
	}
}

// SessionUpdate streams one session update to the client. It is a
// notification; delivery is not acknowledged.
func (c *AgentSideConnection) SessionUpdate(ctx context.Context, params *SessionNotification) error {
	return c.conn.SendNotification(ctx, MethodSessionUpdate, params)
}

// RequestPermission asks the client's user to approve a tool call.
func (c *AgentSideConnection) RequestPermission(ctx context.Context, params *RequestPermissionRequest) (*RequestPermissionResponse, error) {
	return callTyped[RequestPermissionResponse](ctx, c.conn, MethodSessionRequestPermission, params)
}

// ReadTextFile reads a file through the client, including unsaved editor
// state.
func (c *AgentSideConnection) ReadTextFile(ctx context.Context, params *ReadTextFileRequest) (*ReadTextFileResponse, error) {
	return callTyped[ReadTextFileResponse](ctx, c.conn, MethodFsReadTextFile, params)
}

// WriteTextFile writes a file through the client.
func (c *AgentSideConnection) WriteTextFile(ctx context.Context, params *WriteTextFileRequest) error {
	_, err := c.conn.SendRequest(ctx, MethodFsWriteTextFile, params)

	return err
}

// CreateTerminal asks the client to run a command and returns a handle for
// polling, killing, and releasing it.
func (c *AgentSideConnection) CreateTerminal(ctx context.Context, params *CreateTerminalRequest) (*TerminalHandle, error) {
	resp, err := callTyped[CreateTerminalResponse](ctx, c.conn, MethodTerminalCreate, params)
	if err != nil {
		return nil, err
	}

	return &TerminalHandle{
		ID:        resp.TerminalID,
		sessionID: params.SessionID,
		conn:      c.conn,
	}, nil
}

// decodeParams decodes raw request params into the method's typed payload,
// reporting any structural mismatch as InvalidParams. The handler is never
// invoked on failure.
func decodeParams[T any](raw json.RawMessage) (*T, error) {
	var v T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, NewInvalidParams(map[string]any{"error": err.Error()})
		}
	}

	return &v, nil
}
