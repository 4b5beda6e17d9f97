package acp

import (
	"context"
	"encoding/json"
	"io"
)

// Client is the set of operations a client must serve for the agent.
type Client interface {
	// ReadTextFile returns file contents, reflecting unsaved editor state.
	ReadTextFile(ctx context.Context, params *ReadTextFileRequest) (*ReadTextFileResponse, error)
	// WriteTextFile writes file contents, creating the file if needed.
	WriteTextFile(ctx context.Context, params *WriteTextFileRequest) error
	// RequestPermission asks the user to approve a tool call.
	RequestPermission(ctx context.Context, params *RequestPermissionRequest) (*RequestPermissionResponse, error)
	// SessionUpdate receives one streamed session update. Delivered as a
	// notification; the return error is logged, never sent to the peer.
	SessionUpdate(ctx context.Context, params *SessionNotification) error
}

// ClientTerminal is the optional terminal capability. Clients that do not
// implement it answer terminal/* calls with MethodNotFound.
type ClientTerminal interface {
	CreateTerminal(ctx context.Context, params *CreateTerminalRequest) (*CreateTerminalResponse, error)
	TerminalOutput(ctx context.Context, params *TerminalOutputRequest) (*TerminalOutputResponse, error)
	ReleaseTerminal(ctx context.Context, params *ReleaseTerminalRequest) error
	WaitForTerminalExit(ctx context.Context, params *WaitForTerminalExitRequest) (*WaitForTerminalExitResponse, error)
	KillTerminal(ctx context.Context, params *KillTerminalRequest) error
}

// ClientSideConnection is the client's end of an ACP connection: it routes
// inbound client-table calls to your Client implementation and exposes typed
// agent-table calls.
type ClientSideConnection struct {
	conn   *Connection
	client Client
}

// NewClientSideConnection binds a Client implementation to a duplex stream
// and starts serving. peerInput typically wraps the agent subprocess's stdin
// and peerOutput its stdout.
func NewClientSideConnection(client Client, peerInput io.Writer, peerOutput io.Reader, opts ...Option) *ClientSideConnection {
	csc := &ClientSideConnection{client: client}
	csc.conn = NewConnection(csc.handle, peerInput, peerOutput, opts...)

	return csc
}

// Done returns a channel closed when the connection is torn down.
func (c *ClientSideConnection) Done() <-chan struct{} { return c.conn.Done() }

// Close tears down the connection and cancels all in-flight calls.
func (c *ClientSideConnection) Close() error { return c.conn.Close() }

// handle routes one inbound wire method to the Client implementation.
func (c *ClientSideConnection) handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case MethodFsReadTextFile:
		p, err := decodeParams[ReadTextFileRequest](params)
		if err != nil {
			return nil, err
		}

		return c.client.ReadTextFile(ctx, p)
	case MethodFsWriteTextFile:
		p, err := decodeParams[WriteTextFileRequest](params)
		if err != nil {
			return nil, err
		}

		return nil, c.client.WriteTextFile(ctx, p)
	case MethodSessionRequestPermission:
		p, err := decodeParams[RequestPermissionRequest](params)
		if err != nil {
			return nil, err
		}

		return c.client.RequestPermission(ctx, p)
	case MethodSessionUpdate:
		p, err := decodeParams[SessionNotification](params)
		if err != nil {
			return nil, err
		}

		return nil, c.client.SessionUpdate(ctx, p)
	case MethodTerminalCreate, MethodTerminalOutput, MethodTerminalRelease,
		MethodTerminalWaitForExit, MethodTerminalKill:
		term, ok := c.client.(ClientTerminal)
		if !ok {
			return nil, NewMethodNotFound(method)
		}

		return c.handleTerminal(ctx, term, method, params)
	default:
		return nil, NewMethodNotFound(method)
	}
}

// handleTerminal routes the terminal sub-table once the capability check has
// passed.
func (c *ClientSideConnection) handleTerminal(ctx context.Context, term ClientTerminal, method string, params json.RawMessage) (any, error) {
	switch method {
	case MethodTerminalCreate:
		p, err := decodeParams[CreateTerminalRequest](params)
		if err != nil {
			return nil, err
		}

		return term.CreateTerminal(ctx, p)
	case MethodTerminalOutput:
		p, err := decodeParams[TerminalOutputRequest](params)
		if err != nil {
			return nil, err
		}

		return term.TerminalOutput(ctx, p)
	case MethodTerminalRelease:
		p, err := decodeParams[ReleaseTerminalRequest](params)
		if err != nil {
			return nil, err
		}

		return nil, term.ReleaseTerminal(ctx, p)
	case MethodTerminalWaitForExit:
		p, err := decodeParams[WaitForTerminalExitRequest](params)
		if err != nil {
			return nil, err
		}

		return term.WaitForTerminalExit(ctx, p)
	case MethodTerminalKill:
		p, err := decodeParams[KillTerminalRequest](params)
		if err != nil {
			return nil, err
		}

		return nil, term.KillTerminal(ctx, p)
	default:
		return nil, NewMethodNotFound(method)
	}
}

// Initialize negotiates the protocol version and exchanges capabilities.
func (c *ClientSideConnection) Initialize(ctx context.Context, params *InitializeRequest) (*InitializeResponse, error) {
	return callTyped[InitializeResponse](ctx, c.conn, MethodInitialize, params)
}

// Authenticate performs one of the agent's advertised auth methods.
func (c *ClientSideConnection) Authenticate(ctx context.Context, params *AuthenticateRequest) error {
	_, err := c.conn.SendRequest(ctx, MethodAuthenticate, params)

	return err
}

// NewSession creates a session on the agent.
func (c *ClientSideConnection) NewSession(ctx context.Context, params *NewSessionRequest) (*NewSessionResponse, error) {
	return callTyped[NewSessionResponse](ctx, c.conn, MethodSessionNew, params)
}

// LoadSession resumes an existing session. Agents without the capability
// answer with MethodNotFound.
func (c *ClientSideConnection) LoadSession(ctx context.Context, params *LoadSessionRequest) error {
	_, err := c.conn.SendRequest(ctx, MethodSessionLoad, params)

	return err
}

// Prompt submits a user turn and blocks until the turn ends.
func (c *ClientSideConnection) Prompt(ctx context.Context, params *PromptRequest) (*PromptResponse, error) {
	return callTyped[PromptResponse](ctx, c.conn, MethodSessionPrompt, params)
}

// Cancel asks the agent to stop the session's current turn. It is a
// notification; the in-flight Prompt call still completes with its final
// stop reason.
func (c *ClientSideConnection) Cancel(ctx context.Context, params *CancelNotification) error {
	return c.conn.SendNotification(ctx, MethodSessionCancel, params)
}
