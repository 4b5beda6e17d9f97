package acp

import "context"

// TerminalHandle wraps a terminal created through the client, keyed by the
// terminal and session ids, and issues the terminal/* requests for it.
type TerminalHandle struct {
	ID string

	sessionID string
	conn      *Connection
}

// CurrentOutput fetches the output captured so far.
func (t *TerminalHandle) CurrentOutput(ctx context.Context) (*TerminalOutputResponse, error) {
	return callTyped[TerminalOutputResponse](ctx, t.conn, MethodTerminalOutput, t.ref())
}

// WaitForExit blocks until the terminal's command ends.
func (t *TerminalHandle) WaitForExit(ctx context.Context) (*WaitForTerminalExitResponse, error) {
	return callTyped[WaitForTerminalExitResponse](ctx, t.conn, MethodTerminalWaitForExit, t.ref())
}

// Kill stops the command without releasing the terminal; output remains
// readable until Release.
func (t *TerminalHandle) Kill(ctx context.Context) error {
	_, err := t.conn.SendRequest(ctx, MethodTerminalKill, t.ref())

	return err
}

// Release frees the terminal and its retained output.
func (t *TerminalHandle) Release(ctx context.Context) error {
	_, err := t.conn.SendRequest(ctx, MethodTerminalRelease, t.ref())

	return err
}

func (t *TerminalHandle) ref() *TerminalOutputRequest {
	return &TerminalOutputRequest{
		SessionID:  t.sessionID,
		TerminalID: t.ID,
	}
}
