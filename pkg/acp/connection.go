package acp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const (
	// initialScanBuffer is the starting size of the receive-loop line buffer.
	initialScanBuffer = 64 * 1024
	// maxFrameSize bounds a single inbound frame.
	maxFrameSize = 10 * 1024 * 1024
)

// MethodHandler serves one inbound request or notification. A returned
// *RequestError crosses the wire as-is; any other error is coerced into an
// internal error. Handlers run concurrently with the receive loop, so they
// may issue nested requests back across the same connection.
type MethodHandler func(ctx context.Context, method string, params json.RawMessage) (any, error)

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithLogger directs connection diagnostics to the provided logger instead
// of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) {
		c.logger = l
	}
}

// Connection is a bidirectional JSON-RPC 2.0 connection over a duplex byte
// stream. It owns the receive loop, serializes outbound writes, and resolves
// locally-issued requests exactly once.
type Connection struct {
	handler MethodHandler
	logger  *slog.Logger

	writeMu sync.Mutex
	w       io.Writer
	r       io.Reader

	calls *callTable

	ctx       context.Context
	cancel    context.CancelCauseFunc
	closeOnce sync.Once
}

// NewConnection creates a connection bound to one duplex stream and one
// handler, and starts its receive loop. peerInput carries frames to the
// peer, peerOutput carries frames from it.
func NewConnection(handler MethodHandler, peerInput io.Writer, peerOutput io.Reader, opts ...Option) *Connection {
	ctx, cancel := context.WithCancelCause(context.Background())
	c := &Connection{
		handler: handler,
		w:       peerInput,
		r:       peerOutput,
		calls:   newCallTable(),
		ctx:     ctx,
		cancel:  cancel,
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	go c.receive()

	return c
}

// Done returns a channel closed when the connection is torn down, either by
// Close or by the peer disconnecting.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close tears the connection down: it stops the receive loop, force-fails
// every pending call, and releases the underlying stream if it is closable.
// Close is idempotent and subsequent Send calls fail with
// ErrConnectionClosed.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.teardown()

		if closer, ok := c.w.(io.Closer); ok {
			_ = closer.Close()
		}
		if closer, ok := c.r.(io.Closer); ok {
			_ = closer.Close()
		}
	})

	return nil
}

// teardown cancels the connection context and every pending call. Safe to
// call more than once; only the first call has an effect.
func (c *Connection) teardown() {
	c.cancel(ErrConnectionClosed)
	c.calls.cancelAll(ErrConnectionClosed)
}

// receive reads frames in strict arrival order until the stream ends.
// Requests and notifications are served on their own goroutines so a slow
// handler never stalls decoding of subsequent frames.
func (c *Connection) receive() {
	defer c.teardown()

	scanner := bufio.NewScanner(c.r)
	scanner.Buffer(make([]byte, initialScanBuffer), maxFrameSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		msg, err := decodeFrame(line)
		if err != nil {
			c.handleParseFailure(line, err)

			continue
		}

		switch msg.kind() {
		case frameRequest, frameNotification:
			go c.serveInbound(msg)
		case frameResponse:
			c.resolveResponse(msg)
		default:
			c.logger.Warn("dropping frame with neither id nor method", "raw", string(line))
		}
	}

	if err := scanner.Err(); err != nil {
		c.logger.Error("receive loop terminated", "err", err)
	}
}

// handleParseFailure reports a malformed line back to the peer when the line
// still carries a recognizable id; otherwise the line is dropped. A single
// malformed frame never kills the connection.
func (c *Connection) handleParseFailure(line []byte, err error) {
	id := peekID(line)
	if id == nil {
		c.logger.Error("dropping unparseable frame", "err", err)

		return
	}

	reply := &message{
		ID:    id,
		Error: NewParseError(map[string]any{"error": err.Error()}),
	}
	if wErr := c.writeFrame(reply); wErr != nil {
		c.logger.Error("failed to send parse error response", "err", wErr)
	}
}

// serveInbound runs the handler for one request or notification and, for
// requests, writes exactly one response. Handler failures on notifications
// are logged and swallowed; there is no channel to report them on.
func (c *Connection) serveInbound(msg *message) {
	result, err := c.callHandler(msg.Method, msg.Params)

	if msg.ID == nil {
		if err != nil {
			c.logger.Error("notification handler failed", "method", msg.Method, "err", err)
		}

		return
	}

	reply := &message{ID: msg.ID}
	if err != nil {
		reply.Error = toRequestError(err)
	} else {
		raw, mErr := json.Marshal(result)
		if mErr != nil {
			reply.Error = NewInternalError(map[string]any{"error": mErr.Error()})
		} else {
			reply.Result = raw
		}
	}

	if wErr := c.writeFrame(reply); wErr != nil {
		c.logger.Error("failed to send response", "method", msg.Method, "err", wErr)
	}
}

// callHandler invokes the handler with panic containment: a panicking
// handler produces an internal error response instead of crashing the
// connection.
func (c *Connection) callHandler(method string, params json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panicked", "method", method, "panic", r)
			err = NewInternalError(map[string]any{"panic": fmt.Sprint(r)})
		}
	}()

	if c.handler == nil {
		return nil, NewMethodNotFound(method)
	}

	return c.handler(c.ctx, method, params)
}

// resolveResponse routes a response frame to its pending call. A response
// with neither result nor error resolves success with an empty value, and an
// unknown or already-resolved id is a silent no-op.
func (c *Connection) resolveResponse(msg *message) {
	id, ok := parseResponseID(msg.ID)
	if !ok {
		c.logger.Debug("dropping response with unrecognized id", "id", rawString(msg.ID))

		return
	}

	res := callResult{result: msg.Result}
	if msg.Error != nil {
		res = callResult{err: msg.Error}
	}

	if !c.calls.resolve(id, res) {
		c.logger.Debug("dropping response for unknown or resolved id", "id", id)
	}
}

// SendRequest writes a request frame and suspends the caller until the peer
// responds, ctx is done, or the connection closes. A peer-reported failure
// comes back as a *RequestError; local teardown surfaces as
// ErrConnectionClosed.
func (c *Connection) SendRequest(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := c.closedErr(); err != nil {
		return nil, err
	}

	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	call := c.calls.register()
	req := &message{
		ID:     requestID(call.id),
		Method: method,
		Params: raw,
	}

	if err := c.writeFrame(req); err != nil {
		c.calls.remove(call.id)

		return nil, fmt.Errorf("send request %q: %w", method, err)
	}

	select {
	case res := <-call.ch:
		return res.result, res.err
	case <-ctx.Done():
		c.calls.remove(call.id)

		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrConnectionClosed
	}
}

// SendNotification writes a notification frame. It succeeds once the frame
// is written; no reply is awaited.
func (c *Connection) SendNotification(ctx context.Context, method string, params any) error {
	if err := c.closedErr(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := marshalParams(params)
	if err != nil {
		return err
	}

	msg := &message{
		Method: method,
		Params: raw,
	}

	if err := c.writeFrame(msg); err != nil {
		return fmt.Errorf("send notification %q: %w", method, err)
	}

	return nil
}

// writeFrame serializes one outbound frame. All writers share one lock so
// concurrent requests, notifications, and dispatcher replies never
// interleave their bytes mid-frame.
func (c *Connection) writeFrame(msg *message) error {
	b, err := encodeFrame(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.ctx.Err() != nil {
		return ErrConnectionClosed
	}

	_, err = c.w.Write(b)

	return err
}

func (c *Connection) closedErr() error {
	if c.ctx.Err() != nil {
		return ErrConnectionClosed
	}

	return nil
}

// marshalParams serializes caller-supplied params, leaving the field absent
// when params is nil.
func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, NewInvalidParams(map[string]any{"error": err.Error()})
	}

	return raw, nil
}

func rawString(raw *json.RawMessage) string {
	if raw == nil {
		return ""
	}

	return string(*raw)
}

// callTyped issues a request and decodes the result payload into T. An empty
// result resolves to the zero value, matching calls that return nothing.
func callTyped[T any](ctx context.Context, c *Connection, method string, params any) (*T, error) {
	raw, err := c.SendRequest(ctx, method, params)
	if err != nil {
		return nil, err
	}

	var out T
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode %q result: %w", method, err)
		}
	}

	return &out, nil
}
