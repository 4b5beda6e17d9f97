// Package wsock adapts a websocket connection into the duplex byte stream
// an ACP connection consumes. Each outbound Write becomes one text message,
// which keeps the one-frame-per-message mapping since the connection layer
// writes exactly one newline-terminated frame per call.
package wsock

import (
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps a websocket connection as an io.ReadWriteCloser.
type Conn struct {
	ws *websocket.Conn

	readMu  sync.Mutex
	reader  io.Reader
	writeMu sync.Mutex
}

// New wraps an established websocket connection. The caller keeps ownership
// of dialing and upgrading; Close closes the underlying connection.
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Read returns bytes from successive inbound messages as one continuous
// stream.
func (c *Conn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if c.reader == nil {
			_, reader, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			c.reader = reader
		}

		n, err := c.reader.Read(p)
		if err == io.EOF {
			// Current message exhausted; move on to the next one.
			c.reader = nil
			if n > 0 {
				return n, nil
			}

			continue
		}

		return n, err
	}
}

// Write sends p as a single text message.
func (c *Conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Close closes the websocket connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
