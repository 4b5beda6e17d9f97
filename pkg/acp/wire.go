package acp

import (
	"encoding/json"
	"fmt"
)

// wireVersion is the JSON-RPC version stamped on every outbound frame.
const wireVersion = "2.0"

// message is the wire envelope for all three frame shapes. A request carries
// ID and Method, a notification carries Method alone, and a response carries
// ID with either Result or Error. The ID is kept as raw JSON so inbound
// request ids of any JSON type are echoed back byte-for-byte.
type message struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *RequestError    `json:"error,omitempty"`
}

// frameKind classifies a decoded frame. Classification looks only at which
// fields are present, never at the method string.
type frameKind int

const (
	frameInvalid frameKind = iota
	frameRequest
	frameNotification
	frameResponse
)

func (m *message) kind() frameKind {
	switch {
	case m.Method != "" && m.ID != nil:
		return frameRequest
	case m.Method != "":
		return frameNotification
	case m.ID != nil:
		return frameResponse
	default:
		return frameInvalid
	}
}

// encodeFrame serializes one message as a single line terminated by '\n'.
// encoding/json never emits raw newlines, so the frame is self-delimiting.
func encodeFrame(msg *message) ([]byte, error) {
	msg.JSONRPC = wireVersion

	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	return append(b, '\n'), nil
}

// decodeFrame parses one line into a message envelope.
func decodeFrame(line []byte) (*message, error) {
	var msg message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, err
	}

	return &msg, nil
}

// peekID makes a best-effort attempt to recover an id from a line that
// failed envelope decoding, so the peer can at least receive a parse error
// for it. Only JSON string and number ids are recognized; anything else
// returns nil and the line is dropped without a reply.
func peekID(line []byte) *json.RawMessage {
	var loose map[string]json.RawMessage
	if err := json.Unmarshal(line, &loose); err != nil {
		return nil
	}

	raw, ok := loose["id"]
	if !ok || len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return &raw
	default:
		return nil
	}
}

// requestID renders a locally assigned call id as a raw JSON number.
func requestID(id uint64) *json.RawMessage {
	raw := json.RawMessage(fmt.Sprintf("%d", id))

	return &raw
}

// parseResponseID maps an inbound response id back to a locally assigned
// call id. Locally issued ids are always JSON numbers, so anything else
// cannot match a pending call.
func parseResponseID(raw *json.RawMessage) (uint64, bool) {
	if raw == nil {
		return 0, false
	}

	var id uint64
	if err := json.Unmarshal(*raw, &id); err != nil {
		return 0, false
	}

	return id, true
}
