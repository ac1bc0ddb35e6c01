package acp

import (
	"encoding/json"
	"fmt"

	"github.com/termweave/agentlink/errors"
)

// Version is the JSON-RPC protocol version tag carried by every envelope.
const Version = "2.0"

// JSON-RPC 2.0 error codes used on this wire.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeHostError reports a failed host-side operation (file read, etc.)
	// back to the agent.
	CodeHostError = -32000
)

// RPCError is a JSON-RPC 2.0 error object. It is used both for
// protocol-level failures and for agent-reported errors, which are returned
// to callers verbatim.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Message is a single JSON-RPC 2.0 envelope. Its role is derived, not
// stored: a response carries a result or error, a notification has a method
// but no id, and a call has both a method and an id.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// IsResponse reports whether the envelope answers one of our requests.
func (m *Message) IsResponse() bool {
	return m.Method == "" && (len(m.Result) > 0 || m.Error != nil)
}

// IsNotification reports whether the envelope is a fire-and-forget method
// invocation from the agent.
func (m *Message) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

// IsCall reports whether the envelope is an agent-initiated RPC call that
// expects a response from the host.
func (m *Message) IsCall() bool {
	return m.Method != "" && m.ID != nil
}

// Encode serializes an envelope to a single line of text (without the
// trailing newline). Absent optional fields are never emitted.
func Encode(m *Message) ([]byte, error) {
	m.JSONRPC = Version
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize JSON-RPC message")
	}
	return data, nil
}

// Decode parses one line into an envelope. Lines that are not valid JSON, or
// that fit none of the three envelope roles, are a decode error; the read
// loop logs and drops such lines without affecting pending requests.
func Decode(line []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return nil, errors.Wrapf(err, "invalid JSON-RPC message")
	}
	if !m.IsResponse() && !m.IsNotification() && !m.IsCall() {
		return nil, errors.New("envelope is neither a response, a notification, nor a call")
	}
	return &m, nil
}

// marshalParams converts a params value to raw JSON. A nil value stays nil
// so the params member is omitted from the envelope.
func marshalParams(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize params")
	}
	return data, nil
}
