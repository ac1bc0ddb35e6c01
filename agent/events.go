package agent

import (
	"encoding/json"

	"github.com/termweave/agentlink/acp"
)

// Status is the connection state of an agent.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	// StatusError is terminal: recovering means building a new connection,
	// not retrying this one.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "invalid"
	}
}

// EventKind discriminates the Event variants.
type EventKind int

const (
	// EventStatusChanged reports a connection state transition.
	EventStatusChanged EventKind = iota
	// EventSessionUpdate carries one decoded session/update notification.
	EventSessionUpdate
	// EventPermissionRequest asks the consumer to answer a permission call.
	EventPermissionRequest
	// EventFileReadRequest asks the consumer to service a file read.
	EventFileReadRequest
)

func (k EventKind) String() string {
	switch k {
	case EventStatusChanged:
		return "status_changed"
	case EventSessionUpdate:
		return "session_update"
	case EventPermissionRequest:
		return "permission_request"
	case EventFileReadRequest:
		return "file_read_request"
	default:
		return "invalid"
	}
}

// Event is one item on the agent's outbound stream. Kind selects which of
// the variant fields is populated.
type Event struct {
	Kind EventKind

	// Status and Err accompany EventStatusChanged. Err is set only for
	// StatusError transitions.
	Status Status
	Err    string

	// Update accompanies EventSessionUpdate.
	Update *acp.SessionUpdate

	// Permission accompanies EventPermissionRequest.
	Permission *PermissionRequest

	// FileRead accompanies EventFileReadRequest.
	FileRead *FileReadRequest
}

// PermissionRequest is a pending session/request_permission call. The
// consumer must answer it with RespondPermission using the carried ID.
type PermissionRequest struct {
	ID       uint64
	ToolCall json.RawMessage
	Options  []acp.PermissionOption
}

// FileReadRequest is a pending fs/read_text_file call. The consumer must
// answer it with RespondFileRead using the carried ID.
type FileReadRequest struct {
	ID    uint64
	Path  string
	Line  *int
	Limit *int
}
