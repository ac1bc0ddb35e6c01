package acp

import "encoding/json"

// UpdateKind discriminates the SessionUpdate variants.
type UpdateKind int

const (
	// UpdateUnknown is the forward-compatible fallback for update types
	// this client does not recognize. It is never an error.
	UpdateUnknown UpdateKind = iota
	UpdateAgentMessageChunk
	UpdateAgentThoughtChunk
	UpdateUserMessageChunk
	UpdateToolCall
	UpdateToolCallUpdate
	UpdatePlan
	UpdateAvailableCommands
	UpdateCurrentMode
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateAgentMessageChunk:
		return "agent_message_chunk"
	case UpdateAgentThoughtChunk:
		return "agent_thought_chunk"
	case UpdateUserMessageChunk:
		return "user_message_chunk"
	case UpdateToolCall:
		return "tool_call"
	case UpdateToolCallUpdate:
		return "tool_call_update"
	case UpdatePlan:
		return "plan"
	case UpdateAvailableCommands:
		return "available_commands_update"
	case UpdateCurrentMode:
		return "current_mode_update"
	default:
		return "unknown"
	}
}

// SessionUpdate is one decoded session/update payload. Kind selects which of
// the variant fields is populated; Raw always holds the original payload.
type SessionUpdate struct {
	Kind UpdateKind

	// Text is set for the three chunk variants.
	Text string

	ToolCall       *ToolCallInfo
	ToolCallUpdate *ToolCallUpdateInfo
	Plan           []PlanEntry
	Commands       []AvailableCommand
	ModeID         string

	Raw json.RawMessage
}

// ToolCallInfo describes a tool call the agent opened.
type ToolCallInfo struct {
	ID      string
	Title   string
	Kind    string
	Status  string
	Content json.RawMessage
}

// ToolCallUpdateInfo is an incremental update to an in-progress tool call.
// Nil fields were absent from the update.
type ToolCallUpdateInfo struct {
	ID      string
	Status  *string
	Title   *string
	Content json.RawMessage
}

// PlanEntry is one step of the agent's current plan.
type PlanEntry struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

// AvailableCommand is a slash command or action the agent exposes.
type AvailableCommand struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// updateProbe is the superset of fields across all known variants; the
// sessionUpdate string selects which ones matter.
type updateProbe struct {
	SessionUpdate string             `json:"sessionUpdate"`
	Content       json.RawMessage    `json:"content"`
	ToolCallID    string             `json:"toolCallId"`
	Title         *string            `json:"title"`
	Kind          string             `json:"kind"`
	Status        *string            `json:"status"`
	Entries       []PlanEntry        `json:"entries"`
	Commands      []AvailableCommand `json:"commands"`
	ModeID        string             `json:"modeId"`
}

// ParseSessionUpdate decodes a session/update payload into its tagged
// variant. Decoding is lenient: missing fields become zero values and
// unrecognized discriminators yield UpdateUnknown, never an error.
func ParseSessionUpdate(raw json.RawMessage) SessionUpdate {
	update := SessionUpdate{Kind: UpdateUnknown, Raw: raw}

	var probe updateProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return update
	}

	switch probe.SessionUpdate {
	case "agent_message_chunk":
		update.Kind = UpdateAgentMessageChunk
		update.Text = chunkText(probe.Content)
	case "agent_thought_chunk":
		update.Kind = UpdateAgentThoughtChunk
		update.Text = chunkText(probe.Content)
	case "user_message_chunk":
		update.Kind = UpdateUserMessageChunk
		update.Text = chunkText(probe.Content)
	case "tool_call":
		info := &ToolCallInfo{
			ID:      probe.ToolCallID,
			Kind:    probe.Kind,
			Content: probe.Content,
		}
		if probe.Title != nil {
			info.Title = *probe.Title
		}
		if probe.Status != nil {
			info.Status = *probe.Status
		}
		update.Kind = UpdateToolCall
		update.ToolCall = info
	case "tool_call_update":
		update.Kind = UpdateToolCallUpdate
		update.ToolCallUpdate = &ToolCallUpdateInfo{
			ID:      probe.ToolCallID,
			Status:  probe.Status,
			Title:   probe.Title,
			Content: probe.Content,
		}
	case "plan":
		update.Kind = UpdatePlan
		update.Plan = probe.Entries
	case "available_commands_update":
		update.Kind = UpdateAvailableCommands
		update.Commands = probe.Commands
	case "current_mode_update":
		update.Kind = UpdateCurrentMode
		update.ModeID = probe.ModeID
	}
	return update
}

// chunkText extracts the text member of a chunk's content block.
func chunkText(content json.RawMessage) string {
	var block struct {
		Text string `json:"text"`
	}
	if len(content) == 0 {
		return ""
	}
	if err := json.Unmarshal(content, &block); err != nil {
		return ""
	}
	return block.Text
}
