package acp

import "encoding/json"

// ProtocolVersion is the ACP revision this client speaks.
const ProtocolVersion = 1

// ---------------------------------------------------------------------------
// initialize
// ---------------------------------------------------------------------------

// InitializeParams is the payload of the initialize request sent to the
// agent immediately after spawning it.
type InitializeParams struct {
	ProtocolVersion    int                `json:"protocolVersion"`
	ClientCapabilities ClientCapabilities `json:"clientCapabilities"`
	ClientInfo         ClientInfo         `json:"clientInfo"`
}

// ClientCapabilities advertises what the host can do for the agent.
type ClientCapabilities struct {
	FS       FsCapabilities `json:"fs"`
	Terminal bool           `json:"terminal"`
}

// FsCapabilities lists the filesystem services the host offers. Writing is
// deliberately never advertised.
type FsCapabilities struct {
	ReadTextFile  bool `json:"readTextFile"`
	WriteTextFile bool `json:"writeTextFile"`
	ListDirectory bool `json:"listDirectory,omitempty"`
	Find          bool `json:"find,omitempty"`
}

// ClientInfo identifies the host application to the agent.
type ClientInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Version string `json:"version"`
}

// InitializeResult is the agent's half of the handshake.
type InitializeResult struct {
	ProtocolVersion   int                `json:"protocolVersion"`
	AgentCapabilities *AgentCapabilities `json:"agentCapabilities,omitempty"`
	AuthMethods       []AuthMethod       `json:"authMethods,omitempty"`
}

// AgentCapabilities describes what the agent supports.
type AgentCapabilities struct {
	LoadSession        bool                `json:"loadSession,omitempty"`
	PromptCapabilities *PromptCapabilities `json:"promptCapabilities,omitempty"`
}

// PromptCapabilities lists the content modalities accepted in prompts.
type PromptCapabilities struct {
	Audio           bool `json:"audio,omitempty"`
	EmbeddedContext bool `json:"embeddedContext,omitempty"`
	Image           bool `json:"image,omitempty"`
}

// AuthMethod is one authentication mechanism offered by the agent.
type AuthMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ---------------------------------------------------------------------------
// session lifecycle
// ---------------------------------------------------------------------------

// McpServer describes an MCP server the agent should connect to. This client
// always sends an empty list but keeps the type so hosts can extend it.
type McpServer struct {
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// SessionNewParams is the payload of session/new.
type SessionNewParams struct {
	Cwd        string      `json:"cwd"`
	McpServers []McpServer `json:"mcpServers"`
}

// SessionLoadParams is the payload of session/load for agents that support
// resuming a previous session.
type SessionLoadParams struct {
	Cwd        string      `json:"cwd"`
	SessionID  string      `json:"sessionId"`
	McpServers []McpServer `json:"mcpServers"`
}

// SessionResult is the reply to session/new and session/load.
type SessionResult struct {
	SessionID string      `json:"sessionId"`
	Modes     *ModesInfo  `json:"modes,omitempty"`
	Models    *ModelsInfo `json:"models,omitempty"`
}

// ModesInfo reports the agent's interaction modes.
type ModesInfo struct {
	AvailableModes []ModeEntry `json:"availableModes"`
	CurrentModeID  string      `json:"currentModeId"`
}

// ModeEntry is a single interaction mode.
type ModeEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ModelsInfo reports the models the agent can use.
type ModelsInfo struct {
	AvailableModels []ModelEntry `json:"availableModels"`
	CurrentModelID  string       `json:"currentModelId"`
}

// ModelEntry is a single selectable model.
type ModelEntry struct {
	ModelID     string `json:"modelId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ---------------------------------------------------------------------------
// prompting
// ---------------------------------------------------------------------------

// ContentBlock is one element of a prompt. Type discriminates the variant:
// "text" fills Text, "resource" fills Resource.
type ContentBlock struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	Resource *ResourceContent `json:"resource,omitempty"`
}

// TextBlock builds a plain-text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// ResourceBlock builds an embedded-resource content block.
func ResourceBlock(res ResourceContent) ContentBlock {
	return ContentBlock{Type: "resource", Resource: &res}
}

// ResourceContent is the payload of a resource content block.
type ResourceContent struct {
	URI      string `json:"uri"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// SessionPromptParams is the payload of session/prompt.
type SessionPromptParams struct {
	SessionID string         `json:"sessionId"`
	Prompt    []ContentBlock `json:"prompt"`
}

// SessionPromptResult resolves a prompt with the reason the turn ended,
// e.g. "end_turn" or "cancelled".
type SessionPromptResult struct {
	StopReason string `json:"stopReason,omitempty"`
}

// SessionCancelParams is the payload of the session/cancel notification.
type SessionCancelParams struct {
	SessionID string `json:"sessionId"`
}

// SessionUpdateParams is the payload of a session/update notification. The
// update itself is decoded separately by ParseSessionUpdate.
type SessionUpdateParams struct {
	SessionID string          `json:"sessionId"`
	Update    json.RawMessage `json:"update"`
}

// ---------------------------------------------------------------------------
// permission requests (agent → host)
// ---------------------------------------------------------------------------

// RequestPermissionParams is the payload of a session/request_permission
// call from the agent. ToolCall is kept raw: its shape varies by agent and
// the host only displays it.
type RequestPermissionParams struct {
	SessionID string             `json:"sessionId"`
	ToolCall  json.RawMessage    `json:"toolCall"`
	Options   []PermissionOption `json:"options"`
}

// PermissionOption is one choice the host may answer with.
type PermissionOption struct {
	OptionID string `json:"optionId"`
	Name     string `json:"name"`
	Kind     string `json:"kind,omitempty"`
}

// RequestPermissionResponse is the host's answer to a permission request.
type RequestPermissionResponse struct {
	Outcome PermissionOutcome `json:"outcome"`
}

// PermissionOutcome carries either a chosen option ("allowed" plus OptionID)
// or a "cancelled" outcome with no option.
type PermissionOutcome struct {
	Outcome  string `json:"outcome"`
	OptionID string `json:"optionId,omitempty"`
}

// ---------------------------------------------------------------------------
// filesystem calls (agent → host)
// ---------------------------------------------------------------------------

// FsReadParams is the payload of fs/read_text_file. Line is 1-based; Limit
// caps the number of lines returned.
type FsReadParams struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Line      *int   `json:"line,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
}

// FsReadResult answers fs/read_text_file.
type FsReadResult struct {
	Content string `json:"content"`
}

// FsListDirectoryParams is the payload of fs/list_directory.
type FsListDirectoryParams struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Pattern   string `json:"pattern,omitempty"`
}

// FsListDirectoryResult answers fs/list_directory. Directory names carry a
// trailing separator.
type FsListDirectoryResult struct {
	Entries []string `json:"entries"`
}

// FsFindParams is the payload of fs/find: a recursive glob search rooted at
// Path.
type FsFindParams struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Pattern   string `json:"pattern"`
}

// FsFindResult answers fs/find with paths relative to the search root.
type FsFindResult struct {
	Files []string `json:"files"`
}
