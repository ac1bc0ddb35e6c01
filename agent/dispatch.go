package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/termweave/agentlink/acp"
	"github.com/termweave/agentlink/tools"
)

// dispatch consumes agent-initiated traffic for the lifetime of one
// connection. It runs on its own goroutine so servicing a call can never
// stall the transport's read loop.
func (a *Agent) dispatch(incoming <-chan *acp.Message) {
	for msg := range incoming {
		switch {
		case msg.IsNotification():
			a.handleNotification(msg)
		case msg.IsCall():
			a.handleCall(msg)
		}
	}
	a.logger.Debug("dispatch loop ended")
}

// handleNotification interprets session/update and ignores everything else.
func (a *Agent) handleNotification(msg *acp.Message) {
	if msg.Method != "session/update" {
		a.logger.Debug("ignoring notification", "method", msg.Method)
		return
	}

	var params acp.SessionUpdateParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		a.logger.Warn("dropping malformed session/update", "err", err)
		return
	}

	update := acp.ParseSessionUpdate(params.Update)
	a.events.Push(Event{Kind: EventSessionUpdate, Update: &update})
}

// handleCall answers agent-initiated RPC calls: permission requests,
// filesystem services, and a method-not-found error for everything else.
func (a *Agent) handleCall(msg *acp.Message) {
	id := *msg.ID

	switch msg.Method {
	case "session/request_permission":
		a.handlePermission(id, msg.Params)
	case "fs/read_text_file", "fs/readTextFile":
		a.handleFileRead(id, msg.Params)
	case "fs/list_directory", "fs/listDirectory":
		a.handleListDirectory(id, msg.Params)
	case "fs/find", "fs/glob":
		a.handleFind(id, msg.Params)
	default:
		a.respondError(id, acp.CodeMethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method))
	}
}

// handlePermission either auto-approves the request or forwards it to the
// consumer as an event carrying the call id.
func (a *Agent) handlePermission(id uint64, raw json.RawMessage) {
	var params acp.RequestPermissionParams
	if err := json.Unmarshal(raw, &params); err != nil {
		a.respondError(id, acp.CodeInvalidParams, "invalid permission request params")
		return
	}

	if a.autoApprove.Load() {
		optionID, ok := AutoApproveOption(params.Options)
		if ok {
			a.logger.Info("auto-approving permission request", "optionId", optionID)
			if err := a.RespondPermission(id, optionID, false); err != nil {
				a.logger.Warn("failed to auto-approve permission request", "err", err)
			}
			return
		}
		// No options at all; let the consumer decide.
	}

	a.events.Push(Event{Kind: EventPermissionRequest, Permission: &PermissionRequest{
		ID:       id,
		ToolCall: params.ToolCall,
		Options:  params.Options,
	}})
}

// AutoApproveOption picks the option an unattended host should answer with:
// the first whose kind starts with "allow", else the first option. ok is
// false when there are no options.
func AutoApproveOption(options []acp.PermissionOption) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	for _, opt := range options {
		if strings.HasPrefix(opt.Kind, "allow") {
			return opt.OptionID, true
		}
	}
	return options[0].OptionID, true
}

// handleFileRead forwards the read to the consumer; file access policy
// lives with the host, not here.
func (a *Agent) handleFileRead(id uint64, raw json.RawMessage) {
	var params acp.FsReadParams
	if err := json.Unmarshal(raw, &params); err != nil || params.Path == "" {
		a.respondError(id, acp.CodeInvalidParams, "invalid fs/read_text_file params")
		return
	}

	a.events.Push(Event{Kind: EventFileReadRequest, FileRead: &FileReadRequest{
		ID:    id,
		Path:  params.Path,
		Line:  params.Line,
		Limit: params.Limit,
	}})
}

// handleListDirectory services the call inline; it needs no consumer input.
func (a *Agent) handleListDirectory(id uint64, raw json.RawMessage) {
	var params acp.FsListDirectoryParams
	if err := json.Unmarshal(raw, &params); err != nil || params.Path == "" {
		a.respondError(id, acp.CodeInvalidParams, "invalid fs/list_directory params")
		return
	}

	entries, err := tools.ListDirectory(params.Path, params.Pattern)
	if err != nil {
		a.respondError(id, acp.CodeHostError, err.Error())
		return
	}
	a.respond(id, acp.FsListDirectoryResult{Entries: entries})
}

// handleFind services the call inline via glob search.
func (a *Agent) handleFind(id uint64, raw json.RawMessage) {
	var params acp.FsFindParams
	if err := json.Unmarshal(raw, &params); err != nil || params.Path == "" || params.Pattern == "" {
		a.respondError(id, acp.CodeInvalidParams, "invalid fs/find params")
		return
	}

	files, err := tools.Find(params.Path, params.Pattern)
	if err != nil {
		a.respondError(id, acp.CodeHostError, err.Error())
		return
	}
	a.respond(id, acp.FsFindResult{Files: files})
}

func (a *Agent) respond(id uint64, result any) {
	client, _, err := a.connection()
	if err != nil {
		return
	}
	if err := client.Respond(id, result, nil); err != nil {
		a.logger.Warn("failed to answer agent call", "id", id, "err", err)
	}
}

func (a *Agent) respondError(id uint64, code int, message string) {
	client, _, err := a.connection()
	if err != nil {
		return
	}
	rpcErr := &acp.RPCError{Code: code, Message: message}
	if err := client.Respond(id, nil, rpcErr); err != nil {
		a.logger.Warn("failed to answer agent call", "id", id, "err", err)
	}
}
