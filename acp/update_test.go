package acp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionUpdateChunks(t *testing.T) {
	tests := []struct {
		discriminator string
		kind          UpdateKind
	}{
		{"agent_message_chunk", UpdateAgentMessageChunk},
		{"agent_thought_chunk", UpdateAgentThoughtChunk},
		{"user_message_chunk", UpdateUserMessageChunk},
	}
	for _, tt := range tests {
		t.Run(tt.discriminator, func(t *testing.T) {
			raw := json.RawMessage(`{"sessionUpdate":"` + tt.discriminator + `","content":{"type":"text","text":"hello"}}`)
			update := ParseSessionUpdate(raw)
			assert.Equal(t, tt.kind, update.Kind)
			assert.Equal(t, "hello", update.Text)
		})
	}
}

func TestParseSessionUpdateToolCall(t *testing.T) {
	raw := json.RawMessage(`{
		"sessionUpdate": "tool_call",
		"toolCallId": "call_1",
		"title": "Read main.go",
		"kind": "read",
		"status": "in_progress"
	}`)
	update := ParseSessionUpdate(raw)
	require.Equal(t, UpdateToolCall, update.Kind)
	require.NotNil(t, update.ToolCall)
	assert.Equal(t, "call_1", update.ToolCall.ID)
	assert.Equal(t, "Read main.go", update.ToolCall.Title)
	assert.Equal(t, "read", update.ToolCall.Kind)
	assert.Equal(t, "in_progress", update.ToolCall.Status)
}

func TestParseSessionUpdateToolCallUpdate(t *testing.T) {
	raw := json.RawMessage(`{"sessionUpdate":"tool_call_update","toolCallId":"call_1","status":"completed"}`)
	update := ParseSessionUpdate(raw)
	require.Equal(t, UpdateToolCallUpdate, update.Kind)
	require.NotNil(t, update.ToolCallUpdate)
	assert.Equal(t, "call_1", update.ToolCallUpdate.ID)
	require.NotNil(t, update.ToolCallUpdate.Status)
	assert.Equal(t, "completed", *update.ToolCallUpdate.Status)
	assert.Nil(t, update.ToolCallUpdate.Title, "absent fields stay nil")
}

func TestParseSessionUpdatePlan(t *testing.T) {
	raw := json.RawMessage(`{
		"sessionUpdate": "plan",
		"entries": [
			{"content": "read the code", "status": "completed"},
			{"content": "write the fix", "status": "pending"}
		]
	}`)
	update := ParseSessionUpdate(raw)
	require.Equal(t, UpdatePlan, update.Kind)
	require.Len(t, update.Plan, 2)
	assert.Equal(t, "read the code", update.Plan[0].Content)
	assert.Equal(t, "pending", update.Plan[1].Status)
}

func TestParseSessionUpdateAvailableCommands(t *testing.T) {
	raw := json.RawMessage(`{
		"sessionUpdate": "available_commands_update",
		"commands": [{"name": "web", "description": "Search the web"}]
	}`)
	update := ParseSessionUpdate(raw)
	require.Equal(t, UpdateAvailableCommands, update.Kind)
	require.Len(t, update.Commands, 1)
	assert.Equal(t, "web", update.Commands[0].Name)
}

func TestParseSessionUpdateCurrentMode(t *testing.T) {
	raw := json.RawMessage(`{"sessionUpdate":"current_mode_update","modeId":"architect"}`)
	update := ParseSessionUpdate(raw)
	require.Equal(t, UpdateCurrentMode, update.Kind)
	assert.Equal(t, "architect", update.ModeID)
}

func TestParseSessionUpdateUnknownIsNotAnError(t *testing.T) {
	raw := json.RawMessage(`{"sessionUpdate":"diff_preview","anything":42}`)
	update := ParseSessionUpdate(raw)
	assert.Equal(t, UpdateUnknown, update.Kind)
	assert.JSONEq(t, string(raw), string(update.Raw))
}

func TestParseSessionUpdateGarbageIsUnknown(t *testing.T) {
	update := ParseSessionUpdate(json.RawMessage(`[1,2,3]`))
	assert.Equal(t, UpdateUnknown, update.Kind)
}
