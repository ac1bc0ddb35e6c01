package acp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClassifiesRoles(t *testing.T) {
	tests := []struct {
		name           string
		line           string
		isResponse     bool
		isNotification bool
		isCall         bool
	}{
		{
			name:       "result response",
			line:       `{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`,
			isResponse: true,
		},
		{
			name:       "error response",
			line:       `{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"Method not found"}}`,
			isResponse: true,
		},
		{
			name:           "notification",
			line:           `{"jsonrpc":"2.0","method":"session/update","params":{}}`,
			isNotification: true,
		},
		{
			name:   "call",
			line:   `{"jsonrpc":"2.0","id":3,"method":"fs/read_text_file","params":{}}`,
			isCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.line))
			require.NoError(t, err)
			assert.Equal(t, tt.isResponse, msg.IsResponse())
			assert.Equal(t, tt.isNotification, msg.IsNotification())
			assert.Equal(t, tt.isCall, msg.IsCall())
		})
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"jsonrpc":`,
		"no role fields": `{"jsonrpc":"2.0","id":7}`,
		"empty object":   `{}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(line))
			assert.Error(t, err)
		})
	}
}

func TestEncodeOmitsAbsentFields(t *testing.T) {
	line, err := Encode(&Message{Method: "session/cancel", Params: json.RawMessage(`{"sessionId":"s1"}`)})
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(line, &decoded))
	assert.Contains(t, decoded, "jsonrpc")
	assert.Contains(t, decoded, "method")
	assert.Contains(t, decoded, "params")
	assert.NotContains(t, decoded, "id")
	assert.NotContains(t, decoded, "result")
	assert.NotContains(t, decoded, "error")
}

func TestEncodeStampsVersion(t *testing.T) {
	id := uint64(9)
	line, err := Encode(&Message{ID: &id, Result: json.RawMessage(`null`)})
	require.NoError(t, err)

	var decoded struct {
		JSONRPC string `json:"jsonrpc"`
	}
	require.NoError(t, json.Unmarshal(line, &decoded))
	assert.Equal(t, Version, decoded.JSONRPC)
}

func TestRPCErrorMessage(t *testing.T) {
	err := &RPCError{Code: CodeInvalidParams, Message: "bad params"}
	assert.Equal(t, "RPC error -32602: bad params", err.Error())
}
