package main

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/termweave/agentlink/acp"
)

// newRunningServer wires a server to in-memory pipes and starts its read
// loop, returning the host's ends of the wire.
func newRunningServer(t *testing.T) (*bufio.Scanner, *io.PipeWriter) {
	t.Helper()

	hostToAgentR, hostToAgentW := io.Pipe()
	agentToHostR, agentToHostW := io.Pipe()

	s := &server{
		in:      bufio.NewReader(hostToAgentR),
		out:     bufio.NewWriter(agentToHostW),
		pending: make(map[uint64]chan *acp.Message),
	}
	go func() { _ = s.run() }()
	t.Cleanup(func() { hostToAgentW.Close() })

	return bufio.NewScanner(agentToHostR), hostToAgentW
}

func readMessage(t *testing.T, in *bufio.Scanner) *acp.Message {
	t.Helper()

	lines := make(chan []byte, 1)
	go func() {
		if in.Scan() {
			lines <- append([]byte(nil), in.Bytes()...)
		}
		close(lines)
	}()

	select {
	case line, ok := <-lines:
		require.True(t, ok, "expected a line from the agent")
		msg, err := acp.Decode(line)
		require.NoError(t, err)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for agent output")
		return nil
	}
}

func send(t *testing.T, out *io.PipeWriter, line string) {
	t.Helper()
	_, err := out.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func TestHandshakeAndPromptTurn(t *testing.T) {
	in, out := newRunningServer(t)

	send(t, out, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":1}}`)
	resp := readMessage(t, in)
	require.NotNil(t, resp.ID)
	assert.Equal(t, uint64(1), *resp.ID)
	require.Nil(t, resp.Error)

	send(t, out, `{"jsonrpc":"2.0","id":2,"method":"session/new","params":{"cwd":"/work","mcpServers":[]}}`)
	resp = readMessage(t, in)
	require.Nil(t, resp.Error)
	assert.Contains(t, string(resp.Result), "sessionId")

	send(t, out, `{"jsonrpc":"2.0","id":3,"method":"session/prompt","params":{"sessionId":"x","prompt":[{"type":"text","text":"hello"}]}}`)

	// The turn streams session/update notifications and ends with the
	// prompt response.
	sawMessageChunk := false
	for {
		msg := readMessage(t, in)
		if msg.IsNotification() {
			assert.Equal(t, "session/update", msg.Method)
			update := acp.ParseSessionUpdate(extractUpdate(t, msg))
			if update.Kind == acp.UpdateAgentMessageChunk {
				sawMessageChunk = true
			}
			continue
		}
		require.True(t, msg.IsResponse())
		require.NotNil(t, msg.ID)
		assert.Equal(t, uint64(3), *msg.ID)
		assert.Contains(t, string(msg.Result), "end_turn")
		break
	}
	assert.True(t, sawMessageChunk, "turn should stream agent message chunks")
}

func TestUnknownMethodAnswered(t *testing.T) {
	in, out := newRunningServer(t)

	send(t, out, `{"jsonrpc":"2.0","id":5,"method":"session/no_such_thing","params":{}}`)
	resp := readMessage(t, in)
	require.NotNil(t, resp.Error)
	assert.Equal(t, acp.CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "Method not found: session/no_such_thing", resp.Error.Message)
}

func extractUpdate(t *testing.T, msg *acp.Message) []byte {
	t.Helper()
	var params acp.SessionUpdateParams
	require.NoError(t, json.Unmarshal(msg.Params, &params))
	return params.Update
}
