// Command mockagent is a scripted ACP agent used to exercise agentlink
// end to end without a real coding assistant. It answers the handshake,
// streams a canned turn for every prompt, and can optionally issue
// permission and file-read calls back to the host.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/termweave/agentlink/acp"
)

func main() {
	permissionFlag := flag.Bool("request-permission", false, "Ask the host for permission during each turn")
	readFileFlag := flag.String("read-file", "", "Ask the host to read this file during each turn")
	flag.Parse()

	s := &server{
		in:             bufio.NewReader(os.Stdin),
		out:            bufio.NewWriter(os.Stdout),
		pending:        make(map[uint64]chan *acp.Message),
		wantPermission: *permissionFlag,
		wantFile:       *readFileFlag,
	}
	if err := s.run(); err != nil && err != io.EOF {
		fmt.Fprintf(os.Stderr, "mockagent: %v\n", err)
		os.Exit(1)
	}
}

type server struct {
	in  *bufio.Reader
	out *bufio.Writer

	writeMu sync.Mutex

	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[uint64]chan *acp.Message

	sessionID string
	cancelled atomic.Bool

	wantPermission bool
	wantFile       string
}

// run is the read loop: host requests are dispatched, host responses are
// routed to whichever turn is waiting on them.
func (s *server) run() error {
	for {
		raw, err := s.in.ReadBytes('\n')
		if line := bytes.TrimSpace(raw); len(line) > 0 {
			msg, decErr := acp.Decode(line)
			if decErr != nil {
				s.writeError(nil, acp.CodeParseError, "Parse error")
			} else if msg.IsResponse() {
				s.routeResponse(msg)
			} else {
				s.dispatch(msg)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (s *server) dispatch(msg *acp.Message) {
	switch msg.Method {
	case "initialize":
		s.writeResult(msg.ID, map[string]any{
			"protocolVersion": acp.ProtocolVersion,
			"agentCapabilities": map[string]any{
				"loadSession": false,
				"promptCapabilities": map[string]bool{
					"audio":           false,
					"embeddedContext": true,
					"image":           false,
				},
			},
			"authMethods": []any{},
		})
	case "session/new":
		s.sessionID = uuid.NewString()
		s.writeResult(msg.ID, map[string]any{"sessionId": s.sessionID})
	case "session/prompt":
		// Runs on its own goroutine so cancel notifications and host
		// responses keep flowing through the read loop.
		s.cancelled.Store(false)
		go s.runTurn(msg)
	case "session/cancel":
		s.cancelled.Store(true)
	default:
		s.writeError(msg.ID, acp.CodeMethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method))
	}
}

// runTurn streams a canned sequence of session updates and resolves the
// prompt. A cancel observed along the way stops the stream early.
func (s *server) runTurn(msg *acp.Message) {
	var params acp.SessionPromptParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.writeError(msg.ID, acp.CodeInvalidParams, "invalid prompt params")
		return
	}

	userText := ""
	for _, block := range params.Prompt {
		if block.Type == "text" {
			userText += block.Text
		}
	}

	s.sendChunk("user_message_chunk", userText)
	s.sendChunk("agent_thought_chunk", "Considering the request.")
	s.sendUpdate(map[string]any{
		"sessionUpdate": "plan",
		"entries": []map[string]any{
			{"content": "inspect the workspace", "status": "pending"},
			{"content": "answer", "status": "pending"},
		},
	})

	if s.wantPermission && !s.cancelled.Load() {
		s.requestPermission()
	}
	if s.wantFile != "" && !s.cancelled.Load() {
		s.readFile(s.wantFile)
	}

	s.sendUpdate(map[string]any{
		"sessionUpdate": "tool_call",
		"toolCallId":    "call_1",
		"title":         "List files",
		"kind":          "read",
		"status":        "in_progress",
	})
	s.sendUpdate(map[string]any{
		"sessionUpdate": "tool_call_update",
		"toolCallId":    "call_1",
		"status":        "completed",
	})

	for _, chunk := range []string{"You said: ", userText} {
		if s.cancelled.Load() {
			break
		}
		s.sendChunk("agent_message_chunk", chunk)
	}

	stop := "end_turn"
	if s.cancelled.Load() {
		stop = "cancelled"
	}
	s.writeResult(msg.ID, map[string]any{"stopReason": stop})
}

// requestPermission calls the host and waits inline for its answer.
func (s *server) requestPermission() {
	resp := s.call("session/request_permission", map[string]any{
		"sessionId": s.sessionID,
		"toolCall":  map[string]any{"title": "Run a command"},
		"options": []map[string]any{
			{"optionId": "deny", "name": "Deny", "kind": "reject_once"},
			{"optionId": "allow", "name": "Allow", "kind": "allow_once"},
		},
	})
	if resp == nil || resp.Error != nil {
		s.sendChunk("agent_message_chunk", "Permission request failed.\n")
	}
}

func (s *server) readFile(path string) {
	resp := s.call("fs/read_text_file", map[string]any{
		"sessionId": s.sessionID,
		"path":      path,
	})
	if resp == nil || resp.Error != nil {
		s.sendChunk("agent_message_chunk", "File read failed.\n")
		return
	}
	var result acp.FsReadResult
	if err := json.Unmarshal(resp.Result, &result); err == nil {
		s.sendChunk("agent_message_chunk", fmt.Sprintf("Read %d bytes from %s.\n", len(result.Content), path))
	}
}

// call issues one RPC call to the host and blocks until the read loop
// routes the answer back. nil means the transport ended first.
func (s *server) call(method string, params any) *acp.Message {
	id := s.nextID.Add(1)
	slot := make(chan *acp.Message, 1)

	s.mu.Lock()
	s.pending[id] = slot
	s.mu.Unlock()

	raw, err := json.Marshal(params)
	if err != nil {
		return nil
	}
	if err := s.write(&acp.Message{ID: &id, Method: method, Params: raw}); err != nil {
		return nil
	}
	return <-slot
}

func (s *server) routeResponse(msg *acp.Message) {
	if msg.ID == nil {
		return
	}
	s.mu.Lock()
	slot, ok := s.pending[*msg.ID]
	if ok {
		delete(s.pending, *msg.ID)
	}
	s.mu.Unlock()
	if ok {
		slot <- msg
	}
}

func (s *server) sendChunk(kind, text string) {
	s.sendUpdate(map[string]any{
		"sessionUpdate": kind,
		"content":       map[string]any{"type": "text", "text": text},
	})
}

func (s *server) sendUpdate(update map[string]any) {
	params, err := json.Marshal(map[string]any{
		"sessionId": s.sessionID,
		"update":    update,
	})
	if err != nil {
		return
	}
	_ = s.write(&acp.Message{Method: "session/update", Params: params})
}

func (s *server) writeResult(id *uint64, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = s.write(&acp.Message{ID: id, Result: raw})
}

func (s *server) writeError(id *uint64, code int, message string) {
	_ = s.write(&acp.Message{ID: id, Error: &acp.RPCError{Code: code, Message: message}})
}

func (s *server) write(msg *acp.Message) error {
	line, err := acp.Encode(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(line, '\n')); err != nil {
		return err
	}
	return s.out.Flush()
}
