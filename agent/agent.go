package agent

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/termweave/agentlink/acp"
	"github.com/termweave/agentlink/config"
	"github.com/termweave/agentlink/errors"
	"github.com/termweave/agentlink/queue"
)

// Agent owns one coding agent subprocess and its ACP connection. All methods
// are safe for concurrent use; events flow to the single consumer through
// Events.
type Agent struct {
	def    config.AgentDefinition
	info   acp.ClientInfo
	logger *slog.Logger

	autoApprove atomic.Bool

	mu        sync.Mutex
	status    Status
	statusErr string
	sessionID string
	cmd       *exec.Cmd
	client    *acp.Client

	events      *queue.Queue[Event]
	eventsTaken atomic.Bool
}

// New builds a disconnected Agent for one launch definition. info is the
// identity sent in the initialize handshake. A nil logger falls back to
// slog.Default.
func New(def config.AgentDefinition, info acp.ClientInfo, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		def:    def,
		info:   info,
		logger: logger.With("component", "agent", "agent", def.Identity),
		status: StatusDisconnected,
		events: queue.New[Event](),
	}
}

// Events hands out the agent's outbound stream. It is unbounded on the
// producer side and has exactly one owner: the first call returns the
// channel and every later call returns nil, so two readers can never split
// delivery. The channel closes after Close.
func (a *Agent) Events() <-chan Event {
	if a.eventsTaken.Swap(true) {
		return nil
	}
	return a.events.C()
}

// Status returns the current connection state and, for StatusError, the
// failure description.
func (a *Agent) Status() (Status, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status, a.statusErr
}

// SessionID returns the active session id, or "" when not connected.
func (a *Agent) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// SetAutoApprove toggles automatic resolution of permission requests. It may
// be flipped at any time and applies to requests that arrive afterwards.
func (a *Agent) SetAutoApprove(on bool) {
	a.autoApprove.Store(on)
}

// Connect spawns the agent subprocess and performs the ACP handshake:
// initialize, then session/new rooted at cwd. On success the agent is
// Connected and a dispatch goroutine starts serving agent-initiated traffic.
// Any failure kills the subprocess and leaves the agent in StatusError.
func (a *Agent) Connect(ctx context.Context, cwd string) error {
	a.mu.Lock()
	if a.status != StatusDisconnected {
		status := a.status
		a.mu.Unlock()
		// StatusError is terminal: recovering takes a fresh Agent.
		return errors.New("agent '%s' cannot connect while %s", a.def.Identity, status)
	}
	a.setStatusLocked(StatusConnecting, "")
	a.mu.Unlock()

	runCmd, ok := a.def.RunCommand()
	if !ok {
		err := errors.New("agent '%s' has no run command for this platform", a.def.Identity)
		a.fail(err)
		return err
	}

	a.logger.Info("spawning agent", "command", runCmd, "cwd", cwd)

	cmd := shellCommand(runCmd)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), a.def.EnvSlice()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		a.fail(errors.Wrapf(err, "failed to open agent stdin"))
		return errors.Wrapf(err, "failed to open agent stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		a.fail(errors.Wrapf(err, "failed to open agent stdout"))
		return errors.Wrapf(err, "failed to open agent stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		a.fail(errors.Wrapf(err, "failed to open agent stderr"))
		return errors.Wrapf(err, "failed to open agent stderr")
	}

	if err := cmd.Start(); err != nil {
		wrapped := errors.Wrapf(err, "failed to start agent '%s'", a.def.Identity)
		a.fail(wrapped)
		return wrapped
	}
	go a.drainStderr(stderr)

	client := acp.NewClient(stdin, stdout, a.logger)
	incoming := client.TakeIncoming()

	if err := a.handshake(ctx, cwd, client, incoming); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		a.fail(err)
		return err
	}

	a.mu.Lock()
	a.cmd = cmd
	a.mu.Unlock()
	return nil
}

// handshake drives initialize and session/new over an established transport
// and, on success, transitions to Connected and starts the dispatch loop.
func (a *Agent) handshake(ctx context.Context, cwd string, client *acp.Client, incoming <-chan *acp.Message) error {
	initParams := acp.InitializeParams{
		ProtocolVersion: acp.ProtocolVersion,
		ClientCapabilities: acp.ClientCapabilities{
			FS: acp.FsCapabilities{
				ReadTextFile:  true,
				WriteTextFile: false,
				ListDirectory: true,
				Find:          true,
			},
		},
		ClientInfo: a.info,
	}
	rawInit, err := client.Request(ctx, "initialize", initParams)
	if err != nil {
		return errors.Wrapf(err, "initialize failed")
	}
	var initResult acp.InitializeResult
	if err := json.Unmarshal(rawInit, &initResult); err != nil {
		return errors.Wrapf(err, "invalid initialize result")
	}
	a.logger.Debug("agent initialized", "protocolVersion", initResult.ProtocolVersion)

	newParams := acp.SessionNewParams{Cwd: cwd, McpServers: []acp.McpServer{}}
	rawSession, err := client.Request(ctx, "session/new", newParams)
	if err != nil {
		return errors.Wrapf(err, "session/new failed")
	}
	var sessionResult acp.SessionResult
	if err := json.Unmarshal(rawSession, &sessionResult); err != nil {
		return errors.Wrapf(err, "invalid session/new result")
	}
	if sessionResult.SessionID == "" {
		return errors.New("agent returned an empty session id")
	}

	a.mu.Lock()
	a.client = client
	a.sessionID = sessionResult.SessionID
	a.setStatusLocked(StatusConnected, "")
	a.mu.Unlock()

	a.logger.Info("agent connected", "sessionId", sessionResult.SessionID)
	go a.dispatch(incoming)
	return nil
}

// SendPrompt submits one user turn and blocks until the agent finishes it,
// returning the stop reason ("end_turn", "cancelled", ...). Session updates
// stream as events while the call is in flight.
func (a *Agent) SendPrompt(ctx context.Context, blocks []acp.ContentBlock) (string, error) {
	client, sessionID, err := a.connection()
	if err != nil {
		return "", err
	}

	params := acp.SessionPromptParams{SessionID: sessionID, Prompt: blocks}
	raw, err := client.Request(ctx, "session/prompt", params)
	if err != nil {
		if stderrors.Is(err, acp.ErrClientClosed) {
			a.fail(errors.New("connection to agent '%s' lost", a.def.Identity))
		}
		return "", errors.Wrapf(err, "prompt failed")
	}

	var result acp.SessionPromptResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", errors.Wrapf(err, "invalid prompt result")
	}
	return result.StopReason, nil
}

// Cancel asks the agent to stop the in-flight turn. The turn's SendPrompt
// call still resolves normally, typically with stop reason "cancelled".
func (a *Agent) Cancel() error {
	client, sessionID, err := a.connection()
	if err != nil {
		return err
	}
	return client.Notify("session/cancel", acp.SessionCancelParams{SessionID: sessionID})
}

// RespondPermission answers a previously delivered PermissionRequest. With
// cancelled true the option id is ignored and a cancelled outcome is sent.
func (a *Agent) RespondPermission(id uint64, optionID string, cancelled bool) error {
	client, _, err := a.connection()
	if err != nil {
		return err
	}
	outcome := acp.PermissionOutcome{Outcome: "allowed", OptionID: optionID}
	if cancelled {
		outcome = acp.PermissionOutcome{Outcome: "cancelled"}
	}
	return client.Respond(id, acp.RequestPermissionResponse{Outcome: outcome}, nil)
}

// RespondFileRead answers a previously delivered FileReadRequest. A non-nil
// readErr reports the failure to the agent instead of content.
func (a *Agent) RespondFileRead(id uint64, content string, readErr error) error {
	client, _, err := a.connection()
	if err != nil {
		return err
	}
	if readErr != nil {
		return client.Respond(id, nil, &acp.RPCError{
			Code:    acp.CodeHostError,
			Message: readErr.Error(),
		})
	}
	return client.Respond(id, acp.FsReadResult{Content: content}, nil)
}

// Disconnect kills the subprocess, closes the transport, and returns the
// agent to StatusDisconnected. Pending requests fail with ErrClientClosed.
// Disconnect on an already disconnected agent is a no-op.
func (a *Agent) Disconnect() {
	a.mu.Lock()
	client := a.client
	cmd := a.cmd
	a.client = nil
	a.cmd = nil
	a.sessionID = ""
	changed := a.status != StatusDisconnected
	if changed {
		a.setStatusLocked(StatusDisconnected, "")
	}
	a.mu.Unlock()

	if client != nil {
		client.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	if changed {
		a.logger.Info("agent disconnected")
	}
}

// Close disconnects and closes the event stream. The agent cannot be reused
// afterwards.
func (a *Agent) Close() {
	a.Disconnect()
	a.events.Close()
}

// connection snapshots the client and session id, failing when the agent is
// not connected.
func (a *Agent) connection() (*acp.Client, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusConnected || a.client == nil {
		return nil, "", errors.New("agent '%s' is not connected", a.def.Identity)
	}
	return a.client, a.sessionID, nil
}

// fail records a terminal error state, emits the transition, and cleans up
// whatever is still held: the transport is closed and the subprocess killed
// and reaped, so a transport loss mid-conversation leaves no orphan behind.
func (a *Agent) fail(err error) {
	a.mu.Lock()
	client := a.client
	cmd := a.cmd
	a.client = nil
	a.cmd = nil
	a.sessionID = ""
	a.setStatusLocked(StatusError, err.Error())
	a.mu.Unlock()

	if client != nil {
		client.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	a.logger.Error("agent failed", "err", err)
}

// setStatusLocked mutates the state and pushes the matching event. Callers
// hold a.mu.
func (a *Agent) setStatusLocked(s Status, errMsg string) {
	a.status = s
	a.statusErr = errMsg
	a.events.Push(Event{Kind: EventStatusChanged, Status: s, Err: errMsg})
}

// drainStderr forwards the subprocess's stderr to the log so agent-side
// diagnostics are not lost.
func (a *Agent) drainStderr(stderr io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			a.logger.Debug("agent stderr", "output", string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

// shellCommand wraps a launch string in the platform shell so definitions
// can use pipes and arguments freely.
func shellCommand(runCmd string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", runCmd)
	}
	return exec.Command("sh", "-c", runCmd)
}
