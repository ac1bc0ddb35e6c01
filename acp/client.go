package acp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/termweave/agentlink/queue"
)

// ErrClientClosed is returned by Request (and delivered to every request
// still pending) when the transport shuts down: agent EOF, a fatal I/O
// error, or an explicit Close.
var ErrClientClosed = errors.New("acp: client closed")

// Buffer sizing for the read loop. Agents embed file contents and diffs in
// single lines, so the cap is well above bufio's default.
const (
	initialScanBuffer = 64 * 1024
	maxLineBytes      = 10 * 1024 * 1024
)

// Client is the transport half of the ACP host: it owns the agent
// subprocess's stdin and stdout, runs a single background read loop, and
// correlates responses to outstanding requests by id.
//
// Any number of goroutines may call Request, Notify, and Respond
// concurrently. Responses complete in the order the agent sends them, which
// need not match issuance order.
type Client struct {
	logger *slog.Logger

	writeMu sync.Mutex
	stdin   io.WriteCloser

	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan *Message
	closed  bool

	incoming *queue.Queue[*Message]
	taken    atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient builds a Client over the agent's pipes and starts the read loop.
// stdin is the agent's standard input (the host writes to it), stdout its
// standard output. A nil logger falls back to slog.Default.
func NewClient(stdin io.WriteCloser, stdout io.Reader, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		logger:   logger.With("component", "acp"),
		stdin:    stdin,
		pending:  make(map[uint64]chan *Message),
		incoming: queue.New[*Message](),
		done:     make(chan struct{}),
	}
	go c.readLoop(stdout)
	return c
}

// TakeIncoming hands out the stream of agent-initiated notifications and RPC
// calls. The stream has exactly one owner: the first call returns it and
// every later call returns nil. The channel closes when the transport shuts
// down.
func (c *Client) TakeIncoming() <-chan *Message {
	if c.taken.Swap(true) {
		return nil
	}
	return c.incoming.C()
}

// Request sends a method invocation and suspends the caller until the agent
// answers, ctx is done, or the transport closes. An error reported by the
// agent is returned verbatim as a *RPCError; transport teardown returns
// ErrClientClosed.
//
// There is deliberately no built-in timeout: a hung agent leaves the caller
// suspended unless ctx imposes a deadline.
func (c *Client) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	id := c.nextID.Add(1)
	slot := make(chan *Message, 1)

	// Register before writing so the read loop can never see a response
	// for an unregistered id.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.pending[id] = slot
	c.mu.Unlock()

	if err := c.write(&Message{ID: &id, Method: method, Params: raw}); err != nil {
		c.unregister(id)
		return nil, err
	}

	select {
	case resp, ok := <-slot:
		if !ok {
			return nil, ErrClientClosed
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		// A late response for this id is dropped by the read loop.
		c.unregister(id)
		return nil, ctx.Err()
	}
}

// Notify sends a method invocation with no id. No reply is expected by
// protocol convention, so Notify returns as soon as the bytes are written.
func (c *Client) Notify(method string, params any) error {
	raw, err := marshalParams(params)
	if err != nil {
		return err
	}
	return c.write(&Message{Method: method, Params: raw})
}

// Respond answers an agent-initiated RPC call previously delivered through
// TakeIncoming. Exactly one of result and rpcErr should be meaningful; when
// rpcErr is nil a nil result is sent as JSON null so the envelope still
// classifies as a response on the agent's side.
func (c *Client) Respond(id uint64, result any, rpcErr *RPCError) error {
	env := &Message{ID: &id, Error: rpcErr}
	if rpcErr == nil {
		raw, err := marshalParams(result)
		if err != nil {
			return err
		}
		if raw == nil {
			raw = json.RawMessage("null")
		}
		env.Result = raw
	}
	return c.write(env)
}

// Close tears down the transport: the agent's stdin is closed, every pending
// request fails with ErrClientClosed, and the incoming stream is closed once
// drained. Close is idempotent and safe to call concurrently with everything
// else.
func (c *Client) Close() error {
	c.teardown()
	return nil
}

// write serializes one envelope and writes it as a single line. Concurrent
// writers are serialized so lines never interleave. A write failure is fatal
// to the transport.
func (c *Client) write(m *Message) error {
	line, err := Encode(m)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	if _, err := c.stdin.Write(append(line, '\n')); err != nil {
		c.logger.Warn("write to agent failed, closing transport", "err", err)
		c.teardown()
		return ErrClientClosed
	}
	return nil
}

func (c *Client) unregister(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop runs once for the lifetime of the connection. It classifies each
// line and either completes a pending request or forwards the message to the
// incoming queue. Undecodable lines are dropped; only EOF or an I/O error
// ends the loop.
func (c *Client) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, initialScanBuffer), maxLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		msg, err := Decode(line)
		if err != nil {
			c.logger.Warn("dropping undecodable line from agent", "err", err)
			continue
		}

		if msg.IsResponse() {
			c.complete(msg)
			continue
		}
		// Notification or call: the lifecycle manager interprets these.
		c.incoming.Push(msg)
	}

	if err := scanner.Err(); err != nil {
		c.logger.Warn("reading agent stdout failed", "err", err)
	}
	c.teardown()
}

// complete routes a response to its pending slot. Responses whose id has no
// entry are dropped: this is normal after a caller gave up via ctx.
func (c *Client) complete(msg *Message) {
	if msg.ID == nil {
		c.logger.Warn("dropping response without id")
		return
	}

	c.mu.Lock()
	slot, ok := c.pending[*msg.ID]
	if ok {
		delete(c.pending, *msg.ID)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("dropping response for unknown request id", "id", *msg.ID)
		return
	}
	// Buffered; the delete above made us the sole sender.
	slot <- msg
}

// teardown is the single cleanup path, reached from Close, a fatal write
// error, or the read loop ending. Every pending slot is closed exactly once.
func (c *Client) teardown() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		c.closed = true
		for id, slot := range c.pending {
			close(slot)
			delete(c.pending, id)
		}
		c.mu.Unlock()

		_ = c.stdin.Close()
		c.incoming.Close()
	})
}
