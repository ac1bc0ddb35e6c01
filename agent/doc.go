// Package agent manages the lifecycle of one ACP coding agent: spawning the
// subprocess from its launch definition, performing the initialize and
// session/new handshake, sending prompts, and servicing agent-initiated
// traffic.
//
// # Architecture
//
// An Agent sits between a host frontend and the subprocess transport
// (package acp). It exposes a small blocking API (Connect, SendPrompt,
// Cancel, RespondPermission, RespondFileRead, Disconnect) and one outbound
// stream:
//
//	ag := agent.New(def, cfg.ClientInfo(), logger)
//	go func() {
//	    for ev := range ag.Events() {
//	        // status changes, session updates, permission and
//	        // file-read requests
//	    }
//	}()
//	if err := ag.Connect(ctx, cwd); err != nil { ... }
//	stop, err := ag.SendPrompt(ctx, []acp.ContentBlock{acp.TextBlock("hi")})
//
// The event stream is unbounded on the producer side so the transport's
// read loop never blocks on a slow consumer, and has exactly one owner:
// Events returns the channel on the first call and nil afterwards.
//
// # Agent-initiated traffic
//
// A background dispatch loop serves the subprocess's calls. Directory
// listing and glob search are answered in place; permission requests and
// file reads surface as events the consumer must answer (unless
// auto-approve is on, which resolves permission requests immediately).
// Unknown methods get a method-not-found error.
package agent
