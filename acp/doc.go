// Package acp implements the host side of the Agent Client Protocol (ACP):
// a JSON-RPC 2.0 dialect spoken over the stdin/stdout of an agent subprocess,
// one JSON object per line.
//
// The package has three layers:
//   - wire types and codec (Message, RPCError, Encode/Decode)
//   - the Client transport, which multiplexes any number of outstanding
//     requests over the single ordered byte stream and forwards
//     agent-initiated notifications and RPC calls to a consumer
//   - typed parameter/result payloads for the handshake, session lifecycle,
//     prompting, and session/update notification variants
//
// The agent-facing methods sent by this client:
//   - initialize: protocol version and capability negotiation
//   - session/new, session/load: session establishment
//   - session/prompt: submit a prompt, resolves with a stop reason
//   - session/cancel: advisory cancellation (a notification)
//
// Methods received from the agent:
//   - session/update (notification): streamed progress, decoded by
//     ParseSessionUpdate
//   - session/request_permission, fs/read_text_file, fs/list_directory,
//     fs/find (RPC calls): answered via Client.Respond
package acp
