// Package acp implements the Agent Client Protocol (ACP): a bidirectional
// JSON-RPC 2.0 connection over newline-delimited JSON frames between a coding
// agent and an editor-like client.
//
// The package has two layers. The lower layer is Connection, a
// message-oriented RPC engine that owns a duplex byte stream, correlates
// requests with responses, and dispatches inbound calls to a MethodHandler
// without blocking its receive loop. The upper layer is a pair of role
// adapters, AgentSideConnection and ClientSideConnection, that bind the
// versioned agent and client method tables to typed Go interfaces.
//
// How the duplex stream is obtained is up to the caller: use os.Stdin and
// os.Stdout directly, spawn a subprocess with adapters/proc, or bridge a
// websocket with adapters/wsock.
package acp
