// Package mcp implements the MCP-compatible HTTP surface of the gateway over
// the SSE transport.
//
// A client opens GET /sse, which creates a session and immediately sends an
// "endpoint" frame naming the message URL with the session's ID. The client
// then POSTs JSON-RPC 2.0 messages to /message?sessionId=<id>; each POST is
// acknowledged with 202 and the response frame is pushed on the stream as a
// "message" event. POSTs addressed to an unknown session are rejected with
// HTTP 400 before any handler runs. When the stream disconnects the session
// closes and late responses for it are silently discarded.
//
// Supported methods: initialize, ping, tools/list, and tools/call. Tool
// invocations run synchronously; their result envelope is returned as text
// content with isError reflecting the envelope's ok flag.
package mcp
